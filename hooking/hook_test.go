package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("HookableBase", func() {
	var (
		mockCtrl *gomock.Controller
		base     *HookableBase
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		base = &HookableBase{}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should invoke hooks in order", func() {
		first := NewMockHook(mockCtrl)
		second := NewMockHook(mockCtrl)
		base.AcceptHook(first)
		base.AcceptHook(second)

		ctx := HookCtx{Pos: &HookPos{Name: "Tick"}}
		gomock.InOrder(
			first.EXPECT().Func(ctx),
			second.EXPECT().Func(ctx),
		)

		base.InvokeHook(ctx)

		Expect(base.NumHooks()).To(Equal(2))
	})

	It("should panic on duplicated hooks", func() {
		hook := NewMockHook(mockCtrl)
		base.AcceptHook(hook)

		Expect(func() { base.AcceptHook(hook) }).To(Panic())
	})

	It("should accept plain functions", func() {
		var seen []string
		base.AcceptHook(HookFunc(func(ctx HookCtx) {
			seen = append(seen, ctx.Pos.Name)
		}))

		base.InvokeHook(HookCtx{Pos: &HookPos{Name: "A"}})
		base.InvokeHook(HookCtx{Pos: &HookPos{Name: "B"}})

		Expect(seen).To(Equal([]string{"A", "B"}))
	})
})
