package timing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("EventQueueImpl", func() {
	It("should pop in time order", func() {
		q := NewEventQueue()
		q.Push(NewEventBase(30, nil))
		q.Push(NewEventBase(10, nil))
		q.Push(NewEventBase(20, nil))

		Expect(q.Len()).To(Equal(3))
		Expect(q.Peek().Time()).To(BeEquivalentTo(10))
		Expect(q.Pop().Time()).To(BeEquivalentTo(10))
		Expect(q.Pop().Time()).To(BeEquivalentTo(20))
		Expect(q.Pop().Time()).To(BeEquivalentTo(30))
		Expect(q.Len()).To(Equal(0))
	})

	It("should keep push order among equal times", func() {
		q := NewEventQueue()
		a := NewEventBase(5, nil)
		b := NewEventBase(5, nil)
		c := NewEventBase(5, nil)
		q.Push(a)
		q.Push(b)
		q.Push(c)

		Expect(q.Pop()).To(BeIdenticalTo(a))
		Expect(q.Pop()).To(BeIdenticalTo(b))
		Expect(q.Pop()).To(BeIdenticalTo(c))
	})
})
