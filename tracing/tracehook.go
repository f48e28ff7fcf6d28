package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/korfield/cluster"
	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/hooking"
	"github.com/sarchlab/korfield/module"
)

// Collect lets the tracer observe a domain. Attaching the same tracer to a
// domain twice panics.
func Collect(domain hooking.Hookable, tracer Tracer) {
	for _, hook := range domain.Hooks() {
		h, ok := hook.(*traceHook)
		if ok && h.t == tracer {
			panic(fmt.Sprintf("domain already has tracer %s",
				reflect.TypeOf(tracer)))
		}
	}

	domain.AcceptHook(&traceHook{t: tracer})
}

// CollectCluster attaches the tracer to every module and to the collector.
func CollectCluster(c *cluster.Cluster, tracer Tracer) {
	for _, m := range c.Modules() {
		Collect(m, tracer)
	}

	Collect(c.Collector(), tracer)
}

type traceHook struct {
	t Tracer
}

func (h *traceHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case module.HookPosTick:
		h.t.Tick(ctx.Domain.(*module.Module), ctx.Detail.(module.TickDetail))
	case module.HookPosStateChange:
		h.t.StateChange(ctx.Domain.(*module.Module),
			ctx.Detail.(module.StateChange))
	case module.HookPosTaskRun:
		h.t.TaskRun(ctx.Domain.(*module.Module), ctx.Item.(*module.Task),
			ctx.Detail.(core.TimeUs))
	case module.HookPosNeighborLost:
		h.t.NeighborLost(ctx.Domain.(*module.Module),
			ctx.Detail.(core.ModuleID))
	case cluster.HookPosGC:
		h.t.GC(ctx.Detail.(cluster.GCDetail))
	}
}
