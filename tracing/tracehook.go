package tracing

import "github.com/sarchlab/rvwalk/sim"

// CollectTrace makes the tracer hear about the tasks of a domain.
func CollectTrace(domain NamedHookable, tracer Tracer) {
	domain.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
		task, ok := ctx.Item.(Task)
		if !ok {
			return
		}

		switch ctx.Pos {
		case HookPosTaskStart:
			tracer.StartTask(task)
		case HookPosTaskStep:
			tracer.StepTask(task)
		case HookPosTaskEnd:
			tracer.EndTask(task)
		}
	}))
}
