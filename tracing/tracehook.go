package tracing

import (
	"github.com/sarchlab/fmuadapter/adapter"
	"github.com/sarchlab/fmuadapter/buffer"
	"github.com/sarchlab/fmuadapter/sim"
	"github.com/sarchlab/fmuadapter/thread"
)

// Traceable is an object that reports its steps and owns the engine that runs
// its threads. An *adapter.Adapter is Traceable.
type Traceable interface {
	sim.Hookable
	Name() string
	Engine() sim.Engine
}

// CollectTrace lets the tracer observe the steps of the domain and the
// firings of its threads.
func CollectTrace(domain Traceable, tracer Tracer) {
	h := &traceHook{
		domain: domain,
		tracer: tracer,
	}

	domain.AcceptHook(h)
	domain.Engine().AcceptHook(h)
}

type traceHook struct {
	domain Traceable
	tracer Tracer
}

// Func forwards the hook to the tracer.
func (h *traceHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case adapter.HookPosStepStart:
		h.tracer.StartStep(h.step(ctx))
	case adapter.HookPosStepEnd:
		step := h.step(ctx)
		step.Values, _ = ctx.Detail.(buffer.Frame)
		h.tracer.EndStep(step)
	case sim.HookPosAfterEvent:
		h.fire(ctx)
	}
}

func (h *traceHook) step(ctx sim.HookCtx) Step {
	info := ctx.Item.(adapter.StepInfo)

	return Step{
		Instance: h.domain.Name(),
		Time:     info.Time,
		StepSize: info.StepSize,
	}
}

func (h *traceHook) fire(ctx sim.HookCtx) {
	evt, ok := ctx.Item.(sim.Event)
	if !ok {
		return
	}

	status, ok := thread.Status(evt.Handler())
	if !ok {
		return
	}

	firing := Firing{
		Instance: h.domain.Name(),
		Thread:   status,
		Count:    status.LastExecuted,
		Time:     evt.Time(),
	}

	if tick, ok := evt.(sim.TickEvent); ok {
		firing.Count = tick.Count
	}

	if err, ok := ctx.Detail.(error); ok {
		firing.Err = err
	}

	h.tracer.Fire(firing)
}
