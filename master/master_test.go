package master

import (
	"context"
	"errors"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/fmuadapter/adapter"
	"github.com/sarchlab/fmuadapter/buffer"
	"github.com/sarchlab/fmuadapter/fmi"
	"github.com/sarchlab/fmuadapter/model"
	"github.com/sarchlab/fmuadapter/model/watertank"
	"github.com/sarchlab/fmuadapter/modeldesc"
	"github.com/sarchlab/fmuadapter/sim"
)

func quietCallbacks() fmi.CallbackFunctions {
	return fmi.NewLogCallbacks(log.New(GinkgoWriter, "", 0))
}

func identity(name string) *adapter.Adapter {
	table, err := modeldesc.Assign([]modeldesc.Signal{
		{Name: "in_x", Type: modeldesc.TypeReal,
			Causality: modeldesc.CausalityInput},
		{Name: "out_x", Type: modeldesc.TypeReal,
			Causality: modeldesc.CausalityOutput},
	}, buffer.DefaultCapacities())
	Expect(err).NotTo(HaveOccurred())

	a, err := adapter.MakeBuilder().
		WithCallbacks(quietCallbacks()).
		WithSignalTable(table).
		WithModel(model.NewPassThrough(table)).
		Build(name)
	Expect(err).NotTo(HaveOccurred())

	return a
}

func ep(slave, signal string) Endpoint {
	return Endpoint{Slave: slave, Signal: signal}
}

type failingSlave struct {
	*adapter.Adapter
	failAt int
	steps  int
}

func (s *failingSlave) DoStep(current, stepSize fmi.Real) fmi.Status {
	s.steps++
	if s.steps == s.failAt {
		return fmi.Error
	}

	return s.Adapter.DoStep(current, stepSize)
}

type refusingSlave struct {
	*adapter.Adapter
	refuse bool
}

func (s *refusingSlave) SystemInit() error {
	if s.refuse {
		return errors.New("no license")
	}

	return s.Adapter.SystemInit()
}

var _ = Describe("Endpoint", func() {
	It("should parse slave.signal", func() {
		e, err := ParseEndpoint("tank.level")

		Expect(err).NotTo(HaveOccurred())
		Expect(e).To(Equal(ep("tank", "level")))
		Expect(e.String()).To(Equal("tank.level"))
	})

	It("should split at the first dot", func() {
		e, err := ParseEndpoint("tank.sensor.level")

		Expect(err).NotTo(HaveOccurred())
		Expect(e.Signal).To(Equal("sensor.level"))
	})

	DescribeTable("rejecting malformed endpoints",
		func(s string) {
			_, err := ParseEndpoint(s)
			Expect(err).To(HaveOccurred())
		},
		Entry("no dot", "tank"),
		Entry("no slave", ".level"),
		Entry("no signal", "tank."),
	)
})

var _ = Describe("Master", func() {
	It("should reject invalid connections", func() {
		a := identity("a")
		b := identity("b")

		for _, c := range []Connection{
			{From: ep("a", "out_x"), To: ep("c", "in_x")},
			{From: ep("a", "in_x"), To: ep("b", "in_x")},
			{From: ep("a", "out_x"), To: ep("b", "out_x")},
			{From: ep("a", "nope"), To: ep("b", "in_x")},
		} {
			_, err := MakeBuilder().
				WithSlave(a).WithSlave(b).
				WithConnection(c).
				Build()
			Expect(err).To(HaveOccurred(), "%s -> %s", c.From, c.To)
		}
	})

	It("should reject duplicate slaves and bad step sizes", func() {
		_, err := MakeBuilder().
			WithSlave(identity("a")).WithSlave(identity("a")).
			Build()
		Expect(err).To(HaveOccurred())

		_, err = MakeBuilder().WithStepSize(0).Build()
		Expect(err).To(MatchError(fmi.ErrInvalidStepSize))
	})

	It("should propagate values along a chain", func() {
		a := identity("a")
		b := identity("b")

		m, err := MakeBuilder().
			WithStopTime(0.3).
			WithStepSize(0.1).
			WithSlave(a).WithSlave(b).
			WithConnection(Connection{From: ep("a", "out_x"),
				To: ep("b", "in_x")}).
			Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(m.NumSteps()).To(Equal(3))

		Expect(m.Initialize()).To(Succeed())
		Expect(a.SetReal([]fmi.ValueReference{0}, []fmi.Real{3})).
			To(Succeed())

		Expect(m.Step()).To(Succeed())
		Expect(a.GetReal(1)).To(Equal([]fmi.Real{3}))
		Expect(b.GetReal(0)).To(Equal([]fmi.Real{3}))
		Expect(b.GetReal(1)).To(Equal([]fmi.Real{0}))

		Expect(m.Step()).To(Succeed())
		Expect(b.GetReal(1)).To(Equal([]fmi.Real{3}))

		Expect(m.Step()).To(Succeed())
		Expect(m.Done()).To(BeTrue())
		Expect(float64(m.Time())).To(BeNumerically("~", 0.3, 1e-9))

		Expect(m.Terminate()).To(Succeed())
		Expect(a.State()).To(Equal(adapter.StateInstantiated))
	})

	It("should stop at the first failed step", func() {
		a := &failingSlave{Adapter: identity("a"), failAt: 2}
		b := identity("b")

		m, err := MakeBuilder().
			WithStopTime(1).
			WithStepSize(0.1).
			WithSlave(a).WithSlave(b).
			Build()
		Expect(err).NotTo(HaveOccurred())

		var reached []sim.VTimeInSec
		m.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			reached = append(reached, b.Time())
		}))

		err = m.Run(context.Background())

		Expect(err).To(MatchError(ErrStepFailed))
		Expect(err.Error()).To(ContainSubstring("fmi2Error"))
		Expect(reached).To(HaveLen(1))
		Expect(float64(reached[0])).To(BeNumerically("~", 0.1, 1e-9))
		Expect(float64(m.Time())).To(BeNumerically("~", 0.1, 1e-9))
		Expect(b.State()).To(Equal(adapter.StateInstantiated))
	})

	It("should terminate the initialized slaves when one fails to init", func() {
		good := identity("good")
		bad := &refusingSlave{Adapter: identity("bad"), refuse: true}

		m, err := MakeBuilder().
			WithStopTime(1).
			WithStepSize(0.1).
			WithSlave(good).WithSlave(bad).
			Build()
		Expect(err).NotTo(HaveOccurred())

		err = m.Run(context.Background())

		Expect(err).To(MatchError(ContainSubstring("no license")))
		Expect(err.Error()).To(HavePrefix("bad: "))
		Expect(good.State()).To(Equal(adapter.StateInstantiated))
		Expect(bad.State()).To(Equal(adapter.StateInstantiated))

		bad.refuse = false
		Expect(m.Run(context.Background())).To(Succeed())
		Expect(float64(m.Time())).To(BeNumerically("~", 1, 1e-9))
	})

	It("should not step before initialization", func() {
		m, err := MakeBuilder().WithSlave(identity("a")).Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(m.Step()).To(MatchError(fmi.ErrUninitializedModel))
	})

	It("should stop when the context is cancelled", func() {
		m, err := MakeBuilder().WithSlave(identity("a")).Build()
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		steps := 0
		m.AcceptHook(sim.HookFunc(func(hctx sim.HookCtx) {
			steps++
			if steps == 5 {
				cancel()
			}
		}))

		Expect(m.Run(ctx)).To(MatchError(context.Canceled))
		Expect(float64(m.Time())).To(BeNumerically("~", 0.05, 1e-9))
	})
})

var _ = Describe("Water tank co-simulation", func() {
	It("should keep the level between the thresholds", func() {
		threads, err := watertank.ControllerThreads(0.01)
		Expect(err).NotTo(HaveOccurred())

		controllerModel := watertank.NewController()
		controller, err := adapter.MakeBuilder().
			WithCallbacks(quietCallbacks()).
			WithSignals(watertank.ControllerSignals()).
			WithThreads(threads).
			WithModel(controllerModel).
			Build("controller")
		Expect(err).NotTo(HaveOccurred())

		tankModel := watertank.NewTank(1.0)
		tank, err := adapter.MakeBuilder().
			WithCallbacks(quietCallbacks()).
			WithSignals(watertank.TankSignals()).
			WithModel(tankModel).
			Build("tank")
		Expect(err).NotTo(HaveOccurred())

		m, err := MakeBuilder().
			WithStopTime(10).
			WithStepSize(0.05).
			WithSlave(controller).
			WithSlave(tank).
			WithConnection(Connection{
				From: ep("tank", watertank.Level),
				To:   ep("controller", watertank.Level),
			}).
			WithConnection(Connection{
				From: ep("controller", watertank.Valve),
				To:   ep("tank", watertank.Valve),
			}).
			Build()
		Expect(err).NotTo(HaveOccurred())

		low, high := 10.0, 0.0
		m.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			level := tankModel.Level()
			if level < low {
				low = level
			}
			if level > high {
				high = level
			}
		}))

		Expect(m.Run(context.Background())).To(Succeed())

		Expect(controllerModel.Switches()).To(BeNumerically(">=", 6))
		Expect(high).To(BeNumerically("<", 2.2))
		Expect(low).To(BeNumerically(">", 0.8))
	})
})
