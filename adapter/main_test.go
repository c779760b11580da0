package adapter

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/fmuadapter/fmi"
	"github.com/sarchlab/fmuadapter/model/watertank"
	"github.com/sarchlab/fmuadapter/modeldesc"
	"github.com/sarchlab/fmuadapter/sim"
	"go.uber.org/mock/gomock"
)

var _ = Describe("SystemMain", func() {
	var (
		mockCtrl  *gomock.Controller
		callbacks *MockCallbackFunctions
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		callbacks = NewMockCallbackFunctions(mockCtrl)
		callbacks.EXPECT().
			Logger(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			AnyTimes()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	controllerBuilder := func() Builder {
		threads, err := watertank.ControllerThreads(0.1)
		Expect(err).NotTo(HaveOccurred())

		return MakeBuilder().
			WithCallbacks(callbacks).
			WithSignals(watertank.ControllerSignals()).
			WithThreads(threads).
			WithModel(watertank.NewController()).
			WithMainStepSize(0.1)
	}

	It("should run until the stop time", func() {
		a, err := controllerBuilder().WithStopTime(0.5).Build("controller")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.SystemInit()).To(Succeed())

		Expect(a.SystemMain(context.Background())).To(Succeed())

		Expect(a.Time()).To(BeNumerically("~", 0.5, 1e-9))
		Expect(a.State()).To(Equal(StateInitialized))
		Expect(a.Threads()[0].LastExecuted).To(Equal(int64(4)))
	})

	It("should clip the last step at the stop time", func() {
		a, err := controllerBuilder().
			WithMainStepSize(0.2).
			WithStopTime(0.5).
			Build("controller")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.SystemInit()).To(Succeed())

		var steps []sim.VTimeInSec
		a.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			if ctx.Pos == HookPosStepEnd {
				steps = append(steps, ctx.Item.(StepInfo).StepSize)
			}
		}))

		Expect(a.SystemMain(context.Background())).To(Succeed())

		Expect(steps).To(HaveLen(3))
		Expect(float64(steps[2])).To(BeNumerically("~", 0.1, 1e-9))
	})

	It("should stop when the context is cancelled", func() {
		a, err := controllerBuilder().Build("controller")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.SystemInit()).To(Succeed())

		ctx, cancel := context.WithCancel(context.Background())
		count := 0
		a.AcceptHook(sim.HookFunc(func(hctx sim.HookCtx) {
			if hctx.Pos != HookPosStepEnd {
				return
			}

			count++
			if count == 3 {
				cancel()
			}
		}))

		Expect(a.SystemMain(ctx)).To(MatchError(context.Canceled))
		Expect(a.Time()).To(BeNumerically("~", 0.3, 1e-9))
	})

	It("should reject stepping while running", func() {
		a, err := controllerBuilder().
			WithMainStepSize(0.01).
			WithRealTime().
			Build("controller")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.SystemInit()).To(Succeed())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error)
		go func() {
			done <- a.SystemMain(ctx)
		}()

		Eventually(a.State).Should(Equal(StateRunning))

		Expect(a.VdmStep(fmi.Real(a.Time()), 0.1)).
			To(MatchError(fmi.ErrLifecycleViolation))
		Expect(a.SystemMain(ctx)).To(MatchError(fmi.ErrLifecycleViolation))
		Expect(a.Terminate()).To(MatchError(fmi.ErrLifecycleViolation))

		cancel()
		Eventually(done).Should(Receive(MatchError(context.Canceled)))
		Expect(a.State()).To(Equal(StateInitialized))

		now := fmi.Real(a.Time())
		Expect(a.VdmStep(now, 0.01)).To(Succeed())
	})

	It("should follow the wall clock", func() {
		a, err := controllerBuilder().
			WithMainStepSize(0.01).
			WithStopTime(0.05).
			WithRealTime().
			Build("controller")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.SystemInit()).To(Succeed())

		start := time.Now()
		Expect(a.SystemMain(context.Background())).To(Succeed())

		Expect(time.Since(start)).To(BeNumerically(">=", 45*time.Millisecond))
	})

	It("should need an initialized model", func() {
		a, err := controllerBuilder().Build("controller")
		Expect(err).NotTo(HaveOccurred())

		Expect(a.SystemMain(context.Background())).
			To(MatchError(fmi.ErrUninitializedModel))
	})

	It("should read the thresholds from the buffer", func() {
		a, err := controllerBuilder().WithStopTime(0.2).Build("controller")
		Expect(err).NotTo(HaveOccurred())

		level, _ := a.Table().ByName(watertank.Level)
		valve, _ := a.Table().ByName(watertank.Valve)
		Expect(valve.Causality).To(Equal(modeldesc.CausalityOutput))

		Expect(a.SystemInit()).To(Succeed())
		Expect(a.SetReal([]fmi.ValueReference{level.ValueReference},
			[]fmi.Real{2.5})).To(Succeed())

		Expect(a.SystemMain(context.Background())).To(Succeed())

		Expect(a.GetBoolean(valve.ValueReference)).
			To(Equal([]fmi.Boolean{true}))
	})
})
