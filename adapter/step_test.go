package adapter

import (
	"errors"
	"fmt"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/fmuadapter/fmi"
	"github.com/sarchlab/fmuadapter/model"
	"github.com/sarchlab/fmuadapter/sim"
	"github.com/sarchlab/fmuadapter/thread"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Stepping the identity model", func() {
	var (
		mockCtrl  *gomock.Controller
		callbacks *MockCallbackFunctions
		a         *Adapter
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		callbacks = NewMockCallbackFunctions(mockCtrl)
		callbacks.EXPECT().
			Logger("identity", gomock.Any(), gomock.Any(), gomock.Any()).
			AnyTimes()

		var err error
		a, err = identityBuilder(callbacks).
			WithStopTime(10).
			Build("identity")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.SystemInit()).To(Succeed())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	setInputs := func(x fmi.Real, n fmi.Integer, b fmi.Boolean) {
		Expect(a.SetReal([]fmi.ValueReference{vrInX}, []fmi.Real{x})).
			To(Succeed())
		Expect(a.SetInteger([]fmi.ValueReference{vrInN}, []fmi.Integer{n})).
			To(Succeed())
		Expect(a.SetBoolean([]fmi.ValueReference{vrInB}, []fmi.Boolean{b})).
			To(Succeed())
	}

	expectOutputs := func(x fmi.Real, n fmi.Integer, b fmi.Boolean) {
		reals, err := a.GetReal(vrOutX)
		Expect(err).NotTo(HaveOccurred())
		Expect(reals).To(Equal([]fmi.Real{x}))

		ints, err := a.GetInteger(vrOutN)
		Expect(err).NotTo(HaveOccurred())
		Expect(ints).To(Equal([]fmi.Integer{n}))

		bools, err := a.GetBoolean(vrOutB)
		Expect(err).NotTo(HaveOccurred())
		Expect(bools).To(Equal([]fmi.Boolean{b}))
	}

	It("should reflect the inputs after one step", func() {
		setInputs(3.5, 42, true)

		Expect(a.VdmStep(0, 0.1)).To(Succeed())

		expectOutputs(3.5, 42, true)
		Expect(a.Time()).To(BeNumerically("~", 0.1, 1e-12))
	})

	It("should not touch the outputs on a zero step", func() {
		setInputs(1, 2, true)
		Expect(a.VdmStep(0, 0.1)).To(Succeed())

		setInputs(9, 9, false)
		Expect(a.VdmStep(0.1, 0)).To(Succeed())

		expectOutputs(1, 2, true)
		Expect(a.Time()).To(BeNumerically("~", 0.1, 1e-12))
	})

	DescribeTable("rejecting invalid step sizes without changing state",
		func(h fmi.Real) {
			setInputs(1, 2, true)
			Expect(a.VdmStep(0, 0.1)).To(Succeed())
			setInputs(5, 6, false)
			before := a.Buffer().Snapshot()

			Expect(a.VdmStep(0.1, h)).To(MatchError(fmi.ErrInvalidStepSize))

			Expect(a.State()).To(Equal(StateInitialized))
			Expect(a.Time()).To(BeNumerically("~", 0.1, 1e-12))
			Expect(a.Buffer().Snapshot()).To(Equal(before))
			expectOutputs(1, 2, true)
		},
		Entry("negative", fmi.Real(-1)),
		Entry("not a number", math.NaN()),
		Entry("infinite", math.Inf(1)),
		Entry("past the stop time", fmi.Real(20)),
	)

	It("should accept communication points that drift within tolerance", func() {
		t := 0.0
		for i := 0; i < 10; i++ {
			Expect(a.VdmStep(t, 0.1)).To(Succeed())
			t += 0.1
		}

		Expect(a.Time()).To(BeNumerically("~", 1.0, 1e-9))
	})

	It("should discard steps that start elsewhere", func() {
		err := a.VdmStep(0.5, 0.1)
		Expect(err).To(MatchError(fmi.ErrInvalidCommunicationPoint))

		Expect(a.DoStep(0.5, 0.1)).To(Equal(fmi.Discard))
		Expect(a.State()).To(Equal(StateInitialized))
	})

	It("should not report synchronous steps as finished", func() {
		callbacks.EXPECT().StepFinished(gomock.Any()).Times(0)

		Expect(a.DoStep(0, 0.1)).To(Equal(fmi.OK))
		Expect(a.DoStep(0.5, 0.1)).To(Equal(fmi.Discard))
	})

	DescribeTable("faulting the adapter when a step hook panics",
		func(pos *sim.HookPos) {
			a.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
				if ctx.Pos == pos {
					panic("recorder is gone")
				}
			}))

			Expect(a.DoStep(0, 0.1)).To(Equal(fmi.Fatal))
			Expect(a.State()).To(Equal(StateFaulted))
			Expect(a.VdmStep(0.1, 0.1)).To(MatchError(fmi.ErrFatal))
		},
		Entry("at the start", HookPosStepStart),
		Entry("at the end", HookPosStepEnd),
	)

	It("should be idempotent on repeated input sync", func() {
		setInputs(4, 5, true)

		Expect(a.SyncInputsToModel()).To(Succeed())
		Expect(a.SyncInputsToModel()).To(Succeed())
		Expect(a.SyncOutputsToBuffers()).To(Succeed())

		expectOutputs(4, 5, true)
	})
})

type advancingModel struct {
	*MockModel
	*MockAdvancer
}

var _ = Describe("Stepping a model with threads", func() {
	var (
		mockCtrl  *gomock.Controller
		callbacks *MockCallbackFunctions
		m         *MockModel
		advancer  *MockAdvancer
		calls     []string
		loopErr   error
		loopPanic bool
		a         *Adapter
	)

	loop := func(now sim.VTimeInSec) error {
		calls = append(calls, fmt.Sprintf("loop@%.2f", float64(now)))

		if loopPanic {
			panic("corrupted state")
		}

		return loopErr
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		callbacks = NewMockCallbackFunctions(mockCtrl)
		m = NewMockModel(mockCtrl)
		advancer = NewMockAdvancer(mockCtrl)
		calls = nil
		loopErr = nil
		loopPanic = false

		m.EXPECT().Methods().Return(thread.MethodTable{"ctl.loop": loop})
		m.EXPECT().ApplyInputs(gomock.Any()).
			DoAndReturn(func(in model.Inputs) error {
				calls = append(calls, "apply")
				return nil
			}).AnyTimes()
		m.EXPECT().CollectOutputs(gomock.Any()).
			DoAndReturn(func(out model.Outputs) error {
				calls = append(calls, "collect")
				return nil
			}).AnyTimes()
		advancer.EXPECT().Advance(gomock.Any(), gomock.Any()).
			DoAndReturn(func(now, dt sim.VTimeInSec) error {
				calls = append(calls, fmt.Sprintf("advance@%.2f+%.2f",
					float64(now), float64(dt)))
				return nil
			}).AnyTimes()

		d, err := thread.NewPeriodicThreadStatus(0.04, "ctl", "loop")
		Expect(err).NotTo(HaveOccurred())

		a, err = MakeBuilder().
			WithCallbacks(callbacks).
			WithSignals(identitySignals()).
			WithThreads([]thread.PeriodicThreadStatus{d}).
			WithModel(advancingModel{m, advancer}).
			Build("ctl")
		Expect(err).NotTo(HaveOccurred())

		callbacks.EXPECT().
			Logger("ctl", fmi.OK, fmi.LogEvents, gomock.Any()).
			AnyTimes()
		m.EXPECT().Init().Return(nil)
		Expect(a.SystemInit()).To(Succeed())
		calls = nil
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should run the step phases in order", func() {
		Expect(a.VdmStep(0, 0.1)).To(Succeed())

		Expect(calls).To(Equal([]string{
			"apply",
			"loop@0.00", "loop@0.04", "loop@0.08",
			"advance@0.00+0.10",
			"collect",
		}))
		Expect(a.Threads()[0].LastExecuted).To(Equal(int64(2)))

		calls = nil
		Expect(a.VdmStep(0.1, 0.1)).To(Succeed())

		Expect(calls).To(Equal([]string{
			"apply",
			"loop@0.12", "loop@0.16",
			"advance@0.10+0.10",
			"collect",
		}))
		Expect(a.Threads()[0].LastExecuted).To(Equal(int64(4)))
	})

	It("should restart the threads on re-init", func() {
		Expect(a.VdmStep(0, 0.1)).To(Succeed())

		m.EXPECT().DeInit().Return(nil)
		Expect(a.SystemDeInit()).To(Succeed())
		Expect(a.Threads()[0].LastExecuted).To(Equal(int64(2)))

		m.EXPECT().Init().Return(nil)
		Expect(a.SystemInit()).To(Succeed())
		Expect(a.Threads()[0].LastExecuted).To(Equal(thread.NeverExecuted))

		calls = nil
		Expect(a.VdmStep(0, 0.05)).To(Succeed())
		Expect(calls).To(ContainElements("loop@0.00", "loop@0.04"))
	})

	It("should invoke the step hooks", func() {
		hook := NewMockHook(mockCtrl)
		a.AcceptHook(hook)

		gomock.InOrder(
			hook.EXPECT().Func(gomock.Any()).Do(func(ctx sim.HookCtx) {
				Expect(ctx.Pos).To(Equal(HookPosStepStart))
				Expect(ctx.Item).To(Equal(StepInfo{Time: 0, StepSize: 0.1}))
				Expect(calls).To(Equal([]string{"apply"}))
			}),
			hook.EXPECT().Func(gomock.Any()).Do(func(ctx sim.HookCtx) {
				Expect(ctx.Pos).To(Equal(HookPosStepEnd))
				Expect(ctx.Detail).To(Equal(a.Buffer().Snapshot()))
				Expect(calls).To(HaveLen(6))
			}),
		)

		Expect(a.VdmStep(0, 0.1)).To(Succeed())
	})

	It("should stop stepping after a thread error", func() {
		loopErr = errors.New("sensor lost")
		callbacks.EXPECT().
			Logger("ctl", fmi.Error, fmi.LogStatusError, gomock.Any())

		Expect(a.DoStep(0, 0.1)).To(Equal(fmi.Error))
		Expect(a.State()).To(Equal(StateStepFailed))
		Expect(a.Time()).To(BeZero())
		Expect(calls).NotTo(ContainElement("collect"))

		Expect(a.VdmStep(0, 0.1)).To(MatchError(fmi.ErrLifecycleViolation))

		m.EXPECT().DeInit().Return(nil)
		Expect(a.Terminate()).To(Succeed())
		Expect(a.State()).To(Equal(StateInstantiated))
	})

	It("should stop stepping after an input error", func() {
		inputErr := errors.New("bad input")
		m2 := NewMockModel(mockCtrl)
		m2.EXPECT().Methods().Return(thread.MethodTable{})
		m2.EXPECT().Init().Return(nil)
		m2.EXPECT().CollectOutputs(gomock.Any()).Return(nil)
		m2.EXPECT().ApplyInputs(gomock.Any()).Return(inputErr)
		callbacks.EXPECT().Logger("bad", gomock.Any(), gomock.Any(),
			gomock.Any()).AnyTimes()

		b, err := MakeBuilder().
			WithCallbacks(callbacks).
			WithSignals(identitySignals()).
			WithModel(m2).
			Build("bad")
		Expect(err).NotTo(HaveOccurred())
		Expect(b.SystemInit()).To(Succeed())

		Expect(b.VdmStep(0, 0.1)).To(MatchError(inputErr))
		Expect(b.State()).To(Equal(StateStepFailed))
	})

	It("should latch into the faulted state when a thread panics", func() {
		loopPanic = true
		callbacks.EXPECT().
			Logger("ctl", fmi.Fatal, fmi.LogStatusFatal,
				gomock.Any())

		Expect(a.DoStep(0, 0.1)).To(Equal(fmi.Fatal))
		Expect(a.State()).To(Equal(StateFaulted))

		Expect(a.VdmStep(0, 0.1)).To(MatchError(fmi.ErrFatal))
		Expect(a.SystemDeInit()).To(MatchError(fmi.ErrFatal))
		Expect(a.Terminate()).To(MatchError(fmi.ErrFatal))

		_, err := a.GetReal(vrInX)
		Expect(err).To(MatchError(fmi.ErrFatal))
	})

	It("should fail to build with an unresolved thread method", func() {
		other := NewMockModel(mockCtrl)
		other.EXPECT().Methods().Return(thread.MethodTable{})
		d, _ := thread.NewPeriodicThreadStatus(0.1, "ctl", "missing")

		_, err := MakeBuilder().
			WithSignals(identitySignals()).
			WithThreads([]thread.PeriodicThreadStatus{d}).
			WithModel(other).
			Build("broken")

		Expect(err).To(MatchError(thread.ErrUnresolvedMethod))
	})
})
