package sim

import (
	"bytes"
	"errors"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type namedHandler struct{}

func (namedHandler) Handle(_ Event) error { return nil }

func (namedHandler) Name() string { return "controller.loop" }

var _ = Describe("EventLogger", func() {
	var (
		out    *bytes.Buffer
		engine *SerialEngine
	)

	BeforeEach(func() {
		out = new(bytes.Buffer)
		engine = NewSerialEngine()
		engine.AcceptHook(NewEventLogger(log.New(out, "", 0)))
	})

	It("should print the events with the name of the handler", func() {
		engine.Schedule(MakeTickEvent(namedHandler{}, 0.5, 0, 0))

		Expect(engine.RunUntil(1)).To(Succeed())

		Expect(out.String()).To(Equal(
			"0.5000000000, sim.TickEvent -> controller.loop\n"))
	})

	It("should print the error of a failed handler", func() {
		handler := HandlerFunc(func(_ Event) error {
			return errors.New("broken")
		})
		engine.Schedule(MakeTickEvent(handler, 0.25, 0, 0))

		Expect(engine.RunUntil(1)).NotTo(Succeed())

		Expect(out.String()).To(Equal(
			"0.2500000000, sim.TickEvent -> sim.HandlerFunc, error: broken\n"))
	})
})

// HandlerFunc adapts a function to the Handler interface in tests.
type HandlerFunc func(e Event) error

// Handle calls f.
func (f HandlerFunc) Handle(e Event) error {
	return f(e)
}
