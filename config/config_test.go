package config_test

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/fmuadapter/buffer"
	"github.com/sarchlab/fmuadapter/config"
	"github.com/sarchlab/fmuadapter/fmi"
	"github.com/sarchlab/fmuadapter/model/watertank"
	"github.com/sarchlab/fmuadapter/modeldesc"
)

func quietCallbacks() fmi.CallbackFunctions {
	return fmi.NewLogCallbacks(log.New(GinkgoWriter, "", 0))
}

func mapLookup(m map[string]string) config.Lookup {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

var _ = Describe("Parse", func() {
	It("should read the water tank configuration", func() {
		c := config.Default()

		Expect(c.Experiment.Stop).To(Equal(10.0))
		Expect(c.Experiment.StepSize).To(Equal(0.05))
		Expect(c.Instances).To(HaveLen(2))
		Expect(c.Instances[1].Options).To(HaveKeyWithValue("initial_level", 1.0))
		Expect(c.Connections).To(ContainElement(config.Connection{
			From: "tank.level", To: "controller.level",
		}))
		Expect(c.Recording.Enabled).To(BeTrue())
		Expect(c.Recording.Type).To(Equal("sqlite"))
		Expect(c.Validate()).To(Succeed())
	})

	It("should reject unknown keys", func() {
		_, err := config.Parse(strings.NewReader("experiment:\n  stpo: 1\n"))

		Expect(err).To(HaveOccurred())
	})

	It("should read capacities and recorder settings", func() {
		c, err := config.Parse(strings.NewReader(`
instances:
  - name: a
    model: passthrough
    capacity: {booleans: 2, reals: 3, integers: 4}
recording:
  enabled: true
  type: clickhouse
  host: db
  port: 9440
`))
		Expect(err).NotTo(HaveOccurred())

		Expect(*c.Instances[0].Capacity).To(Equal(
			buffer.Capacity{Booleans: 2, Reals: 3, Integers: 4}))
		Expect(c.Recording.Type).To(Equal("clickhouse"))
		Expect(c.Recording.Host).To(Equal("db"))
		Expect(c.Recording.Port).To(Equal(9440))
	})
})

var _ = Describe("ApplyEnv", func() {
	It("should override the experiment and the outputs", func() {
		c := config.Default()

		err := c.ApplyEnv(mapLookup(map[string]string{
			"FMU_STOP_TIME":      "2.5",
			"FMU_REAL_TIME":      "true",
			"FMU_MONITOR":        "1",
			"FMU_MONITOR_PORT":   "8080",
			"FMU_RECORDING_PATH": "out",
			"FMU_STEP_SIZE":      "",
		}))
		Expect(err).NotTo(HaveOccurred())

		Expect(c.Experiment.Stop).To(Equal(2.5))
		Expect(c.Experiment.StepSize).To(Equal(0.05))
		Expect(c.Experiment.RealTime).To(BeTrue())
		Expect(c.Monitor.Enabled).To(BeTrue())
		Expect(c.Monitor.Port).To(Equal(8080))
		Expect(c.Recording.Path).To(Equal("out"))
	})

	It("should name the variable that cannot be parsed", func() {
		err := config.Default().ApplyEnv(mapLookup(map[string]string{
			"FMU_STEP_SIZE": "fast",
		}))

		Expect(err).To(MatchError(ContainSubstring("FMU_STEP_SIZE")))
	})

	It("should read .env files after the process environment", func() {
		dir := GinkgoT().TempDir()
		envFile := filepath.Join(dir, ".env")
		Expect(os.WriteFile(envFile,
			[]byte("FMU_TEST_ONLY_STOP=3\nFMU_TEST_ONLY_STEP=0.5\n"),
			0o600)).To(Succeed())
		GinkgoT().Setenv("FMU_TEST_ONLY_STEP", "0.25")

		lookup, err := config.Environment(filepath.Join(dir, "missing.env"), envFile)
		Expect(err).NotTo(HaveOccurred())

		v, ok := lookup("FMU_TEST_ONLY_STOP")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("3"))

		v, ok = lookup("FMU_TEST_ONLY_STEP")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("0.25"))

		_, ok = lookup("FMU_TEST_ONLY_NOTHING")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Build", func() {
	It("should build and run the water tank", func() {
		c := config.Default()
		c.Experiment.Stop = 1

		setup, err := c.Build(quietCallbacks())
		Expect(err).NotTo(HaveOccurred())

		Expect(setup.Adapters).To(HaveLen(2))
		Expect(setup.Adapters[0].Threads()).To(HaveLen(1))
		Expect(setup.Master.NumSteps()).To(Equal(20))

		Expect(setup.Master.Run(context.Background())).To(Succeed())
		Expect(float64(setup.Master.Time())).To(BeNumerically("~", 1, 1e-9))
	})

	It("should apply start value overrides", func() {
		c := config.Default()
		c.Instances[0].Start = map[string]string{watertank.MaxLevel: "3.5"}

		setup, err := c.Build(quietCallbacks())
		Expect(err).NotTo(HaveOccurred())

		s, ok := setup.Adapters[0].Table().ByName(watertank.MaxLevel)
		Expect(ok).To(BeTrue())
		v, err := setup.Adapters[0].GetReal(s.ValueReference)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal([]fmi.Real{3.5}))
	})

	It("should reject start values of unknown signals", func() {
		c := config.Default()
		c.Instances[0].Start = map[string]string{"pressure": "1"}

		_, err := c.Build(quietCallbacks())

		Expect(err).To(MatchError(ContainSubstring("pressure")))
	})

	It("should reject unknown model kinds", func() {
		c := config.Default()
		c.Instances[1].Model = "pump"

		_, err := c.Build(quietCallbacks())

		Expect(err).To(MatchError(ContainSubstring("unknown model kind")))
	})

	It("should reject duplicated instances", func() {
		c := config.Default()
		c.Instances[1].Name = "controller"

		Expect(c.Validate()).To(MatchError(ContainSubstring("twice")))
	})

	It("should reject a negative initial level", func() {
		c := config.Default()
		c.Instances[1].Options = map[string]float64{"initial_level": -1}

		_, err := c.Build(quietCallbacks())

		Expect(err).To(MatchError(ContainSubstring("initial_level")))
	})

	It("should build a pass-through from listed signals", func() {
		c := &config.Config{
			Experiment: config.Experiment{Stop: 1, StepSize: 0.5},
			Instances: []config.Instance{{
				Name:  "echo",
				Model: "passthrough",
				Signals: []config.Signal{
					{Name: "in_x", Type: "real", Causality: "input", Start: "2"},
					{Name: "out_x", Type: "real", Causality: "output"},
				},
			}},
		}

		setup, err := c.Build(quietCallbacks())
		Expect(err).NotTo(HaveOccurred())

		a := setup.Adapters[0]
		Expect(setup.Master.Initialize()).To(Succeed())
		Expect(setup.Master.Step()).To(Succeed())

		v, err := a.GetReal(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal([]fmi.Real{2}))
	})

	It("should take the signals from a model description", func() {
		table, err := modeldesc.Assign(watertank.TankSignals(),
			buffer.DefaultCapacities())
		Expect(err).NotTo(HaveOccurred())

		path := filepath.Join(GinkgoT().TempDir(), "modelDescription.xml")
		f, err := os.Create(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(modeldesc.Generate(modeldesc.GeneratorInfo{
			ModelName: "tank",
		}, table).Write(f)).To(Succeed())
		Expect(f.Close()).To(Succeed())

		c := config.Default()
		c.Instances[1].ModelDescription = path

		setup, err := c.Build(quietCallbacks())
		Expect(err).NotTo(HaveOccurred())

		s, ok := setup.Adapters[1].Table().ByName(watertank.Drain)
		Expect(ok).To(BeTrue())
		Expect(s.Causality).To(Equal(modeldesc.CausalityParameter))
	})

	It("should list the model kinds", func() {
		Expect(config.ModelKinds()).To(Equal([]string{
			"passthrough", "watertank.controller", "watertank.tank",
		}))
	})
})
