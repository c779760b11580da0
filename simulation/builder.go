package simulation

import (
	"github.com/rs/xid"
	"github.com/sarchlab/fmuadapter/datarecording"
	"github.com/sarchlab/fmuadapter/monitoring"
	"github.com/sarchlab/fmuadapter/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	monitorOn      bool
	monitorPort    int
	recordingOn    bool
	traceFirings   bool
	outputFileName string
	recorder       datarecording.DataRecorder
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		monitorOn:    true,
		recordingOn:  true,
		traceFirings: true,
	}
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithoutRecording sets the simulation to not write steps into a database.
func (b Builder) WithoutRecording() Builder {
	b.recordingOn = false
	return b
}

// WithoutFiringTrace keeps the thread firings out of the database.
func (b Builder) WithoutFiringTrace() Builder {
	b.traceFirings = false
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithDataRecorder makes the simulation write into the given recorder rather
// than a new SQLite file.
func (b Builder) WithDataRecorder(r datarecording.DataRecorder) Builder {
	b.recorder = r
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if !b.recordingOn && (b.outputFileName != "" || b.recorder != nil) {
		panic("output cannot be set when recording is disabled")
	}

	if b.outputFileName != "" && b.recorder != nil {
		panic("output file name and data recorder cannot both be set")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		id:               xid.New().String(),
		adapterNameIndex: make(map[string]int),
		counter:          tracing.NewCountTracer(),
		wallTimer:        tracing.NewWallTimeTracer(),
	}

	if b.recordingOn {
		s.dataRecorder = b.recorder
		if s.dataRecorder == nil {
			outputPath := b.outputFileName
			if outputPath == "" {
				outputPath = "fmuadapter_sim_" + s.id
			}

			s.dataRecorder = datarecording.New(outputPath)
		}

		s.dbTracer = tracing.NewDBTracer(s.dataRecorder)
		if !b.traceFirings {
			s.dbTracer.SkipFirings()
		}
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		s.monitorURL = s.monitor.StartServer()
	}

	return s
}
