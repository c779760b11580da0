package datarecording

import (
	"os"
	"strings"
	"time"
)

// ExecTableName is the table that holds the information about the process
// that made the recording.
const ExecTableName = "exec_info"

// ExecInfo is a property of the recording process.
type ExecInfo struct {
	Property string
	Value    string
}

// Records program execution
type execRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

func newExecRecorder(recorder DataRecorder) *execRecorder {
	recorder.CreateTable(ExecTableName, ExecInfo{})

	return &execRecorder{recorder: recorder}
}

// Start logs the current execution.
func (e *execRecorder) Start() {
	startTime := time.Now().Format("2006-01-02 15:04:05.000000000")
	e.entries = append(e.entries, ExecInfo{"Start Time", startTime})

	cmd := strings.Join(os.Args, " ")
	e.entries = append(e.entries, ExecInfo{"Command", cmd})

	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	e.entries = append(e.entries, ExecInfo{"Working Directory", cwd})
}

// End writes the execution information along with the exit time.
func (e *execRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(ExecTableName, entry)
	}

	endTime := time.Now().Format("2006-01-02 15:04:05.000000000")
	e.recorder.InsertData(ExecTableName, ExecInfo{"End Time", endTime})

	e.entries = nil
}
