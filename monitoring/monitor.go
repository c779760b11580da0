// Package monitoring serves the state of running adapters over HTTP.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/sarchlab/fmuadapter/adapter"
	"github.com/sarchlab/fmuadapter/buffer"
	"github.com/sarchlab/fmuadapter/monitoring/web"
	"github.com/sarchlab/fmuadapter/sim"
	"github.com/sarchlab/fmuadapter/tracing"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Monitor turns a co-simulation into a server that can be watched and paused
// from a browser.
type Monitor struct {
	portNumber int

	lock     sync.RWMutex
	adapters []*adapter.Adapter
	counter  *tracing.CountTracer

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server *http.Server
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		counter: tracing.NewCountTracer(),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterAdapter adds an adapter to watch. The monitor counts the steps and
// the thread firings of the adapter from now on.
func (m *Monitor) RegisterAdapter(a *adapter.Adapter) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, existing := range m.adapters {
		if existing.Name() == a.Name() {
			log.Panicf("adapter %s is already registered", a.Name())
		}
	}

	m.adapters = append(m.adapters, a)
	tracing.CollectTrace(a, m.counter)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        sim.GetIDGenerator().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngines)
	r.HandleFunc("/api/continue", m.continueEngines)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/adapters", m.listAdapters)
	r.HandleFunc("/api/adapter/{name}", m.adapterDetails)
	r.HandleFunc("/api/field/{json}", m.fieldValue)
	r.HandleFunc("/api/buffer/{name}", m.bufferValues)
	r.HandleFunc("/api/threads/{name}", m.threads)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	go func() {
		err := m.server.Serve(listener)
		if err != nil && err != http.ErrServerClosed {
			log.Panic(err)
		}
	}()

	return url
}

// StopServer shuts the server down.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) snapshotAdapters() []*adapter.Adapter {
	m.lock.RLock()
	defer m.lock.RUnlock()

	out := make([]*adapter.Adapter, len(m.adapters))
	copy(out, m.adapters)

	return out
}

func (m *Monitor) pauseEngines(w http.ResponseWriter, _ *http.Request) {
	for _, a := range m.snapshotAdapters() {
		a.Engine().Pause()
	}

	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueEngines(w http.ResponseWriter, _ *http.Request) {
	for _, a := range m.snapshotAdapters() {
		a.Engine().Continue()
	}

	_, err := w.Write(nil)
	dieOnErr(err)
}

// now reports the latest communication point that every adapter has reached.
func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	adapters := m.snapshotAdapters()

	now := 0.0
	if len(adapters) > 0 {
		now = math.Inf(1)
		for _, a := range adapters {
			now = math.Min(now, float64(a.Time()))
		}
	}

	fmt.Fprintf(w, "{\"now\":%.10f}", now)
}

type adapterRsp struct {
	Name  string  `json:"name"`
	State string  `json:"state"`
	Time  float64 `json:"time"`
	Steps uint64  `json:"steps"`
}

func (m *Monitor) listAdapters(w http.ResponseWriter, _ *http.Request) {
	adapters := m.snapshotAdapters()

	rsp := make([]adapterRsp, 0, len(adapters))
	for _, a := range adapters {
		rsp = append(rsp, adapterRsp{
			Name:  a.Name(),
			State: a.State().String(),
			Time:  float64(a.Time()),
			Steps: m.counter.StepCount(a.Name()),
		})
	}

	writeJSON(w, rsp)
}

func (m *Monitor) adapterDetails(w http.ResponseWriter, r *http.Request) {
	a := m.findAdapterOr404(w, mux.Vars(r)["name"])
	if a == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(a)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	AdapterName string `json:"adapter_name,omitempty"`
	FieldName   string `json:"field_name,omitempty"`
}

func (m *Monitor) fieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}

	err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	a := m.findAdapterOr404(w, req.AdapterName)
	if a == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(a)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	err = serializer.Serialize(w)
	dieOnErr(err)
}

type signalRsp struct {
	Name           string `json:"name"`
	ValueReference uint32 `json:"value_reference"`
	Type           string `json:"type"`
	Causality      string `json:"causality"`
	Index          int    `json:"index"`
	Value          any    `json:"value"`
}

func (m *Monitor) bufferValues(w http.ResponseWriter, r *http.Request) {
	a := m.findAdapterOr404(w, mux.Vars(r)["name"])
	if a == nil {
		return
	}

	frame := a.Buffer().Snapshot()
	signals := a.Table().Signals()

	rsp := make([]signalRsp, 0, len(signals))
	for _, s := range signals {
		kind, err := s.Type.BufferKind()
		dieOnErr(err)

		var value any
		switch kind {
		case buffer.KindBoolean:
			value, err = frame.Boolean(s.Index)
		case buffer.KindReal:
			value, err = frame.Real(s.Index)
		case buffer.KindInteger:
			value, err = frame.Integer(s.Index)
		}
		dieOnErr(err)

		rsp = append(rsp, signalRsp{
			Name:           s.Name,
			ValueReference: uint32(s.ValueReference),
			Type:           string(s.Type),
			Causality:      string(s.Causality),
			Index:          s.Index,
			Value:          value,
		})
	}

	writeJSON(w, rsp)
}

type threadRsp struct {
	Object       string  `json:"object"`
	Call         string  `json:"call"`
	Period       float64 `json:"period"`
	LastExecuted int64   `json:"last_executed"`
	Firings      uint64  `json:"firings"`
	Failures     uint64  `json:"failures"`
}

func (m *Monitor) threads(w http.ResponseWriter, r *http.Request) {
	a := m.findAdapterOr404(w, mux.Vars(r)["name"])
	if a == nil {
		return
	}

	statuses := a.Threads()

	rsp := make([]threadRsp, 0, len(statuses))
	for _, s := range statuses {
		key := a.Name() + "." + s.Key()
		rsp = append(rsp, threadRsp{
			Object:       s.ObjectName,
			Call:         s.CallName,
			Period:       float64(s.Period),
			LastExecuted: s.LastExecuted,
			Firings:      m.counter.FiringCount(key),
			Failures:     m.counter.FailureCount(key),
		})
	}

	writeJSON(w, rsp)
}

func (m *Monitor) findAdapterOr404(
	w http.ResponseWriter,
	name string,
) *adapter.Adapter {
	for _, a := range m.snapshotAdapters() {
		if a.Name() == name {
			return a
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Adapter not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]progressRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
