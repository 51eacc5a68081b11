// Package monitoring serves the data collected while kernels run over HTTP.
package monitoring

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"gitlab.com/akita/simtgpu/gpu"
	"gitlab.com/akita/simtgpu/profiler"
)

// Monitor exposes GPUs, a profiler collector and a task tracer.
type Monitor struct {
	portNumber int

	gpus      []*gpu.GPU
	collector *profiler.Collector
	tracer    *profiler.TaskTracer
}

// NewMonitor creates a monitor that listens on a random port.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port. Ports below 1000 are rejected and replaced
// by a random one.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Printf("Port number %d is not allowed, using a random port.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber
	return m
}

// RegisterGPU adds a GPU to the /api/gpus listing.
func (m *Monitor) RegisterGPU(g *gpu.GPU) {
	m.gpus = append(m.gpus, g)
}

// RegisterCollector sets the collector behind the profiling routes.
func (m *Monitor) RegisterCollector(c *profiler.Collector) {
	m.collector = c
}

// RegisterTracer sets the tracer behind /api/tasks.
func (m *Monitor) RegisterTracer(t *profiler.TaskTracer) {
	m.tracer = t
}

// Router returns the routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/gpus", m.listGPUs).Methods("GET")
	r.HandleFunc("/api/summary", m.summary).Methods("GET")
	r.HandleFunc("/api/kernels", m.listKernels).Methods("GET")
	r.HandleFunc("/api/memops", m.listMemOps).Methods("GET")
	r.HandleFunc("/api/memory_usage", m.memoryUsage).Methods("GET")
	r.HandleFunc("/api/tasks", m.listTasks).Methods("GET")
	r.HandleFunc("/api/tasks/{kind}", m.listTasks).Methods("GET")

	return r
}

// StartServer starts serving in the background and returns the address it
// listens on.
func (m *Monitor) StartServer() string {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", m.portNumber))
	if err != nil {
		log.Panic(err)
	}

	addr := listener.Addr().(*net.TCPAddr)
	fmt.Printf("Monitoring simulation with http://localhost:%d\n", addr.Port)

	go func() {
		err := http.Serve(listener, m.Router())
		if err != nil {
			log.Print(err)
		}
	}()

	return addr.String()
}

type gpuInfo struct {
	Name   string     `json:"name"`
	Config gpu.Config `json:"config"`
}

func (m *Monitor) listGPUs(w http.ResponseWriter, r *http.Request) {
	gpus := make([]gpuInfo, 0, len(m.gpus))
	for _, g := range m.gpus {
		gpus = append(gpus, gpuInfo{Name: g.Name(), Config: g.Config()})
	}

	writeJSON(w, gpus)
}

type summary struct {
	ElapsedTime float64 `json:"elapsed_time"`
	NumLaunches int     `json:"num_launches"`
	NumKernels  int     `json:"num_kernels"`
	NumMemOps   int     `json:"num_mem_ops"`
}

func (m *Monitor) summary(w http.ResponseWriter, r *http.Request) {
	if !m.hasCollector(w) {
		return
	}

	writeJSON(w, summary{
		ElapsedTime: time.Since(m.collector.StartTime()).Seconds(),
		NumLaunches: m.collector.NumLaunches(),
		NumKernels:  len(m.collector.KernelExecutions()),
		NumMemOps:   m.collector.NumMemOps(),
	})
}

func (m *Monitor) listKernels(w http.ResponseWriter, r *http.Request) {
	if !m.hasCollector(w) {
		return
	}

	writeJSON(w, m.collector.KernelExecutions())
}

// listMemOps accepts from and to as seconds since the collector started.
func (m *Monitor) listMemOps(w http.ResponseWriter, r *http.Request) {
	if !m.hasCollector(w) {
		return
	}

	query := r.URL.Query()
	if query.Get("from") == "" && query.Get("to") == "" {
		writeJSON(w, m.collector.MemOps())
		return
	}

	from, err := m.parseTime(query.Get("from"), 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	to, err := m.parseTime(query.Get("to"), time.Since(m.collector.StartTime()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, m.collector.MemOpsBetween(from, to))
}

func (m *Monitor) parseTime(s string, def time.Duration) (time.Time, error) {
	offset := def

	if s != "" {
		sec, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid time %q", s)
		}
		offset = time.Duration(sec * float64(time.Second))
	}

	return m.collector.StartTime().Add(offset), nil
}

func (m *Monitor) memoryUsage(w http.ResponseWriter, r *http.Request) {
	if !m.hasCollector(w) {
		return
	}

	writeJSON(w, m.collector.MemoryUsage())
}

func (m *Monitor) listTasks(w http.ResponseWriter, r *http.Request) {
	if m.tracer == nil {
		http.Error(w, "no tracer attached", http.StatusNotFound)
		return
	}

	writeJSON(w, m.tracer.Records(mux.Vars(r)["kind"]))
}

func (m *Monitor) hasCollector(w http.ResponseWriter) bool {
	if m.collector == nil {
		http.Error(w, "no profiler attached", http.StatusNotFound)
		return false
	}

	return true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	rsp, err := json.Marshal(v)
	if err != nil {
		log.Panic(err)
	}

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(rsp)
	if err != nil {
		log.Panic(err)
	}
}
