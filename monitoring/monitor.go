// Package monitoring serves the state of a running cluster over HTTP.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"reflect"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/korfield/cluster"
	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/field"
	"github.com/sarchlab/korfield/id"
	"github.com/sarchlab/korfield/module"
	"github.com/sarchlab/korfield/monitoring/web"
	"github.com/sarchlab/korfield/timing"
	"github.com/sarchlab/korfield/tracing"
)

// Monitor turns a simulation into a server that can be watched and paused
// from outside.
type Monitor struct {
	engine          timing.Engine
	cluster         *cluster.Cluster
	metrics         *Metrics
	portNumber      int
	openBrowser     bool
	profileDuration time.Duration

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server *http.Server
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		metrics:         NewMetrics(),
		profileDuration: time.Second,
	}
}

// WithPortNumber sets the port number of the monitor. Ports below 1000 are
// replaced with a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitor page in a browser.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// RegisterEngine registers the engine that drives the simulation.
func (m *Monitor) RegisterEngine(e timing.Engine) {
	m.engine = e
}

// RegisterCluster registers the cluster to report on and attaches the
// metrics to it.
func (m *Monitor) RegisterCluster(c *cluster.Cluster) {
	m.cluster = c
	m.RegisterEngine(c.Engine())

	tracing.CollectCluster(c, m.metrics)
}

// Metrics returns the Prometheus metrics of the monitor.
func (m *Monitor) Metrics() *Metrics {
	return m.metrics
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        id.Get().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the page.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			bars = append(bars, b)
		}
	}

	m.progressBars = bars
}

// Router returns the routes the monitor serves.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/modules", m.listModules)
	r.HandleFunc("/api/module/{id}", m.moduleDetails)
	r.HandleFunc("/api/module/{id}/field/{path}", m.moduleField)
	r.HandleFunc("/api/region", m.listRegion)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.Handle("/metrics", promhttp.HandlerFor(
		m.metrics.Registry(), promhttp.HandlerOpts{}))
	r.PathPrefix("/").Handler(web.Handler())

	return r
}

// StartServer starts serving in the background and returns the port it
// listens on.
func (m *Monitor) StartServer() int {
	addr := ":" + strconv.Itoa(m.portNumber)

	listener, err := net.Listen("tcp", addr)
	dieOnErr(err)

	port := listener.Addr().(*net.TCPAddr).Port
	url := fmt.Sprintf("http://localhost:%d", port)

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if !errors.Is(err, http.ErrServerClosed) {
			dieOnErr(err)
		}
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %v\n", err)
		}
	}

	return port
}

// Shutdown stops the server started by StartServer.
func (m *Monitor) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Continue()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"now_us\":%d}", m.engine.Now())
}

type moduleRsp struct {
	ID              core.ModuleID `json:"id"`
	Name            string        `json:"name"`
	State           string        `json:"state"`
	Neighbors       int           `json:"neighbors"`
	LoadGradient    float64       `json:"load_gradient"`
	ThermalGradient float64       `json:"thermal_gradient"`
	ActiveBallots   int           `json:"active_ballots"`
	Ticks           uint32        `json:"ticks"`
	LastTick        core.TimeUs   `json:"last_tick_us"`
}

func (m *Monitor) listModules(w http.ResponseWriter, _ *http.Request) {
	status := m.cluster.Status()

	rsp := make([]moduleRsp, 0, len(status))
	for _, s := range status {
		rsp = append(rsp, moduleRsp{
			ID:              s.ID,
			Name:            s.Name,
			State:           s.State.String(),
			Neighbors:       s.NeighborCount,
			LoadGradient:    s.LoadGradient.Float(),
			ThermalGradient: s.ThermalGradient.Float(),
			ActiveBallots:   s.ActiveBallots,
			Ticks:           s.TicksTotal,
			LastTick:        s.LastTick,
		})
	}

	writeJSON(w, rsp)
}

func (m *Monitor) moduleDetails(w http.ResponseWriter, r *http.Request) {
	status := m.findModuleOr404(w, r)
	if status == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(status)
	serializer.SetMaxDepth(1)

	dieOnErr(serializer.Serialize(w))
}

func (m *Monitor) moduleField(w http.ResponseWriter, r *http.Request) {
	status := m.findModuleOr404(w, r)
	if status == nil {
		return
	}

	elem, err := m.walkFields(status, mux.Vars(r)["path"])
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	writeJSON(w, elem.Interface())
}

func (m *Monitor) findModuleOr404(
	w http.ResponseWriter,
	r *http.Request,
) *module.Status {
	n, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return nil
	}

	for _, s := range m.cluster.Status() {
		if int(s.ID) == n {
			return &s
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err = w.Write([]byte("Module not found"))
	dieOnErr(err)

	return nil
}

type fieldFormatError struct {
	name string
}

func (e fieldFormatError) Error() string {
	return fmt.Sprintf("cannot walk into %q", e.name)
}

func (m *Monitor) walkFields(
	root any,
	fields string,
) (reflect.Value, error) {
	elem := reflect.ValueOf(root)

	names := strings.Split(fields, ".")

	for len(names) > 0 {
		switch elem.Kind() {
		case reflect.Ptr, reflect.Interface:
			elem = elem.Elem()
		case reflect.Struct:
			elem = elem.FieldByName(names[0])
			if !elem.IsValid() {
				return elem, fieldFormatError{name: names[0]}
			}

			names = names[1:]
		case reflect.Slice, reflect.Array:
			index, err := strconv.Atoi(names[0])
			if err != nil || index < 0 || index >= elem.Len() {
				return elem, fieldFormatError{name: names[0]}
			}

			elem = elem.Index(index)
			names = names[1:]
		default:
			return elem, fieldFormatError{name: names[0]}
		}
	}

	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}

	return elem, nil
}

type slotRsp struct {
	ID        core.ModuleID `json:"id"`
	Timestamp core.TimeUs   `json:"timestamp_us"`
	Sequence  uint8         `json:"sequence"`
	Load      float64       `json:"load"`
	Thermal   float64       `json:"thermal"`
	Power     float64       `json:"power"`
}

func (m *Monitor) listRegion(w http.ResponseWriter, _ *http.Request) {
	region := m.cluster.Region()
	now := m.cluster.Now()

	slots := make([]slotRsp, 0)
	for _, slotID := range region.LiveSlots() {
		f, err := m.cluster.FieldEngine().Sample(region, slotID, now)
		if err != nil {
			continue
		}

		slots = append(slots, slotRsp{
			ID:        slotID,
			Timestamp: f.Timestamp,
			Sequence:  f.Sequence,
			Load:      f.Get(field.Load).Float(),
			Thermal:   f.Get(field.Thermal).Float(),
			Power:     f.Get(field.Power).Float(),
		})
	}

	writeJSON(w, slots)
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
	p, err := process.NewProcess(int32(os.Getpid()))
	dieOnErr(err)

	cpuPercent, err := p.CPUPercent()
	dieOnErr(err)

	memory, err := p.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memory.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	b, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(b)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
