package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/korfield/cluster"
	"github.com/sarchlab/korfield/config"
	"github.com/sarchlab/korfield/core"
)

func buildCluster() *cluster.Cluster {
	cfg := config.Default()
	cfg.Modules = 9
	cfg.GridWidth = 3
	cfg.TickHz = 100

	c, err := cluster.MakeBuilder().WithConfig(cfg).Build("Cluster")
	Expect(err).NotTo(HaveOccurred())

	return c
}

var _ = Describe("Monitor", func() {
	var (
		c       *cluster.Cluster
		monitor *Monitor
		handler http.Handler
	)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		return rec
	}

	BeforeEach(func() {
		c = buildCluster()
		monitor = NewMonitor()
		monitor.profileDuration = 10 * time.Millisecond
		monitor.RegisterCluster(c)
		handler = monitor.Router()

		Expect(c.Run(context.Background(), 30_000)).To(Succeed())
	})

	It("should report the virtual time", func() {
		rec := get("/api/now")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal(`{"now_us":30000}`))
	})

	It("should pause and continue the engine", func() {
		Expect(get("/api/pause").Code).To(Equal(http.StatusOK))
		Expect(get("/api/continue").Code).To(Equal(http.StatusOK))

		Expect(c.Run(context.Background(), 10_000)).To(Succeed())
		Expect(c.Now()).To(Equal(core.TimeUs(40_000)))
	})

	It("should list modules", func() {
		rec := get("/api/modules")

		var modules []moduleRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &modules)).To(Succeed())
		Expect(modules).To(HaveLen(9))
		Expect(modules[0].Name).To(Equal("Cluster.Module[0]"))
		Expect(modules[0].State).To(Equal("Active"))
		Expect(modules[0].Neighbors).To(Equal(core.KNeighbors))
		Expect(modules[0].Ticks).To(Equal(uint32(4)))
		Expect(modules[0].LastTick).To(Equal(core.TimeUs(30_000)))
	})

	It("should serialize one module", func() {
		rec := get("/api/module/5")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("NeighborCount"))
	})

	DescribeTable("rejecting bad module ids",
		func(path string, code int) {
			Expect(get(path).Code).To(Equal(code))
		},
		Entry("unknown id", "/api/module/99", http.StatusNotFound),
		Entry("not a number", "/api/module/abc", http.StatusBadRequest),
		Entry("unknown field", "/api/module/5/field/Bogus",
			http.StatusBadRequest),
	)

	It("should report a single field", func() {
		rec := get("/api/module/5/field/NeighborCount")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal(fmt.Sprint(core.KNeighbors)))
	})

	It("should list the region", func() {
		rec := get("/api/region")

		var slots []slotRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &slots)).To(Succeed())
		Expect(slots).To(HaveLen(9))
		Expect(slots[0].ID).To(Equal(core.ModuleID(1)))
		Expect(slots[0].Timestamp).To(Equal(core.TimeUs(30_000)))
		Expect(slots[0].Sequence).To(Equal(uint8(4)))
	})

	It("should list progress bars", func() {
		bar := monitor.CreateProgressBar("run", 100)
		bar.IncrementInProgress(50)
		bar.MoveInProgressToFinished(40)

		var bars []progressRsp
		Expect(json.Unmarshal(get("/api/progress").Body.Bytes(), &bars)).
			To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("run"))
		Expect(bars[0].Finished).To(Equal(uint64(40)))
		Expect(bars[0].InProgress).To(Equal(uint64(10)))

		monitor.CompleteProgressBar(bar)

		Expect(get("/api/progress").Body.String()).To(Equal("[]"))
	})

	It("should export metrics", func() {
		body := get("/metrics").Body.String()

		Expect(body).To(ContainSubstring(
			`korfield_module_ticks_total{module="Cluster.Module[0]"} 4`))
		Expect(body).To(ContainSubstring(
			`korfield_module_task_runs_total{module="Cluster.Module[0]",task="join"} 1`))
		Expect(body).To(ContainSubstring(
			`korfield_module_neighbors{module="Cluster.Module[8]"} 7`))
		Expect(body).To(ContainSubstring(`korfield_virtual_time_us 30000`))
	})

	It("should report process resources", func() {
		rec := get("/api/resource")

		var rsp resourceRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should collect a CPU profile", func() {
		rec := get("/api/profile")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("SampleType"))
	})

	It("should serve the page", func() {
		rec := get("/")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(HavePrefix("<!DOCTYPE html>"))
	})

	It("should serve over TCP", func() {
		port := monitor.StartServer()
		defer func() {
			Expect(monitor.Shutdown(context.Background())).To(Succeed())
		}()

		rsp, err := http.Get(fmt.Sprintf("http://localhost:%d/api/now", port))
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		body, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(Equal(`{"now_us":30000}`))
	})
})

var _ = Describe("WithPortNumber", func() {
	It("should refuse privileged ports", func() {
		Expect(NewMonitor().WithPortNumber(80).portNumber).To(Equal(0))
		Expect(NewMonitor().WithPortNumber(8080).portNumber).To(Equal(8080))
	})
})

type sampleStruct struct {
	Field1 int
	Field2 string
	Field3 *sampleStruct
	Field4 []sampleStruct
}

var _ = Describe("walkFields", func() {
	var m *Monitor

	BeforeEach(func() {
		m = NewMonitor()
	})

	It("should walk int fields", func() {
		elem, err := m.walkFields(&sampleStruct{Field1: 1}, "Field1")

		Expect(err).NotTo(HaveOccurred())
		Expect(elem.Kind()).To(Equal(reflect.Int))
		Expect(elem.Int()).To(Equal(int64(1)))
	})

	It("should walk recursively", func() {
		s := &sampleStruct{Field3: &sampleStruct{Field2: "abc"}}

		elem, err := m.walkFields(s, "Field3.Field2")

		Expect(err).NotTo(HaveOccurred())
		Expect(elem.String()).To(Equal("abc"))
	})

	It("should walk slices", func() {
		s := &sampleStruct{
			Field4: []sampleStruct{{
				Field4: []sampleStruct{{Field1: 7}},
			}},
		}

		elem, err := m.walkFields(s, "Field4.0.Field4.0.Field1")

		Expect(err).NotTo(HaveOccurred())
		Expect(elem.Int()).To(Equal(int64(7)))
	})

	It("should fail on bad paths", func() {
		s := &sampleStruct{Field4: []sampleStruct{{}}}

		_, err := m.walkFields(s, "Field4.3")
		Expect(err).To(HaveOccurred())

		_, err = m.walkFields(s, "Field1.X")
		Expect(err).To(HaveOccurred())

		_, err = m.walkFields(s, "Missing")
		Expect(err).To(HaveOccurred())
	})
})
