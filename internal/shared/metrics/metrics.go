package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	gradeCalculationsTotal atomic.Uint64
	gradeWeightErrorsTotal atomic.Uint64
	gradeAlertsSentTotal   atomic.Uint64
	gradeAlertsFailedTotal atomic.Uint64
	syllabusImportsTotal   atomic.Uint64
	brightspaceSyncsTotal  atomic.Uint64

	mailJobsReceivedTotal      atomic.Uint64
	mailJobsDeliveredTotal     atomic.Uint64
	mailJobsFailedTotal        atomic.Uint64
	mailJobsUnrecoverableTotal atomic.Uint64

	projectedGrade = newHistogram([]float64{60, 70, 80, 90, 100})
)

// IncGradeCalculation counts a course grade computation.
func IncGradeCalculation() {
	gradeCalculationsTotal.Add(1)
}

// IncGradeWeightError counts a computation rejected for invalid syllabus weights.
func IncGradeWeightError() {
	gradeWeightErrorsTotal.Add(1)
}

// IncAlertSent counts a grade alert handed to at least one sender.
func IncAlertSent() {
	gradeAlertsSentTotal.Add(1)
}

// IncAlertFailed counts a grade alert no sender accepted.
func IncAlertFailed() {
	gradeAlertsFailedTotal.Add(1)
}

// IncSyllabusImport counts a parsed syllabus upload.
func IncSyllabusImport() {
	syllabusImportsTotal.Add(1)
}

// IncBrightspaceSync counts an import or sync run.
func IncBrightspaceSync() {
	brightspaceSyncsTotal.Add(1)
}

func IncMailJobReceived() {
	mailJobsReceivedTotal.Add(1)
}

func IncMailJobDelivered() {
	mailJobsDeliveredTotal.Add(1)
}

func IncMailJobFailed() {
	mailJobsFailedTotal.Add(1)
}

// IncMailJobUnrecoverable counts a queue message dropped because it could never be delivered.
func IncMailJobUnrecoverable() {
	mailJobsUnrecoverableTotal.Add(1)
}

// ObserveProjectedGrade records a projected final grade percentage.
func ObserveProjectedGrade(value float64) {
	if value < 0 {
		value = 0
	}
	projectedGrade.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "grade_calculations_total", "Total course grade computations", gradeCalculationsTotal.Load())
	writeCounter(&buf, "grade_weight_errors_total", "Computations rejected for invalid syllabus weights", gradeWeightErrorsTotal.Load())
	writeCounter(&buf, "grade_alerts_sent_total", "Grade alerts delivered to at least one sender", gradeAlertsSentTotal.Load())
	writeCounter(&buf, "grade_alerts_failed_total", "Grade alerts no sender accepted", gradeAlertsFailedTotal.Load())
	writeCounter(&buf, "syllabus_imports_total", "Syllabus uploads parsed", syllabusImportsTotal.Load())
	writeCounter(&buf, "brightspace_syncs_total", "Brightspace imports and syncs", brightspaceSyncsTotal.Load())
	writeCounter(&buf, "mail_jobs_received_total", "Alert mail jobs received by the worker", mailJobsReceivedTotal.Load())
	writeCounter(&buf, "mail_jobs_delivered_total", "Alert mail jobs delivered", mailJobsDeliveredTotal.Load())
	writeCounter(&buf, "mail_jobs_failed_total", "Alert mail jobs that failed and will be retried", mailJobsFailedTotal.Load())
	writeCounter(&buf, "mail_jobs_unrecoverable_total", "Alert mail jobs dropped as undeliverable", mailJobsUnrecoverableTotal.Load())
	writeHistogram(&buf, "projected_grade_percent", "Projected final grade percentage", projectedGrade.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe stores the value in its smallest bucket; writeHistogram accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
