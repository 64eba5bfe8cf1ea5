// Package dashboard serves the admin overview: bookings and chat sessions per
// day plus assistant completion latency read from the Prometheus registry.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/wolfman30/dental-premium/internal/appointments"
	"github.com/wolfman30/dental-premium/internal/conversation"
	"github.com/wolfman30/dental-premium/internal/observability/metrics"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

const dayLayout = "2006-01-02"

// AppointmentLister is satisfied by *appointments.Service.
type AppointmentLister interface {
	List(ctx context.Context, status appointments.Status) ([]appointments.Appointment, error)
}

// SessionLister is satisfied by *conversation.TranscriptStore.
type SessionLister interface {
	ListSessions(ctx context.Context) ([]conversation.ChatSession, error)
}

// DayCount is one row of the daily series.
type DayCount struct {
	Day          string `json:"day"`
	Appointments int64  `json:"appointments"`
	ChatSessions int64  `json:"chat_sessions"`
}

type LatencySnapshot struct {
	Total   int64           `json:"total"`
	P90Ms   float64         `json:"p90_ms"`
	P95Ms   float64         `json:"p95_ms"`
	Buckets []LatencyBucket `json:"buckets"`
}

type LatencyBucket struct {
	LeSeconds float64 `json:"le_seconds"`
	Label     string  `json:"label,omitempty"`
	Count     int64   `json:"count"`
}

// Overview is the GET /admin/dashboard payload.
type Overview struct {
	PeriodStart       string             `json:"period_start"`
	PeriodEnd         string             `json:"period_end"`
	Appointments      appointments.Stats `json:"appointments"`
	PendingTotal      int                `json:"pending_total"`
	ChatSessions      int64              `json:"chat_sessions"`
	CompletionLatency LatencySnapshot    `json:"completion_latency"`
	Daily             []DayCount         `json:"daily"`
}

// Handler builds the overview from the stores and the metrics gatherer.
type Handler struct {
	appointments AppointmentLister
	sessions     SessionLister
	gatherer     prometheus.Gatherer
	logger       *logging.Logger
	now          func() time.Time
}

func NewHandler(appts AppointmentLister, sessions SessionLister, gatherer prometheus.Gatherer, logger *logging.Logger) *Handler {
	if appts == nil {
		panic("dashboard: appointment lister cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handler{
		appointments: appts,
		sessions:     sessions,
		gatherer:     gatherer,
		logger:       logger,
		now:          time.Now,
	}
}

// GetDashboard returns the admin overview.
// GET /admin/dashboard
// Query params:
//   - start, end: RFC3339 timestamps (both or neither)
//   - days: integer window (default 7) when start/end omitted
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseWindow(r, h.now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	appts, err := h.appointments.List(r.Context(), "")
	if err != nil {
		h.logger.Error("failed to list appointments for dashboard", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	daily := emptyDays(start, end)
	index := make(map[string]int, len(daily))
	for i, d := range daily {
		index[d.Day] = i
	}

	var overview Overview
	for _, appt := range appts {
		if appt.Status == appointments.StatusPending {
			overview.PendingTotal++
		}
		if appt.CreatedAt.Before(start) || !appt.CreatedAt.Before(end) {
			continue
		}
		overview.Appointments.Total++
		switch appt.Status {
		case appointments.StatusPending:
			overview.Appointments.Pending++
		case appointments.StatusConfirmed:
			overview.Appointments.Confirmed++
		case appointments.StatusCancelled:
			overview.Appointments.Cancelled++
		}
		if i, ok := index[appt.CreatedAt.UTC().Format(dayLayout)]; ok {
			daily[i].Appointments++
		}
	}

	if h.sessions != nil {
		sessions, err := h.sessions.ListSessions(r.Context())
		if err != nil {
			h.logger.Warn("failed to list chat sessions for dashboard", "error", err)
		}
		for _, s := range sessions {
			if s.CreatedAt.Before(start) || !s.CreatedAt.Before(end) {
				continue
			}
			overview.ChatSessions++
			if i, ok := index[s.CreatedAt.UTC().Format(dayLayout)]; ok {
				daily[i].ChatSessions++
			}
		}
	}

	overview.PeriodStart = start.Format(time.RFC3339)
	overview.PeriodEnd = end.Format(time.RFC3339)
	overview.CompletionLatency = snapshotLatency(h.gatherer)
	overview.Daily = daily
	writeJSON(w, http.StatusOK, overview)
}

func parseWindow(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	q := r.URL.Query()

	startRaw := strings.TrimSpace(q.Get("start"))
	endRaw := strings.TrimSpace(q.Get("end"))
	if (startRaw == "") != (endRaw == "") {
		return time.Time{}, time.Time{}, fmt.Errorf("both start and end must be provided, or neither")
	}
	if startRaw != "" {
		start, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start time, use RFC3339 format")
		}
		end, err := time.Parse(time.RFC3339, endRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end time, use RFC3339 format")
		}
		if !end.After(start) {
			return time.Time{}, time.Time{}, fmt.Errorf("end must be after start")
		}
		return start.UTC(), end.UTC(), nil
	}

	days := 7
	if raw := strings.TrimSpace(q.Get("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 90 {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid days; must be 1-90")
		}
		days = parsed
	}

	now = now.UTC()
	end := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, 0, -days), end, nil
}

// emptyDays returns one zeroed row per UTC day in [start, end).
func emptyDays(start, end time.Time) []DayCount {
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]DayCount, 0, int(end.Sub(startDay).Hours()/24)+1)
	for day := startDay; day.Before(end); day = day.AddDate(0, 0, 1) {
		out = append(out, DayCount{Day: day.Format(dayLayout)})
	}
	return out
}

// snapshotLatency aggregates successful completions across backends.
func snapshotLatency(gatherer prometheus.Gatherer) LatencySnapshot {
	mfs, err := gatherer.Gather()
	if err != nil {
		return LatencySnapshot{}
	}

	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf != nil && mf.GetName() == metrics.CompletionLatencyMetric {
			family = mf
			break
		}
	}
	if family == nil {
		return LatencySnapshot{}
	}

	cumulativeByUpper := map[float64]uint64{}
	var sampleCount uint64
	for _, metric := range family.GetMetric() {
		if metric == nil || !hasLabel(metric, "status", "ok") {
			continue
		}
		h := metric.GetHistogram()
		if h == nil {
			continue
		}
		sampleCount += h.GetSampleCount()
		for _, b := range h.GetBucket() {
			cumulativeByUpper[b.GetUpperBound()] += b.GetCumulativeCount()
		}
		// The +Inf bucket is implicit in the client exposition.
		cumulativeByUpper[math.Inf(1)] += h.GetSampleCount()
	}
	if sampleCount == 0 {
		return LatencySnapshot{}
	}

	uppers := make([]float64, 0, len(cumulativeByUpper))
	for upper := range cumulativeByUpper {
		uppers = append(uppers, upper)
	}
	sort.Float64s(uppers)

	buckets := make([]LatencyBucket, 0, len(uppers))
	var prev uint64
	var lastFiniteUpper float64
	for _, upper := range uppers {
		cum := cumulativeByUpper[upper]
		count := int64(cum - min(prev, cum))
		prev = cum
		if math.IsInf(upper, 1) {
			if count > 0 {
				buckets = append(buckets, LatencyBucket{
					LeSeconds: lastFiniteUpper,
					Label:     ">" + formatSeconds(lastFiniteUpper),
					Count:     count,
				})
			}
			continue
		}
		lastFiniteUpper = upper
		buckets = append(buckets, LatencyBucket{LeSeconds: upper, Count: count})
	}

	return LatencySnapshot{
		Total:   int64(sampleCount),
		P90Ms:   histogramQuantile(0.90, sampleCount, uppers, cumulativeByUpper) * 1000.0,
		P95Ms:   histogramQuantile(0.95, sampleCount, uppers, cumulativeByUpper) * 1000.0,
		Buckets: buckets,
	}
}

func hasLabel(metric *dto.Metric, name, value string) bool {
	for _, lp := range metric.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}

// histogramQuantile linearly interpolates inside the bucket holding the
// q-th sample, like PromQL's histogram_quantile.
func histogramQuantile(q float64, total uint64, uppers []float64, cumulativeByUpper map[float64]uint64) float64 {
	if total == 0 || q <= 0 || len(uppers) == 0 {
		return 0
	}
	target := q * float64(total)
	var prevUpper, prevCum float64
	for _, upper := range uppers {
		cum := float64(cumulativeByUpper[upper])
		if cum < target {
			prevUpper, prevCum = upper, cum
			continue
		}
		if math.IsInf(upper, 1) {
			return prevUpper
		}
		bucketCount := cum - prevCum
		if bucketCount <= 0 {
			return upper
		}
		fraction := math.Min(math.Max((target-prevCum)/bucketCount, 0), 1)
		return prevUpper + fraction*(upper-prevUpper)
	}
	return prevUpper
}

func formatSeconds(seconds float64) string {
	switch {
	case seconds <= 0:
		return "0s"
	case seconds < 1:
		return fmt.Sprintf("%.2fs", seconds)
	case seconds < 10:
		return fmt.Sprintf("%.1fs", seconds)
	default:
		return fmt.Sprintf("%.0fs", seconds)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
