package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestChatMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChatMetrics(reg)
	m.ObserveResponse("gemini", "ok")
	m.ObserveResponse("gemini", "ok")
	m.ObserveResponse("none", "fallback")
	m.ObserveCompletion("ollama", "error", 0.3)
	m.ObserveTranscriptFailure("user")

	if got := testutil.ToFloat64(m.responsesTotal.WithLabelValues("gemini", "ok")); got != 2 {
		t.Fatalf("expected 2 ok responses, got %v", got)
	}
	if got := testutil.ToFloat64(m.transcriptFailures.WithLabelValues("user")); got != 1 {
		t.Fatalf("expected 1 transcript failure, got %v", got)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == CompletionLatencyMetric {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s to be registered", CompletionLatencyMetric)
	}
}

func TestBookingMetricsObserve(t *testing.T) {
	m := NewBookingMetrics(prometheus.NewRegistry())
	m.ObserveCreated("")
	m.ObserveCreated("h1")
	m.ObserveStatusChange("confirmed")
	m.ObserveNotification("stub", "sent")

	if got := testutil.ToFloat64(m.createdTotal.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected blank location to be labelled unknown, got %v", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var chat *ChatMetrics
	chat.ObserveResponse("gemini", "ok")
	chat.ObserveCompletion("gemini", "ok", 1)
	chat.ObserveTranscriptFailure("assistant")

	var booking *BookingMetrics
	booking.ObserveCreated("h1")
	booking.ObserveStatusChange("cancelled")
	booking.ObserveNotification("ses", "error")
}
