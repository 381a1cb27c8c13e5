package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPaymentMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPaymentMetrics(reg)
	metrics.IncInitiation("success")
	metrics.IncWebhook("completed")
	metrics.IncWebhook("completed")
	metrics.ObserveVerifyWait(1500 * time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "payment_initiations_total", "outcome", "success"); err != nil {
		t.Fatalf("fetch initiations: %v", err)
	} else if got != 1 {
		t.Fatalf("expected initiations=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "payment_webhooks_total", "status", "completed"); err != nil {
		t.Fatalf("fetch webhooks: %v", err)
	} else if got != 2 {
		t.Fatalf("expected webhooks=2, got %f", got)
	}

	mf := findMetricFamily(mfs, "payment_verify_wait_seconds")
	if mf == nil {
		t.Fatal("verify wait histogram not registered")
	}
	if sum := mf.GetMetric()[0].GetHistogram().GetSampleSum(); sum <= 0 {
		t.Fatalf("expected wait sum > 0, got %f", sum)
	}
}

func TestPaymentMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewPaymentMetrics(nil)
	metrics.IncInitiation("success")
	metrics.IncWebhook("failed")
	metrics.ObserveVerifyWait(time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
