// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordDBQuery(t *testing.T) {
	before := testutil.CollectAndCount(DBQueryDuration)
	RecordDBQuery("insert", "activity_events", 10*time.Millisecond, nil)
	after := testutil.CollectAndCount(DBQueryDuration)
	if after <= before-1 {
		t.Errorf("expected histogram series to be recorded, before=%d after=%d", before, after)
	}
}

func TestRecordDBQueryTruncatesLongErrors(t *testing.T) {
	longErr := errors.New("this is a very long error message that should definitely be truncated at fifty characters")
	RecordDBQuery("query", "activity_events", time.Millisecond, longErr)
	// The label value must be capped; collection would panic on invalid state.
	if got := testutil.CollectAndCount(DBQueryErrors); got == 0 {
		t.Error("expected error counter series to exist")
	}
}

func TestRecordEmittedEvent(t *testing.T) {
	before := testutil.ToFloat64(TrackerEventsEmitted.WithLabelValues("heartbeat"))
	RecordEmittedEvent("heartbeat")
	after := testutil.ToFloat64(TrackerEventsEmitted.WithLabelValues("heartbeat"))
	if after != before+1 {
		t.Errorf("expected counter to increment, before=%f after=%f", before, after)
	}
}

func TestRecordDroppedEvent(t *testing.T) {
	before := testutil.ToFloat64(TrackerEventsDropped.WithLabelValues("min_duration"))
	RecordDroppedEvent("min_duration")
	after := testutil.ToFloat64(TrackerEventsDropped.WithLabelValues("min_duration"))
	if after != before+1 {
		t.Errorf("expected counter to increment, before=%f after=%f", before, after)
	}
}

func TestRecordAPIRequestLabels(t *testing.T) {
	RecordAPIRequest("GET", "/api/v1/activity/summary", "200", 15*time.Millisecond)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	var family *dto.MetricFamily
	for _, mf := range families {
		if mf.GetName() == "api_requests_total" {
			family = mf
			break
		}
	}
	if family == nil {
		t.Fatal("api_requests_total not found in gathered families")
	}

	found := false
	for _, m := range family.GetMetric() {
		labels := map[string]string{}
		for _, lp := range m.GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}
		if labels["method"] == "GET" &&
			labels["endpoint"] == "/api/v1/activity/summary" &&
			labels["status_code"] == "200" {
			found = true
			if m.GetCounter().GetValue() < 1 {
				t.Errorf("counter value = %f, want at least 1", m.GetCounter().GetValue())
			}
		}
	}
	if !found {
		t.Error("no series with the recorded label set")
	}
}

func TestTrackActiveRequest(t *testing.T) {
	base := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != base+1 {
		t.Errorf("expected gauge %f, got %f", base+1, got)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != base {
		t.Errorf("expected gauge %f, got %f", base, got)
	}
}
