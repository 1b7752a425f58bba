package dashboard

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"fraudpipe/internal/scoring"
)

func getSummary(t *testing.T, d *Dashboard) Summary {
	t.Helper()
	req := httptest.NewRequest("GET", "/summary", nil)
	rec := httptest.NewRecorder()
	d.handleSummary(rec, req)

	if rec.Code != 200 {
		t.Fatalf("summary returned status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var summary Summary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("failed to decode summary: %v", err)
	}
	return summary
}

func TestDashboard_SummaryEmpty(t *testing.T) {
	d := New(0)

	summary := getSummary(t, d)
	if summary.Rounds != 0 {
		t.Errorf("rounds = %d, want 0", summary.Rounds)
	}
	if summary.Latest != nil {
		t.Errorf("expected no latest round before the first publish, got %+v", summary.Latest)
	}
}

func TestDashboard_PublishUpdatesSummary(t *testing.T) {
	d := New(0)

	d.Publish(scoring.Round{Epoch: 1, Precision: 1, Recall: 0.5, FBeta: 2.0 / 3.0, IsBest: true})
	d.Publish(scoring.Round{Epoch: 2, FBeta: 0.1})
	d.Publish(scoring.Round{Epoch: 3, FBeta: 0.9, IsBest: true})
	d.Publish(scoring.Round{Epoch: 4, FBeta: 0.9})

	summary := getSummary(t, d)
	if summary.Rounds != 4 {
		t.Errorf("rounds = %d, want 4", summary.Rounds)
	}
	if summary.BestEpoch != 3 || summary.BestFBeta != 0.9 {
		t.Errorf("best = epoch %d f_beta %f, want 3/0.9", summary.BestEpoch, summary.BestFBeta)
	}
	if summary.Latest == nil || summary.Latest.Epoch != 4 {
		t.Errorf("latest = %+v, want epoch 4", summary.Latest)
	}
}

func TestDashboard_PublishNeverBlocks(t *testing.T) {
	d := New(0)

	// No broadcaster is running, so the channel fills at its capacity. Every
	// publish beyond that must drop instead of stalling the training loop.
	for i := 1; i <= 500; i++ {
		d.Publish(scoring.Round{Epoch: i, FBeta: 0.5})
	}

	summary := getSummary(t, d)
	if summary.Rounds != 500 {
		t.Errorf("rounds = %d, want 500", summary.Rounds)
	}
}

func TestDashboard_Routing(t *testing.T) {
	d := New(0)
	d.Publish(scoring.Round{Epoch: 1, FBeta: 0.4, IsBest: true})

	// GET routes through the router to the summary handler
	rec := httptest.NewRecorder()
	d.server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/summary", nil))
	if rec.Code != 200 {
		t.Errorf("GET /summary returned status %d", rec.Code)
	}
	var summary Summary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("failed to decode summary: %v", err)
	}
	if summary.Rounds != 1 {
		t.Errorf("rounds = %d, want 1", summary.Rounds)
	}

	// Non-GET methods are rejected by the route itself
	rec = httptest.NewRecorder()
	d.server.Handler.ServeHTTP(rec, httptest.NewRequest("POST", "/summary", nil))
	if rec.Code != 405 {
		t.Errorf("POST /summary returned status %d, want 405", rec.Code)
	}

	// Unknown paths 404
	rec = httptest.NewRecorder()
	d.server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/nope", nil))
	if rec.Code != 404 {
		t.Errorf("GET /nope returned status %d, want 404", rec.Code)
	}
}

func TestDashboard_StartStop(t *testing.T) {
	d := New(0) // port 0 lets the OS choose

	if err := d.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := d.Start(); err == nil {
		t.Error("expected error starting an already-running dashboard")
	}
	if err := d.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if err := d.Stop(); err != nil {
		t.Errorf("second Stop must be a no-op, got %v", err)
	}
}
