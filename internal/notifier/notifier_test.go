package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"StockSheet/internal/pipeline"
	"StockSheet/internal/recorder"
)

func TestTelegramNotifier_Send(t *testing.T) {
	var got map[string]string
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("123:abc", "42", "")
	n.Client.SetBaseURL(srv.URL)
	if err := n.Notify(context.Background(), "<b>hi</b>"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if path != "/bot123:abc/sendMessage" {
		t.Errorf("unexpected path %q", path)
	}
	if got["chat_id"] != "42" || got["parse_mode"] != "HTML" || got["text"] != "<b>hi</b>" {
		t.Errorf("unexpected payload %v", got)
	}
}

func TestTelegramNotifier_RetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("t", "c", "")
	n.Client.SetBaseURL(srv.URL)
	n.Backoff = time.Millisecond

	err := n.SendWithRetry(context.Background(), "x", 2)
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected exhausted retries, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestTelegramNotifier_RecoversOnRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"ok":false,"description":"Too Many Requests"}`))
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("t", "c", "")
	n.Client.SetBaseURL(srv.URL)
	n.Backoff = time.Millisecond
	if err := n.SendWithRetry(context.Background(), "x", 3); err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
}

func TestFormatRunSummary(t *testing.T) {
	start := time.Date(2024, 7, 31, 18, 0, 0, 0, time.UTC)
	report := &pipeline.Report{
		Started:  start,
		Finished: start.Add(4 * time.Second),
		Results: []pipeline.SymbolResult{
			{Symbol: "RELIANCE.NS", Status: recorder.StatusWritten, Rows: 22},
			{Symbol: "TCS.NS", Status: recorder.StatusSkipped},
			{Symbol: "INFY.NS", Status: recorder.StatusFailed, Err: errors.New("status 404 <html>")},
		},
	}
	msg := FormatRunSummary(report, "StockAnalysisSheet")
	for _, want := range []string{
		"⚠️ <b>StockSheet</b> | 2024-07-31 18:00",
		"Destination: StockAnalysisSheet",
		"Written (1, 22 rows): RELIANCE.NS",
		"Skipped (1): TCS.NS",
		"INFY.NS: status 404 &lt;html&gt;",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("summary missing %q:\n%s", want, msg)
		}
	}

	report.Results = report.Results[:1]
	if msg := FormatRunSummary(report, ""); !strings.HasPrefix(msg, "✅") || !strings.Contains(msg, "Failed (0): -") {
		t.Errorf("unexpected clean summary:\n%s", msg)
	}
}
