package maintenance

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/woozymasta/mcstatus/internal/config"
	"github.com/woozymasta/mcstatus/internal/models"
	"github.com/woozymasta/mcstatus/internal/status"
	"github.com/woozymasta/mcstatus/internal/transport"
)

type stubStore struct {
	records []models.QueryRecord
	before  time.Time
	limit   int
}

func (s *stubStore) ListQueries(limit int) ([]models.QueryRecord, error) {
	s.limit = limit
	return s.records, nil
}

func (s *stubStore) CountQueries() (int64, error) {
	return int64(len(s.records)) + 40, nil
}

func (s *stubStore) PruneQueries(before time.Time) (int64, error) {
	s.before = before
	return 5, nil
}

type stubProber struct {
	result *status.Result
	err    error
	target string
}

func (p *stubProber) Probe(_ context.Context, host string, port int) (*status.Result, error) {
	p.target = fmt.Sprintf("%s:%d", host, port)
	return p.result, p.err
}

func TestRunNothing(t *testing.T) {
	if Run(&config.Config{}, &stubStore{}, &stubProber{}, &bytes.Buffer{}) {
		t.Error("Run reported a task without any maintenance flag")
	}
}

func TestRunCheck(t *testing.T) {
	cfg := &config.Config{}
	cfg.Maintenance.Check = "mc.example.com:25565"

	prober := &stubProber{result: &status.Result{Payload: `{"players":{"online":1}}`, Recognized: true}}
	var out bytes.Buffer

	if !Run(cfg, nil, prober, &out) {
		t.Fatal("check not handled")
	}
	if prober.target != "mc.example.com:25565" {
		t.Errorf("probed %q", prober.target)
	}
	if got := strings.TrimSpace(out.String()); got != `{"players":{"online":1}}` {
		t.Errorf("output = %q", got)
	}
}

func TestRunCheckFailure(t *testing.T) {
	tests := []struct {
		name    string
		address string
		err     error
	}{
		{"missing port", "mc.example.com", nil},
		{"bad port", "mc.example.com:http", nil},
		{"query error", "mc.example.com:25565", transport.ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Maintenance.Check = tt.address

			var out bytes.Buffer
			if !Run(cfg, nil, &stubProber{err: tt.err}, &out) {
				t.Fatal("check not handled")
			}
			if out.Len() != 0 {
				t.Errorf("unexpected output %q", out.String())
			}
		})
	}
}

func TestRunList(t *testing.T) {
	cfg := &config.Config{}
	cfg.Maintenance.List = 10

	store := &stubStore{records: []models.QueryRecord{
		{QueriedAt: time.Now(), Host: "mc.example.com", Port: 25565, Outcome: models.OutcomeOK, LatencyMS: 42, PayloadSize: 120, CountryCode: "DE"},
		{QueriedAt: time.Now(), Host: "down.example.com", Port: 25566, Outcome: "timeout"},
	}}
	var out bytes.Buffer

	if !Run(cfg, store, &stubProber{}, &out) {
		t.Fatal("list not handled")
	}
	if store.limit != 10 {
		t.Errorf("limit = %d", store.limit)
	}

	text := out.String()
	for _, want := range []string{"HOST", "mc.example.com", "down.example.com", "42ms", "timeout", "DE", "2 of 42 records"} {
		if !strings.Contains(text, want) {
			t.Errorf("table missing %q:\n%s", want, text)
		}
	}
}

func TestRunPrune(t *testing.T) {
	cfg := &config.Config{}
	cfg.Maintenance.PruneOlder = 48 * time.Hour

	store := &stubStore{}
	if !Run(cfg, store, &stubProber{}, &bytes.Buffer{}) {
		t.Fatal("prune not handled")
	}

	if age := time.Since(store.before); age < 48*time.Hour || age > 49*time.Hour {
		t.Errorf("prune cutoff %v ago, want about 48h", age)
	}
}

func TestRunWithoutHistory(t *testing.T) {
	cfg := &config.Config{}
	cfg.Maintenance.List = 5

	if !Run(cfg, nil, &stubProber{}, &bytes.Buffer{}) {
		t.Error("list without history not handled")
	}
}
