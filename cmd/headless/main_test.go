package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/richard-sim/proto-boids/pkg/flock"
	golog "github.com/tochemey/goakt/v3/log"
)

func TestTickDuration(t *testing.T) {
	tests := []struct {
		dt   float64
		want time.Duration
	}{
		{0, 0},
		{1.0 / 60.0, 16666667 * time.Nanosecond},
		{0.1, 100 * time.Millisecond},
		{2, 2 * time.Second},
	}
	for _, tt := range tests {
		if got := tickDuration(tt.dt); got != tt.want {
			t.Errorf("tickDuration(%v) = %v; want %v", tt.dt, got, tt.want)
		}
	}
}

func TestRunStats_Record(t *testing.T) {
	rs := runStats{firstLeader: -1}
	steps := []flock.Observation{
		{Transition: flock.TransitionNone, Leader: flock.NoLeader},
		// Clearing while leaderless still counts.
		{Transition: flock.TransitionCleared, Leader: flock.NoLeader},
		{Transition: flock.TransitionAssigned, Leader: flock.LeaderAt(3)},
		// The same agent re-elected is a second assignment.
		{Transition: flock.TransitionAssigned, Leader: flock.LeaderAt(3)},
		{Transition: flock.TransitionNone, Leader: flock.LeaderAt(3)},
		{Transition: flock.TransitionCleared, Leader: flock.NoLeader},
	}
	for i, obs := range steps {
		rs.record(i+1, obs)
	}

	if rs.ticks != 6 {
		t.Errorf("ticks = %d; want 6", rs.ticks)
	}
	if rs.leaderAssigned != 2 {
		t.Errorf("leaderAssigned = %d; want 2", rs.leaderAssigned)
	}
	if rs.leaderCleared != 2 {
		t.Errorf("leaderCleared = %d; want 2", rs.leaderCleared)
	}
	if rs.leaderTicks != 3 {
		t.Errorf("leaderTicks = %d; want 3", rs.leaderTicks)
	}
	if rs.firstLeader != 3 {
		t.Errorf("firstLeader = %d; want 3", rs.firstLeader)
	}
}

func TestRun_Report(t *testing.T) {
	var out bytes.Buffer
	opts := options{ticks: 20, dt: 0.05, seedBase: 1, runs: 2, workers: 2}
	if err := run(context.Background(), opts, &out, golog.DiscardLogger); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	report := out.String()
	for _, want := range []string{
		"=== Headless Flock Report ===",
		"--- Run 1 ",
		"--- Run 2 ",
		"workers=2",
		"dt=50ms",
		"=== Aggregate ===",
		"runs=2",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report is missing %q:\n%s", want, report)
		}
	}
}

func TestRun_Errors(t *testing.T) {
	badConfig := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(badConfig, []byte(`{"boundsRadius": -1}`), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		opts options
		want string
	}{
		{"no runs", options{ticks: 1, runs: 0}, "-runs"},
		{"no ticks", options{ticks: 0, runs: 1}, "-ticks"},
		{"negative dt", options{ticks: 1, runs: 1, dt: -1}, "-dt"},
		{"missing config", options{ticks: 1, runs: 1, configFile: filepath.Join(t.TempDir(), "none.json")}, "config"},
		{"invalid config", options{ticks: 1, runs: 1, configFile: badConfig}, "config validation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := run(context.Background(), tt.opts, &out, golog.DiscardLogger)
			if err == nil {
				t.Fatal("run() error = nil; want an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("run() error = %q; want it to mention %q", err, tt.want)
			}
			if out.Len() != 0 {
				t.Errorf("run() wrote a report before failing:\n%s", out.String())
			}
		})
	}
}
