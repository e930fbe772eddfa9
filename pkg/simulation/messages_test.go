package simulation

import (
	"testing"
	"time"

	"github.com/richard-sim/proto-boids/pkg/flock"
	"github.com/richard-sim/proto-boids/pkg/geometry"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestNewTick(t *testing.T) {
	msg := NewTick(16 * time.Millisecond)
	if got := msg.AsDuration(); got != 16*time.Millisecond {
		t.Errorf("NewTick().AsDuration() = %v; want 16ms", got)
	}
}

func TestObservationStruct_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		obs  flock.Observation
	}{
		{
			name: "empty flock",
			obs:  flock.Observation{Leader: flock.NoLeader, Agents: []flock.AgentView{}},
		},
		{
			name: "leaderless",
			obs: flock.Observation{
				Tick:       3,
				Elapsed:    0.05,
				Leader:     flock.NoLeader,
				Transition: flock.TransitionCleared,
				Agents: []flock.AgentView{
					{Index: 0, Position: geometry.Vector3D{X: 1, Y: 2, Z: 3}, Forward: geometry.Forward},
					{Index: 1, Position: geometry.Vector3D{X: -1, Y: 0.5, Z: 0}, Forward: geometry.Right},
				},
			},
		},
		{
			name: "leader at index zero",
			obs: flock.Observation{
				Tick:       120,
				Elapsed:    2,
				Leader:     flock.LeaderAt(0),
				Transition: flock.TransitionAssigned,
				Agents: []flock.AgentView{
					{Index: 0, Position: geometry.Zero, Forward: geometry.Up, Leader: true},
					{Index: 1, Position: geometry.Vector3D{X: 4}, Forward: geometry.Forward},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ObservationToStruct(tt.obs)
			if err != nil {
				t.Fatalf("ObservationToStruct() error = %v", err)
			}
			got, err := ObservationFromStruct(s)
			if err != nil {
				t.Fatalf("ObservationFromStruct() error = %v", err)
			}

			if got.Tick != tt.obs.Tick || got.Elapsed != tt.obs.Elapsed {
				t.Errorf("tick/elapsed = %d/%v; want %d/%v", got.Tick, got.Elapsed, tt.obs.Tick, tt.obs.Elapsed)
			}
			if got.Leader != tt.obs.Leader {
				t.Errorf("Leader = %v; want %v", got.Leader, tt.obs.Leader)
			}
			if got.Transition != tt.obs.Transition {
				t.Errorf("Transition = %v; want %v", got.Transition, tt.obs.Transition)
			}
			if len(got.Agents) != len(tt.obs.Agents) {
				t.Fatalf("len(Agents) = %d; want %d", len(got.Agents), len(tt.obs.Agents))
			}
			for i, want := range tt.obs.Agents {
				a := got.Agents[i]
				if a.Index != want.Index || a.Leader != want.Leader ||
					!a.Position.Eq(want.Position) || !a.Forward.Eq(want.Forward) {
					t.Errorf("agent %d = %+v; want %+v", i, a, want)
				}
			}
		})
	}
}

func TestObservationFromStruct_Invalid(t *testing.T) {
	if _, err := ObservationFromStruct(nil); err == nil {
		t.Error("expected error for nil struct")
	}

	badVector, err := structpb.NewStruct(map[string]interface{}{
		"tick":   1.0,
		"leader": -1.0,
		"agents": []interface{}{
			map[string]interface{}{
				"index":    0.0,
				"position": []interface{}{1.0, 2.0},
				"forward":  []interface{}{0.0, 0.0, 1.0},
			},
		},
	})
	if err != nil {
		t.Fatalf("structpb.NewStruct() error = %v", err)
	}
	if _, err := ObservationFromStruct(badVector); err == nil {
		t.Error("expected error for a 2-component position")
	}

	notAStruct, err := structpb.NewStruct(map[string]interface{}{
		"agents": []interface{}{"boid"},
	})
	if err != nil {
		t.Fatalf("structpb.NewStruct() error = %v", err)
	}
	if _, err := ObservationFromStruct(notAStruct); err == nil {
		t.Error("expected error for a non-struct agent entry")
	}
}
