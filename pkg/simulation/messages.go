package simulation

import (
	"fmt"
	"time"

	"github.com/richard-sim/proto-boids/pkg/flock"
	"github.com/richard-sim/proto-boids/pkg/geometry"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Messages understood by FlockActor:
//
//	*durationpb.Duration  advance the flock by that much simulated time
//	*emptypb.Empty        reply with the current observation as a *structpb.Struct

// NewTick builds the tick message for a step of dt.
func NewTick(dt time.Duration) *durationpb.Duration {
	return durationpb.New(dt)
}

// NewSnapshotRequest builds the message asking for the current observation.
func NewSnapshotRequest() *emptypb.Empty {
	return &emptypb.Empty{}
}

// ObservationToStruct encodes an observation for the wire. The leader is -1 when
// unset and the transition is its String name.
func ObservationToStruct(obs flock.Observation) (*structpb.Struct, error) {
	leader := -1
	if i, ok := obs.Leader.Index(); ok {
		leader = i
	}

	agents := make([]interface{}, len(obs.Agents))
	for i, a := range obs.Agents {
		agents[i] = map[string]interface{}{
			"index":    a.Index,
			"position": vectorToList(a.Position),
			"forward":  vectorToList(a.Forward),
			"leader":   a.Leader,
		}
	}

	return structpb.NewStruct(map[string]interface{}{
		"tick":       float64(obs.Tick),
		"elapsed":    obs.Elapsed,
		"leader":     leader,
		"transition": obs.Transition.String(),
		"agents":     agents,
	})
}

// ObservationFromStruct decodes what ObservationToStruct produced.
func ObservationFromStruct(s *structpb.Struct) (flock.Observation, error) {
	var obs flock.Observation
	if s == nil {
		return obs, fmt.Errorf("nil observation struct")
	}
	fields := s.GetFields()

	obs.Tick = uint64(fields["tick"].GetNumberValue())
	obs.Elapsed = fields["elapsed"].GetNumberValue()
	if leader := int(fields["leader"].GetNumberValue()); leader >= 0 {
		obs.Leader = flock.LeaderAt(leader)
	}
	obs.Transition = flock.ParseTransition(fields["transition"].GetStringValue())

	list := fields["agents"].GetListValue().GetValues()
	obs.Agents = make([]flock.AgentView, len(list))
	for i, v := range list {
		agent := v.GetStructValue().GetFields()
		if agent == nil {
			return obs, fmt.Errorf("agent %d: expected a struct, got %v", i, v)
		}
		pos, err := vectorFromList(agent["position"])
		if err != nil {
			return obs, fmt.Errorf("agent %d position: %w", i, err)
		}
		fwd, err := vectorFromList(agent["forward"])
		if err != nil {
			return obs, fmt.Errorf("agent %d forward: %w", i, err)
		}
		obs.Agents[i] = flock.AgentView{
			Index:    int(agent["index"].GetNumberValue()),
			Position: pos,
			Forward:  fwd,
			Leader:   agent["leader"].GetBoolValue(),
		}
	}
	return obs, nil
}

func vectorToList(v geometry.Vector3D) []interface{} {
	return []interface{}{v.X, v.Y, v.Z}
}

func vectorFromList(v *structpb.Value) (geometry.Vector3D, error) {
	xyz := v.GetListValue().GetValues()
	if len(xyz) != 3 {
		return geometry.Vector3D{}, fmt.Errorf("expected 3 components, got %d", len(xyz))
	}
	return geometry.Vector3D{
		X: xyz[0].GetNumberValue(),
		Y: xyz[1].GetNumberValue(),
		Z: xyz[2].GetNumberValue(),
	}, nil
}
