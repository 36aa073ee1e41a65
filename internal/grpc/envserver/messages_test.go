package envserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/env"
)

// roundTrip sends in through protobuf bytes and decodes into out.
func roundTrip(t *testing.T, in, out wireMessage) []byte {
	t.Helper()
	data, err := proto.Marshal(toProto(in))
	require.NoError(t, err)

	msg := newProto(out)
	require.NoError(t, proto.Unmarshal(data, msg))
	out.decode(fields{msg})
	return data
}

func TestMessages_StepResponse(t *testing.T) {
	in := &StepResponse{env.StepResult{
		Observation: env.Observation{{1, -1, 0}, {0, 1, 0}, {-1, 0, 1}},
		Reward:      1,
		Terminated:  true,
		Info: env.Info{
			Player:       -1,
			MoveAccepted: true,
			Winner:       1,
			ActionMask:   [9]bool{false, false, true, true, false, true, false, true, false},
			EpisodeStep:  5,
		},
	}}

	out := &StepResponse{}
	roundTrip(t, in, out)
	assert.Equal(t, in, out)
}

func TestMessages_ResetRequestSeedPresence(t *testing.T) {
	zero := int64(0)
	out := &ResetRequest{}
	roundTrip(t, &ResetRequest{SessionID: "s", Seed: &zero}, out)
	require.NotNil(t, out.Seed, "a zero seed is still a seed")
	assert.Equal(t, int64(0), *out.Seed)

	roundTrip(t, &ResetRequest{SessionID: "s"}, out)
	assert.Nil(t, out.Seed)
	assert.Equal(t, "s", out.SessionID)
}

func TestMessages_MakeResponse(t *testing.T) {
	in := &MakeResponse{
		SessionID:        "abc",
		ActionSpace:      env.ActionSpace(),
		ObservationSpace: env.ObservationSpace(),
		Metadata:         env.Metadata{RenderModes: env.SupportedRenderModes, RenderFPS: 4},
	}
	out := &MakeResponse{}
	roundTrip(t, in, out)
	assert.Equal(t, in, out)
}

func TestMessages_EmptyMessagesEncodeToNothing(t *testing.T) {
	data := roundTrip(t, &CloseResponse{}, &CloseResponse{})
	assert.Empty(t, data)

	data = roundTrip(t, &DrainExperiencesRequest{}, &DrainExperiencesRequest{})
	assert.Empty(t, data)
}

func TestEnvFileRegistered(t *testing.T) {
	svc := envFile.Services().ByName("EnvService")
	require.NotNil(t, svc)
	assert.Equal(t, ServiceName, string(svc.FullName()))
	for _, m := range EnvService_ServiceDesc.Methods {
		assert.NotNil(t, svc.Methods().ByName(protoreflect.Name(m.MethodName)), m.MethodName)
	}
}
