package envserver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection/grpc_reflection_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/env"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/experience"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/testutil"
)

const bufSize = 1024 * 1024

type testHarness struct {
	conn   *grpc.ClientConn
	client *Client
	health grpc_health_v1.HealthClient
	server *Server
}

func newHarness(t *testing.T, opts Options) *testHarness {
	t.Helper()
	opts.Logger = zerolog.Nop()
	srv := NewServer(opts)
	gs, _ := NewGRPCServer(srv, GRPCOptions{EnableReflection: true, Logger: zerolog.Nop()})

	lis := bufconn.Listen(bufSize)
	go func() { _ = gs.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		gs.Stop()
		srv.Sessions().CloseAll()
	})

	return &testHarness{
		conn:   conn,
		client: NewClient(conn),
		health: grpc_health_v1.NewHealthClient(conn),
		server: srv,
	}
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, status.Code(err), "error: %v", err)
}

func TestServer_MakeDescribesSpaces(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := testCtx(t)

	resp, err := h.client.Make(ctx, &MakeRequest{EnvID: env.DefaultID})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, 9, resp.ActionSpace.N)
	assert.Equal(t, []int{3, 3}, resp.ObservationSpace.Shape)
	assert.Equal(t, -1, resp.ObservationSpace.Low)
	assert.Equal(t, 1, resp.ObservationSpace.High)
	assert.Equal(t, env.DefaultRenderFPS, resp.Metadata.RenderFPS)
	assert.Equal(t, 1, h.server.Sessions().Count())
}

func TestServer_MakeErrors(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := testCtx(t)

	tests := []struct {
		name string
		req  *MakeRequest
		code codes.Code
	}{
		{"unknown env", &MakeRequest{EnvID: "Chess-v0"}, codes.NotFound},
		{"unknown render mode", &MakeRequest{RenderMode: "hologram"}, codes.InvalidArgument},
		{"human mode", &MakeRequest{RenderMode: "human"}, codes.InvalidArgument},
		{"ansi mode", &MakeRequest{RenderMode: "ansi"}, codes.InvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.client.Make(ctx, tt.req)
			requireCode(t, err, tt.code)
		})
	}
	assert.Equal(t, 0, h.server.Sessions().Count())
}

func TestServer_PlaysEpisodeToWin(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := testCtx(t)

	made, err := h.client.Make(ctx, &MakeRequest{})
	require.NoError(t, err)

	reset, err := h.client.Reset(ctx, &ResetRequest{SessionID: made.SessionID, Seed: ptr(int64(3))})
	require.NoError(t, err)
	assert.Equal(t, env.Observation{}, reset.Observation)
	assert.Equal(t, 1, reset.Info.Player)

	var last *StepResponse
	for i, a := range testutil.TopRowWin {
		last, err = h.client.Step(ctx, &StepRequest{SessionID: made.SessionID, Action: a})
		require.NoError(t, err)
		if i < len(testutil.TopRowWin)-1 {
			assert.False(t, last.Terminated)
			assert.Equal(t, 0.0, last.Reward)
		}
	}

	assert.True(t, last.Terminated)
	assert.False(t, last.Truncated)
	assert.Equal(t, 1.0, last.Reward)
	assert.Equal(t, 1, last.Info.Winner)
	assert.Equal(t, [3]int{1, 1, 1}, last.Observation[0])
}

func TestServer_StepErrors(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := testCtx(t)

	made, err := h.client.Make(ctx, &MakeRequest{})
	require.NoError(t, err)
	_, err = h.client.Reset(ctx, &ResetRequest{SessionID: made.SessionID})
	require.NoError(t, err)

	_, err = h.client.Step(ctx, &StepRequest{SessionID: made.SessionID, Action: 9})
	requireCode(t, err, codes.InvalidArgument)

	_, err = h.client.Step(ctx, &StepRequest{SessionID: "missing", Action: 0})
	requireCode(t, err, codes.NotFound)

	// occupied cell is not an error
	_, err = h.client.Step(ctx, &StepRequest{SessionID: made.SessionID, Action: 4})
	require.NoError(t, err)
	resp, err := h.client.Step(ctx, &StepRequest{SessionID: made.SessionID, Action: 4})
	require.NoError(t, err)
	assert.False(t, resp.Info.MoveAccepted)
}

func TestServer_TimeLimitOverride(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := testCtx(t)

	made, err := h.client.Make(ctx, &MakeRequest{MaxEpisodeSteps: 2})
	require.NoError(t, err)
	_, err = h.client.Reset(ctx, &ResetRequest{SessionID: made.SessionID})
	require.NoError(t, err)

	first, err := h.client.Step(ctx, &StepRequest{SessionID: made.SessionID, Action: 0})
	require.NoError(t, err)
	assert.False(t, first.Truncated)

	second, err := h.client.Step(ctx, &StepRequest{SessionID: made.SessionID, Action: 1})
	require.NoError(t, err)
	assert.True(t, second.Truncated)
	assert.False(t, second.Terminated)
}

func TestServer_Render(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := testCtx(t)

	rgb, err := h.client.Make(ctx, &MakeRequest{RenderMode: "rgb_array"})
	require.NoError(t, err)
	_, err = h.client.Reset(ctx, &ResetRequest{SessionID: rgb.SessionID})
	require.NoError(t, err)

	frame, err := h.client.Render(ctx, &RenderRequest{SessionID: rgb.SessionID})
	require.NoError(t, err)
	assert.Equal(t, 900, frame.Width)
	assert.Equal(t, 900, frame.Height)
	assert.Len(t, frame.Pix, 900*900*3)

	plain, err := h.client.Make(ctx, &MakeRequest{})
	require.NoError(t, err)
	_, err = h.client.Render(ctx, &RenderRequest{SessionID: plain.SessionID})
	requireCode(t, err, codes.FailedPrecondition)
}

func TestServer_Close(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := testCtx(t)

	made, err := h.client.Make(ctx, &MakeRequest{})
	require.NoError(t, err)

	_, err = h.client.Close(ctx, &CloseRequest{SessionID: made.SessionID})
	require.NoError(t, err)
	assert.Equal(t, 0, h.server.Sessions().Count())

	_, err = h.client.Step(ctx, &StepRequest{SessionID: made.SessionID, Action: 0})
	requireCode(t, err, codes.NotFound)

	_, err = h.client.Close(ctx, &CloseRequest{SessionID: made.SessionID})
	requireCode(t, err, codes.NotFound)
}

func TestServer_MaxSessions(t *testing.T) {
	h := newHarness(t, Options{MaxSessions: 2})
	ctx := testCtx(t)

	for i := 0; i < 2; i++ {
		_, err := h.client.Make(ctx, &MakeRequest{})
		require.NoError(t, err)
	}
	_, err := h.client.Make(ctx, &MakeRequest{})
	requireCode(t, err, codes.ResourceExhausted)
}

func TestServer_DrainExperiences(t *testing.T) {
	buffer := experience.NewBuffer(100, zerolog.Nop())
	h := newHarness(t, Options{Buffer: buffer})
	ctx := testCtx(t)

	made, err := h.client.Make(ctx, &MakeRequest{})
	require.NoError(t, err)
	_, err = h.client.Reset(ctx, &ResetRequest{SessionID: made.SessionID})
	require.NoError(t, err)
	for _, a := range testutil.TopRowWin {
		_, err = h.client.Step(ctx, &StepRequest{SessionID: made.SessionID, Action: a})
		require.NoError(t, err)
	}

	resp, err := h.client.DrainExperiences(ctx, &DrainExperiencesRequest{Max: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Count)

	ts, err := experience.DecodeTransitions(resp.Data)
	require.NoError(t, err)
	require.Len(t, ts, 2)
	assert.Equal(t, 0, ts[0].Action)
	assert.Equal(t, 3, ts[1].Action)

	rest, err := h.client.DrainExperiences(ctx, &DrainExperiencesRequest{})
	require.NoError(t, err)
	assert.Equal(t, len(testutil.TopRowWin)-2, rest.Count)

	ts, err = experience.DecodeTransitions(rest.Data)
	require.NoError(t, err)
	assert.True(t, ts[len(ts)-1].Terminated)

	_, err = h.client.DrainExperiences(ctx, &DrainExperiencesRequest{Max: -1})
	requireCode(t, err, codes.InvalidArgument)
}

func TestServer_DrainExperiencesWithTensors(t *testing.T) {
	buffer := experience.NewBuffer(100, zerolog.Nop())
	h := newHarness(t, Options{Buffer: buffer})
	ctx := testCtx(t)

	made, err := h.client.Make(ctx, &MakeRequest{})
	require.NoError(t, err)
	_, err = h.client.Reset(ctx, &ResetRequest{SessionID: made.SessionID})
	require.NoError(t, err)
	for _, a := range testutil.TopRowWin {
		_, err = h.client.Step(ctx, &StepRequest{SessionID: made.SessionID, Action: a})
		require.NoError(t, err)
	}

	resp, err := h.client.DrainExperiences(ctx, &DrainExperiencesRequest{IncludeTensors: true})
	require.NoError(t, err)

	n := len(testutil.TopRowWin)
	const cells = 9
	require.Equal(t, n, resp.Count)
	assert.Equal(t, []int{3, 3, 3}, resp.TensorShape)
	require.Len(t, resp.States, n*3*cells)
	require.Len(t, resp.NextStates, n*3*cells)
	require.Len(t, resp.ActionMasks, n*cells)

	// first transition starts from the empty board with every action legal
	for i := 0; i < cells; i++ {
		assert.Equal(t, float32(0), resp.States[i], "own channel")
		assert.Equal(t, float32(1), resp.States[2*cells+i], "empty channel")
		assert.Equal(t, float32(1), resp.ActionMasks[i])
	}
	// X played cell 0 and sees it in its own channel afterwards
	assert.Equal(t, float32(1), resp.NextStates[0])

	plain, err := h.client.DrainExperiences(ctx, &DrainExperiencesRequest{})
	require.NoError(t, err)
	assert.Zero(t, plain.Count)
	assert.Empty(t, plain.States)
	assert.Empty(t, plain.TensorShape)
}

func TestServer_DrainExperiencesClosedBuffer(t *testing.T) {
	buffer := experience.NewBuffer(100, zerolog.Nop())
	h := newHarness(t, Options{Buffer: buffer})
	ctx := testCtx(t)

	made, err := h.client.Make(ctx, &MakeRequest{})
	require.NoError(t, err)
	_, err = h.client.Reset(ctx, &ResetRequest{SessionID: made.SessionID})
	require.NoError(t, err)
	_, err = h.client.Step(ctx, &StepRequest{SessionID: made.SessionID, Action: 4})
	require.NoError(t, err)

	require.NoError(t, buffer.Close())

	resp, err := h.client.DrainExperiences(ctx, &DrainExperiencesRequest{})
	require.NoError(t, err, "what was recorded before closing is still drained")
	assert.Equal(t, 1, resp.Count)

	_, err = h.client.DrainExperiences(ctx, &DrainExperiencesRequest{})
	requireCode(t, err, codes.FailedPrecondition)
}

func TestServer_DrainExperiencesDisabled(t *testing.T) {
	h := newHarness(t, Options{})
	_, err := h.client.DrainExperiences(testCtx(t), &DrainExperiencesRequest{})
	requireCode(t, err, codes.FailedPrecondition)
}

func TestServer_Health(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := testCtx(t)

	for _, svc := range []string{"", ServiceName} {
		resp, err := h.health.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: svc})
		require.NoError(t, err)
		assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)
	}
}

func TestServer_ReflectionDescribesService(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := testCtx(t)

	stream, err := grpc_reflection_v1.NewServerReflectionClient(h.conn).ServerReflectionInfo(ctx)
	require.NoError(t, err)

	require.NoError(t, stream.Send(&grpc_reflection_v1.ServerReflectionRequest{
		MessageRequest: &grpc_reflection_v1.ServerReflectionRequest_ListServices{},
	}))
	listed, err := stream.Recv()
	require.NoError(t, err)
	var names []string
	for _, svc := range listed.GetListServicesResponse().GetService() {
		names = append(names, svc.GetName())
	}
	assert.Contains(t, names, ServiceName)

	require.NoError(t, stream.Send(&grpc_reflection_v1.ServerReflectionRequest{
		MessageRequest: &grpc_reflection_v1.ServerReflectionRequest_FileContainingSymbol{
			FileContainingSymbol: ServiceName,
		},
	}))
	resp, err := stream.Recv()
	require.NoError(t, err)
	require.Nil(t, resp.GetErrorResponse(), "symbol lookup failed")

	files := resp.GetFileDescriptorResponse().GetFileDescriptorProto()
	require.Len(t, files, 1)
	var fdp descriptorpb.FileDescriptorProto
	require.NoError(t, proto.Unmarshal(files[0], &fdp))
	assert.Equal(t, ProtoFile, fdp.GetName())
	require.Len(t, fdp.GetService(), 1)
	assert.Equal(t, "EnvService", fdp.GetService()[0].GetName())
	assert.Len(t, fdp.GetService()[0].GetMethod(), 6)
	require.NoError(t, stream.CloseSend())
}

func TestRecoveryInterceptor(t *testing.T) {
	interceptor := RecoveryInterceptor(zerolog.Nop())
	info := &grpc.UnaryServerInfo{FullMethod: MethodStep}

	_, err := interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		panic("boom")
	})
	requireCode(t, err, codes.Internal)

	resp, err := interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func ptr[T any](v T) *T { return &v }
