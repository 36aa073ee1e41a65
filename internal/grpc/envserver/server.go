package envserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/env"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/experience"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/events"
)

// ErrNoFrame is returned by Render for sessions whose render mode produces no frames.
var ErrNoFrame = errors.New("render mode does not produce frames")

// Options configures a Server.
type Options struct {
	Registry    *env.Registry
	MaxSessions int
	SessionTTL  time.Duration
	// Buffer enables experience recording and DrainExperiences.
	Buffer *experience.Buffer
	// EventBus receives the game events of every session.
	EventBus events.Publisher
	Clock    quartz.Clock
	Logger   zerolog.Logger
}

// Server implements EnvServiceServer on top of a SessionManager.
type Server struct {
	sessions   *SessionManager
	buffer     *experience.Buffer
	serializer *experience.Serializer
	logger     zerolog.Logger
}

var _ EnvServiceServer = (*Server)(nil)

// NewServer creates the environment service.
func NewServer(opts Options) *Server {
	return &Server{
		sessions: NewSessionManager(SessionManagerOptions{
			Registry:    opts.Registry,
			MaxSessions: opts.MaxSessions,
			SessionTTL:  opts.SessionTTL,
			Buffer:      opts.Buffer,
			EventBus:    opts.EventBus,
			Clock:       opts.Clock,
			Logger:      opts.Logger,
		}),
		buffer:     opts.Buffer,
		serializer: experience.NewSerializer(),
		logger:     opts.Logger.With().Str("component", "env_server").Logger(),
	}
}

// Sessions exposes the session manager for lifecycle control.
func (s *Server) Sessions() *SessionManager { return s.sessions }

// Make creates a session for a registered environment.
func (s *Server) Make(ctx context.Context, req *MakeRequest) (*MakeResponse, error) {
	mode, err := env.ParseRenderMode(req.RenderMode)
	if err != nil {
		return nil, toStatus(err)
	}
	// human needs a local display and ansi writes to the server's terminal.
	if mode == env.RenderHuman || mode == env.RenderANSI {
		return nil, status.Errorf(codes.InvalidArgument, "render mode %q is not available remotely", mode)
	}
	envID := req.EnvID
	if envID == "" {
		envID = env.DefaultID
	}

	id, err := s.sessions.Create(envID, env.Options{
		RenderMode:      mode,
		MaxEpisodeSteps: req.MaxEpisodeSteps,
	})
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &MakeResponse{SessionID: id}
	err = s.sessions.Do(id, func(e env.Env) error {
		resp.ActionSpace = e.ActionSpace()
		resp.ObservationSpace = e.ObservationSpace()
		resp.Metadata = e.Metadata()
		return nil
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return resp, nil
}

func (s *Server) Reset(ctx context.Context, req *ResetRequest) (*ResetResponse, error) {
	resp := &ResetResponse{}
	err := s.sessions.Do(req.SessionID, func(e env.Env) error {
		var err error
		resp.Observation, resp.Info, err = e.Reset(env.ResetOptions{Seed: req.Seed})
		return err
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return resp, nil
}

func (s *Server) Step(ctx context.Context, req *StepRequest) (*StepResponse, error) {
	resp := &StepResponse{}
	err := s.sessions.Do(req.SessionID, func(e env.Env) error {
		var err error
		resp.StepResult, err = e.Step(req.Action)
		return err
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return resp, nil
}

func (s *Server) Render(ctx context.Context, req *RenderRequest) (*RenderResponse, error) {
	resp := &RenderResponse{}
	err := s.sessions.Do(req.SessionID, func(e env.Env) error {
		frame, err := e.Render()
		if err != nil {
			return err
		}
		if frame == nil {
			return fmt.Errorf("%w: %s", ErrNoFrame, e.RenderMode())
		}
		resp.Width, resp.Height, resp.Pix = frame.Width, frame.Height, frame.Pix
		return nil
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return resp, nil
}

func (s *Server) Close(ctx context.Context, req *CloseRequest) (*CloseResponse, error) {
	if err := s.sessions.Close(req.SessionID); err != nil {
		return nil, toStatus(err)
	}
	return &CloseResponse{}, nil
}

// DrainExperiences removes up to Max recorded transitions, oldest first.
// Once the buffer is closed and empty it reports FailedPrecondition.
func (s *Server) DrainExperiences(ctx context.Context, req *DrainExperiencesRequest) (*DrainExperiencesResponse, error) {
	if s.buffer == nil {
		return nil, status.Error(codes.FailedPrecondition, "experience collection is disabled")
	}
	if req.Max < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "max must be non-negative, got %d", req.Max)
	}

	var ts []*experience.Transition
	if req.Max == 0 {
		ts = s.buffer.GetAll()
	} else {
		ts = s.buffer.Get(req.Max)
	}
	if len(ts) == 0 && s.buffer.Stats().Closed {
		return nil, toStatus(experience.ErrBufferClosed)
	}

	data, err := experience.EncodeTransitions(ts)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode transitions: %v", err)
	}

	resp := &DrainExperiencesResponse{Count: len(ts), Data: data}
	if req.IncludeTensors {
		s.appendTensors(resp, ts)
	}

	s.logger.Debug().Int("count", len(ts)).Bool("tensors", req.IncludeTensors).Msg("Drained experiences")
	return resp, nil
}

func (s *Server) appendTensors(resp *DrainExperiencesResponse, ts []*experience.Transition) {
	for _, d := range s.serializer.GetTensorShape() {
		resp.TensorShape = append(resp.TensorShape, int(d))
	}
	for _, t := range ts {
		state, next := s.serializer.TransitionTensors(t)
		resp.States = append(resp.States, state...)
		resp.NextStates = append(resp.NextStates, next...)
		resp.ActionMasks = append(resp.ActionMasks, s.serializer.ActionMaskToFloats(t.ActionMask)...)
	}
}

// toStatus maps domain errors onto gRPC status codes.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, core.ErrInvalidAction), errors.Is(err, env.ErrConfiguration):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, env.ErrNotRegistered), errors.Is(err, ErrSessionNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrTooManySessions):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, ErrNoFrame), errors.Is(err, experience.ErrBufferClosed):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// GRPCOptions configures NewGRPCServer.
type GRPCOptions struct {
	EnableReflection bool
	Logger           zerolog.Logger
}

// NewGRPCServer builds a grpc.Server with the interceptors, EnvService and the
// health service registered.
func NewGRPCServer(srv EnvServiceServer, opts GRPCOptions) (*grpc.Server, *health.Server) {
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			LoggingInterceptor(opts.Logger),
			RecoveryInterceptor(opts.Logger),
		),
	)
	RegisterEnvServiceServer(gs, srv)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(gs, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	if opts.EnableReflection {
		reflection.Register(gs)
	}
	return gs, healthServer
}

// SetNotServing flips both health entries to NOT_SERVING ahead of shutdown.
func SetNotServing(h *health.Server) {
	h.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	h.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
}
