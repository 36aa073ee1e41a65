package envserver

import (
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/env"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"
)

type MakeRequest struct {
	EnvID      string
	RenderMode string
	// MaxEpisodeSteps overrides the registered step cap when positive.
	MaxEpisodeSteps int
}

type MakeResponse struct {
	SessionID        string
	ActionSpace      env.Discrete
	ObservationSpace env.Box
	Metadata         env.Metadata
}

type ResetRequest struct {
	SessionID string
	Seed      *int64
}

type ResetResponse struct {
	Observation env.Observation
	Info        env.Info
}

type StepRequest struct {
	SessionID string
	Action    int
}

type StepResponse struct {
	env.StepResult
}

type RenderRequest struct {
	SessionID string
}

// RenderResponse carries an RGB frame, row-major, three bytes per pixel.
type RenderResponse struct {
	Width  int
	Height int
	Pix    []byte
}

type CloseRequest struct {
	SessionID string
}

type CloseResponse struct{}

type DrainExperiencesRequest struct {
	// Max caps the number of transitions returned; zero drains everything.
	Max int
	// IncludeTensors adds the network-ready tensors of every drained transition.
	IncludeTensors bool
}

// DrainExperiencesResponse holds transitions encoded with experience.EncodeTransitions.
//
// With tensors requested, States and NextStates hold Count tensors of
// TensorShape each, seen by the player who acted, and ActionMasks holds Count
// masks of 9 floats. All are concatenated in transition order.
type DrainExperiencesResponse struct {
	Count       int
	Data        []byte
	TensorShape []int
	States      []float32
	NextStates  []float32
	ActionMasks []float32
}

func (*MakeRequest) messageName() protoreflect.Name { return "MakeRequest" }

func (r *MakeRequest) encode(f fields) {
	f.setString("env_id", r.EnvID)
	f.setString("render_mode", r.RenderMode)
	f.setInt("max_episode_steps", r.MaxEpisodeSteps)
}

func (r *MakeRequest) decode(f fields) {
	r.EnvID = f.getString("env_id")
	r.RenderMode = f.getString("render_mode")
	r.MaxEpisodeSteps = f.getInt("max_episode_steps")
}

func (*MakeResponse) messageName() protoreflect.Name { return "MakeResponse" }

func (r *MakeResponse) encode(f fields) {
	f.setString("session_id", r.SessionID)
	f.message("action_space").setInt("n", r.ActionSpace.N)

	box := f.message("observation_space")
	box.setInt("low", r.ObservationSpace.Low)
	box.setInt("high", r.ObservationSpace.High)
	box.appendInts("shape", r.ObservationSpace.Shape...)

	md := f.message("metadata")
	for _, m := range r.Metadata.RenderModes {
		md.appendStrings("render_modes", string(m))
	}
	md.setInt("render_fps", r.Metadata.RenderFPS)
}

func (r *MakeResponse) decode(f fields) {
	r.SessionID = f.getString("session_id")
	r.ActionSpace.N = f.getMessage("action_space").getInt("n")

	box := f.getMessage("observation_space")
	r.ObservationSpace = env.Box{
		Low:   box.getInt("low"),
		High:  box.getInt("high"),
		Shape: box.getInts("shape"),
	}

	md := f.getMessage("metadata")
	r.Metadata = env.Metadata{RenderFPS: md.getInt("render_fps")}
	for _, m := range md.getStrings("render_modes") {
		r.Metadata.RenderModes = append(r.Metadata.RenderModes, env.RenderMode(m))
	}
}

func (*ResetRequest) messageName() protoreflect.Name { return "ResetRequest" }

func (r *ResetRequest) encode(f fields) {
	f.setString("session_id", r.SessionID)
	if r.Seed != nil {
		f.setInt64("seed", *r.Seed)
	}
}

func (r *ResetRequest) decode(f fields) {
	r.SessionID = f.getString("session_id")
	r.Seed = nil
	if f.has("seed") {
		seed := f.getInt64("seed")
		r.Seed = &seed
	}
}

func (*ResetResponse) messageName() protoreflect.Name { return "ResetResponse" }

func (r *ResetResponse) encode(f fields) {
	f.appendInts("observation", r.Observation.Flatten()...)
	encodeInfo(f.message("info"), r.Info)
}

func (r *ResetResponse) decode(f fields) {
	r.Observation = decodeObservation(f.getInts("observation"))
	r.Info = decodeInfo(f.getMessage("info"))
}

func (*StepRequest) messageName() protoreflect.Name { return "StepRequest" }

func (r *StepRequest) encode(f fields) {
	f.setString("session_id", r.SessionID)
	f.setInt("action", r.Action)
}

func (r *StepRequest) decode(f fields) {
	r.SessionID = f.getString("session_id")
	r.Action = f.getInt("action")
}

func (*StepResponse) messageName() protoreflect.Name { return "StepResponse" }

func (r *StepResponse) encode(f fields) {
	f.appendInts("observation", r.Observation.Flatten()...)
	f.setDouble("reward", r.Reward)
	f.setBool("terminated", r.Terminated)
	f.setBool("truncated", r.Truncated)
	encodeInfo(f.message("info"), r.Info)
}

func (r *StepResponse) decode(f fields) {
	r.StepResult = env.StepResult{
		Observation: decodeObservation(f.getInts("observation")),
		Reward:      f.getDouble("reward"),
		Terminated:  f.getBool("terminated"),
		Truncated:   f.getBool("truncated"),
		Info:        decodeInfo(f.getMessage("info")),
	}
}

func (*RenderRequest) messageName() protoreflect.Name { return "RenderRequest" }

func (r *RenderRequest) encode(f fields) { f.setString("session_id", r.SessionID) }

func (r *RenderRequest) decode(f fields) { r.SessionID = f.getString("session_id") }

func (*RenderResponse) messageName() protoreflect.Name { return "RenderResponse" }

func (r *RenderResponse) encode(f fields) {
	f.setInt("width", r.Width)
	f.setInt("height", r.Height)
	f.setBytes("pix", r.Pix)
}

func (r *RenderResponse) decode(f fields) {
	r.Width = f.getInt("width")
	r.Height = f.getInt("height")
	r.Pix = f.getBytes("pix")
}

func (*CloseRequest) messageName() protoreflect.Name { return "CloseRequest" }

func (r *CloseRequest) encode(f fields) { f.setString("session_id", r.SessionID) }

func (r *CloseRequest) decode(f fields) { r.SessionID = f.getString("session_id") }

func (*CloseResponse) messageName() protoreflect.Name { return "CloseResponse" }

func (*CloseResponse) encode(fields) {}

func (*CloseResponse) decode(fields) {}

func (*DrainExperiencesRequest) messageName() protoreflect.Name { return "DrainExperiencesRequest" }

func (r *DrainExperiencesRequest) encode(f fields) {
	f.setInt("max", r.Max)
	f.setBool("include_tensors", r.IncludeTensors)
}

func (r *DrainExperiencesRequest) decode(f fields) {
	r.Max = f.getInt("max")
	r.IncludeTensors = f.getBool("include_tensors")
}

func (*DrainExperiencesResponse) messageName() protoreflect.Name { return "DrainExperiencesResponse" }

func (r *DrainExperiencesResponse) encode(f fields) {
	f.setInt("count", r.Count)
	f.setBytes("data", r.Data)
	f.appendInts("tensor_shape", r.TensorShape...)
	f.appendFloats("states", r.States...)
	f.appendFloats("next_states", r.NextStates...)
	f.appendFloats("action_masks", r.ActionMasks...)
}

func (r *DrainExperiencesResponse) decode(f fields) {
	r.Count = f.getInt("count")
	r.Data = f.getBytes("data")
	r.TensorShape = f.getInts("tensor_shape")
	r.States = f.getFloats("states")
	r.NextStates = f.getFloats("next_states")
	r.ActionMasks = f.getFloats("action_masks")
}

func encodeInfo(f fields, info env.Info) {
	f.setInt("player", info.Player)
	f.setBool("move_accepted", info.MoveAccepted)
	f.setInt("winner", info.Winner)
	f.appendBools("action_mask", info.ActionMask[:]...)
	f.setInt("episode_step", info.EpisodeStep)
}

func decodeInfo(f fields) env.Info {
	info := env.Info{
		Player:       f.getInt("player"),
		MoveAccepted: f.getBool("move_accepted"),
		Winner:       f.getInt("winner"),
		EpisodeStep:  f.getInt("episode_step"),
	}
	copy(info.ActionMask[:], f.getBools("action_mask"))
	return info
}

// decodeObservation rebuilds a board from row-major cells. Missing cells stay empty.
func decodeObservation(cells []int) env.Observation {
	var obs env.Observation
	for i, v := range cells {
		if i >= core.NumCells {
			break
		}
		obs[i/core.Size][i%core.Size] = v
	}
	return obs
}
