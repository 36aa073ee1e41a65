package experience

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"
)

// ErrMalformed is returned by DecodeTransitions for bytes it cannot parse.
var ErrMalformed = errors.New("malformed transition data")

// Field numbers of the batch and transition messages.
const (
	fieldBatchTransition protowire.Number = 1

	fieldID              protowire.Number = 1
	fieldEpisodeID       protowire.Number = 2
	fieldStep            protowire.Number = 3
	fieldPlayer          protowire.Number = 4
	fieldObservation     protowire.Number = 5
	fieldAction          protowire.Number = 6
	fieldReward          protowire.Number = 7
	fieldNextObservation protowire.Number = 8
	fieldTerminated      protowire.Number = 9
	fieldTruncated       protowire.Number = 10
	fieldAccepted        protowire.Number = 11
	fieldActionMask      protowire.Number = 12
	fieldCollectedAt     protowire.Number = 13
)

// EncodeTransitions serialises ts as a protobuf message with one repeated
// field of transitions.
func EncodeTransitions(ts []*Transition) ([]byte, error) {
	var out []byte
	for i, t := range ts {
		msg, err := encodeTransition(t)
		if err != nil {
			return nil, fmt.Errorf("transition %d: %w", i, err)
		}
		out = protowire.AppendTag(out, fieldBatchTransition, protowire.BytesType)
		out = protowire.AppendBytes(out, msg)
	}
	return out, nil
}

func encodeTransition(t *Transition) ([]byte, error) {
	var b []byte
	b = appendString(b, fieldID, t.ID)
	b = appendString(b, fieldEpisodeID, t.EpisodeID)
	b = appendVarint(b, fieldStep, uint64(t.Step))
	b = appendVarint(b, fieldPlayer, protowire.EncodeZigZag(int64(t.Player)))
	b = appendCells(b, fieldObservation, t.Observation)
	b = appendVarint(b, fieldAction, uint64(t.Action))
	if t.Reward != 0 {
		b = protowire.AppendTag(b, fieldReward, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(t.Reward))
	}
	b = appendCells(b, fieldNextObservation, t.NextObservation)
	b = appendBool(b, fieldTerminated, t.Terminated)
	b = appendBool(b, fieldTruncated, t.Truncated)
	b = appendBool(b, fieldAccepted, t.Accepted)

	var mask []byte
	for _, legal := range t.ActionMask {
		mask = protowire.AppendVarint(mask, protowire.EncodeBool(legal))
	}
	b = protowire.AppendTag(b, fieldActionMask, protowire.BytesType)
	b = protowire.AppendBytes(b, mask)

	if !t.CollectedAt.IsZero() {
		ts, err := proto.Marshal(timestamppb.New(t.CollectedAt))
		if err != nil {
			return nil, fmt.Errorf("collected_at: %w", err)
		}
		b = protowire.AppendTag(b, fieldCollectedAt, protowire.BytesType)
		b = protowire.AppendBytes(b, ts)
	}
	return b, nil
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	return appendVarint(b, num, 1)
}

// appendCells writes a board as a packed sint32 field in row-major order.
func appendCells(b []byte, num protowire.Number, obs [core.Size][core.Size]int) []byte {
	var packed []byte
	for _, row := range obs {
		for _, v := range row {
			packed = protowire.AppendVarint(packed, protowire.EncodeZigZag(int64(v)))
		}
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

// DecodeTransitions parses the output of EncodeTransitions. Unknown fields
// are skipped.
func DecodeTransitions(data []byte) ([]*Transition, error) {
	var out []*Transition
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]

		if num != fieldBatchTransition || typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
			}
			data = data[n:]
			continue
		}

		msg, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]

		t, err := decodeTransition(msg)
		if err != nil {
			return nil, fmt.Errorf("transition %d: %w", len(out), err)
		}
		out = append(out, t)
	}
	return out, nil
}

func decodeTransition(b []byte) (*Transition, error) {
	t := &Transition{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case typ == protowire.VarintType && isVarintField(num):
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			setVarint(t, num, v)

		case typ == protowire.Fixed64Type && num == fieldReward:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: reward: %v", ErrMalformed, protowire.ParseError(n))
			}
			b = b[n:]
			t.Reward = math.Float64frombits(v)

		case typ == protowire.BytesType && isBytesField(num):
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			if err := setBytes(t, num, v); err != nil {
				return nil, err
			}

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return t, nil
}

func isVarintField(num protowire.Number) bool {
	switch num {
	case fieldStep, fieldPlayer, fieldAction, fieldTerminated, fieldTruncated, fieldAccepted:
		return true
	}
	return false
}

func isBytesField(num protowire.Number) bool {
	switch num {
	case fieldID, fieldEpisodeID, fieldObservation, fieldNextObservation, fieldActionMask, fieldCollectedAt:
		return true
	}
	return false
}

func setVarint(t *Transition, num protowire.Number, v uint64) {
	switch num {
	case fieldStep:
		t.Step = int(v)
	case fieldPlayer:
		t.Player = int(protowire.DecodeZigZag(v))
	case fieldAction:
		t.Action = int(v)
	case fieldTerminated:
		t.Terminated = protowire.DecodeBool(v)
	case fieldTruncated:
		t.Truncated = protowire.DecodeBool(v)
	case fieldAccepted:
		t.Accepted = protowire.DecodeBool(v)
	}
}

func setBytes(t *Transition, num protowire.Number, v []byte) error {
	switch num {
	case fieldID:
		t.ID = string(v)
	case fieldEpisodeID:
		t.EpisodeID = string(v)
	case fieldObservation:
		return decodeCells(v, (*[core.Size][core.Size]int)(&t.Observation))
	case fieldNextObservation:
		return decodeCells(v, (*[core.Size][core.Size]int)(&t.NextObservation))
	case fieldActionMask:
		for i := 0; len(v) > 0; i++ {
			x, n := protowire.ConsumeVarint(v)
			if n < 0 || i >= core.NumActions {
				return fmt.Errorf("%w: action_mask", ErrMalformed)
			}
			v = v[n:]
			t.ActionMask[i] = protowire.DecodeBool(x)
		}
	case fieldCollectedAt:
		ts := &timestamppb.Timestamp{}
		if err := proto.Unmarshal(v, ts); err != nil {
			return fmt.Errorf("%w: collected_at: %v", ErrMalformed, err)
		}
		t.CollectedAt = ts.AsTime()
	}
	return nil
}

func decodeCells(v []byte, dst *[core.Size][core.Size]int) error {
	for i := 0; len(v) > 0; i++ {
		x, n := protowire.ConsumeVarint(v)
		if n < 0 || i >= core.NumCells {
			return fmt.Errorf("%w: board cells", ErrMalformed)
		}
		v = v[n:]
		dst[i/core.Size][i%core.Size] = int(protowire.DecodeZigZag(x))
	}
	return nil
}
