package blockchain

import (
	"bytes"
	"fmt"
	"referendum-voting/internal/model"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
)

// voteCallName is the pallet.call pair looked up in the metadata registry
const voteCallName = "ConvictionVoting.vote"

// callIndexer resolves a pallet.call name to its call index.
// *types.Metadata satisfies it.
type callIndexer interface {
	FindCallIndex(call string) (types.CallIndex, error)
}

// vote is the runtime's packed Vote type: the aye bit plus the conviction,
// in a single byte.
type vote struct {
	Value byte
}

func (v vote) Encode(encoder scale.Encoder) error {
	return encoder.PushByte(v.Value)
}

func (v *vote) Decode(decoder scale.Decoder) error {
	b, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	v.Value = b
	return nil
}

// standardVote is AccountVote::Standard. The leading variant tag is part of
// the encoding; Split (tag 1) is never produced by this application.
type standardVote struct {
	Vote    vote
	Balance types.U128
}

const accountVoteStandardTag byte = 0

func (s standardVote) Encode(encoder scale.Encoder) error {
	if err := encoder.PushByte(accountVoteStandardTag); err != nil {
		return err
	}
	if err := encoder.Encode(s.Vote); err != nil {
		return err
	}
	return encoder.Encode(s.Balance)
}

func (s *standardVote) Decode(decoder scale.Decoder) error {
	tag, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	if tag != accountVoteStandardTag {
		return fmt.Errorf("unexpected account vote variant: %d", tag)
	}
	if err := decoder.Decode(&s.Vote); err != nil {
		return err
	}
	return decoder.Decode(&s.Balance)
}

// NewVoteCall locates the conviction-voting vote call in the chain metadata
// and scale-encodes its arguments: Compact<u32> poll index, then the
// standard account vote.
func NewVoteCall(meta callIndexer, v model.VoteCall) (types.Call, error) {
	if err := v.Validate(); err != nil {
		return types.Call{}, err
	}

	callIndex, err := meta.FindCallIndex(voteCallName)
	if err != nil {
		return types.Call{}, fmt.Errorf("%w: %v", ErrUnknownCall, err)
	}

	var buf bytes.Buffer
	encoder := scale.NewEncoder(&buf)
	if err := encoder.Encode(types.NewUCompactFromUInt(uint64(v.Referendum))); err != nil {
		return types.Call{}, fmt.Errorf("encoding poll index: %w", err)
	}
	accountVote := standardVote{
		Vote:    vote{Value: v.VoteByte()},
		Balance: v.Balance,
	}
	if err := encoder.Encode(accountVote); err != nil {
		return types.Call{}, fmt.Errorf("encoding account vote: %w", err)
	}

	return types.Call{CallIndex: callIndex, Args: buf.Bytes()}, nil
}

// EncodeVote returns the full encoded call: call index followed by the
// arguments. Deterministic for identical inputs.
func EncodeVote(meta callIndexer, v model.VoteCall) ([]byte, error) {
	call, err := NewVoteCall(meta, v)
	if err != nil {
		return nil, err
	}

	encoded, err := codec.Encode(call)
	if err != nil {
		return nil, fmt.Errorf("encoding call: %w", err)
	}

	return encoded, nil
}
