package model

import (
	"errors"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

type Direction uint8

const (
	Nay Direction = 0
	Aye Direction = 1
)

func (d Direction) String() string {
	if d == Aye {
		return "aye"
	}
	return "nay"
}

// Conviction is the vote-weight multiplier tied to a lock-up commitment,
// 0 (no lock) to 6 (strongest lock).
type Conviction uint8

const maxConviction = 6

func (c Conviction) IsValid() bool {
	return c <= maxConviction
}

func (c Conviction) String() string {
	switch c {
	case 0:
		return "0.1x"
	case 1:
		return "1x"
	case 2:
		return "2x"
	case 3:
		return "3x"
	case 4:
		return "4x"
	case 5:
		return "5x"
	case 6:
		return "6x"
	}
	return "invalid"
}

// VoteCall holds the arguments of a single conviction-voting vote.
// Immutable once constructed.
type VoteCall struct {
	Referendum uint32
	Direction  Direction
	Conviction Conviction
	Balance    types.U128
}

func (v VoteCall) Validate() error {
	if !v.Conviction.IsValid() {
		return errors.New("invalid conviction: " + v.Conviction.String())
	}
	if v.Balance.Int == nil || v.Balance.Sign() <= 0 {
		return errors.New("vote balance must be positive")
	}

	return nil
}

// VoteByte is the wire representation of direction and conviction:
// the aye bit in the high nibble, the conviction in the low one.
func (v VoteCall) VoteByte() byte {
	return byte(v.Direction)<<7 | byte(v.Conviction)
}

// Planck converts a whole token amount to the chain's base unit
// using the given number of decimals.
func Planck(tokens uint64, decimals uint) types.U128 {
	value := new(big.Int).SetUint64(tokens)
	value.Mul(value, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))

	return types.NewU128(*value)
}
