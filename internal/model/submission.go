package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Stage of a submitted extrinsic in the node's transaction pool.
type Stage uint8

const (
	StageQueued Stage = iota
	StageBroadcast
	StageInBlock
	StageFinalized
	StageInvalid
	StageDropped
	StageUsurped
	StageError
)

func (s Stage) String() string {
	switch s {
	case StageQueued:
		return "queued"
	case StageBroadcast:
		return "broadcast"
	case StageInBlock:
		return "in_block"
	case StageFinalized:
		return "finalized"
	case StageInvalid:
		return "invalid"
	case StageDropped:
		return "dropped"
	case StageUsurped:
		return "usurped"
	case StageError:
		return "error"
	}
	return "unknown"
}

// Terminal reports whether no further lifecycle events can follow.
func (s Stage) Terminal() bool {
	switch s {
	case StageFinalized, StageInvalid, StageDropped, StageUsurped, StageError:
		return true
	}
	return false
}

// Status is one lifecycle event of a submission.
type Status struct {
	Stage Stage
	// block hash for in_block/finalized, the competing extrinsic hash for usurped
	Block string
	// number of peers the extrinsic was announced to, for broadcast
	Peers int
	Err   error
}

// Submission tracks one signed extrinsic. The status channel is append-only
// in the order the node emits events and is closed after a terminal stage.
type Submission struct {
	ID       string
	Account  string
	TxHash   string
	Statuses <-chan Status
}

func NewSubmission(account string, txHash string, statuses <-chan Status) *Submission {
	return &Submission{
		ID:       uuid.NewString(),
		Account:  account,
		TxHash:   txHash,
		Statuses: statuses,
	}
}

// FinalizedHead is one finalized block header, as shown to the user.
type FinalizedHead struct {
	Number uint64
	Hash   string
}

func (h FinalizedHead) String() string {
	return fmt.Sprintf("block #%d: %s", h.Number, h.Hash)
}
