// Package signer defines the capability boundary to the wallet holding the
// key. Signing happens outside this process: the call suspends until the
// external agent answers or the caller gives up via ctx.
package signer

import (
	"context"
	"errors"
	"referendum-voting/internal/blockchain"
	"referendum-voting/internal/model"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

var (
	// ErrUserRejected means the user declined to sign. Terminal for the
	// attempt; a new vote must be initiated explicitly.
	ErrUserRejected = errors.New("signing rejected by user")
	// ErrNoExtension means no compatible wallet answered.
	ErrNoExtension = errors.New("no compatible wallet extension")
)

// SignRequest carries both representations of the payload to sign: the raw
// scale bytes for local keyrings and the JSON document browser extensions
// expect.
type SignRequest struct {
	Account model.Account
	Raw     []byte
	Payload blockchain.SignerPayload
}

type Signer interface {
	// Sign suspends until the wallet produces a signature over the
	// payload, the user rejects, or ctx is cancelled.
	Sign(ctx context.Context, req SignRequest) (types.MultiSignature, error)
}
