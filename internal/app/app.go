package app

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"referendum-voting/internal/blockchain"
	"referendum-voting/internal/config"
	"referendum-voting/internal/model"
	"referendum-voting/internal/signer"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"go.uber.org/zap"
)

// ErrVoteInFlight is returned when an account tries to vote while its
// previous submission has not reached a terminal state yet. Each vote
// needs a fresh nonce and a fresh signature, so attempts are serialized.
var ErrVoteInFlight = errors.New("a vote for this account is already in flight")

type App struct {
	logger     *zap.Logger
	supervisor *blockchain.Supervisor
	metadata   *blockchain.MetadataClient
	tracker    *blockchain.Tracker

	// submit is the tracker entry point, replaceable in tests
	submit func(ctx context.Context, conn *blockchain.Connection, ext types.Extrinsic, account model.Account) (*model.Submission, error)

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewApp(logger *zap.Logger, nodeEndpoint string) *App {
	supervisor := blockchain.NewSupervisor(logger, nodeEndpoint)
	tracker := blockchain.NewTracker(logger, supervisor)
	logger.Info("voting pipeline configured", zap.String("node", supervisor.Endpoint()))

	return &App{
		logger:     logger,
		supervisor: supervisor,
		metadata:   blockchain.NewMetadataClient(logger),
		tracker:    tracker,
		submit:     tracker.Submit,
		inFlight:   make(map[string]struct{}),
	}
}

// VoteRequest is what the user decides at runtime: which account votes and
// with how much weight. Referendum and direction are fixed at build time.
type VoteRequest struct {
	Account    model.Account
	BalanceKSM uint64
	Conviction model.Conviction
	// Tip in planck, 0 by default
	Tip uint64
}

func (r VoteRequest) voteCall() model.VoteCall {
	return model.VoteCall{
		Referendum: config.TargetReferendum,
		Direction:  model.Aye,
		Conviction: r.Conviction,
		Balance:    model.Planck(r.BalanceKSM, config.TokenDecimals),
	}
}

// Referendum describes the fixed vote this application casts, including
// the encoded call preview shown on the page.
type Referendum struct {
	Index       uint32 `json:"index"`
	Direction   string `json:"direction"`
	EncodedCall string `json:"encodedCall"`
}

func (a *App) Referendum(ctx context.Context, balanceKSM uint64, conviction model.Conviction) (Referendum, error) {
	info, _, err := a.chainInfo(ctx)
	if err != nil {
		return Referendum{}, err
	}

	req := VoteRequest{BalanceKSM: balanceKSM, Conviction: conviction}
	encoded, err := blockchain.EncodeVote(info.Meta, req.voteCall())
	if err != nil {
		return Referendum{}, err
	}

	return Referendum{
		Index:       config.TargetReferendum,
		Direction:   model.Aye.String(),
		EncodedCall: "0x" + hex.EncodeToString(encoded),
	}, nil
}

// CastVote runs the whole pipeline for one vote: metadata, nonce, call
// encoding, payload assembly, external signature, broadcast. Exactly one
// signed extrinsic is produced per call; a rejection or any error before
// broadcast means nothing was submitted.
func (a *App) CastVote(ctx context.Context, req VoteRequest, s signer.Signer) (*model.Submission, error) {
	if err := req.Account.Validate(); err != nil {
		return nil, err
	}
	if !a.acquire(req.Account.Address) {
		return nil, ErrVoteInFlight
	}

	submission, err := a.castVote(ctx, req, s)
	if err != nil {
		a.release(req.Account.Address)
		return nil, err
	}

	// hold the guard until the submission reaches a terminal state
	relayed := make(chan model.Status, 8)
	go func() {
		defer a.release(req.Account.Address)
		defer close(relayed)
		for status := range submission.Statuses {
			select {
			case relayed <- status:
			case <-ctx.Done():
				// the consumer is gone; keep draining so the guard is
				// released when tracking ends
			}
		}
	}()

	guarded := *submission
	guarded.Statuses = relayed

	return &guarded, nil
}

func (a *App) castVote(ctx context.Context, req VoteRequest, s signer.Signer) (*model.Submission, error) {
	info, conn, err := a.chainInfo(ctx)
	if err != nil {
		return nil, err
	}

	call, err := blockchain.NewVoteCall(info.Meta, req.voteCall())
	if err != nil {
		return nil, err
	}

	accountID, err := req.Account.AccountID()
	if err != nil {
		return nil, err
	}
	nonce, err := blockchain.AccountNonce(ctx, conn, info, accountID)
	if err != nil {
		return nil, err
	}

	unsigned, err := blockchain.NewUnsignedExtrinsic(call, req.Account, nonce, info)
	if err != nil {
		return nil, err
	}
	unsigned = unsigned.WithTip(req.Tip)

	a.logger.Info("requesting signature",
		zap.String("account", req.Account.Address),
		zap.Uint32("nonce", nonce),
		zap.String("conviction", req.Conviction.String()))

	ext, err := a.signExtrinsic(ctx, unsigned, info, s)
	if err != nil {
		return nil, err
	}

	return a.submit(ctx, conn, ext, req.Account)
}

// signExtrinsic suspends on the external signer and applies the returned
// signature. A rejection surfaces here and never reaches submission.
func (a *App) signExtrinsic(ctx context.Context, unsigned blockchain.UnsignedExtrinsic, info blockchain.ChainInfo, s signer.Signer) (types.Extrinsic, error) {
	raw, err := unsigned.Payload()
	if err != nil {
		return types.Extrinsic{}, err
	}
	payload, err := unsigned.SignerPayloadFor(info.Meta)
	if err != nil {
		return types.Extrinsic{}, err
	}

	sig, err := s.Sign(ctx, signer.SignRequest{
		Account: unsigned.Account,
		Raw:     raw,
		Payload: payload,
	})
	if err != nil {
		return types.Extrinsic{}, fmt.Errorf("obtaining signature: %w", err)
	}

	return blockchain.ApplySignature(unsigned, sig)
}

// chainInfo returns the live connection and its metadata, redialing once
// when the held connection turns out to be dead.
func (a *App) chainInfo(ctx context.Context) (blockchain.ChainInfo, *blockchain.Connection, error) {
	conn, err := a.supervisor.Conn(ctx)
	if err != nil {
		return blockchain.ChainInfo{}, nil, err
	}

	info, err := a.metadata.Fetch(ctx, conn)
	if errors.Is(err, blockchain.ErrNodeUnreachable) {
		a.supervisor.Invalidate(conn)
		conn, err = a.supervisor.Conn(ctx)
		if err != nil {
			return blockchain.ChainInfo{}, nil, err
		}
		info, err = a.metadata.Fetch(ctx, conn)
	}
	if err != nil {
		return blockchain.ChainInfo{}, nil, err
	}

	return info, conn, nil
}

// WatchFinalized streams finalized block headers for the session page.
func (a *App) WatchFinalized(ctx context.Context) (<-chan model.FinalizedHead, error) {
	conn, err := a.supervisor.Conn(ctx)
	if err != nil {
		return nil, err
	}

	return a.supervisor.WatchFinalizedHeads(ctx, conn)
}

func (a *App) acquire(address string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, taken := a.inFlight[address]; taken {
		return false
	}
	a.inFlight[address] = struct{}{}
	return true
}

func (a *App) release(address string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.inFlight, address)
}
