package blockchain

import (
	"context"
	"referendum-voting/internal/hashing"
	"referendum-voting/internal/model"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"go.uber.org/zap"
)

// statusSubscription is the node's submit-and-watch stream.
// *author.ExtrinsicStatusSubscription satisfies it.
type statusSubscription interface {
	Chan() <-chan types.ExtrinsicStatus
	Err() <-chan error
	Unsubscribe()
}

// Tracker broadcasts signed extrinsics and translates the node's pool
// status events into the submission state machine. It performs no
// reordering and no retries; consecutive identical events are dropped,
// everything else is passed on in node order.
type Tracker struct {
	logger     *zap.Logger
	supervisor *Supervisor
}

func NewTracker(logger *zap.Logger, supervisor *Supervisor) *Tracker {
	return &Tracker{logger: logger, supervisor: supervisor}
}

// Submit broadcasts the extrinsic and starts watching it. The returned
// submission's status channel ends with exactly one terminal stage, or
// silently when ctx is cancelled (observation stops, the chain does not
// care).
func (t *Tracker) Submit(ctx context.Context, conn *Connection, ext types.Extrinsic, account model.Account) (*model.Submission, error) {
	encoded, err := codec.Encode(ext)
	if err != nil {
		return nil, err
	}
	txHash := hashing.ExtrinsicID(encoded)

	sub, err := conn.API().RPC.Author.SubmitAndWatchExtrinsic(ext)
	if err != nil {
		t.supervisor.Invalidate(conn)
		return nil, wrapUnreachable("submitting extrinsic", err)
	}

	statuses := make(chan model.Status, 8)
	submission := model.NewSubmission(account.Address, txHash, statuses)
	t.logger.Info("extrinsic submitted",
		zap.String("submissionID", submission.ID),
		zap.String("txHash", txHash),
		zap.String("account", account.Address))

	go t.watch(ctx, conn, sub, statuses, submission.ID)

	return submission, nil
}

func (t *Tracker) watch(ctx context.Context, conn *Connection, sub statusSubscription, out chan<- model.Status, submissionID string) {
	defer close(out)
	defer sub.Unsubscribe()

	// a stalled consumer must not pin the subscription past cancellation
	emit := func(status model.Status) bool {
		select {
		case out <- status:
			return true
		case <-ctx.Done():
			return false
		}
	}

	var last *model.Status
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("submission watch cancelled", zap.String("submissionID", submissionID))
			return

		case err := <-sub.Err():
			// the transport is gone, tracking cannot continue
			t.supervisor.Invalidate(conn)
			t.logger.Warn("submission tracking lost", zap.String("submissionID", submissionID), zap.Error(err))
			emit(model.Status{Stage: model.StageError, Err: err})
			return

		case raw, ok := <-sub.Chan():
			if !ok {
				t.supervisor.Invalidate(conn)
				emit(model.Status{Stage: model.StageError, Err: ErrNodeUnreachable})
				return
			}

			status, known := translateStatus(raw)
			if !known {
				t.logger.Warn("unknown extrinsic status ignored", zap.String("submissionID", submissionID))
				continue
			}
			if last != nil && *last == status {
				continue
			}
			last = &status

			t.logger.Info("submission status",
				zap.String("submissionID", submissionID),
				zap.String("stage", status.Stage.String()),
				zap.String("block", status.Block))
			if !emit(status) {
				return
			}

			if status.Stage.Terminal() {
				return
			}
		}
	}
}

// translateStatus maps a raw pool status onto the submission state machine.
// Retracted is the fork case: the including block was abandoned, so the
// extrinsic is back in flight and Broadcast is re-emitted - the only
// backward transition.
func translateStatus(raw types.ExtrinsicStatus) (model.Status, bool) {
	switch {
	case raw.IsReady, raw.IsFuture:
		return model.Status{Stage: model.StageQueued}, true
	case raw.IsBroadcast:
		return model.Status{Stage: model.StageBroadcast, Peers: len(raw.AsBroadcast)}, true
	case raw.IsInBlock:
		return model.Status{Stage: model.StageInBlock, Block: raw.AsInBlock.Hex()}, true
	case raw.IsRetracted:
		return model.Status{Stage: model.StageBroadcast}, true
	case raw.IsFinalized:
		return model.Status{Stage: model.StageFinalized, Block: raw.AsFinalized.Hex()}, true
	case raw.IsUsurped:
		return model.Status{Stage: model.StageUsurped, Block: raw.AsUsurped.Hex()}, true
	case raw.IsDropped:
		return model.Status{Stage: model.StageDropped}, true
	case raw.IsInvalid:
		return model.Status{Stage: model.StageInvalid}, true
	case raw.IsFinalityTimeout:
		return model.Status{Stage: model.StageError, Err: errFinalityTimeout}, true
	}
	return model.Status{}, false
}
