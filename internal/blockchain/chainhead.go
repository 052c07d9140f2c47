package blockchain

import (
	"context"
	"referendum-voting/internal/hashing"
	"referendum-voting/internal/model"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"go.uber.org/zap"
)

// headSubscription is the node's finalized-heads stream.
// *chain.FinalizedHeadsSubscription satisfies it.
type headSubscription interface {
	Chan() <-chan types.Header
	Err() <-chan error
	Unsubscribe()
}

// WatchFinalizedHeads subscribes to finalized block headers and forwards
// them until ctx is cancelled or the stream breaks. The channel is closed
// in either case.
func (s *Supervisor) WatchFinalizedHeads(ctx context.Context, conn *Connection) (<-chan model.FinalizedHead, error) {
	sub, err := conn.API().RPC.Chain.SubscribeFinalizedHeads()
	if err != nil {
		s.Invalidate(conn)
		return nil, wrapUnreachable("subscribing to finalized heads", err)
	}

	heads := make(chan model.FinalizedHead, 4)
	go s.forwardHeads(ctx, conn, sub, heads)

	return heads, nil
}

func (s *Supervisor) forwardHeads(ctx context.Context, conn *Connection, sub headSubscription, heads chan<- model.FinalizedHead) {
	defer close(heads)
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-sub.Err():
			s.logger.Warn("finalized heads subscription lost", zap.Error(err))
			s.Invalidate(conn)
			return
		case header, ok := <-sub.Chan():
			if !ok {
				s.Invalidate(conn)
				return
			}
			head := model.FinalizedHead{
				Number: uint64(header.Number),
				Hash:   headerHash(header),
			}
			// a stalled consumer must not pin the subscription past cancellation
			select {
			case heads <- head:
			case <-ctx.Done():
				return
			}
		}
	}
}

// headerHash derives the block hash: blake2b-256 over the scale encoded
// header.
func headerHash(header types.Header) string {
	encoded, err := codec.Encode(header)
	if err != nil {
		return ""
	}
	return "0x" + hashing.Calculate(encoded)
}
