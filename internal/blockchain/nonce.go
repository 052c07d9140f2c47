package blockchain

import (
	"context"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// AccountNonce reads the account's current transaction count from the
// System.Account storage. A missing entry means the account has never
// transacted: nonce 0.
func AccountNonce(ctx context.Context, conn *Connection, info ChainInfo, accountID [32]byte) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	key, err := types.CreateStorageKey(info.Meta, "System", "Account", accountID[:])
	if err != nil {
		return 0, err
	}

	var accountInfo types.AccountInfo
	ok, err := conn.API().RPC.State.GetStorageLatest(key, &accountInfo)
	if err != nil {
		return 0, wrapUnreachable("fetching account nonce", err)
	}
	if !ok {
		return 0, nil
	}

	return uint32(accountInfo.Nonce), nil
}
