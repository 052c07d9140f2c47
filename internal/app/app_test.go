package app

import (
	"context"
	"testing"

	"referendum-voting/internal/blockchain"
	"referendum-voting/internal/config"
	"referendum-voting/internal/model"
	"referendum-voting/internal/signer"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const aliceKusamaAddr = "HNZata7iMYWmk5RvZRTiAsSDhV8366zq2YGb3tLH5Upf74F"

func aliceAccount() model.Account {
	return model.Account{
		Name:    "alice",
		Source:  "polkadot-js",
		Type:    "sr25519",
		Address: aliceKusamaAddr,
	}
}

func testApp() *App {
	return NewApp(zap.NewNop(), "ws://unused")
}

type stubSigner struct {
	sig types.MultiSignature
	err error
}

func (s stubSigner) Sign(ctx context.Context, req signer.SignRequest) (types.MultiSignature, error) {
	return s.sig, s.err
}

func testChainInfo() blockchain.ChainInfo {
	meta := &types.Metadata{Version: 14}
	meta.AsMetadataV14.Extrinsic.SignedExtensions = []types.SignedExtensionMetadataV14{
		{Identifier: "CheckMortality"},
		{Identifier: "CheckNonce"},
	}

	return blockchain.ChainInfo{
		Meta:        meta,
		GenesisHash: types.NewHash(make([]byte, 32)),
		Runtime: &types.RuntimeVersion{
			SpecVersion:        9430,
			TransactionVersion: 24,
		},
	}
}

func TestVoteCallFixedParameters(t *testing.T) {
	req := VoteRequest{Account: aliceAccount(), BalanceKSM: 2, Conviction: 3}

	call := req.voteCall()
	assert.Equal(t, config.TargetReferendum, call.Referendum)
	assert.Equal(t, model.Aye, call.Direction)
	assert.Equal(t, model.Conviction(3), call.Conviction)
	assert.Equal(t, model.Planck(2, config.TokenDecimals), call.Balance)
}

func TestAcquireRelease(t *testing.T) {
	a := testApp()

	require.True(t, a.acquire(aliceKusamaAddr))
	assert.False(t, a.acquire(aliceKusamaAddr))
	// other accounts are not affected
	assert.True(t, a.acquire("other"))

	a.release(aliceKusamaAddr)
	assert.True(t, a.acquire(aliceKusamaAddr))
}

func TestCastVoteInFlight(t *testing.T) {
	a := testApp()
	require.True(t, a.acquire(aliceKusamaAddr))

	_, err := a.CastVote(context.Background(), VoteRequest{Account: aliceAccount(), BalanceKSM: 1, Conviction: 1}, stubSigner{})
	assert.ErrorIs(t, err, ErrVoteInFlight)
}

func TestCastVoteInvalidAccount(t *testing.T) {
	a := testApp()

	req := VoteRequest{Account: model.Account{Address: "not-an-address"}, BalanceKSM: 1, Conviction: 1}
	_, err := a.CastVote(context.Background(), req, stubSigner{})
	require.Error(t, err)

	// a failed validation must not leave the guard taken
	assert.True(t, a.acquire("not-an-address"))
}

func TestSignExtrinsicRejection(t *testing.T) {
	a := testApp()
	info := testChainInfo()

	call := types.Call{CallIndex: types.CallIndex{SectionIndex: 0x14, MethodIndex: 0x00}}
	unsigned, err := blockchain.NewUnsignedExtrinsic(call, aliceAccount(), 0, info)
	require.NoError(t, err)

	_, err = a.signExtrinsic(context.Background(), unsigned, info, stubSigner{err: signer.ErrUserRejected})
	assert.ErrorIs(t, err, signer.ErrUserRejected)
}

func TestSignExtrinsicAppliesSignature(t *testing.T) {
	a := testApp()
	info := testChainInfo()

	call := types.Call{CallIndex: types.CallIndex{SectionIndex: 0x14, MethodIndex: 0x00}}
	unsigned, err := blockchain.NewUnsignedExtrinsic(call, aliceAccount(), 7, info)
	require.NoError(t, err)
	unsigned = unsigned.WithTip(9)

	sig := types.MultiSignature{IsSr25519: true, AsSr25519: types.NewSignature(make([]byte, 64))}
	ext, err := a.signExtrinsic(context.Background(), unsigned, info, stubSigner{sig: sig})
	require.NoError(t, err)

	assert.True(t, ext.IsSigned())
	assert.True(t, ext.Signature.Signature.IsSr25519)
	assert.Equal(t, types.NewUCompactFromUInt(9), ext.Signature.Tip)
}
