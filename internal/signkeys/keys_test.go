package signkeys_test

import (
	"context"
	"referendum-voting/internal/signer"
	"referendum-voting/internal/signkeys"
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerify(t *testing.T) {
	keyring, err := signkeys.NewKeyringSigner("//Alice")
	require.NoError(t, err)

	payload := []byte{0x14, 0x00, 0x4d, 0x04, 0x00, 0x81}
	sig, err := keyring.Sign(context.Background(), signer.SignRequest{Raw: payload})
	require.NoError(t, err)
	require.True(t, sig.IsSr25519)

	ok, err := signature.Verify(payload, sig.AsSr25519[:], "//Alice")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAccount(t *testing.T) {
	keyring, err := signkeys.NewKeyringSigner("//Alice")
	require.NoError(t, err)

	account := keyring.Account()
	assert.Equal(t, "sr25519", account.Type)
	// the Kusama ss58 rendering of the //Alice key
	assert.Equal(t, "HNZata7iMYWmk5RvZRTiAsSDhV8366zq2YGb3tLH5Upf74F", account.Address)
	require.NoError(t, account.Validate())

	id, err := account.AccountID()
	require.NoError(t, err)
	assert.Equal(t, signature.TestKeyringPairAlice.PublicKey, id[:])
}

func TestSignCancelled(t *testing.T) {
	keyring, err := signkeys.NewKeyringSigner("//Alice")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = keyring.Sign(ctx, signer.SignRequest{Raw: []byte{0x00}})
	assert.Error(t, err)
}
