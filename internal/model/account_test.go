package model_test

import (
	"encoding/hex"
	"referendum-voting/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// well-known //Alice development account
const (
	alicePubKey      = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	aliceKusamaAddr  = "HNZata7iMYWmk5RvZRTiAsSDhV8366zq2YGb3tLH5Upf74F"
	aliceGenericAddr = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
)

func TestAccountID(t *testing.T) {
	account := model.Account{
		Name:    "Alice",
		Source:  "polkadot-js",
		Type:    "sr25519",
		Address: aliceKusamaAddr,
	}

	id, err := account.AccountID()
	require.NoError(t, err)
	assert.Equal(t, alicePubKey, hex.EncodeToString(id[:]))
}

func TestAccountIDGenericPrefix(t *testing.T) {
	account := model.Account{Address: aliceGenericAddr}

	id, err := account.AccountID()
	require.NoError(t, err)
	assert.Equal(t, alicePubKey, hex.EncodeToString(id[:]))
}

func TestAccountIDChecksumMismatch(t *testing.T) {
	// flip the last character of a valid address
	account := model.Account{Address: aliceKusamaAddr[:len(aliceKusamaAddr)-1] + "G"}

	_, err := account.AccountID()
	assert.Error(t, err)
}

func TestValidateMissingAddress(t *testing.T) {
	assert.Error(t, model.Account{}.Validate())
}
