// Package signkeys provides a local sr25519 keyring signer. It stands in
// for the browser wallet extension during development and in tests; real
// votes are signed through the websocket session.
package signkeys

import (
	"context"
	"errors"
	"referendum-voting/internal/config"
	"referendum-voting/internal/model"
	"referendum-voting/internal/signer"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

type KeyringSigner struct {
	pair    signature.KeyringPair
	account model.Account
}

// NewKeyringSigner derives a keypair from a secret URI, e.g. "//Alice" or a
// mnemonic phrase with an optional derivation path.
func NewKeyringSigner(secretURI string) (*KeyringSigner, error) {
	pair, err := signature.KeyringPairFromSecret(secretURI, uint16(config.SS58KusamaPrefix))
	if err != nil {
		return nil, errors.New("failed to derive the keypair: " + err.Error())
	}

	return &KeyringSigner{
		pair: pair,
		account: model.Account{
			Name:    "local keyring",
			Source:  "keyring",
			Type:    "sr25519",
			Address: pair.Address,
		},
	}, nil
}

func (k *KeyringSigner) Account() model.Account {
	return k.account
}

func (k *KeyringSigner) Sign(ctx context.Context, req signer.SignRequest) (types.MultiSignature, error) {
	if err := ctx.Err(); err != nil {
		return types.MultiSignature{}, err
	}

	sig, err := signature.Sign(req.Raw, k.pair.URI)
	if err != nil {
		return types.MultiSignature{}, errors.New("keyring signing failed: " + err.Error())
	}

	return types.MultiSignature{IsSr25519: true, AsSr25519: types.NewSignature(sig)}, nil
}
