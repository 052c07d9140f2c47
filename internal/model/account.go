package model

import (
	"errors"
	"referendum-voting/internal/hashing"

	"github.com/mr-tron/base58"
)

// Account describes a wallet-extension account as the browser reports it.
type Account struct {
	// account name
	Name string `json:"name"`
	// name of the browser extension
	Source string `json:"source"`
	// the signature type, e.g. "sr25519" or "ed25519"
	Type string `json:"ty"`
	// ss58 formatted address
	Address string `json:"address"`
}

// ss58 layout handled here: 1 prefix byte + 32 byte public key + 2 checksum bytes
const ss58DecodedLen = 35

func (a Account) Validate() error {
	if a.Address == "" {
		return errors.New("account address is missing")
	}
	_, err := a.AccountID()

	return err
}

// AccountID decodes the SS58 address into the raw 32 byte public key,
// verifying the checksum.
func (a Account) AccountID() ([32]byte, error) {
	var id [32]byte

	decoded, err := base58.Decode(a.Address)
	if err != nil {
		return id, errors.New("invalid ss58 address: " + err.Error())
	}
	if len(decoded) != ss58DecodedLen || decoded[0] >= 64 {
		return id, errors.New("unsupported ss58 address format")
	}

	payload := decoded[:ss58DecodedLen-2]
	checksum := decoded[ss58DecodedLen-2:]
	expected := hashing.SS58Checksum(payload)
	if expected == nil || expected[0] != checksum[0] || expected[1] != checksum[1] {
		return id, errors.New("ss58 address checksum mismatch")
	}

	copy(id[:], payload[1:])
	return id, nil
}
