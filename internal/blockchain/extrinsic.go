package blockchain

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math/bits"
	"referendum-voting/internal/model"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
)

// UnsignedExtrinsic is the transaction payload ready for signing: the
// encoded call together with everything the signature commits to. Pure
// data, assembled without I/O; never mutated once signing begins.
type UnsignedExtrinsic struct {
	Call      types.Call
	Account   model.Account
	AccountID [32]byte
	Nonce     uint32
	Era       types.ExtrinsicEra
	Tip       uint64

	SpecVersion        types.U32
	TransactionVersion types.U32
	GenesisHash        types.Hash
	// BlockHash is the mortality checkpoint; equals GenesisHash for
	// immortal transactions
	BlockHash types.Hash
}

// NewUnsignedExtrinsic assembles the unsigned transaction with an immortal
// era and no tip, the defaults of this application.
func NewUnsignedExtrinsic(call types.Call, account model.Account, nonce uint32, info ChainInfo) (UnsignedExtrinsic, error) {
	accountID, err := account.AccountID()
	if err != nil {
		return UnsignedExtrinsic{}, err
	}

	return UnsignedExtrinsic{
		Call:               call,
		Account:            account,
		AccountID:          accountID,
		Nonce:              nonce,
		Era:                types.ExtrinsicEra{IsImmortalEra: true},
		SpecVersion:        info.Runtime.SpecVersion,
		TransactionVersion: info.Runtime.TransactionVersion,
		GenesisHash:        info.GenesisHash,
		BlockHash:          info.GenesisHash,
	}, nil
}

// WithMortalEra restricts the transaction validity to a window of period
// blocks anchored at the given checkpoint block.
func (u UnsignedExtrinsic) WithMortalEra(period uint64, current uint64, checkpoint types.Hash) UnsignedExtrinsic {
	u.Era = mortalEra(period, current)
	u.BlockHash = checkpoint
	return u
}

func (u UnsignedExtrinsic) WithTip(tip uint64) UnsignedExtrinsic {
	u.Tip = tip
	return u
}

// mortalEra packs period and phase into the two byte era encoding:
// the low 4 bits hold log2(period)-1, the rest the quantized phase.
func mortalEra(period uint64, current uint64) types.ExtrinsicEra {
	if period < 4 {
		period = 4
	}
	if period > 1<<16 {
		period = 1 << 16
	}
	// round up to a power of two
	if bits.OnesCount64(period) != 1 {
		period = 1 << bits.Len64(period)
	}

	phase := current % period
	quantizeFactor := period >> 12
	if quantizeFactor < 1 {
		quantizeFactor = 1
	}

	low := uint16(bits.TrailingZeros64(period) - 1)
	if low < 1 {
		low = 1
	}
	if low > 15 {
		low = 15
	}
	encoded := low | uint16(phase/quantizeFactor)<<4

	return types.ExtrinsicEra{
		IsMortalEra: true,
		AsMortalEra: types.MortalEra{
			First:  byte(encoded & 0xff),
			Second: byte(encoded >> 8),
		},
	}
}

// Payload returns the scale encoding the signer actually signs.
func (u UnsignedExtrinsic) Payload() ([]byte, error) {
	callBytes, err := codec.Encode(u.Call)
	if err != nil {
		return nil, fmt.Errorf("encoding call: %w", err)
	}

	payload := types.ExtrinsicPayloadV4{
		ExtrinsicPayloadV3: types.ExtrinsicPayloadV3{
			Method:      callBytes,
			Era:         u.Era,
			Nonce:       types.NewUCompactFromUInt(uint64(u.Nonce)),
			Tip:         types.NewUCompactFromUInt(u.Tip),
			SpecVersion: u.SpecVersion,
			GenesisHash: u.GenesisHash,
			BlockHash:   u.BlockHash,
		},
		TransactionVersion: u.TransactionVersion,
	}

	encoded, err := codec.Encode(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	return encoded, nil
}

// SignerPayload is the JSON document a browser wallet extension expects for
// signPayload. Numeric fields are big-endian hex, era/tip/method are hex
// encoded scale, matching the polkadot-js signer interface.
type SignerPayload struct {
	SpecVersion        string   `json:"specVersion"`
	TransactionVersion string   `json:"transactionVersion"`
	Address            string   `json:"address"`
	BlockHash          string   `json:"blockHash"`
	BlockNumber        string   `json:"blockNumber"`
	Era                string   `json:"era"`
	GenesisHash        string   `json:"genesisHash"`
	Method             string   `json:"method"`
	Nonce              string   `json:"nonce"`
	SignedExtensions   []string `json:"signedExtensions"`
	Tip                string   `json:"tip"`
	Version            uint8    `json:"version"`
}

// SignerPayloadFor renders the unsigned extrinsic for the wallet extension.
// The signed extension identifiers come from the chain metadata.
func (u UnsignedExtrinsic) SignerPayloadFor(meta *types.Metadata) (SignerPayload, error) {
	if err := checkMetadataVersion(meta); err != nil {
		return SignerPayload{}, err
	}

	callBytes, err := codec.Encode(u.Call)
	if err != nil {
		return SignerPayload{}, fmt.Errorf("encoding call: %w", err)
	}
	eraHex, err := codec.EncodeToHex(u.Era)
	if err != nil {
		return SignerPayload{}, fmt.Errorf("encoding era: %w", err)
	}
	tipHex, err := codec.EncodeToHex(types.NewUCompactFromUInt(u.Tip))
	if err != nil {
		return SignerPayload{}, fmt.Errorf("encoding tip: %w", err)
	}

	extensions := meta.AsMetadataV14.Extrinsic.SignedExtensions
	identifiers := make([]string, len(extensions))
	for i, ext := range extensions {
		identifiers[i] = string(ext.Identifier)
	}

	return SignerPayload{
		SpecVersion:        beHex32(uint32(u.SpecVersion)),
		TransactionVersion: beHex32(uint32(u.TransactionVersion)),
		Address:            u.Account.Address,
		BlockHash:          u.BlockHash.Hex(),
		BlockNumber:        "0x00000000",
		Era:                eraHex,
		GenesisHash:        u.GenesisHash.Hex(),
		Method:             "0x" + hex.EncodeToString(callBytes),
		Nonce:              beHex64(uint64(u.Nonce)),
		SignedExtensions:   identifiers,
		Tip:                tipHex,
		Version:            types.ExtrinsicVersion4,
	}, nil
}

// ApplySignature assembles the final signed extrinsic. The result is
// single-use: submitting it twice is a double submission on the chain's
// terms, not a retry.
func ApplySignature(u UnsignedExtrinsic, sig types.MultiSignature) (types.Extrinsic, error) {
	if !sig.IsSr25519 && !sig.IsEd25519 && !sig.IsEcdsa {
		return types.Extrinsic{}, errors.New("signature has no recognized variant")
	}

	signer, err := types.NewMultiAddressFromAccountID(u.AccountID[:])
	if err != nil {
		return types.Extrinsic{}, fmt.Errorf("building signer address: %w", err)
	}

	return types.Extrinsic{
		Version: types.ExtrinsicVersion4 | types.ExtrinsicBitSigned,
		Signature: types.ExtrinsicSignatureV4{
			Signer:    signer,
			Signature: sig,
			Era:       u.Era,
			Nonce:     types.NewUCompactFromUInt(uint64(u.Nonce)),
			Tip:       types.NewUCompactFromUInt(u.Tip),
		},
		Method: u.Call,
	}, nil
}

func beHex32(v uint32) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return "0x" + hex.EncodeToString(b[:])
}

func beHex64(v uint64) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return "0x" + hex.EncodeToString(b[:])
}
