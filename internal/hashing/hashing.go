package hashing

import (
	"encoding/hex"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// ss58Prefix is hashed together with the address payload to build the
// checksum of an SS58 address.
const ss58Prefix = "SS58PRE"

var logger *zap.Logger = zap.NewNop()

func Initialize(log *zap.Logger) {
	logger = log
}

// Calculate returns the hex encoded blake2b-256 hash of the data
func Calculate(data []byte) string {
	hash := blake2b.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func CalculateFromStr(data string) string {
	return Calculate([]byte(data))
}

// ExtrinsicID returns the 0x-prefixed transaction hash of an encoded
// extrinsic, as block explorers display it
func ExtrinsicID(encodedExtrinsic []byte) string {
	return "0x" + Calculate(encodedExtrinsic)
}

// SS58Checksum returns the two checksum bytes of an SS58 address payload
// (prefix byte + public key)
func SS58Checksum(payload []byte) []byte {
	hash, err := blake2b.New512(nil)
	if err != nil {
		logger.Error("failed to initialize the checksum hash function: " + err.Error())
		return nil
	}

	_, _ = hash.Write([]byte(ss58Prefix))
	_, _ = hash.Write(payload)

	return hash.Sum(nil)[:2]
}
