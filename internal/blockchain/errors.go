package blockchain

import "errors"

var (
	// ErrNodeUnreachable covers failures to reach the node or a dropped socket.
	ErrNodeUnreachable = errors.New("node unreachable")
	// ErrIncompatibleMetadata is returned when the node serves a metadata
	// format this client does not understand.
	ErrIncompatibleMetadata = errors.New("incompatible metadata version")
	// ErrUnknownCall is returned when the connected chain's metadata has no
	// conviction-voting vote call, e.g. when pointed at the wrong network.
	ErrUnknownCall = errors.New("vote call not found in chain metadata")
)

// errFinalityTimeout marks a watch that gave up waiting for finality.
var errFinalityTimeout = errors.New("finality timeout")
