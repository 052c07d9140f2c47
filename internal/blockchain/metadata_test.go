package blockchain

import (
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/stretchr/testify/assert"
)

func TestCheckMetadataVersion(t *testing.T) {
	v14 := &types.Metadata{Version: 14}
	assert.NoError(t, checkMetadataVersion(v14))

	v13 := &types.Metadata{Version: 13}
	assert.ErrorIs(t, checkMetadataVersion(v13), ErrIncompatibleMetadata)
}

func TestCacheKeyChangesWithGeneration(t *testing.T) {
	assert.NotEqual(t, cacheKey(1, 9430), cacheKey(2, 9430))
	assert.NotEqual(t, cacheKey(1, 9430), cacheKey(1, 9431))
}
