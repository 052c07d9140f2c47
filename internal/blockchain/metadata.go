package blockchain

import (
	"context"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	cache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// supportedMetadataVersion is the only metadata format this client encodes
// calls against
const supportedMetadataVersion = 14

// ChainInfo is everything needed to encode and sign an extrinsic for the
// connected chain. It is fetched all-or-nothing: a partially populated
// ChainInfo is never returned.
type ChainInfo struct {
	Meta        *types.Metadata
	GenesisHash types.Hash
	Runtime     *types.RuntimeVersion
}

// MetadataClient fetches chain metadata, caching it per connection
// generation and runtime spec version. A reconnect changes the generation,
// so stale metadata is never served across connections.
type MetadataClient struct {
	logger *zap.Logger
	cache  *cache.Cache
}

func NewMetadataClient(logger *zap.Logger) *MetadataClient {
	return &MetadataClient{
		logger: logger,
		cache:  cache.New(cache.NoExpiration, cache.NoExpiration),
	}
}

func (m *MetadataClient) Fetch(ctx context.Context, conn *Connection) (ChainInfo, error) {
	if err := ctx.Err(); err != nil {
		return ChainInfo{}, err
	}

	runtime, err := conn.API().RPC.State.GetRuntimeVersionLatest()
	if err != nil {
		return ChainInfo{}, wrapUnreachable("fetching runtime version", err)
	}

	key := cacheKey(conn.Generation(), uint32(runtime.SpecVersion))
	if cached, ok := m.cache.Get(key); ok {
		info := cached.(ChainInfo)
		info.Runtime = runtime
		return info, nil
	}

	genesisHash, err := conn.API().RPC.Chain.GetBlockHash(0)
	if err != nil {
		return ChainInfo{}, wrapUnreachable("fetching genesis hash", err)
	}

	meta, err := conn.API().RPC.State.GetMetadataLatest()
	if err != nil {
		return ChainInfo{}, wrapUnreachable("fetching metadata", err)
	}
	if err := checkMetadataVersion(meta); err != nil {
		return ChainInfo{}, err
	}

	info := ChainInfo{
		Meta:        meta,
		GenesisHash: genesisHash,
		Runtime:     runtime,
	}
	m.cache.SetDefault(key, info)
	m.logger.Info("chain metadata fetched",
		zap.Uint32("specVersion", uint32(runtime.SpecVersion)),
		zap.Uint64("connGeneration", conn.Generation()))

	return info, nil
}

func checkMetadataVersion(meta *types.Metadata) error {
	if meta.Version != supportedMetadataVersion {
		return fmt.Errorf("%w: got V%d, need V%d", ErrIncompatibleMetadata, meta.Version, supportedMetadataVersion)
	}
	return nil
}

func cacheKey(generation uint64, specVersion uint32) string {
	return fmt.Sprintf("%d:%d", generation, specVersion)
}
