package blockchain

import (
	"context"
	"sync"

	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4"
	"go.uber.org/zap"
)

// Connection is one live websocket connection to the node. All flows of a
// session share a single Connection; a broken one is replaced by the
// Supervisor, never repaired in place.
type Connection struct {
	api        *gsrpc.SubstrateAPI
	generation uint64
}

func (c *Connection) API() *gsrpc.SubstrateAPI {
	return c.api
}

// Generation increases every time the Supervisor dials. It distinguishes a
// replaced connection from the one a consumer still holds.
func (c *Connection) Generation() uint64 {
	return c.generation
}

// Supervisor owns the node connection for the process. Consumers obtain the
// current handle with Conn and report broken handles with Invalidate; the
// next Conn call then dials again.
type Supervisor struct {
	logger   *zap.Logger
	endpoint string

	mu         sync.Mutex
	current    *Connection
	generation uint64
}

func NewSupervisor(logger *zap.Logger, endpoint string) *Supervisor {
	return &Supervisor{
		logger:   logger,
		endpoint: endpoint,
	}
}

func (s *Supervisor) Endpoint() string {
	return s.endpoint
}

// Conn returns the live connection, dialing on first use and after an
// invalidation.
func (s *Supervisor) Conn(ctx context.Context) (*Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return s.current, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.Info("connecting to the node", zap.String("endpoint", s.endpoint))
	api, err := gsrpc.NewSubstrateAPI(s.endpoint)
	if err != nil {
		return nil, wrapUnreachable("connecting to "+s.endpoint, err)
	}

	s.generation++
	s.current = &Connection{api: api, generation: s.generation}
	s.logger.Info("node connection established", zap.Uint64("generation", s.generation))

	return s.current, nil
}

// Invalidate drops the given connection so the next Conn dials again.
// Invalidating an already replaced connection is a no-op.
func (s *Supervisor) Invalidate(conn *Connection) {
	if conn == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != conn {
		return
	}

	s.logger.Warn("dropping the node connection", zap.Uint64("generation", conn.generation))
	s.current = nil
}
