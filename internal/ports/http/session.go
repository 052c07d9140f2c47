package http

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"referendum-voting/internal/app"
	"referendum-voting/internal/model"
	"referendum-voting/internal/signer"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the page hosting the wallet extension is served from another origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// envelope wraps every websocket message in both directions.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type voteMessage struct {
	Account    model.Account `json:"account"`
	Balance    uint64        `json:"balance"`
	Conviction uint8         `json:"conviction"`
	Tip        uint64        `json:"tip,omitempty"`
}

type signatureMessage struct {
	Signature string `json:"signature"`
}

type submittedMessage struct {
	ID     string `json:"id"`
	TxHash string `json:"txHash"`
}

type statusMessage struct {
	Stage string `json:"stage"`
	Block string `json:"block,omitempty"`
	Peers int    `json:"peers,omitempty"`
	Error string `json:"error,omitempty"`
}

type finalizedMessage struct {
	Number uint64 `json:"number"`
	Hash   string `json:"hash"`
}

// session is one websocket connection of the voting page. It carries the
// vote commands, bridges sign requests to the wallet extension on the other
// end, and streams submission statuses back. The session itself is the
// external signer of the pipeline.
type session struct {
	logger *zap.Logger
	app    *app.App
	conn   *websocket.Conn
	cancel context.CancelFunc

	// gorilla allows a single concurrent writer
	writeMu sync.Mutex

	signatures chan signatureReply
}

type signatureReply struct {
	sig      types.MultiSignature
	rejected bool
}

func (ser server) getSession(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		ser.logger.Warn("websocket upgrade failed: " + err.Error())
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	s := &session{
		logger:     ser.logger,
		app:        ser.app,
		conn:       conn,
		cancel:     cancel,
		signatures: make(chan signatureReply, 1),
	}
	defer func() {
		if err := s.close(); err != nil {
			ser.logger.Debug("closing the session: " + err.Error())
		}
	}()

	ser.logger.Info("voting session opened", zap.String("remote", conn.RemoteAddr().String()))
	s.readLoop(ctx)
	ser.logger.Info("voting session closed", zap.String("remote", conn.RemoteAddr().String()))
}

// readLoop is the single reader of the socket. Closing the socket cancels
// the session context and with it any vote in progress.
func (s *session) readLoop(ctx context.Context) {
	defer s.cancel()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.route(ctx, data)
	}
}

func (s *session) route(ctx context.Context, data []byte) {
	var msg envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		s.writeError("malformed message: " + err.Error())
		return
	}

	switch msg.Type {
	case "vote":
		var vote voteMessage
		if err := json.Unmarshal(msg.Payload, &vote); err != nil {
			s.writeError("malformed vote: " + err.Error())
			return
		}
		go s.handleVote(ctx, vote)

	case "signature":
		var sig signatureMessage
		if err := json.Unmarshal(msg.Payload, &sig); err != nil {
			s.writeError("malformed signature: " + err.Error())
			return
		}
		multiSig, err := parseSignature(sig.Signature)
		if err != nil {
			s.writeError(err.Error())
			return
		}
		s.deliver(signatureReply{sig: multiSig})

	case "reject":
		s.deliver(signatureReply{rejected: true})

	case "watch_heads":
		go s.streamHeads(ctx)

	default:
		s.writeError("unknown message type: " + msg.Type)
	}
}

func (s *session) handleVote(ctx context.Context, vote voteMessage) {
	req := app.VoteRequest{
		Account:    vote.Account,
		BalanceKSM: vote.Balance,
		Conviction: model.Conviction(vote.Conviction),
		Tip:        vote.Tip,
	}

	submission, err := s.app.CastVote(ctx, req, s)
	if err != nil {
		s.writeError(err.Error())
		return
	}

	if err := s.write("submitted", submittedMessage{ID: submission.ID, TxHash: submission.TxHash}); err != nil {
		return
	}

	for status := range submission.Statuses {
		msg := statusMessage{
			Stage: status.Stage.String(),
			Block: status.Block,
			Peers: status.Peers,
		}
		if status.Err != nil {
			msg.Error = status.Err.Error()
		}
		if err := s.write("status", msg); err != nil {
			return
		}
	}
}

func (s *session) streamHeads(ctx context.Context) {
	heads, err := s.app.WatchFinalized(ctx)
	if err != nil {
		s.writeError("failed to watch finalized blocks: " + err.Error())
		return
	}

	for head := range heads {
		if err := s.write("finalized", finalizedMessage{Number: head.Number, Hash: head.Hash}); err != nil {
			return
		}
	}
}

// Sign forwards the signer payload to the page and suspends until the
// wallet extension answers or the session ends.
func (s *session) Sign(ctx context.Context, req signer.SignRequest) (types.MultiSignature, error) {
	if err := s.write("sign_request", req.Payload); err != nil {
		return types.MultiSignature{}, signer.ErrNoExtension
	}

	select {
	case reply := <-s.signatures:
		if reply.rejected {
			return types.MultiSignature{}, signer.ErrUserRejected
		}
		return reply.sig, nil
	case <-ctx.Done():
		return types.MultiSignature{}, ctx.Err()
	}
}

// deliver hands a signature reply to the waiting Sign call; a reply nobody
// waits for is dropped.
func (s *session) deliver(reply signatureReply) {
	select {
	case s.signatures <- reply:
	default:
		s.logger.Warn("dropping a signature reply with no sign request pending")
	}
}

// parseSignature decodes the hex signature the extension returns: either a
// multi signature (variant byte plus 64 bytes) or raw 64 sr25519 bytes.
func parseSignature(raw string) (types.MultiSignature, error) {
	decoded, err := hex.DecodeString(strings.TrimPrefix(raw, "0x"))
	if err != nil {
		return types.MultiSignature{}, errors.New("invalid signature encoding: " + err.Error())
	}

	switch {
	case len(decoded) == 65 && decoded[0] == 0x00:
		return types.MultiSignature{IsEd25519: true, AsEd25519: types.NewSignature(decoded[1:])}, nil
	case len(decoded) == 65 && decoded[0] == 0x01:
		return types.MultiSignature{IsSr25519: true, AsSr25519: types.NewSignature(decoded[1:])}, nil
	case len(decoded) == 64:
		return types.MultiSignature{IsSr25519: true, AsSr25519: types.NewSignature(decoded)}, nil
	}

	return types.MultiSignature{}, errors.New("unsupported signature length")
}

func (s *session) write(msgType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("marshalling a "+msgType+" message failed", zap.Error(err))
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.WriteJSON(envelope{Type: msgType, Payload: raw}); err != nil {
		s.logger.Debug("writing a " + msgType + " message failed: " + err.Error())
		return err
	}
	return nil
}

func (s *session) writeError(message string) {
	type errorMessage struct {
		Message string `json:"message"`
	}
	_ = s.write("error", errorMessage{Message: message})
}

func (s *session) close() error {
	s.cancel()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	closeErr := s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	if errors.Is(closeErr, websocket.ErrCloseSent) {
		closeErr = nil
	}

	return multierr.Append(closeErr, s.conn.Close())
}
