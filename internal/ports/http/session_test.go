package http

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"referendum-voting/internal/app"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseSignatureRawSr25519(t *testing.T) {
	raw := "0x" + strings.Repeat("ab", 64)

	sig, err := parseSignature(raw)
	require.NoError(t, err)
	assert.True(t, sig.IsSr25519)
}

func TestParseSignatureMultiVariant(t *testing.T) {
	sr, err := parseSignature("0x01" + strings.Repeat("ab", 64))
	require.NoError(t, err)
	assert.True(t, sr.IsSr25519)

	ed, err := parseSignature("0x00" + strings.Repeat("cd", 64))
	require.NoError(t, err)
	assert.True(t, ed.IsEd25519)
}

func TestParseSignatureInvalid(t *testing.T) {
	_, err := parseSignature("0xzz")
	assert.Error(t, err)

	_, err = parseSignature("0x" + strings.Repeat("ab", 10))
	assert.Error(t, err)
}

func testSessionServer(t *testing.T) *websocket.Conn {
	t.Helper()

	ser := NewServer(zap.NewNop(), app.NewApp(zap.NewNop(), "ws://unused"), "")
	router := mux.NewRouter()
	ser.registerHandlers(router)

	handler := httptest.NewServer(router)
	t.Cleanup(handler.Close)

	url := "ws" + strings.TrimPrefix(handler.URL, "http") + "/api/session"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestSessionRejectsUnknownMessage(t *testing.T) {
	conn := testSessionServer(t)

	require.NoError(t, conn.WriteJSON(envelope{Type: "dance"}))

	var reply envelope
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&reply))

	assert.Equal(t, "error", reply.Type)
	assert.Contains(t, string(reply.Payload), "unknown message type")
}

func TestSessionRejectsMalformedVote(t *testing.T) {
	conn := testSessionServer(t)

	require.NoError(t, conn.WriteJSON(envelope{Type: "vote", Payload: json.RawMessage(`"nope"`)}))

	var reply envelope
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&reply))

	assert.Equal(t, "error", reply.Type)
	assert.Contains(t, string(reply.Payload), "malformed vote")
}
