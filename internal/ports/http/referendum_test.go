package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"referendum-voting/internal/app"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testHTTPServer(t *testing.T) *httptest.Server {
	t.Helper()

	ser := NewServer(zap.NewNop(), app.NewApp(zap.NewNop(), "ws://unused"), "")
	router := mux.NewRouter()
	ser.registerHandlers(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv
}

func TestReferendumRejectsZeroBalance(t *testing.T) {
	srv := testHTTPServer(t)

	resp, err := http.Get(srv.URL + "/api/referendum?balance=0")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReferendumRejectsMalformedParams(t *testing.T) {
	srv := testHTTPServer(t)

	for _, query := range []string{"?balance=abc", "?conviction=abc", "?balance=-1"} {
		resp, err := http.Get(srv.URL + "/api/referendum" + query)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
	}
}
