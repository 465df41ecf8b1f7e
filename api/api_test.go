package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tos-network/tos-signer/crypto/secpsign"
	"github.com/tos-network/tos-signer/dispatch"
	"github.com/tos-network/tos-signer/log"
	"github.com/tos-network/tos-signer/registry"
	"github.com/tos-network/tos-signer/signing"
)

func newTestServer(t *testing.T) (*Server, *signing.SecpLocalSigner) {
	t.Helper()
	ctx := context.Background()
	reg := registry.New(log.Root())
	reg.Start(ctx)
	t.Cleanup(reg.Stop)

	key, err := secpsign.GenerateKey()
	require.NoError(t, err)
	s := signing.NewSecpLocalSigner(key, nil)
	require.NoError(t, reg.Add(ctx, s))

	return &Server{Registry: reg, Dispatcher: dispatch.New(reg, nil)}, s
}

func TestUpcheck(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/upcheck", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestEth1PublicKeys(t *testing.T) {
	srv, s := newTestServer(t)
	router := srv.NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/eth1/publicKeys", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var ids []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ids))
	require.Contains(t, ids, s.Identifier())
}

func TestEth1Sign(t *testing.T) {
	srv, s := newTestServer(t)
	router := srv.NewRouter()

	body, _ := json.Marshal(eth1SignRequest{Data: "0xdeadbeef"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/eth1/sign/"+s.Identifier(), bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, w.Body.String(), 132) // 0x + 65 bytes hex
}

func TestEth1SignUnknownIdentifierNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.NewRouter()

	body, _ := json.Marshal(eth1SignRequest{Data: "0xdeadbeef"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/eth1/sign/0xdead", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestJSONRPCEthAccounts(t *testing.T) {
	srv, s := newTestServer(t)
	router := srv.NewRouter()

	body, _ := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: json.RawMessage("1"), Method: "eth_accounts"})
	req := httptest.NewRequest(http.MethodPost, "/rpc/v1", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Nil(t, resp.Error)
	ids, ok := resp.Result.([]any)
	require.True(t, ok)
	require.Contains(t, ids, s.Identifier())
}
