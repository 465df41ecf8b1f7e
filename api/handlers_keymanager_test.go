package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tos-network/tos-signer/crypto/bls"
	"github.com/tos-network/tos-signer/keystorefile"
	"github.com/tos-network/tos-signer/log"
	"github.com/tos-network/tos-signer/registry"
	"github.com/tos-network/tos-signer/signing"
	"github.com/tos-network/tos-signer/slashing"
	"github.com/tos-network/tos-signer/validatormanager"
)

func newKeyManagerTestServer(t *testing.T) (*Server, *signing.BLSSigner, string) {
	t.Helper()
	ctx := context.Background()

	reg := registry.New(log.Root())
	reg.Start(ctx)
	t.Cleanup(reg.Stop)

	store, err := slashing.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.SetGenesisValidatorsRoot(ctx, make([]byte, 32)))

	mgr := validatormanager.New(reg, store)
	dir := t.TempDir()

	key, err := bls.Generate()
	require.NoError(t, err)
	s := signing.NewBLSSigner(key)
	triple := keystorefile.ForPublicKey(dir, s.Identifier())
	require.NoError(t, mgr.AddValidator(ctx, s, triple, key.Bytes(), "BLS", "password123", ""))

	_, err = store.CheckAndRecordBlock(ctx, s.Identifier(), make([]byte, 32), 10, make([]byte, 32))
	require.NoError(t, err)

	return &Server{
		Registry:          reg,
		ValidatorManager:  mgr,
		KeystoreDir:       dir,
		KeyManagerEnabled: true,
	}, s, dir
}

func TestHandleDeleteKeystoresReturnsValidInterchangeEnvelope(t *testing.T) {
	srv, s, _ := newKeyManagerTestServer(t)
	router := srv.NewRouter()

	body, _ := json.Marshal(deleteKeysRequest{Pubkeys: []string{s.Identifier()}})
	req := httptest.NewRequest(http.MethodDelete, "/eth/v1/keystores", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp deleteKeysResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, string(validatormanager.StatusDeleted), resp.Data[0].Status)

	var doc slashing.InterchangeDocument
	require.NoError(t, json.Unmarshal([]byte(resp.SlashingProtection), &doc))
	require.Equal(t, "5", doc.Metadata.InterchangeFormatVersion)
	require.Len(t, doc.Data, 1)
	require.Equal(t, s.Identifier(), doc.Data[0].Pubkey)
	require.Len(t, doc.Data[0].SignedBlocks, 1)
}
