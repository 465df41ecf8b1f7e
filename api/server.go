package api

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/julienschmidt/httprouter"

	"github.com/tos-network/tos-signer/dispatch"
	"github.com/tos-network/tos-signer/log"
	"github.com/tos-network/tos-signer/proxy"
	"github.com/tos-network/tos-signer/registry"
	"github.com/tos-network/tos-signer/slashing"
	"github.com/tos-network/tos-signer/validatormanager"
)

// ReloadFunc triggers a registry reload from metadata sources (spec §6
// "POST /reload"); owned by whatever wired the metadata supplier at startup.
type ReloadFunc func(ctx context.Context) (loaded, errorCount int, err error)

// Server bundles every component the HTTP surface dispatches into.
type Server struct {
	Registry         *registry.Registry
	Dispatcher       *dispatch.Dispatcher
	Store            *slashing.Store
	ProxyGenerator   *proxy.Generator
	ValidatorManager *validatormanager.Manager
	Reload           ReloadFunc
	Logger           *log.Logger
	KeystoreDir      string

	// KeyManagerEnabled/CommitBoostEnabled gate optional route groups
	// (spec §6 CLI flags --key-manager-api-enabled, --commit-boost-api-enabled).
	KeyManagerEnabled  bool
	CommitBoostEnabled bool

	lastLoadErrorCount atomic.Int64
}

// NewRouter builds the full httprouter.Router for the configured surfaces.
func (s *Server) NewRouter() *httprouter.Router {
	r := httprouter.New()

	r.GET("/upcheck", s.handleUpcheck)
	r.GET("/healthcheck", s.handleHealthcheck)
	r.POST("/reload", s.handleReload)

	r.POST("/api/v1/eth2/sign/:identifier", s.handleEth2Sign)
	r.GET("/api/v1/eth2/publicKeys", s.handleEth2PublicKeys)

	r.POST("/api/v1/eth1/sign/:identifier", s.handleEth1Sign)
	r.GET("/api/v1/eth1/publicKeys", s.handleEth1PublicKeys)
	r.POST("/rpc/v1", s.handleJSONRPC)

	if s.KeyManagerEnabled {
		r.GET("/eth/v1/keystores", s.handleListKeystores)
		r.POST("/eth/v1/keystores", s.handleImportKeystores)
		r.DELETE("/eth/v1/keystores", s.handleDeleteKeystores)
		r.GET("/eth/v1/remotekeys", s.handleListRemoteKeys)
		r.POST("/eth/v1/remotekeys", s.handleImportRemoteKeys)
		r.DELETE("/eth/v1/remotekeys", s.handleDeleteRemoteKeys)
	}

	if s.CommitBoostEnabled {
		r.POST("/signer/v1/request_signature", s.handleCommitBoostRequestSignature)
		r.POST("/signer/v1/generate_proxy_key", s.handleCommitBoostGenerateProxyKey)
	}

	return r
}

func (s *Server) handleUpcheck(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
}

type healthcheckCheck struct {
	ID     string             `json:"id"`
	Status string             `json:"status"`
	Data   map[string]any     `json:"data,omitempty"`
	Checks []healthcheckCheck `json:"checks,omitempty"`
}

type healthcheckResponse struct {
	Status string             `json:"status"`
	Checks []healthcheckCheck `json:"checks"`
}

func (s *Server) handleHealthcheck(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	status := "UP"
	errCount := s.lastLoadErrorCount.Load()
	if errCount > 0 {
		status = "DOWN"
	}
	resp := healthcheckResponse{
		Status: status,
		Checks: []healthcheckCheck{{
			ID:     "keys-check",
			Status: status,
			Checks: []healthcheckCheck{{
				ID:     "azure-bulk-loading",
				Status: status,
				Data:   map[string]any{"errorCount": errCount},
			}},
		}},
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.Reload == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "noop"})
		return
	}
	loaded, errCount, err := s.Reload(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	s.lastLoadErrorCount.Store(int64(errCount))
	writeJSON(w, http.StatusOK, map[string]int{"loaded": loaded, "errorCount": errCount})
}
