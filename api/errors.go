// Package api is the HTTP/JSON-RPC surface: route plumbing over
// julienschmidt/httprouter, dispatching into the dispatch, registry,
// proxy, validatormanager, and metadata packages. Per spec §1, the
// framework and OpenAPI extraction themselves are out of scope — only the
// documented routes and status codes matter.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tos-network/tos-signer/dispatch"
	"github.com/tos-network/tos-signer/proxy"
)

// kind is the single error sum spec §7 describes, mapped to one of the
// four HTTP status codes the service ever returns for a sign-adjacent call.
type kind int

const (
	kindBadRequest kind = iota
	kindNotFound
	kindSlashingRejected
	kindInternal
)

func classify(err error) kind {
	switch {
	case errors.Is(err, dispatch.ErrNotFound), errors.Is(err, proxy.ErrConsensusNotFound):
		return kindNotFound
	case errors.Is(err, dispatch.ErrSlashingRejected):
		return kindSlashingRejected
	case errors.Is(err, dispatch.ErrBadRequest):
		return kindBadRequest
	default:
		return kindInternal
	}
}

func (k kind) status() int {
	switch k {
	case kindBadRequest:
		return http.StatusBadRequest
	case kindNotFound:
		return http.StatusNotFound
	case kindSlashingRejected:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to its HTTP status and a small JSON body.
func writeError(w http.ResponseWriter, err error) {
	k := classify(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(k.status())
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
