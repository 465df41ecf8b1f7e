package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/tos-network/tos-signer/common"
	"github.com/tos-network/tos-signer/dispatch"
	"github.com/tos-network/tos-signer/proxy"
)

type requestSignatureRequest struct {
	Type       string `json:"type"` // "consensus" or "proxy_bls" or "proxy_ecdsa"
	Pubkey     string `json:"pubkey"`
	ObjectRoot string `json:"object_root"`
}

type requestSignatureResponse struct {
	Signature string `json:"signature"`
}

func (s *Server) handleCommitBoostRequestSignature(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body requestSignatureRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: %v", dispatch.ErrBadRequest, err))
		return
	}
	digest, err := common.DecodeHex(body.ObjectRoot)
	if err != nil {
		writeError(w, fmt.Errorf("%w: object_root: %v", dispatch.ErrBadRequest, err))
		return
	}

	var identifier string
	if signer, ok := s.Registry.Get(body.Pubkey); ok {
		identifier = signer.Identifier()
	} else if signer, ok := s.Registry.GetProxy(body.Pubkey); ok {
		identifier = signer.Identifier()
	} else {
		writeError(w, dispatch.ErrNotFound)
		return
	}

	artifact, err := s.Dispatcher.Sign(r.Context(), dispatch.Request{
		Identifier: identifier,
		Domain:     dispatch.DomainOther,
		Message:    digest,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requestSignatureResponse{Signature: artifact.Hex()})
}

type generateProxyKeyRequest struct {
	ConsensusPubkey string `json:"consensus_pubkey"`
	Scheme          string `json:"scheme"` // "BLS" or "ECDSA"
}

type generateProxyKeyResponse struct {
	Message struct {
		Delegator string `json:"delegator"`
		Proxy     string `json:"proxy"`
	} `json:"message"`
	Signature string `json:"signature"`
}

func (s *Server) handleCommitBoostGenerateProxyKey(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body generateProxyKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: %v", dispatch.ErrBadRequest, err))
		return
	}

	scheme := proxy.SchemeBLS
	if body.Scheme == "ECDSA" {
		scheme = proxy.SchemeECDSA
	}

	result, err := s.ProxyGenerator.Generate(r.Context(), body.ConsensusPubkey, scheme)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := generateProxyKeyResponse{Signature: common.EncodeHex(result.Signature)}
	resp.Message.Delegator = common.EncodeHex(result.Message.Delegator)
	resp.Message.Proxy = common.EncodeHex(result.Message.Proxy)
	writeJSON(w, http.StatusOK, resp)
}
