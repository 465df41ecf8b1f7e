package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"

	"github.com/tos-network/tos-signer/common"
	"github.com/tos-network/tos-signer/dispatch"
)

type eth1SignRequest struct {
	Data string `json:"data"`
}

func (s *Server) handleEth1Sign(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body eth1SignRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: %v", dispatch.ErrBadRequest, err))
		return
	}
	message, err := common.DecodeHex(body.Data)
	if err != nil {
		writeError(w, fmt.Errorf("%w: data: %v", dispatch.ErrBadRequest, err))
		return
	}

	artifact, err := s.Dispatcher.Sign(r.Context(), dispatch.Request{
		Identifier: ps.ByName("identifier"),
		Domain:     dispatch.DomainOther,
		Message:    message,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, artifact.Hex())
}

func (s *Server) handleEth1PublicKeys(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	ids := s.Registry.Available()
	sort.Strings(ids)
	writeJSON(w, http.StatusOK, ids)
}

// JSON-RPC 2.0 envelope, eth_sign / eth_accounts only (spec §4.3).

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	rpcCodeInvalidParams      = -32602
	rpcCodeAccountNotUnlocked = -32000
)

func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: rpcCodeInvalidParams, Message: err.Error()}})
		return
	}

	switch req.Method {
	case "eth_sign":
		s.rpcEthSign(w, r, req)
	case "eth_accounts":
		s.rpcEthAccounts(w, req)
	default:
		writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: rpcCodeInvalidParams, Message: "unsupported method"}})
	}
}

func (s *Server) rpcEthSign(w http.ResponseWriter, r *http.Request, req rpcRequest) {
	var params []string
	if len(req.Params) == 0 || string(req.Params) == "null" {
		writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: rpcCodeInvalidParams, Message: "missing params"}})
		return
	}
	if err := json.Unmarshal(req.Params, &params); err != nil || len(params) != 2 {
		writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: rpcCodeInvalidParams, Message: "params must be [address, message]"}})
		return
	}
	address, messageHex := params[0], params[1]

	message, err := common.DecodeHex(messageHex)
	if err != nil {
		if !utf8.ValidString(messageHex) {
			writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: rpcCodeInvalidParams, Message: "message must be 0x-hex or UTF-8"}})
			return
		}
		message = []byte(messageHex)
	}

	artifact, err := s.Dispatcher.Sign(r.Context(), dispatch.Request{
		Identifier: address,
		Domain:     dispatch.DomainOther,
		Message:    message,
	})
	if err != nil {
		writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{
			Code: rpcCodeAccountNotUnlocked, Message: "signing from is not an unlocked account",
		}})
		return
	}
	writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: artifact.Hex()})
}

func (s *Server) rpcEthAccounts(w http.ResponseWriter, req rpcRequest) {
	if len(req.Params) > 0 && string(req.Params) != "null" && string(req.Params) != "[]" {
		writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: rpcCodeInvalidParams, Message: "params must be null or []"}})
		return
	}
	ids := s.Registry.Available()
	sort.Strings(ids)
	writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: ids})
}
