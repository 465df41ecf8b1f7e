package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/julienschmidt/httprouter"

	"github.com/tos-network/tos-signer/common"
	"github.com/tos-network/tos-signer/dispatch"
)

// eth2SignRequest is the union of every consensus sign body shape (spec
// §6): "type" discriminates which domain-specific fields apply.
type eth2SignRequest struct {
	Type                  string `json:"type"`
	SigningRoot           string `json:"signing_root"`
	GenesisValidatorsRoot string `json:"genesis_validators_root"`

	Block struct {
		Slot string `json:"slot"`
	} `json:"block"`

	Attestation struct {
		Source struct {
			Epoch string `json:"epoch"`
		} `json:"source"`
		Target struct {
			Epoch string `json:"epoch"`
		} `json:"target"`
	} `json:"attestation"`
}

type eth2SignResponse struct {
	Signature string `json:"signature"`
}

func (s *Server) handleEth2Sign(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body eth2SignRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: %v", dispatch.ErrBadRequest, err))
		return
	}

	signingRoot, err := common.DecodeHex(body.SigningRoot)
	if err != nil {
		writeError(w, fmt.Errorf("%w: signing_root: %v", dispatch.ErrBadRequest, err))
		return
	}
	gvr, err := common.DecodeHex(body.GenesisValidatorsRoot)
	if err != nil {
		writeError(w, fmt.Errorf("%w: genesis_validators_root: %v", dispatch.ErrBadRequest, err))
		return
	}

	req := dispatch.Request{
		Identifier:            ps.ByName("identifier"),
		GenesisValidatorsRoot: gvr,
	}

	switch body.Type {
	case "BLOCK", "BLOCK_V2":
		slot, err := parseDecimalUint(body.Block.Slot)
		if err != nil {
			writeError(w, fmt.Errorf("%w: block.slot: %v", dispatch.ErrBadRequest, err))
			return
		}
		req.Domain = dispatch.DomainBlock
		req.Block = &dispatch.BlockPayload{Slot: slot, SigningRoot: signingRoot}
	case "ATTESTATION":
		source, err := parseDecimalUint(body.Attestation.Source.Epoch)
		if err != nil {
			writeError(w, fmt.Errorf("%w: attestation.source.epoch: %v", dispatch.ErrBadRequest, err))
			return
		}
		target, err := parseDecimalUint(body.Attestation.Target.Epoch)
		if err != nil {
			writeError(w, fmt.Errorf("%w: attestation.target.epoch: %v", dispatch.ErrBadRequest, err))
			return
		}
		req.Domain = dispatch.DomainAttestation
		req.Attestation = &dispatch.AttestationPayload{SourceEpoch: source, TargetEpoch: target, SigningRoot: signingRoot}
	default:
		req.Domain = dispatch.DomainOther
		req.Message = signingRoot
	}

	artifact, err := s.Dispatcher.Sign(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eth2SignResponse{Signature: artifact.Hex()})
}

func (s *Server) handleEth2PublicKeys(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	ids := s.Registry.Available()
	sort.Strings(ids)
	writeJSON(w, http.StatusOK, ids)
}
