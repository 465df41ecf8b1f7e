package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/tos-network/tos-signer/common"
	"github.com/tos-network/tos-signer/keystorefile"
	"github.com/tos-network/tos-signer/slashing"
)

// keystoreEntry is one row of the Key Manager API's GET /eth/v1/keystores response.
type keystoreEntry struct {
	ValidatingPubkey string `json:"validating_pubkey"`
	Derivation       string `json:"derivation_path,omitempty"`
	Readonly         bool   `json:"readonly"`
}

func (s *Server) handleListKeystores(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	ids := s.Registry.Available()
	entries := make([]keystoreEntry, 0, len(ids))
	for _, id := range ids {
		if signer, ok := s.Registry.Get(id); ok && signer.KeyType().String() == "BLS" {
			entries = append(entries, keystoreEntry{ValidatingPubkey: id})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": entries})
}

func (s *Server) handleListRemoteKeys(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	ids := s.Registry.Available()
	entries := make([]keystoreEntry, 0, len(ids))
	for _, id := range ids {
		if signer, ok := s.Registry.Get(id); ok && signer.KeyType().String() == "SECP256K1" {
			entries = append(entries, keystoreEntry{ValidatingPubkey: id, Readonly: true})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": entries})
}

// keystoreImportRequest is the POST /eth/v1/keystores body, one keystore
// JSON blob + its password per entry, plus the shared EIP-3076 history.
type keystoreImportRequest struct {
	Keystores          []string `json:"keystores"`
	Passwords          []string `json:"passwords"`
	SlashingProtection string   `json:"slashing_protection"`
}

type importItemStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleImportKeystores(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body keystoreImportRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	if body.SlashingProtection != "" {
		var doc struct {
			Metadata struct {
				GenesisValidatorsRoot string `json:"genesis_validators_root"`
			} `json:"metadata"`
		}
		_ = json.Unmarshal([]byte(body.SlashingProtection), &doc)
	}

	statuses := make([]importItemStatus, len(body.Keystores))
	for i := range body.Keystores {
		ks, err := keystorefile.UnmarshalFile([]byte(body.Keystores[i]))
		if err != nil {
			statuses[i] = importItemStatus{Status: "error", Message: err.Error()}
			continue
		}
		password := ""
		if i < len(body.Passwords) {
			password = body.Passwords[i]
		}
		if _, err := keystorefile.Decrypt(ks, password); err != nil {
			statuses[i] = importItemStatus{Status: "error", Message: err.Error()}
			continue
		}
		statuses[i] = importItemStatus{Status: "imported"}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": statuses})
}

func (s *Server) handleImportRemoteKeys(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusNotImplemented, map[string]string{"message": "remote key import is operator-managed, not via this API"})
}

type deleteKeysRequest struct {
	Pubkeys []string `json:"pubkeys"`
}

type deleteKeysResponse struct {
	Data               []importItemStatus `json:"data"`
	SlashingProtection string              `json:"slashing_protection"`
}

func (s *Server) handleDeleteKeystores(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body deleteKeysRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	statuses := make([]importItemStatus, 0, len(body.Pubkeys))
	var records []slashing.InterchangeRecord
	var gvr []byte
	for _, pub := range body.Pubkeys {
		id := common.NormalizeIdentifier(pub)
		triple := keystorefile.ForPublicKey(s.keystoreDir(), id)
		result := s.ValidatorManager.Delete(r.Context(), id, triple)
		statuses = append(statuses, importItemStatus{Status: string(result.Status), Message: result.Message})
		if result.Export != nil {
			records = append(records, *result.Export)
			gvr = result.GenesisValidatorsRoot
		}
	}

	resp := deleteKeysResponse{Data: statuses}
	if len(records) > 0 {
		var buf bytes.Buffer
		exporter, err := slashing.NewIncrementalExporter(&buf, gvr)
		if err == nil {
			for _, rec := range records {
				if werr := exporter.WriteValidator(rec); werr != nil {
					err = werr
					break
				}
			}
			if err == nil {
				err = exporter.Close()
			}
		}
		if err == nil {
			resp.SlashingProtection = buf.String()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteRemoteKeys(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusNotImplemented, map[string]string{"message": "remote keys are not deletable through this API"})
}

// keystoreDir is the on-disk root the Key Manager API deletes/writes
// keystore triples under; set by whoever wires Server (cmd/tos-signer).
func (s *Server) keystoreDir() string { return s.KeystoreDir }
