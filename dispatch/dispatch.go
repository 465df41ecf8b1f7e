// Package dispatch threads a sign request through identifier
// normalisation, registry lookup, the slashing rule engine (consensus
// domains only), and signer invocation (spec §4.2).
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/tos-network/tos-signer/common"
	"github.com/tos-network/tos-signer/registry"
	"github.com/tos-network/tos-signer/signing"
	"github.com/tos-network/tos-signer/slashing"
)

// Domain distinguishes what kind of consensus artifact is being signed,
// determining whether the slashing rule engine runs and which rule applies.
type Domain int

const (
	DomainBlock Domain = iota
	DomainAttestation
	DomainOther // randao reveal, voluntary exit, sync committee, etc: no slashing check
)

// BlockPayload carries the fields the block rule needs (spec §4.6).
type BlockPayload struct {
	Slot        uint64
	SigningRoot []byte
}

// AttestationPayload carries the fields the attestation rule needs.
type AttestationPayload struct {
	SourceEpoch uint64
	TargetEpoch uint64
	SigningRoot []byte
}

// Request is one sign call.
type Request struct {
	Identifier            string
	Domain                Domain
	Message               []byte // the raw artifact to sign when Domain == DomainOther
	Block                 *BlockPayload
	Attestation           *AttestationPayload
	GenesisValidatorsRoot []byte
}

// Sentinel error kinds map 1:1 to the spec §7 HTTP status mapping.
var (
	ErrNotFound         = errors.New("dispatch: identifier not registered")
	ErrSlashingRejected = errors.New("dispatch: rejected by slashing protection")
	ErrBadRequest       = errors.New("dispatch: malformed sign request")
)

// Dispatcher is the sign() entry point shared by the eth2 HTTP surface and
// the Commit-Boost request_signature surface.
type Dispatcher struct {
	registry *registry.Registry
	store    *slashing.Store
}

// New builds a Dispatcher over reg and store. store may be nil for
// eth1-only deployments that never need slashing protection.
func New(reg *registry.Registry, store *slashing.Store) *Dispatcher {
	return &Dispatcher{registry: reg, store: store}
}

// Sign implements spec §4.2's steps: normalise, lookup, (for consensus
// domains) slashing check, invoke, encode.
func (d *Dispatcher) Sign(ctx context.Context, req Request) (signing.ArtifactSignature, error) {
	id := common.NormalizeIdentifier(req.Identifier)
	signer, ok := d.registry.Get(id)
	if !ok {
		return signing.ArtifactSignature{}, ErrNotFound
	}

	var payload []byte
	switch req.Domain {
	case DomainBlock:
		if req.Block == nil || d.store == nil {
			return signing.ArtifactSignature{}, ErrBadRequest
		}
		verdict, err := d.store.CheckAndRecordBlock(ctx, id, req.GenesisValidatorsRoot, req.Block.Slot, req.Block.SigningRoot)
		if err != nil {
			return signing.ArtifactSignature{}, fmt.Errorf("dispatch: slashing check: %w", err)
		}
		if verdict.Decision == slashing.Reject {
			return signing.ArtifactSignature{}, fmt.Errorf("%w: %s", ErrSlashingRejected, verdict.Reason)
		}
		payload = req.Block.SigningRoot
	case DomainAttestation:
		if req.Attestation == nil || d.store == nil {
			return signing.ArtifactSignature{}, ErrBadRequest
		}
		verdict, err := d.store.CheckAndRecordAttestation(ctx, id, req.GenesisValidatorsRoot, req.Attestation.SourceEpoch, req.Attestation.TargetEpoch, req.Attestation.SigningRoot)
		if err != nil {
			return signing.ArtifactSignature{}, fmt.Errorf("dispatch: slashing check: %w", err)
		}
		if verdict.Decision == slashing.Reject {
			return signing.ArtifactSignature{}, fmt.Errorf("%w: %s", ErrSlashingRejected, verdict.Reason)
		}
		payload = req.Attestation.SigningRoot
	default:
		payload = req.Message
	}

	return signer.Sign(ctx, payload)
}
