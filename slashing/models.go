// Package slashing is the durable slashing-protection store: a DAO over a
// relational database holding per-validator signed-block and
// signed-attestation history, watermarks, the block/attestation rule
// engine, EIP-3076 interchange import/export, and pruning (spec §2, §3,
// §4.6-§4.9).
package slashing

import "errors"

// Validator mirrors the validators table row (spec §3).
type Validator struct {
	ID        int64
	PublicKey string // normalised 0x-prefixed hex
	Enabled   bool
}

// LowWatermark is the per-validator monotone floor below which no further
// sign request may be accepted (spec §3).
type LowWatermark struct {
	ValidatorID               int64
	MinBlockSlot              uint64
	MinAttestationSourceEpoch uint64
	MinAttestationTargetEpoch uint64
}

// HighWatermark is the single global floor stored on the metadata row.
type HighWatermark struct {
	Slot  uint64
	Epoch uint64
}

// Metadata is the singleton row (id=1) carrying the write-once genesis
// validators root and the optional high-watermark (spec §3).
type Metadata struct {
	GenesisValidatorsRoot []byte // nil if not yet set
	HighWatermark         *HighWatermark
}

// SignedBlock is one row of the signed_blocks table. SigningRoot is nil
// for a null-root placeholder row.
type SignedBlock struct {
	ValidatorID int64
	Slot        uint64
	SigningRoot []byte
}

// SignedAttestation is one row of the signed_attestations table.
type SignedAttestation struct {
	ValidatorID int64
	SourceEpoch uint64
	TargetEpoch uint64
	SigningRoot []byte
}

// Decision is the rule engine's verdict on a proposed sign (spec §9: a
// plain return value, not an exception).
type Decision int

const (
	Accept Decision = iota
	Reject
)

// RejectReason names why the rule engine rejected a sign request.
type RejectReason string

const (
	ReasonGVRMismatch            RejectReason = "genesis_validators_root_mismatch"
	ReasonValidatorDisabled      RejectReason = "validator_disabled"
	ReasonBelowLowWatermark      RejectReason = "below_low_watermark"
	ReasonBelowHighWatermark     RejectReason = "below_high_watermark"
	ReasonConflictingRoot        RejectReason = "conflicting_signing_root"
	ReasonSourceNotBeforeTarget  RejectReason = "source_not_before_target"
	ReasonSurroundingAttestation RejectReason = "surrounding_attestation"
	ReasonSurroundedAttestation  RejectReason = "surrounded_attestation"
)

var (
	ErrGVRMismatch      = errors.New("slashing: genesis validators root does not match stored value")
	ErrValidatorMissing = errors.New("slashing: validator not found")
	ErrStorageFailure   = errors.New("slashing: storage failure")
)
