package slashing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Verdict is the outcome of a single rule-engine check (spec §9: a plain
// return value, never an exception).
type Verdict struct {
	Decision Decision
	Reason   RejectReason // zero value if Decision == Accept
}

func accept() Verdict { return Verdict{Decision: Accept} }

func reject(reason RejectReason) Verdict { return Verdict{Decision: Reject, Reason: reason} }

// CheckAndRecordBlock runs the block rule (spec §4.6) for validator
// publicKey signing at slot with signingRoot, inside one serialisable
// transaction that also performs the insert on acceptance.
func (s *Store) CheckAndRecordBlock(ctx context.Context, publicKey string, genesisValidatorsRoot []byte, slot uint64, signingRoot []byte) (Verdict, error) {
	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	defer tx.Rollback()

	md, err := getMetadata(ctx, tx)
	if err != nil {
		return Verdict{}, err
	}
	if md.GenesisValidatorsRoot != nil && !bytesEqual(md.GenesisValidatorsRoot, genesisValidatorsRoot) {
		return reject(ReasonGVRMismatch), tx.Commit()
	}

	validatorID, err := upsertValidator(ctx, tx, publicKey)
	if err != nil {
		return Verdict{}, err
	}
	if enabled, err := validatorEnabled(ctx, tx, validatorID); err != nil {
		return Verdict{}, err
	} else if !enabled {
		return reject(ReasonValidatorDisabled), tx.Commit()
	}

	lw, err := getLowWatermark(ctx, tx, validatorID)
	if err != nil {
		return Verdict{}, err
	}
	if slot <= lw.MinBlockSlot {
		return reject(ReasonBelowLowWatermark), tx.Commit()
	}
	if md.HighWatermark != nil && slot <= md.HighWatermark.Slot {
		return reject(ReasonBelowHighWatermark), tx.Commit()
	}

	existing, err := getSignedBlock(ctx, tx, validatorID, slot)
	if err != nil {
		return Verdict{}, err
	}
	if existing != nil && existing.SigningRoot != nil {
		if !bytesEqual(existing.SigningRoot, signingRoot) {
			return reject(ReasonConflictingRoot), tx.Commit()
		}
		return accept(), tx.Commit() // idempotent re-sign, no duplicate row
	}
	if existing != nil && existing.SigningRoot == nil {
		return accept(), tx.Commit() // existing null-root placeholder, no duplicate insert
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO signed_blocks(validator_id, slot, signing_root) VALUES (?, ?, ?)`, validatorID, slot, signingRoot); err != nil {
		return Verdict{}, fmt.Errorf("slashing: insert signed block: %w", err)
	}
	return accept(), tx.Commit()
}

// CheckAndRecordAttestation runs the attestation rule (spec §4.6).
func (s *Store) CheckAndRecordAttestation(ctx context.Context, publicKey string, genesisValidatorsRoot []byte, sourceEpoch, targetEpoch uint64, signingRoot []byte) (Verdict, error) {
	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	defer tx.Rollback()

	md, err := getMetadata(ctx, tx)
	if err != nil {
		return Verdict{}, err
	}
	if md.GenesisValidatorsRoot != nil && !bytesEqual(md.GenesisValidatorsRoot, genesisValidatorsRoot) {
		return reject(ReasonGVRMismatch), tx.Commit()
	}

	validatorID, err := upsertValidator(ctx, tx, publicKey)
	if err != nil {
		return Verdict{}, err
	}
	if enabled, err := validatorEnabled(ctx, tx, validatorID); err != nil {
		return Verdict{}, err
	} else if !enabled {
		return reject(ReasonValidatorDisabled), tx.Commit()
	}

	if sourceEpoch >= targetEpoch {
		return reject(ReasonSourceNotBeforeTarget), tx.Commit()
	}

	lw, err := getLowWatermark(ctx, tx, validatorID)
	if err != nil {
		return Verdict{}, err
	}
	if targetEpoch <= lw.MinAttestationTargetEpoch || sourceEpoch < lw.MinAttestationSourceEpoch {
		return reject(ReasonBelowLowWatermark), tx.Commit()
	}
	if md.HighWatermark != nil && targetEpoch <= md.HighWatermark.Epoch {
		return reject(ReasonBelowHighWatermark), tx.Commit()
	}

	sameTarget, err := getSignedAttestationAtTarget(ctx, tx, validatorID, targetEpoch)
	if err != nil {
		return Verdict{}, err
	}
	if sameTarget != nil && sameTarget.SigningRoot != nil && signingRoot != nil {
		if !bytesEqual(sameTarget.SigningRoot, signingRoot) {
			return reject(ReasonConflictingRoot), tx.Commit()
		}
		return accept(), tx.Commit()
	}
	if sameTarget != nil && (sameTarget.SigningRoot == nil || signingRoot == nil) {
		return accept(), tx.Commit()
	}

	all, err := listSignedAttestations(ctx, tx, validatorID)
	if err != nil {
		return Verdict{}, err
	}
	for _, other := range all {
		if other.SourceEpoch < sourceEpoch && targetEpoch < other.TargetEpoch {
			return reject(ReasonSurroundedAttestation), tx.Commit()
		}
		if sourceEpoch < other.SourceEpoch && other.TargetEpoch < targetEpoch {
			return reject(ReasonSurroundingAttestation), tx.Commit()
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO signed_attestations(validator_id, source_epoch, target_epoch, signing_root) VALUES (?, ?, ?, ?)`, validatorID, sourceEpoch, targetEpoch, signingRoot); err != nil {
		return Verdict{}, fmt.Errorf("slashing: insert signed attestation: %w", err)
	}
	return accept(), tx.Commit()
}

func validatorEnabled(ctx context.Context, tx *sql.Tx, validatorID int64) (bool, error) {
	var enabled int
	err := tx.QueryRowContext(ctx, `SELECT enabled FROM validators WHERE id = ?`, validatorID).Scan(&enabled)
	if err != nil {
		return false, fmt.Errorf("slashing: read validator enabled: %w", err)
	}
	return enabled != 0, nil
}

func getSignedBlock(ctx context.Context, tx *sql.Tx, validatorID int64, slot uint64) (*SignedBlock, error) {
	row := tx.QueryRowContext(ctx, `SELECT signing_root FROM signed_blocks WHERE validator_id = ? AND slot = ?`, validatorID, slot)
	var root []byte
	if err := row.Scan(&root); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("slashing: get signed block: %w", err)
	}
	return &SignedBlock{ValidatorID: validatorID, Slot: slot, SigningRoot: root}, nil
}

func getSignedAttestationAtTarget(ctx context.Context, tx *sql.Tx, validatorID int64, targetEpoch uint64) (*SignedAttestation, error) {
	row := tx.QueryRowContext(ctx, `SELECT source_epoch, signing_root FROM signed_attestations WHERE validator_id = ? AND target_epoch = ?`, validatorID, targetEpoch)
	var source uint64
	var root []byte
	if err := row.Scan(&source, &root); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("slashing: get signed attestation: %w", err)
	}
	return &SignedAttestation{ValidatorID: validatorID, SourceEpoch: source, TargetEpoch: targetEpoch, SigningRoot: root}, nil
}

func listSignedAttestations(ctx context.Context, tx *sql.Tx, validatorID int64) ([]SignedAttestation, error) {
	rows, err := tx.QueryContext(ctx, `SELECT source_epoch, target_epoch, signing_root FROM signed_attestations WHERE validator_id = ?`, validatorID)
	if err != nil {
		return nil, fmt.Errorf("slashing: list signed attestations: %w", err)
	}
	defer rows.Close()
	var out []SignedAttestation
	for rows.Next() {
		var a SignedAttestation
		a.ValidatorID = validatorID
		if err := rows.Scan(&a.SourceEpoch, &a.TargetEpoch, &a.SigningRoot); err != nil {
			return nil, fmt.Errorf("slashing: scan signed attestation: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
