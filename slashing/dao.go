package slashing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// upsertValidator returns the row id for publicKey, inserting it enabled
// if it does not already exist.
func upsertValidator(ctx context.Context, tx *sql.Tx, publicKey string) (int64, error) {
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO validators(public_key, enabled) VALUES (?, 1)`, publicKey)
	if err != nil {
		return 0, fmt.Errorf("slashing: upsert validator: %w", err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM validators WHERE public_key = ?`, publicKey).Scan(&id); err != nil {
		return 0, fmt.Errorf("slashing: lookup validator: %w", err)
	}
	return id, nil
}

func getValidator(ctx context.Context, tx *sql.Tx, publicKey string) (*Validator, error) {
	row := tx.QueryRowContext(ctx, `SELECT id, public_key, enabled FROM validators WHERE public_key = ?`, publicKey)
	var v Validator
	var enabled int
	if err := row.Scan(&v.ID, &v.PublicKey, &enabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("slashing: get validator: %w", err)
	}
	v.Enabled = enabled != 0
	return &v, nil
}

func setValidatorEnabled(ctx context.Context, tx *sql.Tx, validatorID int64, enabled bool) error {
	_, err := tx.ExecContext(ctx, `UPDATE validators SET enabled = ? WHERE id = ?`, boolToInt(enabled), validatorID)
	if err != nil {
		return fmt.Errorf("slashing: set validator enabled: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// UpsertValidator ensures publicKey has a validator row (enabled by
// default), in its own transaction, returning it. Used by the add-validator
// flow (spec §4.8) ahead of the enabled-flag transition.
func (s *Store) UpsertValidator(ctx context.Context, publicKey string) (*Validator, error) {
	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	defer tx.Rollback()
	if _, err := upsertValidator(ctx, tx, publicKey); err != nil {
		return nil, err
	}
	v, err := getValidator(ctx, tx, publicKey)
	if err != nil {
		return nil, err
	}
	return v, tx.Commit()
}

// GetValidator reads a validator row by public key in its own transaction.
func (s *Store) GetValidator(ctx context.Context, publicKey string) (*Validator, error) {
	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	defer tx.Rollback()
	v, err := getValidator(ctx, tx, publicKey)
	if err != nil {
		return nil, err
	}
	return v, tx.Commit()
}

// SetEnabled flips a validator's enabled flag in its own transaction, used
// by the delete-validator ordering rollback (spec §4.5 step 5).
func (s *Store) SetEnabled(ctx context.Context, validatorID int64, enabled bool) error {
	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	defer tx.Rollback()
	if err := setValidatorEnabled(ctx, tx, validatorID, enabled); err != nil {
		return err
	}
	return tx.Commit()
}

func getLowWatermark(ctx context.Context, tx *sql.Tx, validatorID int64) (LowWatermark, error) {
	row := tx.QueryRowContext(ctx, `SELECT min_block_slot, min_attestation_source_epoch, min_attestation_target_epoch FROM low_watermarks WHERE validator_id = ?`, validatorID)
	lw := LowWatermark{ValidatorID: validatorID}
	err := row.Scan(&lw.MinBlockSlot, &lw.MinAttestationSourceEpoch, &lw.MinAttestationTargetEpoch)
	if errors.Is(err, sql.ErrNoRows) {
		return lw, nil // absent low-watermark == all zeroes
	}
	if err != nil {
		return lw, fmt.Errorf("slashing: get low watermark: %w", err)
	}
	return lw, nil
}

// raiseLowWatermark upserts the low-watermark to the max of its stored
// value and the candidate fields, never lowering any field (spec §4.7).
func raiseLowWatermark(ctx context.Context, tx *sql.Tx, candidate LowWatermark) error {
	cur, err := getLowWatermark(ctx, tx, candidate.ValidatorID)
	if err != nil {
		return err
	}
	next := LowWatermark{
		ValidatorID:               candidate.ValidatorID,
		MinBlockSlot:              maxU64(cur.MinBlockSlot, candidate.MinBlockSlot),
		MinAttestationSourceEpoch: maxU64(cur.MinAttestationSourceEpoch, candidate.MinAttestationSourceEpoch),
		MinAttestationTargetEpoch: maxU64(cur.MinAttestationTargetEpoch, candidate.MinAttestationTargetEpoch),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO low_watermarks(validator_id, min_block_slot, min_attestation_source_epoch, min_attestation_target_epoch)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(validator_id) DO UPDATE SET
			min_block_slot = excluded.min_block_slot,
			min_attestation_source_epoch = excluded.min_attestation_source_epoch,
			min_attestation_target_epoch = excluded.min_attestation_target_epoch
	`, next.ValidatorID, next.MinBlockSlot, next.MinAttestationSourceEpoch, next.MinAttestationTargetEpoch)
	if err != nil {
		return fmt.Errorf("slashing: raise low watermark: %w", err)
	}
	return nil
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func getMetadata(ctx context.Context, tx *sql.Tx) (Metadata, error) {
	var gvr []byte
	var hwSlot, hwEpoch sql.NullInt64
	row := tx.QueryRowContext(ctx, `SELECT genesis_validators_root, high_watermark_slot, high_watermark_epoch FROM metadata WHERE id = 1`)
	if err := row.Scan(&gvr, &hwSlot, &hwEpoch); err != nil {
		return Metadata{}, fmt.Errorf("slashing: get metadata: %w", err)
	}
	md := Metadata{GenesisValidatorsRoot: gvr}
	if hwSlot.Valid && hwEpoch.Valid {
		md.HighWatermark = &HighWatermark{Slot: uint64(hwSlot.Int64), Epoch: uint64(hwEpoch.Int64)}
	}
	return md, nil
}

// GetMetadata reads the singleton metadata row in its own transaction.
func (s *Store) GetMetadata(ctx context.Context) (Metadata, error) {
	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	defer tx.Rollback()
	md, err := getMetadata(ctx, tx)
	if err != nil {
		return Metadata{}, err
	}
	return md, tx.Commit()
}

// SetGenesisValidatorsRoot is write-once: it succeeds the first time and
// fails if a different value is already stored (spec §3).
func (s *Store) SetGenesisValidatorsRoot(ctx context.Context, gvr []byte) error {
	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	defer tx.Rollback()

	md, err := getMetadata(ctx, tx)
	if err != nil {
		return err
	}
	if md.GenesisValidatorsRoot != nil {
		if !bytesEqual(md.GenesisValidatorsRoot, gvr) {
			return ErrGVRMismatch
		}
		return tx.Commit()
	}
	if _, err := tx.ExecContext(ctx, `UPDATE metadata SET genesis_validators_root = ? WHERE id = 1`, gvr); err != nil {
		return fmt.Errorf("slashing: set gvr: %w", err)
	}
	return tx.Commit()
}

// SetHighWatermark is administrative: it requires a GVR to already be
// stored, otherwise it is a no-op reporting zero rows affected (spec §4.6).
func (s *Store) SetHighWatermark(ctx context.Context, hw HighWatermark) (rowsAffected int64, err error) {
	tx, txErr := s.beginSerializable(ctx)
	if txErr != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageFailure, txErr)
	}
	defer tx.Rollback()

	md, err := getMetadata(ctx, tx)
	if err != nil {
		return 0, err
	}
	if md.GenesisValidatorsRoot == nil {
		return 0, tx.Commit()
	}
	res, err := tx.ExecContext(ctx, `UPDATE metadata SET high_watermark_slot = ?, high_watermark_epoch = ? WHERE id = 1`, hw.Slot, hw.Epoch)
	if err != nil {
		return 0, fmt.Errorf("slashing: set high watermark: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, tx.Commit()
}

// DeleteHighWatermark clears the high-watermark, used by watermark-repair.
func (s *Store) DeleteHighWatermark(ctx context.Context) error {
	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `UPDATE metadata SET high_watermark_slot = NULL, high_watermark_epoch = NULL WHERE id = 1`); err != nil {
		return fmt.Errorf("slashing: delete high watermark: %w", err)
	}
	return tx.Commit()
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
