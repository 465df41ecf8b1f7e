package slashing

import (
	"context"
	"fmt"
)

// Prune removes per-validator rows that fall far enough below the
// low-watermark to never be queried again, keeping at least the most
// recent row per validator (spec §4.9). slotsPerEpoch converts
// epochsToKeep into a block-slot window.
func (s *Store) Prune(ctx context.Context, epochsToKeep, slotsPerEpoch uint64) error {
	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM validators`)
	if err != nil {
		return fmt.Errorf("slashing: prune: list validators: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("slashing: prune: scan validator: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	slotWindow := epochsToKeep * slotsPerEpoch
	for _, id := range ids {
		lw, err := getLowWatermark(ctx, tx, id)
		if err != nil {
			return err
		}

		if lw.MinBlockSlot > slotWindow {
			blockFloor := lw.MinBlockSlot - slotWindow
			if _, err := tx.ExecContext(ctx, `
				DELETE FROM signed_blocks
				WHERE validator_id = ? AND slot < ?
				AND slot != (SELECT MAX(slot) FROM signed_blocks WHERE validator_id = ?)
			`, id, blockFloor, id); err != nil {
				return fmt.Errorf("slashing: prune: signed blocks: %w", err)
			}
		}

		if lw.MinAttestationTargetEpoch > epochsToKeep {
			targetFloor := lw.MinAttestationTargetEpoch - epochsToKeep
			if _, err := tx.ExecContext(ctx, `
				DELETE FROM signed_attestations
				WHERE validator_id = ? AND target_epoch < ?
				AND target_epoch != (SELECT MAX(target_epoch) FROM signed_attestations WHERE validator_id = ?)
			`, id, targetFloor, id); err != nil {
				return fmt.Errorf("slashing: prune: signed attestations: %w", err)
			}
		}
	}

	return tx.Commit()
}
