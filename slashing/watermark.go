package slashing

import "context"

// GetLowWatermark reads a validator's low-watermark in its own transaction,
// returning the zero watermark if the validator has never signed.
func (s *Store) GetLowWatermark(ctx context.Context, validatorID int64) (LowWatermark, error) {
	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return LowWatermark{}, err
	}
	defer tx.Rollback()
	lw, err := getLowWatermark(ctx, tx, validatorID)
	if err != nil {
		return LowWatermark{}, err
	}
	return lw, tx.Commit()
}
