package slashing

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tos-network/tos-signer/common"
)

const interchangeFormatVersion = "5"

// InterchangeDocument is the EIP-3076 v5 JSON shape (spec §4.7, §6).
type InterchangeDocument struct {
	Metadata InterchangeMetadata `json:"metadata"`
	Data     []InterchangeRecord `json:"data"`
}

// InterchangeMetadata is the document's metadata envelope.
type InterchangeMetadata struct {
	InterchangeFormatVersion string `json:"interchange_format_version"`
	GenesisValidatorsRoot    string `json:"genesis_validators_root"`
}

// InterchangeRecord is one validator's block/attestation history.
type InterchangeRecord struct {
	Pubkey             string                        `json:"pubkey"`
	SignedBlocks       []InterchangeSignedBlock       `json:"signed_blocks"`
	SignedAttestations []InterchangeSignedAttestation `json:"signed_attestations"`
}

// InterchangeSignedBlock is one signed_blocks row in wire form.
type InterchangeSignedBlock struct {
	Slot        string  `json:"slot"`
	SigningRoot *string `json:"signing_root,omitempty"`
}

// InterchangeSignedAttestation is one signed_attestations row in wire form.
type InterchangeSignedAttestation struct {
	SourceEpoch string  `json:"source_epoch"`
	TargetEpoch string  `json:"target_epoch"`
	SigningRoot *string `json:"signing_root,omitempty"`
}

// ImportReport summarises an import call (spec §4.7).
type ImportReport struct {
	RecordsProcessed int
	Errors           int
}

// Import parses doc and upserts its contents (spec §4.7): the GVR is
// adopted if unset, otherwise must match; duplicates (matching or null
// root) are skipped silently; genuine conflicts, including a surrounding or
// surrounded attestation pair, are counted as errors and the first-seen row
// is kept; the low-watermark only ever rises. Unlike the live rule engine,
// imported rows are not checked against the low or high watermark, and an
// attestation whose source epoch exceeds its target is not rejected.
func (s *Store) Import(ctx context.Context, doc InterchangeDocument) (ImportReport, error) {
	report := ImportReport{}

	gvr, err := common.DecodeHex(doc.Metadata.GenesisValidatorsRoot)
	if err != nil {
		return report, fmt.Errorf("slashing: import: decode genesis_validators_root: %w", err)
	}

	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return report, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	defer tx.Rollback()

	md, err := getMetadata(ctx, tx)
	if err != nil {
		return report, err
	}
	if md.GenesisValidatorsRoot == nil {
		if _, err := tx.ExecContext(ctx, `UPDATE metadata SET genesis_validators_root = ? WHERE id = 1`, gvr); err != nil {
			return report, fmt.Errorf("slashing: import: set gvr: %w", err)
		}
	} else if !bytesEqual(md.GenesisValidatorsRoot, gvr) {
		return report, ErrGVRMismatch
	}

	for _, rec := range doc.Data {
		pub := common.NormalizeIdentifier(rec.Pubkey)
		validatorID, err := upsertValidator(ctx, tx, pub)
		if err != nil {
			return report, err
		}

		var maxBlockSlot uint64
		var haveBlockSlot bool
		for _, b := range rec.SignedBlocks {
			report.RecordsProcessed++
			slot, err := parseU64(b.Slot)
			if err != nil {
				report.Errors++
				continue
			}
			root, err := optionalHex(b.SigningRoot)
			if err != nil {
				report.Errors++
				continue
			}
			if err := importSignedBlock(ctx, tx, validatorID, slot, root, &report); err != nil {
				return report, err
			}
			if !haveBlockSlot || slot > maxBlockSlot {
				maxBlockSlot, haveBlockSlot = slot, true
			}
		}

		var maxSource, maxTarget uint64
		var haveAttestation bool
		for _, a := range rec.SignedAttestations {
			report.RecordsProcessed++
			source, err1 := parseU64(a.SourceEpoch)
			target, err2 := parseU64(a.TargetEpoch)
			if err1 != nil || err2 != nil {
				report.Errors++
				continue
			}
			root, err := optionalHex(a.SigningRoot)
			if err != nil {
				report.Errors++
				continue
			}
			if err := importSignedAttestation(ctx, tx, validatorID, source, target, root, &report); err != nil {
				return report, err
			}
			if !haveAttestation || source > maxSource {
				maxSource = source
			}
			if !haveAttestation || target > maxTarget {
				maxTarget = target
			}
			haveAttestation = true
		}

		candidate := LowWatermark{ValidatorID: validatorID}
		if haveBlockSlot {
			candidate.MinBlockSlot = maxBlockSlot
		}
		if haveAttestation {
			candidate.MinAttestationSourceEpoch = maxSource
			candidate.MinAttestationTargetEpoch = maxTarget
		}
		if haveBlockSlot || haveAttestation {
			if err := raiseLowWatermark(ctx, tx, candidate); err != nil {
				return report, err
			}
		}
	}

	return report, tx.Commit()
}

func importSignedBlock(ctx context.Context, tx *sql.Tx, validatorID int64, slot uint64, root []byte, report *ImportReport) error {
	existing, err := getSignedBlock(ctx, tx, validatorID, slot)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.SigningRoot == nil || root == nil || bytesEqual(existing.SigningRoot, root) {
			return nil // duplicate, silently skipped
		}
		report.Errors++ // genuine conflict: keep first-seen
		return nil
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO signed_blocks(validator_id, slot, signing_root) VALUES (?, ?, ?)`, validatorID, slot, root)
	if err != nil {
		return fmt.Errorf("slashing: import signed block: %w", err)
	}
	return nil
}

func importSignedAttestation(ctx context.Context, tx *sql.Tx, validatorID int64, source, target uint64, root []byte, report *ImportReport) error {
	existing, err := getSignedAttestationAtTarget(ctx, tx, validatorID, target)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.SigningRoot == nil || root == nil || bytesEqual(existing.SigningRoot, root) {
			return nil
		}
		report.Errors++ // genuine conflict: keep first-seen
		return nil
	}

	all, err := listSignedAttestations(ctx, tx, validatorID)
	if err != nil {
		return err
	}
	for _, other := range all {
		if other.SourceEpoch < source && target < other.TargetEpoch {
			report.Errors++ // surrounded attestation: reject, same as the live path
			return nil
		}
		if source < other.SourceEpoch && other.TargetEpoch < target {
			report.Errors++ // surrounding attestation: reject, same as the live path
			return nil
		}
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO signed_attestations(validator_id, source_epoch, target_epoch, signing_root) VALUES (?, ?, ?, ?)`, validatorID, source, target, root)
	if err != nil {
		return fmt.Errorf("slashing: import signed attestation: %w", err)
	}
	return nil
}

// Export emits the full interchange document, sorted ascending by
// validator public key, slot, and target epoch (spec §4.7).
func (s *Store) Export(ctx context.Context) (InterchangeDocument, error) {
	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return InterchangeDocument{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	defer tx.Rollback()

	md, err := getMetadata(ctx, tx)
	if err != nil {
		return InterchangeDocument{}, err
	}
	doc := InterchangeDocument{Metadata: InterchangeMetadata{
		InterchangeFormatVersion: interchangeFormatVersion,
		GenesisValidatorsRoot:    common.EncodeHex(md.GenesisValidatorsRoot),
	}}

	rows, err := tx.QueryContext(ctx, `SELECT id, public_key FROM validators ORDER BY public_key ASC`)
	if err != nil {
		return InterchangeDocument{}, fmt.Errorf("slashing: export: list validators: %w", err)
	}
	type idPub struct {
		id  int64
		pub string
	}
	var validators []idPub
	for rows.Next() {
		var v idPub
		if err := rows.Scan(&v.id, &v.pub); err != nil {
			rows.Close()
			return InterchangeDocument{}, fmt.Errorf("slashing: export: scan validator: %w", err)
		}
		validators = append(validators, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return InterchangeDocument{}, err
	}

	for _, v := range validators {
		rec, err := exportValidatorRecord(ctx, tx, v.id, v.pub)
		if err != nil {
			return InterchangeDocument{}, err
		}
		doc.Data = append(doc.Data, rec)
	}
	return doc, tx.Commit()
}

func exportValidatorRecord(ctx context.Context, tx *sql.Tx, validatorID int64, pubkey string) (InterchangeRecord, error) {
	rec := InterchangeRecord{Pubkey: pubkey}

	blockRows, err := tx.QueryContext(ctx, `SELECT slot, signing_root FROM signed_blocks WHERE validator_id = ? ORDER BY slot ASC`, validatorID)
	if err != nil {
		return rec, fmt.Errorf("slashing: export: list signed blocks: %w", err)
	}
	for blockRows.Next() {
		var slot uint64
		var root []byte
		if err := blockRows.Scan(&slot, &root); err != nil {
			blockRows.Close()
			return rec, fmt.Errorf("slashing: export: scan signed block: %w", err)
		}
		rec.SignedBlocks = append(rec.SignedBlocks, InterchangeSignedBlock{Slot: formatU64(slot), SigningRoot: hexOrNil(root)})
	}
	blockRows.Close()
	if err := blockRows.Err(); err != nil {
		return rec, err
	}

	attRows, err := tx.QueryContext(ctx, `SELECT source_epoch, target_epoch, signing_root FROM signed_attestations WHERE validator_id = ? ORDER BY target_epoch ASC`, validatorID)
	if err != nil {
		return rec, fmt.Errorf("slashing: export: list signed attestations: %w", err)
	}
	for attRows.Next() {
		var source, target uint64
		var root []byte
		if err := attRows.Scan(&source, &target, &root); err != nil {
			attRows.Close()
			return rec, fmt.Errorf("slashing: export: scan signed attestation: %w", err)
		}
		rec.SignedAttestations = append(rec.SignedAttestations, InterchangeSignedAttestation{
			SourceEpoch: formatU64(source), TargetEpoch: formatU64(target), SigningRoot: hexOrNil(root),
		})
	}
	attRows.Close()
	return rec, attRows.Err()
}

// IncrementalExporter streams the interchange envelope and data array one
// validator at a time, so a large DB never needs to be materialised in
// memory as a single document (spec §4.7).
type IncrementalExporter struct {
	w        io.Writer
	wroteAny bool
	closed   bool
}

// NewIncrementalExporter writes the opening envelope (metadata + "data":[)
// immediately.
func NewIncrementalExporter(w io.Writer, gvr []byte) (*IncrementalExporter, error) {
	header := fmt.Sprintf(`{"metadata":{"interchange_format_version":%q,"genesis_validators_root":%q},"data":[`,
		interchangeFormatVersion, common.EncodeHex(gvr))
	if _, err := io.WriteString(w, header); err != nil {
		return nil, err
	}
	return &IncrementalExporter{w: w}, nil
}

// WriteValidator emits one validator's record, handling the comma
// separator between successive elements.
func (e *IncrementalExporter) WriteValidator(rec InterchangeRecord) error {
	var buf bytes.Buffer
	if e.wroteAny {
		buf.WriteByte(',')
	}
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("slashing: incremental export: encode record: %w", err)
	}
	b := bytes.TrimRight(buf.Bytes(), "\n")
	if _, err := e.w.Write(b); err != nil {
		return err
	}
	e.wroteAny = true
	return nil
}

// Close writes the closing envelope. Safe to call once.
func (e *IncrementalExporter) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	_, err := io.WriteString(e.w, "]}")
	return err
}

// ExportOne is a convenience for spec §4.5 step 6 (delete-validator
// incremental export of exactly one key).
func (s *Store) ExportOne(ctx context.Context, publicKey string) (InterchangeRecord, []byte, error) {
	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return InterchangeRecord{}, nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	defer tx.Rollback()

	md, err := getMetadata(ctx, tx)
	if err != nil {
		return InterchangeRecord{}, nil, err
	}
	v, err := getValidator(ctx, tx, publicKey)
	if err != nil {
		return InterchangeRecord{}, nil, err
	}
	if v == nil {
		return InterchangeRecord{}, nil, ErrValidatorMissing
	}
	rec, err := exportValidatorRecord(ctx, tx, v.ID, v.PublicKey)
	if err != nil {
		return InterchangeRecord{}, nil, err
	}
	return rec, md.GenesisValidatorsRoot, tx.Commit()
}

func parseU64(s string) (uint64, error) {
	var v uint64
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}

func formatU64(v uint64) string { return fmt.Sprintf("%d", v) }

func optionalHex(s *string) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return common.DecodeHex(*s)
}

func hexOrNil(b []byte) *string {
	if b == nil {
		return nil
	}
	s := common.EncodeHex(b)
	return &s
}
