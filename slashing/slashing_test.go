package slashing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestScenarioA_BlockSlashingSafety(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	gvr := make([]byte, 32)
	require.NoError(t, s.SetGenesisValidatorsRoot(ctx, gvr))

	root := make([]byte, 32)
	root[0] = 0x4f
	root[1] = 0xf6

	v, err := s.CheckAndRecordBlock(ctx, "0xb845", gvr, 10, root)
	require.NoError(t, err)
	require.Equal(t, Accept, v.Decision)

	v, err = s.CheckAndRecordBlock(ctx, "0xb845", gvr, 10, root)
	require.NoError(t, err)
	require.Equal(t, Accept, v.Decision, "idempotent re-sign must accept without duplicating")

	otherRoot := make([]byte, 32)
	otherRoot[0] = 0x4f
	otherRoot[1] = 0xf7
	v, err = s.CheckAndRecordBlock(ctx, "0xb845", gvr, 10, otherRoot)
	require.NoError(t, err)
	require.Equal(t, Reject, v.Decision)
	require.Equal(t, ReasonConflictingRoot, v.Reason)
}

func TestScenarioB_AttestationSurrounding(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	gvr := make([]byte, 32)
	require.NoError(t, s.SetGenesisValidatorsRoot(ctx, gvr))

	root := []byte{0x12, 0x34}
	v, err := s.CheckAndRecordAttestation(ctx, "0xaaaa", gvr, 5, 6, root)
	require.NoError(t, err)
	require.Equal(t, Accept, v.Decision)

	v, err = s.CheckAndRecordAttestation(ctx, "0xaaaa", gvr, 4, 7, root)
	require.NoError(t, err)
	require.Equal(t, Reject, v.Decision)
	require.Equal(t, ReasonSurroundingAttestation, v.Reason)

	otherRoot := []byte{0x56, 0x78}
	v, err = s.CheckAndRecordAttestation(ctx, "0xaaaa", gvr, 5, 7, otherRoot)
	require.NoError(t, err)
	require.Equal(t, Accept, v.Decision)

	v, err = s.CheckAndRecordAttestation(ctx, "0xaaaa", gvr, 6, 6, root)
	require.NoError(t, err)
	require.Equal(t, Reject, v.Decision)
	require.Equal(t, ReasonSourceNotBeforeTarget, v.Reason)
}

func TestImportExportRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	root := "0x4ff6000000000000000000000000000000000000000000000000000000850b"
	doc := InterchangeDocument{
		Metadata: InterchangeMetadata{InterchangeFormatVersion: "5", GenesisValidatorsRoot: "0x" + "00"},
		Data: []InterchangeRecord{{
			Pubkey: "0xb845",
			SignedBlocks: []InterchangeSignedBlock{
				{Slot: "12345", SigningRoot: &root},
			},
		}},
	}

	report, err := s.Import(ctx, doc)
	require.NoError(t, err)
	require.Equal(t, 1, report.RecordsProcessed)
	require.Equal(t, 0, report.Errors)

	report2, err := s.Import(ctx, doc)
	require.NoError(t, err)
	require.Equal(t, 0, report2.Errors, "reimporting the same record must not count as a conflict")

	exported, err := s.Export(ctx)
	require.NoError(t, err)
	require.Len(t, exported.Data, 1)
	require.Len(t, exported.Data[0].SignedBlocks, 1)
	require.Equal(t, "12345", exported.Data[0].SignedBlocks[0].Slot)
}

func TestImportRejectsSurroundingAttestation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rootA := "0x00000000000000000000000000000000000000000000000000000000000a0a"
	rootB := "0x00000000000000000000000000000000000000000000000000000000000b0b"
	doc := InterchangeDocument{
		Metadata: InterchangeMetadata{InterchangeFormatVersion: "5", GenesisValidatorsRoot: "0x" + "00"},
		Data: []InterchangeRecord{{
			Pubkey: "0xb845",
			SignedAttestations: []InterchangeSignedAttestation{
				{SourceEpoch: "5", TargetEpoch: "10", SigningRoot: &rootA},
				{SourceEpoch: "6", TargetEpoch: "9", SigningRoot: &rootB},
			},
		}},
	}

	report, err := s.Import(ctx, doc)
	require.NoError(t, err)
	require.Equal(t, 2, report.RecordsProcessed)
	require.Equal(t, 1, report.Errors, "the surrounded (source=6,target=9) row must be rejected, not inserted")

	exported, err := s.Export(ctx)
	require.NoError(t, err)
	require.Len(t, exported.Data[0].SignedAttestations, 1, "only the first-seen attestation must be stored")
	require.Equal(t, "10", exported.Data[0].SignedAttestations[0].TargetEpoch)
}
