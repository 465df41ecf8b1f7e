// Package validatormanager implements the coordinated add/delete flows
// used by the Key Manager API (spec §4.5, §4.8): registry membership,
// on-disk keystore files, and the slashing-store enabled flag must move
// together, with the enabled flag restored on any partial failure.
package validatormanager

import (
	"context"
	"fmt"

	"github.com/tos-network/tos-signer/common"
	"github.com/tos-network/tos-signer/keystorefile"
	"github.com/tos-network/tos-signer/registry"
	"github.com/tos-network/tos-signer/signing"
	"github.com/tos-network/tos-signer/slashing"
)

// Status is the per-key outcome the Key Manager DELETE endpoint reports
// (spec §4.5, §6).
type Status string

const (
	StatusDeleted   Status = "DELETED"
	StatusNotActive Status = "NOT_ACTIVE"
	StatusNotFound  Status = "NOT_FOUND"
	StatusError     Status = "ERROR"
)

// DeleteResult is one key's outcome from Delete.
type DeleteResult struct {
	Status                Status
	Message               string
	Export                *slashing.InterchangeRecord // set only on StatusDeleted
	GenesisValidatorsRoot []byte                      // set alongside Export
}

// Manager coordinates the registry, the on-disk keystore triple, and the
// slashing store's enabled flag.
type Manager struct {
	registry *registry.Registry
	store    *slashing.Store
}

// New builds a Manager over reg and store.
func New(reg *registry.Registry, store *slashing.Store) *Manager {
	return &Manager{registry: reg, store: store}
}

// AddValidator implements spec §4.8 add_validator: write files, upsert the
// validator row, set enabled=true, and register the signer.
func (m *Manager) AddValidator(ctx context.Context, signer signing.Signer, triple keystorefile.Triple, privateKey []byte, keyTypeName, password, metadataYAML string) error {
	if err := keystorefile.WriteKeystore(triple, privateKey, signer.Identifier(), keyTypeName, password, metadataYAML); err != nil {
		return fmt.Errorf("validatormanager: write keystore: %w", err)
	}
	v, err := m.ensureValidatorRow(ctx, signer.Identifier())
	if err != nil {
		return err
	}
	if err := m.store.SetEnabled(ctx, v.ID, true); err != nil {
		return fmt.Errorf("validatormanager: enable validator: %w", err)
	}
	if err := m.registry.Add(ctx, signer); err != nil {
		return fmt.Errorf("validatormanager: register: %w", err)
	}
	return nil
}

func (m *Manager) ensureValidatorRow(ctx context.Context, identifier string) (*slashing.Validator, error) {
	id := common.NormalizeIdentifier(identifier)
	v, err := m.store.GetValidator(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("validatormanager: get validator: %w", err)
	}
	if v != nil {
		return v, nil
	}
	return m.store.UpsertValidator(ctx, id)
}

// Delete implements spec §4.5's delete flow.
func (m *Manager) Delete(ctx context.Context, identifier string, triple keystorefile.Triple) DeleteResult {
	id := common.NormalizeIdentifier(identifier)

	_, inRegistry := m.registry.Get(id)
	v, err := m.store.GetValidator(ctx, id)
	if err != nil {
		return DeleteResult{Status: StatusError, Message: err.Error()}
	}
	if !inRegistry {
		if v != nil {
			return DeleteResult{Status: StatusNotActive}
		}
		return DeleteResult{Status: StatusNotFound}
	}

	var previousEnabled bool
	if v != nil {
		previousEnabled = v.Enabled
	}

	restore := func(cause error) DeleteResult {
		if v != nil {
			if rerr := m.store.SetEnabled(ctx, v.ID, previousEnabled); rerr != nil {
				return DeleteResult{Status: StatusError, Message: fmt.Sprintf("%v (restore failed: %v)", cause, rerr)}
			}
		}
		return DeleteResult{Status: StatusError, Message: cause.Error()}
	}

	if err := m.registry.Remove(ctx, id); err != nil {
		return restore(fmt.Errorf("remove from registry: %w", err))
	}
	if v != nil {
		if err := m.store.SetEnabled(ctx, v.ID, false); err != nil {
			return restore(fmt.Errorf("disable validator: %w", err))
		}
	}
	if err := keystorefile.DeleteKeystoreFiles(triple); err != nil {
		return restore(err)
	}

	result := DeleteResult{Status: StatusDeleted}
	if v != nil {
		rec, gvr, err := m.store.ExportOne(ctx, id)
		if err == nil {
			result.Export = &rec
			result.GenesisValidatorsRoot = gvr
		}
		// Export failure leaves the enabled flag at its current (disabled)
		// value per spec §4.5 step 7 — no restore on export failure.
	}
	return result
}
