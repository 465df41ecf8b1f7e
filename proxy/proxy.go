// Package proxy implements the Commit-Boost proxy-key issuance flow (spec
// §4.4): mint a fresh BLS or ECDSA key, persist it as an encrypted
// keystore under the consensus identifier's proxy directory, register it
// with the signer registry, and have the consensus key sign a delegation
// message binding the new proxy to it.
package proxy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tos-network/tos-signer/commitboost"
	"github.com/tos-network/tos-signer/common"
	"github.com/tos-network/tos-signer/crypto/bls"
	"github.com/tos-network/tos-signer/crypto/secpsign"
	"github.com/tos-network/tos-signer/keystorefile"
	"github.com/tos-network/tos-signer/registry"
	"github.com/tos-network/tos-signer/signing"
)

// Scheme selects the key algorithm for a freshly generated proxy key.
type Scheme int

const (
	SchemeBLS Scheme = iota
	SchemeECDSA
)

// ForkContext carries the consensus parameters the delegation message's
// signing root is computed against (spec §4.4).
type ForkContext struct {
	GenesisForkVersion    [4]byte
	GenesisValidatorsRoot [32]byte
}

// Generator mints proxy keys for registered consensus identifiers.
type Generator struct {
	reg         *registry.Registry
	proxyRoot   string
	password    string
	forkContext ForkContext
}

// New builds a Generator writing new proxy keystores under proxyRoot,
// encrypted with the shared password, resolving signing roots against fork.
func New(reg *registry.Registry, proxyRoot, sharedPassword string, fork ForkContext) *Generator {
	return &Generator{reg: reg, proxyRoot: proxyRoot, password: sharedPassword, forkContext: fork}
}

// Result is the response to a successful generate_proxy call.
type Result struct {
	Message   commitboost.ProxyKeyMessage
	Signature []byte
}

var ErrConsensusNotFound = fmt.Errorf("proxy: consensus identifier not registered")

// Generate implements spec §4.4 steps 1-6: it mints a fresh key, persists
// it, registers it as a proxy of consensusID, and returns the consensus
// key's signature over the delegation message.
func (g *Generator) Generate(ctx context.Context, consensusID string, scheme Scheme) (*Result, error) {
	consensus, ok := g.reg.Get(consensusID)
	if !ok {
		return nil, ErrConsensusNotFound
	}

	proxySigner, privateKeyBytes, proxyPubkey, err := generateKey(scheme)
	if err != nil {
		return nil, fmt.Errorf("proxy: generate key: %w", err)
	}

	schemeDir := "BLS"
	if scheme == SchemeECDSA {
		schemeDir = "SECP256K1"
	}
	dir := filepath.Join(g.proxyRoot, common.StripHexPrefix(consensus.Identifier()), schemeDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("proxy: create proxy directory: %w", err)
	}
	triple := keystorefile.ForPublicKey(dir, proxySigner.Identifier())
	if err := keystorefile.WriteKeystore(triple, privateKeyBytes, proxySigner.Identifier(), keyTypeName(scheme), g.password, ""); err != nil {
		return nil, fmt.Errorf("proxy: write keystore: %w", err)
	}

	if err := g.reg.AddProxy(ctx, proxySigner, consensus.Identifier()); err != nil {
		return nil, fmt.Errorf("proxy: register: %w", err)
	}

	delegatorBytes, err := common.DecodeHex(consensus.Identifier())
	if err != nil {
		return nil, fmt.Errorf("proxy: decode consensus identifier: %w", err)
	}
	message := commitboost.ProxyKeyMessage{Delegator: delegatorBytes, Proxy: proxyPubkey}
	messageRoot, err := message.HashTreeRoot()
	if err != nil {
		return nil, fmt.Errorf("proxy: message root: %w", err)
	}
	domain := commitboost.ComputeDomain(commitboost.DomainTypeProxyDelegation, g.forkContext.GenesisForkVersion, g.forkContext.GenesisValidatorsRoot)
	signingRoot := commitboost.SigningRoot(messageRoot, domain)

	artifact, err := consensus.Sign(ctx, signingRoot[:])
	if err != nil {
		return nil, fmt.Errorf("proxy: sign delegation: %w", err)
	}

	return &Result{Message: message, Signature: artifact.Bytes}, nil
}

func keyTypeName(scheme Scheme) string {
	if scheme == SchemeECDSA {
		return "SECP256K1"
	}
	return "BLS"
}

// generateKey mints a fresh key for scheme and returns its Signer, raw
// private key bytes (for the keystore), and its public key bytes (for the
// delegation message).
func generateKey(scheme Scheme) (signing.Signer, []byte, []byte, error) {
	switch scheme {
	case SchemeBLS:
		key, err := bls.Generate()
		if err != nil {
			return nil, nil, nil, err
		}
		return signing.NewBLSSigner(key), key.Bytes(), key.PublicKey(), nil
	case SchemeECDSA:
		key, err := secpsign.GenerateKey()
		if err != nil {
			return nil, nil, nil, err
		}
		return signing.NewK256Signer(key), key.Bytes(), key.PublicKeyCompressed(), nil
	default:
		return nil, nil, nil, fmt.Errorf("proxy: unknown scheme %d", scheme)
	}
}
