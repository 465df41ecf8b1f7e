// Command tos-signer is the remote Ethereum signing service: it loads
// consensus (BLS) and execution (secp256k1) keys from local metadata files
// and/or cloud vaults, serves eth2/eth1/Key-Manager/Commit-Boost signing
// requests over HTTP, and enforces slashing protection on every consensus
// sign (spec §§1-6).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/tos-network/tos-signer/api"
	"github.com/tos-network/tos-signer/config"
	"github.com/tos-network/tos-signer/dispatch"
	"github.com/tos-network/tos-signer/log"
	"github.com/tos-network/tos-signer/metadata"
	"github.com/tos-network/tos-signer/metadata/awsvault"
	"github.com/tos-network/tos-signer/metadata/azurevault"
	"github.com/tos-network/tos-signer/metadata/gcpvault"
	"github.com/tos-network/tos-signer/proxy"
	"github.com/tos-network/tos-signer/registry"
	"github.com/tos-network/tos-signer/signing"
	"github.com/tos-network/tos-signer/slashing"
	"github.com/tos-network/tos-signer/validatormanager"
)

func main() {
	app := &cli.App{
		Name:  "tos-signer",
		Usage: "remote Ethereum consensus/execution signing service",
		Flags: config.AllFlags(),
		Commands: []*cli.Command{
			{Name: "eth2", Usage: "serve eth2 (consensus) and optional API surfaces", Action: runServer},
			{Name: "eth1", Usage: "serve eth1 (execution) JSON-RPC/HTTP signing", Action: runServer},
			watermarkRepairCommand(),
			exportCommand(),
			importCommand(),
		},
		Action: runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Error("tos-signer: fatal", "err", err)
		os.Exit(1)
	}
}

// components bundles everything built from Config that the HTTP surface,
// and the maintenance subcommands, need.
type components struct {
	registry *registry.Registry
	store    *slashing.Store
}

func buildComponents(ctx context.Context, cfg *config.Config) (*components, error) {
	reg := registry.New(log.Root())
	reg.Start(ctx)

	store, err := slashing.Open(cfg.SlashingProtectionDBURL)
	if err != nil {
		return nil, fmt.Errorf("tos-signer: open slashing store: %w", err)
	}

	if cfg.GenesisValidatorsRoot != ([32]byte{}) {
		if err := store.SetGenesisValidatorsRoot(ctx, cfg.GenesisValidatorsRoot[:]); err != nil {
			return nil, fmt.Errorf("tos-signer: set genesis validators root: %w", err)
		}
	}

	loaded, errCount, err := reg.Load(ctx, supplierFromConfig(cfg), nil)
	if err != nil {
		return nil, fmt.Errorf("tos-signer: initial key load: %w", err)
	}
	log.Info("tos-signer: loaded keys", "loaded", loaded, "errors", errCount)

	return &components{registry: reg, store: store}, nil
}

// supplierFromConfig builds the registry.Supplier that merges the
// directory-backed metadata loader with any enabled cloud bulk loaders
// (spec §4.1 "Load algorithm").
func supplierFromConfig(cfg *config.Config) registry.Supplier {
	return func(ctx context.Context) ([]signing.Signer, int, error) {
		var result metadata.MappedResults

		if cfg.KeyStorePath != "" {
			dirResult, err := metadata.LoadDirectory(ctx, cfg.KeyStorePath, "")
			if err != nil {
				return nil, 0, fmt.Errorf("tos-signer: load key store path: %w", err)
			}
			result.Merge(*dirResult)
		}

		if cfg.AzureVaultEnabled {
			signers, errCount, err := azurevault.BulkLoad(ctx, cfg.AzureVault)
			if err != nil {
				return nil, 0, fmt.Errorf("tos-signer: azure bulk load: %w", err)
			}
			result.Merge(metadata.MappedResults{Values: signers, ErrorCount: errCount})
		}

		if cfg.AWSSecretsEnabled {
			signers, errCount, err := awsvault.BulkLoad(ctx, cfg.AWSVault)
			if err != nil {
				return nil, 0, fmt.Errorf("tos-signer: aws bulk load: %w", err)
			}
			result.Merge(metadata.MappedResults{Values: signers, ErrorCount: errCount})
		}

		if cfg.GCPVaultEnabled {
			signers, errCount, err := gcpvault.BulkLoad(ctx, cfg.GCPVault)
			if err != nil {
				return nil, 0, fmt.Errorf("tos-signer: gcp bulk load: %w", err)
			}
			result.Merge(metadata.MappedResults{Values: signers, ErrorCount: errCount})
		}

		return result.Values, result.ErrorCount, nil
	}
}

func runServer(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromContext(c)
	if err != nil {
		return err
	}
	comp, err := buildComponents(ctx, cfg)
	if err != nil {
		return err
	}
	defer comp.store.Close()

	dispatcher := dispatch.New(comp.registry, comp.store)
	vm := validatormanager.New(comp.registry, comp.store)

	srv := &api.Server{
		Registry:           comp.registry,
		Dispatcher:         dispatcher,
		Store:              comp.store,
		ValidatorManager:   vm,
		Logger:             log.Root(),
		KeystoreDir:        cfg.KeyStorePath,
		KeyManagerEnabled:  cfg.KeyManagerAPIEnabled,
		CommitBoostEnabled: cfg.CommitBoostAPIEnabled,
		Reload: func(ctx context.Context) (int, int, error) {
			return comp.registry.Load(ctx, supplierFromConfig(cfg), nil)
		},
	}

	if cfg.CommitBoostAPIEnabled {
		password, err := config.ReadPasswordFile(cfg.ProxyKeystoresPasswordFile)
		if err != nil {
			return err
		}
		srv.ProxyGenerator = proxy.New(comp.registry, cfg.ProxyKeystoresPath, password, proxy.ForkContext{
			GenesisForkVersion:    cfg.GenesisForkVersion,
			GenesisValidatorsRoot: cfg.GenesisValidatorsRoot,
		})
	}

	if cfg.SlashingProtectionPruningEnabled {
		if err := comp.store.Prune(ctx, cfg.SlashingProtectionPruningEpochsToKeep, cfg.SlashingProtectionPruningSlotsPerEpoch); err != nil {
			log.Warn("tos-signer: startup pruning failed", "err", err)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.HTTPListenAddress, cfg.HTTPListenPort)
	httpServer := &http.Server{Addr: addr, Handler: srv.NewRouter()}
	log.Info("tos-signer: listening", "addr", addr)

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return httpServer.Shutdown(context.Background())
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

func watermarkRepairCommand() *cli.Command {
	var slot, epoch uint64
	var remove bool
	return &cli.Command{
		Name:  "watermark-repair",
		Usage: "set or clear the global high watermark",
		Flags: []cli.Flag{
			&cli.Uint64Flag{Name: "slot", Destination: &slot},
			&cli.Uint64Flag{Name: "epoch", Destination: &epoch},
			&cli.BoolFlag{Name: "remove", Destination: &remove},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.FromContext(c)
			if err != nil {
				return err
			}
			store, err := slashing.Open(cfg.SlashingProtectionDBURL)
			if err != nil {
				return err
			}
			defer store.Close()

			if remove {
				return store.DeleteHighWatermark(c.Context)
			}
			rows, err := store.SetHighWatermark(c.Context, slashing.HighWatermark{Slot: slot, Epoch: epoch})
			if err != nil {
				return err
			}
			if rows == 0 {
				return fmt.Errorf("tos-signer: watermark-repair: no genesis validators root is set yet")
			}
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	var output string
	return &cli.Command{
		Name:  "export",
		Usage: "export the EIP-3076 interchange document to a file (- for stdout)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Value: "-", Destination: &output},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.FromContext(c)
			if err != nil {
				return err
			}
			store, err := slashing.Open(cfg.SlashingProtectionDBURL)
			if err != nil {
				return err
			}
			defer store.Close()

			doc, err := store.Export(c.Context)
			if err != nil {
				return err
			}

			w := os.Stdout
			if output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return writeJSONDocument(w, doc)
		},
	}
}

func importCommand() *cli.Command {
	var input string
	return &cli.Command{
		Name:  "import",
		Usage: "import an EIP-3076 interchange document from a file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Required: true, Destination: &input},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.FromContext(c)
			if err != nil {
				return err
			}
			store, err := slashing.Open(cfg.SlashingProtectionDBURL)
			if err != nil {
				return err
			}
			defer store.Close()

			doc, err := readJSONDocument(input)
			if err != nil {
				return err
			}
			report, err := store.Import(c.Context, doc)
			if err != nil {
				return err
			}
			log.Info("tos-signer: import complete", "records", report.RecordsProcessed, "errors", report.Errors)
			return nil
		},
	}
}

func writeJSONDocument(w *os.File, doc slashing.InterchangeDocument) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func readJSONDocument(path string) (slashing.InterchangeDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return slashing.InterchangeDocument{}, fmt.Errorf("tos-signer: read %q: %w", path, err)
	}
	var doc slashing.InterchangeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return slashing.InterchangeDocument{}, fmt.Errorf("tos-signer: parse %q: %w", path, err)
	}
	return doc, nil
}
