package metadata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// metadataExtensions are the recognised metadata file suffixes (case-insensitive).
var metadataExtensions = []string{".yaml", ".yml"}

// LoadDirectory walks dir non-recursively and builds a Signer for every
// metadata file whose name carries one of metadataExtensions, applying the
// directory-backed loading rules of spec §4.1: hidden files are skipped,
// duplicate identifiers keep the first one encountered and count the rest
// as errors, and a parse failure on one file never aborts the others.
//
// When expectedPubkeyHex is non-empty, only files whose name contains that
// hex substring (with or without its 0x prefix) are considered. Only
// metadata files are read, so Commit-Boost proxy keystores, which are
// written as bare keystore JSON files without metadata, are not loaded by
// this function.
func LoadDirectory(ctx context.Context, dir string, expectedPubkeyHex string) (*MappedResults, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("metadata: read dir %q: %w", dir, err)
	}

	result := &MappedResults{}
	seen := make(map[string]struct{})
	needle := strings.ToLower(strings.TrimPrefix(expectedPubkeyHex, "0x"))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !hasMetadataExtension(name) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(name), needle) {
			continue
		}

		signer, err := LoadFile(ctx, filepath.Join(dir, name))
		if err != nil {
			result.ErrorCount++
			continue
		}
		id := signer.Identifier()
		if _, dup := seen[id]; dup {
			result.ErrorCount++
			continue
		}
		seen[id] = struct{}{}
		result.Values = append(result.Values, signer)
	}
	return result, nil
}

func hasMetadataExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range metadataExtensions {
		if ext == want {
			return true
		}
	}
	return false
}
