// Package discover implements the input-discovery collaborator spec.md
// §6 names as external to the core: a recursive walk over input_dir for
// every *.blob file plus the first assemblies.manifest file, and the
// classification of the primary store by stem.
package discover

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/assemblystore/extractor/errs"
)

// StoreFile is one discovered *.blob file.
type StoreFile struct {
	Path      string
	Basename  string // file stem, without extension
	IsPrimary bool   // true iff the case-folded stem equals "assemblies"
}

// DiscoverStores recursively walks inputDir for every file whose
// extension is ".blob" (case-insensitive), per spec §6's input discovery
// contract.
func DiscoverStores(inputDir string) ([]StoreFile, error) {
	var stores []StoreFile

	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".blob") {
			return nil
		}

		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		stores = append(stores, StoreFile{
			Path:      path,
			Basename:  base,
			IsPrimary: strings.EqualFold(base, "assemblies"),
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return stores, nil
}

// DiscoverManifest recursively walks inputDir for the first file named
// "assemblies.manifest" (case-insensitive). It returns errs.ErrNoManifest
// when none is found; callers treat that as non-fatal (spec §4.4: the
// extractor falls through to recovery for every store).
func DiscoverManifest(inputDir string) (string, error) {
	var found string

	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if found != "" {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(d.Name(), "assemblies.manifest") {
			found = path
		}

		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", errs.ErrNoManifest
	}

	return found, nil
}
