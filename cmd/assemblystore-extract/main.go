// Command assemblystore-extract is the CLI front end spec.md §6
// describes: `assemblystore-extract <input_dir> <output_dir>`, prompting
// on stdin when either is omitted. It wires the external collaborators
// (internal/discover, internal/writer, internal/xlog) around the core
// decoder packages; it contains no parsing or validation logic itself.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/assemblystore/extractor/assemblystore"
	"github.com/assemblystore/extractor/errs"
	"github.com/assemblystore/extractor/extract"
	"github.com/assemblystore/extractor/internal/collision"
	"github.com/assemblystore/extractor/internal/discover"
	"github.com/assemblystore/extractor/internal/writer"
	"github.com/assemblystore/extractor/internal/xlog"
	"github.com/assemblystore/extractor/manifest"
	"github.com/assemblystore/extractor/recovery"
)

// Summary is the spec §3 Run Summary, accumulated across every store in
// a run and printed at the end of a CLI invocation.
type Summary struct {
	StoresProcessed int
	Extracted       int
	Skipped         int
	Invalid         int
	RecoveryEmitted int
}

func main() {
	app := &cli.App{
		Name:      "assemblystore-extract",
		Usage:     "Extract managed assemblies from AssemblyStore blob files",
		UsageText: "assemblystore-extract [input_dir] [output_dir]",
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "assemblystore-extract:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	inputDir := c.Args().Get(0)
	outputDir := c.Args().Get(1)

	if inputDir == "" {
		inputDir = prompt("Input directory: ")
	}
	if outputDir == "" {
		outputDir = prompt("Output directory: ")
	}

	if _, err := os.Stat(inputDir); err != nil {
		return fmt.Errorf("input directory %q does not exist: %w", inputDir, err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %q: %w", outputDir, err)
	}

	sink, err := xlog.New(outputDir, time.Now().Format("20060102_150405"))
	if err != nil {
		return err
	}
	defer sink.Close()

	log := sink.Entry()

	stores, err := discover.DiscoverStores(inputDir)
	if err != nil {
		return fmt.Errorf("discovering store files: %w", err)
	}

	var m *manifest.Manifest
	if manifestPath, ferr := discover.DiscoverManifest(inputDir); ferr == nil {
		data, rerr := os.ReadFile(manifestPath)
		if rerr != nil {
			sink.Warn("failed to read manifest file", logrus.Fields{"path": manifestPath, "err": rerr.Error()})
		} else {
			m = manifest.Parse(data, log)
		}
	} else {
		sink.Warn("no manifest file found, every store will use recovery", logrus.Fields{"err": ferr.Error()})
	}

	summary := extractAll(stores, outputDir, m, sink, log)

	fmt.Printf(
		"stores processed: %d, extracted: %d, skipped: %d, invalid: %d, recovery-emitted: %d\n",
		summary.StoresProcessed, summary.Extracted, summary.Skipped, summary.Invalid, summary.RecoveryEmitted,
	)

	return nil
}

func extractAll(stores []discover.StoreFile, outputDir string, m *manifest.Manifest, sink *xlog.Sink, log *logrus.Entry) Summary {
	var summary Summary

	for _, sf := range stores {
		summary.StoresProcessed++

		data, err := os.ReadFile(sf.Path)
		if err != nil {
			sink.Error("failed to read store file", logrus.Fields{"path": sf.Path, "err": err.Error()})

			continue
		}

		if m.Len() == 0 {
			extractViaRecovery(data, sf, m, outputDir, sink, &summary, "manifest is missing or has no usable rows")

			continue
		}

		tracker := collision.NewTracker()
		store, perr := assemblystore.Parse(data, sf.IsPrimary, tracker, log)
		if perr != nil {
			if errors.Is(perr, errs.ErrNotAnAssemblyStore) {
				extractViaRecovery(data, sf, m, outputDir, sink, &summary, "store did not parse as AssemblyStore")
			} else {
				sink.Error("store failed to parse, skipping (no recovery: magic was valid)", logrus.Fields{
					"path": sf.Path, "err": perr.Error(),
				})
			}

			continue
		}

		for _, rec := range tracker.Collisions() {
			sink.Warn("hash table collision", logrus.Fields{
				"kind": string(rec.Kind), "hash": rec.Hash, "rows": len(rec.Rows),
			})
		}

		artifacts, s := extract.Run(store, store.Header.StoreID, m, extract.Options{}, log)
		summary.Extracted += s.Extracted
		summary.Skipped += s.Skipped
		summary.Invalid += s.Invalid

		for _, a := range artifacts {
			if err := writer.WriteFile(outputDir, sf.Basename, a.RelPath, a.Data); err != nil {
				sink.Error("failed to write artifact", logrus.Fields{"name": a.Name, "err": err.Error()})
			}
		}
	}

	return summary
}

func extractViaRecovery(data []byte, sf discover.StoreFile, m *manifest.Manifest, outputDir string, sink *xlog.Sink, summary *Summary, reason string) {
	sink.Warn("falling back to recovery", logrus.Fields{"path": sf.Path, "reason": reason})

	artifacts := recovery.Scan(data, sf.Basename, m, sink.Entry())
	summary.RecoveryEmitted += len(artifacts)

	for _, a := range artifacts {
		if err := writer.WriteFile(outputDir, sf.Basename, a.Name, a.Data); err != nil {
			sink.Error("failed to write recovery artifact", logrus.Fields{"name": a.Name, "err": err.Error()})
		}
	}
}

func prompt(label string) string {
	fmt.Print(label)

	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')

	return strings.TrimSpace(line)
}
