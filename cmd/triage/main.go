// Command triage evaluates a batch of E2B(R3) XML documents from the
// command line and writes the output table to a file or stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/icsr-triage-engine/internal/config"
	"github.com/icsr-triage-engine/internal/export"
	"github.com/icsr-triage-engine/internal/pipeline"
	"github.com/icsr-triage-engine/internal/setup"
)

func main() {
	var (
		format = flag.String("format", "csv", "output format: csv or json")
		out    = flag.String("out", "", "output file (default stdout)")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: triage [-format csv|json] [-out FILE] <xml file or directory>...")
		os.Exit(2)
	}

	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := setup.Logger(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reference, err := setup.BuildReference(ctx, cfg.Reference, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build reference data provider")
	}
	defer reference.Close()

	terms, err := setup.Terms(cfg.MedDRA, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load MedDRA mapping")
	}

	_, runner := setup.BuildPipeline(cfg, reference.Provider, terms, logger)

	inputs, err := collectInputs(flag.Args())
	if err != nil {
		logger.WithError(err).Fatal("Failed to read input documents")
	}
	if len(inputs) == 0 {
		logger.Fatal("No XML documents found in the given paths")
	}

	outcomes := runner.Run(ctx, inputs)

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create output file")
		}
		defer f.Close()
		w = f
	}

	switch *format {
	case "csv":
		err = export.WriteCSV(w, outcomes)
	case "json":
		err = export.WriteJSON(w, outcomes)
	default:
		logger.Fatalf("Unknown output format: %s", *format)
	}
	if err != nil {
		logger.WithError(err).Fatal("Failed to write output")
	}
}

// collectInputs expands the given paths into documents: files are taken as
// is, directories contribute their *.xml entries (non-recursive).
func collectInputs(paths []string) ([]pipeline.Input, error) {
	var inputs []pipeline.Input
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, pipeline.Input{Source: filepath.Base(path), Data: data})
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".xml") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(path, entry.Name()))
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, pipeline.Input{Source: entry.Name(), Data: data})
		}
	}
	return inputs, nil
}
