/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valpere/autocorrect/internal/chunker"
	"github.com/valpere/autocorrect/internal/config"
	"github.com/valpere/autocorrect/internal/document"
	"github.com/valpere/autocorrect/internal/latex"
	"github.com/valpere/autocorrect/internal/logging"
	"github.com/valpere/autocorrect/internal/orchestrator"
	"github.com/valpere/autocorrect/internal/store"
)

// setup loads the configuration for cmd and builds the logger.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// newOrchestrator builds a pipeline for cfg. corrector may be nil when only
// planning.
func newOrchestrator(cfg *config.Config, corrector orchestrator.Corrector, logger *zap.Logger, opts ...orchestrator.Option) *orchestrator.Orchestrator {
	tag, auto := cfg.Language()
	opts = append([]orchestrator.Option{orchestrator.WithLogger(logger)}, opts...)
	return orchestrator.New(corrector, orchestrator.OrchestratorConfig{
		MaxChars:      cfg.Batch.MaxChars,
		Language:      tag,
		AutoLanguage:  auto,
		ProtectInline: cfg.ProtectInline,
		Postprocess:   cfg.Postprocess,
	}, opts...)
}

// openMemory opens the correction memory configured in cfg. It returns nil
// when the memory is disabled.
func openMemory(cfg *config.Config) (*store.Store, error) {
	if cfg.Cache.Path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Cache.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := store.New(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it into place, so a failed write never leaves a partial output.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".autocorrect-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace output file: %w", err)
	}
	return nil
}

// printPlan writes a table of the segments and batches of plan.
func printPlan(out io.Writer, plan *orchestrator.Plan, verbose bool) error {
	if !plan.Regions.HasWorking {
		fmt.Fprintf(out, "No %s line found; nothing would be corrected.\n", document.StartMarker)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tKIND\tLANG\tSENTENCES\tBATCHES\tTEXT")
	for i, seg := range plan.Segments {
		lang := "-"
		if seg.Kind == latex.KindChunk {
			lang = seg.Language.String()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\n",
			i+1, seg.Kind, lang, len(seg.Sentences), len(seg.Batches), snippet(seg.Text, 50))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if verbose {
		for i, seg := range plan.Segments {
			for j, b := range seg.Batches {
				fmt.Fprintf(out, "\n--- segment %d batch %d (%d chars) ---\n%s\n", i+1, j+1, chunker.Len(b), b)
			}
		}
	}

	fmt.Fprintf(out, "\n%d chunks, %d batches", plan.Chunks(), plan.Batches())
	if !plan.Regions.Closed {
		fmt.Fprintf(out, " (no %s line, working region runs to end of file)", document.EndMarker)
	}
	fmt.Fprintln(out)
	return nil
}

// snippet shortens s to at most n runes on a single line.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}
