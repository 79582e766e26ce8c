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
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/valpere/autocorrect/internal"
	"github.com/valpere/autocorrect/internal/config"
	"github.com/valpere/autocorrect/internal/confirm"
	"github.com/valpere/autocorrect/internal/deepl"
	"github.com/valpere/autocorrect/internal/detector"
	"github.com/valpere/autocorrect/internal/oracle"
	"github.com/valpere/autocorrect/internal/orchestrator"
	"github.com/valpere/autocorrect/internal/validator"
	"github.com/valpere/autocorrect/internal/webdriver"
)

// teardownTimeout bounds closing the browser session after the run.
const teardownTimeout = 10 * time.Second

func runCorrect(cmd *cobra.Command, args []string) (err error) {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	inputFile := args[0]
	if same, _ := samePath(inputFile, cfg.Output); same {
		return fmt.Errorf("input file and output file cannot be the same")
	}
	raw, err := os.ReadFile(inputFile)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	text := string(raw)

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if dryRun {
		plan := newOrchestrator(cfg, nil, logger).Plan(text)
		return printPlan(cmd.OutOrStdout(), plan, true)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openMemory(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	run := internal.Run{
		ID:         uuid.New().String(),
		InputFile:  inputFile,
		OutputFile: cfg.Output,
		Language:   cfg.Segmenter.Language,
		StartedAt:  time.Now(),
	}
	logger.Info("Starting run", zap.String("run_id", run.ID), zap.String("input", inputFile))

	var stats internal.RunStats
	if db != nil {
		if err := db.StartRun(ctx, run); err != nil {
			logger.Warn("Failed to record run", zap.Error(err))
		}
		defer func() {
			if ferr := db.FinishRun(context.Background(), run.ID, stats, err); ferr != nil {
				logger.Warn("Failed to record run result", zap.Error(ferr))
			}
		}()
	}

	var mem orchestrator.Memory
	if db != nil {
		mem = db
	}
	res, err := correct(ctx, cfg, logger, mem, run.ID, text)
	if res != nil {
		stats = res.Stats
	}
	if err != nil {
		return err
	}

	logger.Info("Writing output", zap.String("path", cfg.Output))
	if err := writeFileAtomic(cfg.Output, []byte(res.Text)); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Corrected %s -> %s\n", inputFile, cfg.Output)
	fmt.Fprintf(cmd.OutOrStdout(), "Chunks: %d, batches: %d (%d corrected, %d from memory)\n",
		stats.Chunks, stats.Batches, stats.Corrected, stats.Cached)
	return nil
}

// correct runs the pipeline over text. The driver and browser are started
// only when some batch is neither blank nor remembered, and are torn down on
// every path.
func correct(ctx context.Context, cfg *config.Config, logger *zap.Logger, mem orchestrator.Memory, runID, text string) (res *orchestrator.Result, err error) {
	det := detector.New()
	opts := []orchestrator.Option{
		orchestrator.WithDetector(det),
		orchestrator.WithValidator(validator.New(det)),
	}
	if mem != nil {
		opts = append(opts, orchestrator.WithMemory(mem))
	}

	planner := newOrchestrator(cfg, nil, logger, opts...)
	plan := planner.Plan(text)
	pending := planner.Pending(ctx, plan)
	if pending == 0 {
		logger.Info("Nothing to submit", zap.Int("batches", plan.Batches()))
		return planner.RunPlan(ctx, runID, plan)
	}
	logger.Info("Batches to submit", zap.Int("pending", pending), zap.Int("batches", plan.Batches()))

	drv, err := webdriver.StartDriver(ctx, cfg.Driver, logger)
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, drv.Stop()) }()

	session, err := webdriver.NewSession(ctx, drv.URL(), webdriver.Browser(cfg.Driver.Browser), nil)
	if err != nil {
		return nil, err
	}

	var surface *deepl.Surface
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		defer cancel()
		if surface != nil {
			err = multierr.Append(err, surface.Close(tctx))
		} else {
			err = multierr.Append(err, session.Delete(tctx))
		}
	}()

	surface, err = deepl.Open(ctx, session, cfg.DeepL, logger)
	if err != nil {
		return nil, err
	}

	var s oracle.Surface = surface
	if cfg.Confirm.Mode == config.ConfirmTerminal {
		s = confirm.New(surface)
	}
	client := oracle.New(s, cfg.Oracle,
		oracle.WithLogger(logger),
		oracle.WithObserver(func(t oracle.Transition) {
			logger.Debug("Oracle transition",
				zap.Stringer("from", t.From),
				zap.Stringer("to", t.To),
				zap.Int("round", t.Round),
				zap.Int("sample", t.Sample))
		}),
	)

	return newOrchestrator(cfg, client, logger, opts...).RunPlan(ctx, runID, plan)
}

// samePath reports whether a and b name the same file.
func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}
