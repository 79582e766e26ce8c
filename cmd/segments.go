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
	"os"

	"github.com/spf13/cobra"
)

var segmentsCmd = &cobra.Command{
	Use:   "segments <input.tex>",
	Short: "Show how a document would be split and batched",
	Long: `Classify the working region of a document and print its preserved lines,
correctable chunks and the batches each chunk would be submitted in.
No browser is started.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}

		verbose, _ := cmd.Flags().GetBool("batches")
		plan := newOrchestrator(cfg, nil, logger).Plan(string(raw))
		return printPlan(cmd.OutOrStdout(), plan, verbose)
	},
}

func init() {
	rootCmd.AddCommand(segmentsCmd)

	segmentsCmd.Flags().Bool("batches", false, "Print the text of every batch")
	segmentsCmd.Flags().String("language", "de", "Segmenter language (BCP 47 tag or auto)")
	segmentsCmd.Flags().Int("max-chars", 2000, "Maximum batch size in characters")
}
