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
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "autocorrect <input.tex>",
	Short: "Correct the prose of a LaTeX document with DeepL Write",
	Long: `Correct the free text between the %CORRECT_START and %CORRECT_END lines of a
LaTeX document through the DeepL Write web page.

Comments, commands and environment blocks are copied unchanged. Free text is
split into sentences, packed into batches and submitted one batch at a time;
each corrected batch is accepted by pressing Ctrl+B in the browser (or Enter
in the terminal with --confirm terminal).

Use "autocorrect segments <input.tex>" to preview what would be submitted.`,
	Version: version,
	Args:    cobra.ExactArgs(1),
	RunE:    runCorrect,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./autocorrect.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("cache", "", "Correction memory database (empty disables it)")

	f := rootCmd.Flags()
	f.StringP("output", "o", "corrected.tex", "Output file")
	f.String("language", "de", "Segmenter language (BCP 47 tag or auto)")
	f.String("confirm", "browser", "Where corrections are accepted (browser or terminal)")
	f.String("paste", "clipboard", "How text is entered (clipboard or keys)")
	f.Int("max-chars", 2000, "Maximum batch size in characters")
	f.Bool("protect-inline", false, "Hide inline math and commands from the corrector")
	f.Bool("postprocess", false, "Normalise spaces and line ends in accepted corrections")
	f.String("browser", "firefox", "Browser name requested from the driver")
	f.String("driver", "geckodriver", "WebDriver executable")
	f.Int("port", 4444, "WebDriver port")
	f.Bool("dry-run", false, "Print the batch plan without starting a browser")
}
