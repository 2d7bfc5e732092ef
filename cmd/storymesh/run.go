package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/storymesh"
	"github.com/hupe1980/storymesh/config"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate the story series",
	Long:  `Loads the configuration, runs the full pipeline and writes outline.txt and story_NN.txt to the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")

		cfg, err := loadConfig(cmd, cfgPath)
		if err != nil {
			return err
		}

		mesh, err := storymesh.FromConfig(cfg)
		if err != nil {
			return err
		}

		prompt, err := cfg.InitialPrompt()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, runErr := mesh.Run(ctx, prompt)
		if report != nil {
			printReport(cmd, report.SessionID, cfg.OutputDir, len(report.Finalized()), report.Failed())
		}
		return runErr
	},
}

// loadConfig merges CLI flag overrides over the configuration file and
// re-validates the result.
func loadConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		def := config.Default()
		cfg = &def
	}
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("prompt") {
		cfg.Prompt, _ = cmd.Flags().GetString("prompt")
		cfg.PromptFile = ""
	}
	if cmd.Flags().Changed("stories") {
		cfg.Stories, _ = cmd.Flags().GetInt("stories")
	}
	if cmd.Flags().Changed("out") {
		cfg.OutputDir, _ = cmd.Flags().GetString("out")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printReport(cmd *cobra.Command, sessionID, outDir string, finalized int, failed []int) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "session %s: %d stories finalized in %s\n", sessionID, finalized, outDir)
	for _, idx := range failed {
		fmt.Fprintf(out, "story %02d failed\n", idx)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "", "Path to the configuration file")
	runCmd.Flags().String("prompt", "", "Initial premise (overrides the config)")
	runCmd.Flags().Int("stories", 0, "Number of stories to generate (overrides the config)")
	runCmd.Flags().String("out", "", "Output directory (overrides the config)")
}
