package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"listingcrawler/pkg/config"
	"listingcrawler/pkg/logger"
	"listingcrawler/pkg/merge"
	"listingcrawler/pkg/ui"
)

var (
	mergeInput  string
	mergeOutput string
)

// mergeCmd represents the merge command
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge page files into one CSV dataset",
	Long: `Merge every .jsonl file in the output directory into a single CSV file.

Blank lines and lines starting with // are ignored, invalid JSON lines are
skipped with a warning. Columns are the sorted union of all record fields and
the file is written as UTF-8 with a byte order mark.`,
	Example: `  listingcrawler merge
  listingcrawler merge --input ./data/alonhadat/json --out ./merged.csv`,
	Args: cobra.NoArgs,
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().StringVarP(&mergeInput, "input", "i", "", "directory with page files (default: output directory)")
	mergeCmd.Flags().StringVar(&mergeOutput, "out", "", "CSV file to write (default from config)")
}

func runMerge(cmd *cobra.Command, args []string) error {
	flags := globalFlags(cmd)
	if mergeInput != "" {
		flags["output"] = mergeInput
	}
	if mergeOutput != "" {
		flags["merge-file"] = mergeOutput
	}
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	res, err := merge.Merge(cfg.Output.Directory, cfg.Output.MergeFile, logger.GetLogger())
	if err != nil {
		ui.PrintError("Merge failed", err.Error())
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Merged %d records from %d files into %s", res.Records, res.Files, res.Path))
	ui.PrintInfo("Columns", strings.Join(res.Columns, ", "))
	if len(res.Unreadable) > 0 {
		ui.PrintWarning(fmt.Sprintf("%d unreadable files skipped", len(res.Unreadable)), strings.Join(res.Unreadable, ", "))
	}
	if res.Invalid > 0 {
		ui.PrintWarning(fmt.Sprintf("%d invalid lines skipped", res.Invalid))
	}
	return nil
}
