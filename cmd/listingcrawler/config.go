package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"listingcrawler/pkg/config"
	"listingcrawler/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage listingcrawler configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (LISTINGCRAWLER_*)
  - .env file
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'listingcrawler.yaml'
unless a different path is specified with the --config flag.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Show the effective configuration after applying every source.`,
	RunE:  runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the configuration for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Required fields
  - Value ranges
  - Output and log path accessibility`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# listingcrawler configuration file
#
# Every option can also be set with an environment variable prefixed with
# LISTINGCRAWLER_, for example LISTINGCRAWLER_END_PAGE or LISTINGCRAWLER_OUTPUT_DIR.

site:
  base_url: "https://alonhadat.com.vn"
  # {page} is replaced by the page number
  page_url_template: "https://alonhadat.com.vn/nha-dat/can-ban/nha-dat/1/ha-noi/trang--{page}.html"
  user_agent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
  # A page containing a text node equal to one of these is a verification wall
  sentinels:
    - "Vui lòng xác minh không phải Robot"
    - "THÔNG BÁO"

crawl:
  start_page: 2
  end_page: 200
  request_timeout: 30s

retry:
  # Total attempts per page, including the first
  max_attempts: 3
  # Delay before the first retry, multiplied for each further retry
  base_delay: 5s
  max_delay: 5m
  multiplier: 2.0
  # Random spread of each delay, 0..1
  jitter_factor: 0

rate_limit:
  # 0 disables limiting
  requests_per_minute: 0
  burst: 1

output:
  directory: "data/alonhadat/json"
  checkpoint_file: "crawl_progress.txt"
  merge_file: "data/alonhadat/raw/merged_alonhadat.csv"

control:
  # Listen address for the control API, e.g. "127.0.0.1:8089". Empty disables it.
  addr: ""

notifications:
  enabled: true
  # terminal, desktop or none
  notification_type: "terminal"

logging:
  # debug, info, warn, error
  level: "info"
  # Optional log file in addition to stderr
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "listingcrawler.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		return errors.New("configuration file already exists")
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Adjust the page range and output paths")
	fmt.Println("2. Run 'listingcrawler config validate' to check the configuration")
	fmt.Println("3. Start crawling with 'listingcrawler crawl'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		return err
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (" + config.EnvPrefix + "*)")
	fmt.Println("3. .env file")
	if configFile != "" {
		fmt.Printf("4. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("4. Configuration file: (searched in default locations)")
	}
	fmt.Println("5. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		return err
	}

	var problems []string
	if err := os.MkdirAll(cfg.Output.Directory, 0755); err != nil {
		problems = append(problems, fmt.Sprintf("Cannot create output directory: %v", err))
	}
	if dir := filepath.Dir(cfg.Output.CheckpointFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create checkpoint directory: %v", err))
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return errors.New("invalid configuration")
	}

	if cfg.RateLimit.RequestsPerMinute == 0 {
		ui.PrintWarning("Rate limiting is disabled; consider rate_limit.requests_per_minute to stay polite")
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Pages: %d..%d\n", cfg.Crawl.StartPage, cfg.Crawl.EndPage)
	fmt.Printf("  Output directory: %s\n", cfg.Output.Directory)
	fmt.Printf("  Checkpoint file: %s\n", cfg.Output.CheckpointFile)
	fmt.Printf("  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Printf("  Max attempts: %d (base delay %s)\n", cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
