package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "dev"

	// Configuration flags.
	configFile string
	verbose    bool
	quiet      bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "gorouter-reset",
	Short: "Force a public IP change on a 4G router",
	Long: `gorouter-reset forces a 4G router to pick up a new public IP address:
  - Queries the current public IP via an external lookup service
  - Logs in to the router's admin interface
  - Cycles the cellular connection (fast path) or restarts the device (fallback)
  - Re-queries the public IP and verifies the change
  - Optionally reports the outcome via Telegram

Use as a one-shot command with an external scheduler (cron, systemd timer, etc.)`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (required)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose (debug) output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "enable quiet mode (errors only)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output logs in JSON format")

	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(validateCmd)
}

// logWriter is the console destination chosen by setupLogging; attachLogFile
// combines it with the daily file writer.
var logWriter io.Writer

func setupLogging() {
	// Set output format
	if jsonOutput {
		logWriter = os.Stdout
	} else {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
		output.FormatLevel = func(i interface{}) string {
			if s, ok := i.(string); ok {
				return strings.ToUpper(s)
			}
			return ""
		}
		logWriter = output
	}
	log.Logger = zerolog.New(logWriter).With().Timestamp().Logger()

	// Set log level
	switch {
	case quiet:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// attachLogFile duplicates log output into an append-only daily file
// router_ip_reset_<YYYYMMDD>.log under dir, line format
// "<timestamp> - <LEVEL> - <message>". The returned closer flushes the file.
func attachLogFile(dir string) (func(), error) {
	name := fmt.Sprintf("router_ip_reset_%s.log", time.Now().Format("20060102"))
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	fileOutput := zerolog.ConsoleWriter{
		Out:        f,
		NoColor:    true,
		TimeFormat: "2006-01-02 15:04:05",
	}
	fileOutput.FormatLevel = func(i interface{}) string {
		if s, ok := i.(string); ok {
			return "- " + strings.ToUpper(s) + " -"
		}
		return "-"
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(logWriter, fileOutput)).With().Timestamp().Logger()

	return func() { _ = f.Close() }, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
