// Package main is the entry point for the awd CLI, the automated Wiley
// deposits application. It moves article DOIs through metadata and
// content retrieval, package upload, and submission to the DSpace
// Submission Service, then listens for ingest results.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dspace-tools/wiley-deposits/internal/secrets"
	"github.com/dspace-tools/wiley-deposits/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if non-empty, else the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the awd CLI.
var rootCmd = &cobra.Command{
	Use:   "awd",
	Short: "Automated Wiley article deposits into DSpace",
	Long: `awd automates the deposit of Wiley journal articles into DSpace. The
deposit subcommand reads DOI spreadsheets from an S3 bucket, fetches Crossref
metadata and article PDFs, uploads deposit packages, and submits them to the
DSpace Submission Service queue. The listen subcommand drains the service's
result queue and settles each DOI's final status in the local ledger.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./awd.yaml or ~/.config/awd/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("awd")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "awd"))
		}
	}

	viper.SetEnvPrefix("AWD")
	viper.AutomaticEnv()

	viper.SetDefault("log_level", "info")
	viper.SetDefault("http_timeout", "60s")
	viper.SetDefault("aws.region", "us-east-1")
	viper.SetDefault("ledger.db_path", "awd.db")
	viper.SetDefault("crossref.metadata_url", "https://api.crossref.org/works/")
	viper.SetDefault("wiley.content_url", "https://onlinelibrary.wiley.com/doi/pdfdirect/")
	viper.SetDefault("deposit.mapping_path", "")
	viper.SetDefault("listen.retry_threshold", 10)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// buildConfig assembles the application configuration from viper,
// letting .secrets/ fill in credentials the config file omits.
func buildConfig() types.Config {
	httpCfg := types.HTTPConfig{
		Timeout:   viper.GetDuration("http_timeout"),
		UserAgent: "awd/" + version,
	}
	return types.Config{
		AWS: types.AWSConfig{
			Region: viper.GetString("aws.region"),
		},
		Ledger: types.LedgerConfig{
			DBPath: viper.GetString("ledger.db_path"),
		},
		Crossref: types.CrossrefConfig{
			HTTPConfig:  httpCfg,
			MetadataURL: viper.GetString("crossref.metadata_url"),
			Mailto:      secretDefault("crossref-mailto", viper.GetString("crossref.mailto")),
		},
		Wiley: types.WileyConfig{
			HTTPConfig: httpCfg,
			ContentURL: viper.GetString("wiley.content_url"),
		},
		Queue: types.QueueConfig{
			BaseURL:     viper.GetString("queue.base_url"),
			InputQueue:  viper.GetString("queue.input_queue"),
			OutputQueue: viper.GetString("queue.output_queue"),
		},
		Deposit: types.DepositConfig{
			Bucket:           viper.GetString("deposit.bucket"),
			CollectionHandle: viper.GetString("deposit.collection_handle"),
			SubmissionSystem: viper.GetString("deposit.submission_system"),
			MappingPath:      viper.GetString("deposit.mapping_path"),
		},
		Listen: types.ListenConfig{
			RetryThreshold: viper.GetInt("listen.retry_threshold"),
		},
		Email: types.EmailConfig{
			SourceAddress:    viper.GetString("email.source_address"),
			RecipientAddress: viper.GetString("email.recipient_address"),
		},
		LogLevel:  viper.GetString("log_level"),
		SentryDSN: secretDefault("sentry-dsn", viper.GetString("sentry_dsn")),
	}
}

// initSentry starts error reporting when a DSN is configured. The
// returned flush must run before exit so buffered events are delivered.
func initSentry(dsn string) func() {
	if dsn == "" {
		return func() {}
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:     dsn,
		Release: "awd@" + version,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "sentry init failed:", err)
		return func() {}
	}
	return func() { sentry.Flush(2 * time.Second) }
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
