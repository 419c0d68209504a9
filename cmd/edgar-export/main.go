// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the edgar-export CLI.
package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/edgar-export/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the edgar-export CLI.
var rootCmd = &cobra.Command{
	Use:   "edgar-export",
	Short: "Export a company's SEC filings to a local folder",
	Long: `edgar-export walks a company's filing index on EDGAR, filters filings by
form type and filing date, and writes every document of each accepted filing
to <directory>/<ticker>/SEC. HTML documents are rendered to PDF; PDF, text,
and XML documents are copied as-is. Exhibits go to SEC/Exhibits.

EDGAR asks automated clients to identify themselves. Put a User-Agent such as
"Acme Research ops@acme.example" in .secrets/sec-user-agent, or set
EDGAR_EXPORT_HTTP_USER_AGENT.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configureLogging(viper.GetBool("verbose"))

		s, err := secrets.Load(secrets.DefaultDir)
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
			logrus.WithField("keys", keys).Debug("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./edgar-export.yaml or ~/.config/edgar-export/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log per-document diagnostics")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.WithError(err).Warn("could not read .env")
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("edgar-export")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "edgar-export"))
		}
	}

	viper.SetEnvPrefix("EDGAR_EXPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logrus.WithField("file", viper.ConfigFileUsed()).Info("using config file")
	}
}

func configureLogging(verbose bool) {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
