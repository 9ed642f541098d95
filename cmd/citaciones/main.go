// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the citaciones CLI.
// It covers batch extraction from run files, PDF and print rendering,
// correspondence spreadsheets, the oficio ledger and the interactive server.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/citaciones/internal/secrets"
	"github.com/pdiddy/citaciones/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ and .env at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the citaciones CLI.
var rootCmd = &cobra.Command{
	Use:   "citaciones",
	Short: "Turn traffic complaints into court citations",
	Long: `citaciones reads a batch of traffic complaints and the matching vehicle
registration certificates, extracts one record per complaint with a
Generative AI service, and renders numbered court citations.

Batch subcommands work on run files: extract writes one, pdf, print and
correspondence read it. serve starts the interactive API used by the clerk's
browser.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var cfg types.LogConfig
		if err := viper.UnmarshalKey("log", &cfg); err != nil {
			return fmt.Errorf("reading log configuration: %w", err)
		}
		slog.SetDefault(newLogger(cfg))

		s, err := secrets.LoadAll(".secrets/", ".env")
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
			slog.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./citaciones.yaml or ~/.config/citaciones/citaciones.yaml)")
}

func initConfig() {
	setDefaults()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("citaciones")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "citaciones"))
		}
	}

	viper.SetEnvPrefix("CITACIONES")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every configuration key so AutomaticEnv can
// override it.
func setDefaults() {
	tmpl := types.DefaultTemplate(time.Now())
	viper.SetDefault("ai.provider", string(types.ProviderGemini))
	viper.SetDefault("ai.model", "")
	viper.SetDefault("ai.api_key", "")
	viper.SetDefault("ai.timeout", time.Duration(0))

	viper.SetDefault("template.municipality", tmpl.Municipality)
	viper.SetDefault("template.court", tmpl.Court)
	viper.SetDefault("template.city", tmpl.City)
	viper.SetDefault("template.secretary_name", tmpl.SecretaryName)
	viper.SetDefault("template.secretary_title", tmpl.SecretaryTitle)
	viper.SetDefault("template.hearing_date", "")
	viper.SetDefault("template.hearing_time", tmpl.HearingTime)
	viper.SetDefault("template.hearing_address", tmpl.HearingAddress)
	viper.SetDefault("template.start_oficio_number", tmpl.StartOficioNumber)
	viper.SetDefault("template.footer_contact", tmpl.FooterContact)

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.access_code", "")
	viper.SetDefault("server.session_ttl", 2*time.Hour)
	viper.SetDefault("server.reap_schedule", "")

	viper.SetDefault("render.settle", time.Duration(0))
	viper.SetDefault("render.scale", 2.0)

	viper.SetDefault("ledger.path", "")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

// loadConfig reads the full configuration and fills keys from secrets.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}

	key := secrets.KeyGemini
	if cfg.AI.Provider == types.ProviderClaude {
		key = secrets.KeyAnthropic
	}
	cfg.AI.APIKey = secretDefault(key, cfg.AI.APIKey)
	cfg.Server.AccessCode = secretDefault(secrets.KeyAccessCode, cfg.Server.AccessCode)
	return cfg, nil
}

// templateAt returns the configured template. An unset hearing date falls
// 30 days after now.
func templateAt(cfg types.TemplateConfig, now time.Time) types.TemplateConfig {
	if cfg.HearingDate == "" {
		cfg.HearingDate = types.DefaultTemplate(now).HearingDate
	}
	return cfg
}

func newLogger(cfg types.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
