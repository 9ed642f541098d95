// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HearingDateLayout is the ISO layout of TemplateConfig.HearingDate.
const HearingDateLayout = "2006-01-02"

// AIProvider selects the Generative AI backend.
type AIProvider string

const (
	ProviderGemini AIProvider = "gemini"
	ProviderClaude AIProvider = "claude"
)

// AIConfig holds settings for the extraction gateway.
type AIConfig struct {
	// Provider is "gemini" (default) or "claude".
	Provider AIProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the AI model identifier (e.g. "gemini-2.5-flash").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Timeout bounds one provider call. Zero means no timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// TemplateConfig is the process-wide citation template.
type TemplateConfig struct {
	Municipality      string `json:"municipalidad" yaml:"municipality" mapstructure:"municipality"`
	Court             string `json:"juzgado" yaml:"court" mapstructure:"court"`
	City              string `json:"ciudad" yaml:"city" mapstructure:"city"`
	SecretaryName     string `json:"secretarioNombre" yaml:"secretary_name" mapstructure:"secretary_name"`
	SecretaryTitle    string `json:"secretarioCargo" yaml:"secretary_title" mapstructure:"secretary_title"`
	HearingDate       string `json:"audienciaDate" yaml:"hearing_date" mapstructure:"hearing_date"`
	HearingTime       string `json:"audienciaTime" yaml:"hearing_time" mapstructure:"hearing_time"`
	HearingAddress    string `json:"audienciaAddress" yaml:"hearing_address" mapstructure:"hearing_address"`
	StartOficioNumber string `json:"startOficioNumber" yaml:"start_oficio_number" mapstructure:"start_oficio_number"`
	FooterContact     string `json:"footerContactInfo" yaml:"footer_contact" mapstructure:"footer_contact"`
}

// DefaultTemplate returns the template the court ships with. The hearing is
// scheduled 30 days after now.
func DefaultTemplate(now time.Time) TemplateConfig {
	return TemplateConfig{
		Municipality:      "ILUSTRE MUNICIPALIDAD DE EL QUISCO",
		Court:             "JUZGADO DE POLICÍA LOCAL",
		City:              "EL QUISCO",
		SecretaryName:     "Alejandro Carrasco Blanc",
		SecretaryTitle:    "SECRETARIO ABOGADO",
		HearingDate:       now.AddDate(0, 0, 30).Format(HearingDateLayout),
		HearingTime:       "09:00",
		HearingAddress:    "Avda. Francia N°011 El Quisco",
		StartOficioNumber: "100",
		FooterContact:     "Correo electrónico: tribunal@elquisco.cl - Teléfonos: (35) 2 456119 - Celular: 9 94088296 - El Quisco V Región Chile.",
	}
}

// Hearing parses HearingDate. An invalid date is a configuration error.
func (c TemplateConfig) Hearing() (time.Time, error) {
	t, err := time.Parse(HearingDateLayout, c.HearingDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid hearing date %q: %w", c.HearingDate, err)
	}
	return t, nil
}

// ServerConfig holds settings for the interactive HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// AccessCode gates /login. Empty disables the gate.
	AccessCode string `json:"access_code,omitempty" yaml:"access_code,omitempty" mapstructure:"access_code"`

	// SessionTTL is how long an idle session is kept (default 2h).
	SessionTTL time.Duration `json:"session_ttl" yaml:"session_ttl" mapstructure:"session_ttl"`

	// ReapSchedule is the cron schedule of the idle-session reaper (default "@every 5m").
	ReapSchedule string `json:"reap_schedule" yaml:"reap_schedule" mapstructure:"reap_schedule"`
}

// RenderConfig holds settings for citation rendering.
type RenderConfig struct {
	// Settle is an extra wait after the surface commits a layout, before
	// capture. Zero relies on the commit signal alone.
	Settle time.Duration `json:"settle" yaml:"settle" mapstructure:"settle"`

	// Scale multiplies the capture resolution (default 2).
	Scale float64 `json:"scale" yaml:"scale" mapstructure:"scale"`
}

// LedgerConfig holds settings for the oficio ledger.
type LedgerConfig struct {
	// Path is the SQLite file. Empty disables the ledger.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json (default text).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings.
type Config struct {
	AI       AIConfig       `json:"ai" yaml:"ai" mapstructure:"ai"`
	Template TemplateConfig `json:"template" yaml:"template" mapstructure:"template"`
	Server   ServerConfig   `json:"server" yaml:"server" mapstructure:"server"`
	Render   RenderConfig   `json:"render" yaml:"render" mapstructure:"render"`
	Ledger   LedgerConfig   `json:"ledger" yaml:"ledger" mapstructure:"ledger"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
}
