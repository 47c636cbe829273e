package main

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/agentchaos/chaosproxy/internal/plan"
)

// runtimeConfig is the process-wide configuration assembled from flags,
// environment variables, and defaults. It is deliberately separate from
// plan.ChaosPlan: this config governs the proxy process itself, the plan
// governs what it does to traffic.
type runtimeConfig struct {
	Listen            string
	ControlListen     string
	PlanPath          string
	ClassifierStrict  bool
	ReplayStrict      bool
	JWTStrict         bool
	JWTSecret         string
	ChaosToken        string
	PIIRedaction      bool
	AuditLogPath      string
	EventLogPath      string
	OTelEnabled       bool
	OTelEndpoint      string
	LogLevel          string
	LogToFile         bool
	LogDir            string
}

// setupViper binds CHAOS_-prefixed environment variables and sane
// defaults.
func setupViper() {
	viper.SetEnvPrefix("CHAOS")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	viper.SetDefault("listen", "127.0.0.1:8888")
	viper.SetDefault("control-listen", "127.0.0.1:8889")
	viper.SetDefault("plan", "")
	viper.SetDefault("classifier-strict", false)
	viper.SetDefault("replay-strict", false)
	viper.SetDefault("jwt-strict", false)
	viper.SetDefault("jwt-secret", "")
	viper.SetDefault("token", "")
	viper.SetDefault("pii-redaction-enabled", true)
	viper.SetDefault("audit-log", "")
	viper.SetDefault("event-log", "")
	viper.SetDefault("otel-enabled", false)
	viper.SetDefault("otel-endpoint", "localhost:4318")
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-to-file", false)
	viper.SetDefault("log-dir", "")
}

func loadRuntimeConfig() *runtimeConfig {
	return &runtimeConfig{
		Listen:           viper.GetString("listen"),
		ControlListen:    viper.GetString("control-listen"),
		PlanPath:         viper.GetString("plan"),
		ClassifierStrict: viper.GetBool("classifier-strict"),
		ReplayStrict:     viper.GetBool("replay-strict"),
		JWTStrict:        viper.GetBool("jwt-strict"),
		JWTSecret:        viper.GetString("jwt-secret"),
		ChaosToken:       viper.GetString("token"),
		PIIRedaction:     viper.GetBool("pii-redaction-enabled"),
		AuditLogPath:     viper.GetString("audit-log"),
		EventLogPath:     viper.GetString("event-log"),
		OTelEnabled:      viper.GetBool("otel-enabled"),
		OTelEndpoint:     viper.GetString("otel-endpoint"),
		LogLevel:         viper.GetString("log-level"),
		LogToFile:        viper.GetBool("log-to-file"),
		LogDir:           viper.GetString("log-dir"),
	}
}

func (c *runtimeConfig) logConfig() *plan.LogConfig {
	cfg := plan.DefaultLogConfig()
	cfg.Level = c.LogLevel
	cfg.EnableFile = c.LogToFile
	cfg.LogDir = c.LogDir
	return cfg
}
