package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Input formats.
const (
	FormatPCAP = "pcap"
	FormatDiag = "diag"
)

// Config holds all configuration for the signaling analyzer.
type Config struct {
	Input    InputConfig    `yaml:"input"    mapstructure:"input"`
	Output   OutputConfig   `yaml:"output"   mapstructure:"output"`
	Session  SessionConfig  `yaml:"session"  mapstructure:"session"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Logging  LoggingConfig  `yaml:"logging"  mapstructure:"logging"`
	Stats    StatsConfig    `yaml:"stats"    mapstructure:"stats"`
}

type InputConfig struct {
	Files    []string `yaml:"files"     mapstructure:"files"`
	FileList string   `yaml:"file_list" mapstructure:"file_list"`
	Format   string   `yaml:"format"    mapstructure:"format"`
}

type OutputConfig struct {
	GSMTAPTarget string `yaml:"gsmtap_target" mapstructure:"gsmtap_target"`
	PcapFile     string `yaml:"pcap_file"     mapstructure:"pcap_file"`
}

type SessionConfig struct {
	DualDomain bool `yaml:"dual_domain" mapstructure:"dual_domain"`
}

type AnalysisConfig struct {
	MaxCMCDelayFN uint32 `yaml:"max_cmc_delay_fn" mapstructure:"max_cmc_delay_fn"`
}

type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file"  mapstructure:"file"`
}

type StatsConfig struct {
	Enabled           bool   `yaml:"enabled"             mapstructure:"enabled"`
	ReportIntervalSec int    `yaml:"report_interval_sec" mapstructure:"report_interval_sec"`
	ExportFile        string `yaml:"export_file"         mapstructure:"export_file"`
	StatsdAddress     string `yaml:"statsd_address"      mapstructure:"statsd_address"`
	StatsdPrefix      string `yaml:"statsd_prefix"       mapstructure:"statsd_prefix"`
}

// SetDefaults configures default values for the configuration.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("input.files", []string{})
	v.SetDefault("input.format", FormatPCAP)
	v.SetDefault("session.dual_domain", true)
	v.SetDefault("analysis.max_cmc_delay_fn", 1300)
	v.SetDefault("logging.level", "info")
	v.SetDefault("stats.enabled", true)
	v.SetDefault("stats.report_interval_sec", 0)
	v.SetDefault("stats.statsd_prefix", "diagparser")
}

// Load reads configuration from a YAML file and returns a Config.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	return LoadWithViper(v)
}

// LoadWithViper reads configuration using an existing viper instance (for CLI flag binding).
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// InputFiles returns the positional inputs followed by the entries of the
// file list, one path per line. Blank lines are ignored.
func (c *Config) InputFiles() ([]string, error) {
	files := append([]string(nil), c.Input.Files...)
	if c.Input.FileList == "" {
		return files, nil
	}

	f, err := os.Open(c.Input.FileList)
	if err != nil {
		return nil, fmt.Errorf("failed to open file list %s: %w", c.Input.FileList, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		name := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(name) == "" {
			continue
		}
		files = append(files, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse file list %s:%d: %w", c.Input.FileList, line, err)
	}
	return files, nil
}

// Summary returns a human-readable summary of the configuration.
func (c *Config) Summary() string {
	var sb strings.Builder
	sb.WriteString("Configuration:\n")
	sb.WriteString(fmt.Sprintf("  Inputs:        %d file(s), list=%q (%s)\n", len(c.Input.Files), c.Input.FileList, c.Input.Format))
	sb.WriteString(fmt.Sprintf("  GSMTAP:        %s\n", orNone(c.Output.GSMTAPTarget)))
	sb.WriteString(fmt.Sprintf("  PCAP out:      %s\n", orNone(c.Output.PcapFile)))
	sb.WriteString(fmt.Sprintf("  Dual domain:   %v\n", c.Session.DualDomain))
	sb.WriteString(fmt.Sprintf("  CMC delay:     %d FN\n", c.Analysis.MaxCMCDelayFN))
	sb.WriteString(fmt.Sprintf("  Statsd:        %s\n", orNone(c.Stats.StatsdAddress)))
	return sb.String()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
