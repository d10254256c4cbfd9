package config

import (
	"fmt"
	"net"
	"os"
	"strings"
)

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	// At least one input
	if len(c.Input.Files) == 0 && c.Input.FileList == "" {
		errs = append(errs, "no input files: pass files or input.file_list")
	}

	// Inputs must exist; "-" is stdin
	for _, f := range c.Input.Files {
		if f == "-" {
			if c.Input.Format != FormatDiag {
				errs = append(errs, "stdin input (\"-\") requires input.format diag")
			}
			continue
		}
		if _, err := os.Stat(f); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("input file not found: %s", f))
		}
	}

	if c.Input.FileList != "" {
		if _, err := os.Stat(c.Input.FileList); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("file list not found: %s", c.Input.FileList))
		}
	}

	if c.Input.Format != FormatPCAP && c.Input.Format != FormatDiag {
		errs = append(errs, fmt.Sprintf("input.format must be 'pcap' or 'diag', got %q", c.Input.Format))
	}

	// GSMTAP target must be host or host:port
	if t := c.Output.GSMTAPTarget; t != "" {
		if strings.Contains(t, ":") && net.ParseIP(t) == nil {
			if _, _, err := net.SplitHostPort(t); err != nil {
				errs = append(errs, fmt.Sprintf("invalid output.gsmtap_target %q: %v", t, err))
			}
		}
	}

	if c.Stats.ReportIntervalSec < 0 {
		errs = append(errs, "stats.report_interval_sec must be >= 0")
	}

	if a := c.Stats.StatsdAddress; a != "" {
		if _, _, err := net.SplitHostPort(a); err != nil {
			errs = append(errs, fmt.Sprintf("invalid stats.statsd_address %q: %v", a, err))
		}
	}

	// Log level must be valid
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of debug/info/warn/error, got %q", c.Logging.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
