// This file adds a lightweight linter/validator for Config values. It
// performs static checks over a loaded Config and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"net/url"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Config.
//
// Path names the offending field (e.g. "db.port", "metrics.backend").
// Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue in the slice is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static validation of a Config.
//
// It does not mutate the config. Callers decide whether to treat warnings
// as fatal or not.
func Validate(c Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.DBHost) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "db.host",
			Message:  "db host must not be empty",
		})
	}
	if c.DBPort <= 0 || c.DBPort > 65535 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "db.port",
			Message:  fmt.Sprintf("db port %d is outside 1-65535", c.DBPort),
		})
	}
	if strings.TrimSpace(c.DBUser) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "db.user",
			Message:  "db user must not be empty",
		})
	}
	if strings.TrimSpace(c.DBName) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "db.name",
			Message:  "db name must not be empty",
		})
	}
	if c.DBPassword == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "db.password",
			Message:  "db password is empty; the server must allow trust or peer auth",
		})
	}

	switch c.SSLMode {
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "db.sslmode",
			Message:  fmt.Sprintf("unknown sslmode %q", c.SSLMode),
		})
	}

	if strings.TrimSpace(c.DataDir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "data_dir",
			Message:  "data directory must not be empty",
		})
	}
	if c.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "batch_size",
			Message:  "batch size must not be negative",
		})
	}
	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}

	switch c.MetricsBackend {
	case "", "none":
	case "prompush":
		if u, err := url.Parse(c.PushgatewayURL); err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  fmt.Sprintf("pushgateway URL %q is not an absolute URL", c.PushgatewayURL),
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; expected none or prompush", c.MetricsBackend),
		})
	}

	return issues
}
