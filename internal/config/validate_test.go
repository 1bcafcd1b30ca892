package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

// validConfig returns a Config that passes Validate with no errors.
func validConfig() Config {
	return Config{
		DBHost:         "localhost",
		DBPort:         5432,
		DBUser:         "postgres",
		DBPassword:     "pw",
		DBName:         "airbnb",
		SSLMode:        "disable",
		DataDir:        "data",
		Job:            "airbnb_load",
		MetricsBackend: "none",
	}
}

func TestValidate_OK(t *testing.T) {
	t.Parallel()

	issues := Validate(validConfig())
	if HasErrors(issues) {
		t.Fatalf("Validate(valid config) has errors: %v", issues)
	}
}

func TestValidate_MissingDBFields(t *testing.T) {
	t.Parallel()

	c := validConfig()
	c.DBHost = ""
	c.DBUser = " "
	c.DBName = ""

	issues := Validate(c)
	if !hasIssue(t, issues, SeverityError, "db.host", "must not be empty") {
		t.Fatalf("missing db.host error, got %v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "db.user", "must not be empty") {
		t.Fatalf("missing db.user error, got %v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "db.name", "must not be empty") {
		t.Fatalf("missing db.name error, got %v", issues)
	}
}

func TestValidate_PortRange(t *testing.T) {
	t.Parallel()

	for _, port := range []int{0, -5, 70000} {
		c := validConfig()
		c.DBPort = port
		issues := Validate(c)
		if !hasIssue(t, issues, SeverityError, "db.port", "outside") {
			t.Fatalf("port %d: missing db.port error, got %v", port, issues)
		}
	}

	c := validConfig()
	c.DBPort = 6543
	if issues := Validate(c); hasIssue(t, issues, SeverityError, "db.port", "") {
		t.Fatalf("port 6543 flagged: %v", issues)
	}
}

func TestValidate_EmptyPasswordWarns(t *testing.T) {
	t.Parallel()

	c := validConfig()
	c.DBPassword = ""

	issues := Validate(c)
	if HasErrors(issues) {
		t.Fatalf("empty password should not be an error: %v", issues)
	}
	if !hasIssue(t, issues, SeverityWarning, "db.password", "empty") {
		t.Fatalf("missing db.password warning, got %v", issues)
	}
}

func TestValidate_SSLMode(t *testing.T) {
	t.Parallel()

	c := validConfig()
	c.SSLMode = "maybe"
	issues := Validate(c)
	if !hasIssue(t, issues, SeverityError, "db.sslmode", "unknown sslmode") {
		t.Fatalf("missing db.sslmode error, got %v", issues)
	}

	for _, mode := range []string{"disable", "require", "verify-full"} {
		c := validConfig()
		c.SSLMode = mode
		if issues := Validate(c); HasErrors(issues) {
			t.Fatalf("sslmode %q flagged: %v", mode, issues)
		}
	}
}

func TestValidate_MetricsBackend(t *testing.T) {
	t.Parallel()

	c := validConfig()
	c.MetricsBackend = "statsd"
	issues := Validate(c)
	if !hasIssue(t, issues, SeverityError, "metrics.backend", "unknown metrics backend") {
		t.Fatalf("missing metrics.backend error, got %v", issues)
	}

	c = validConfig()
	c.MetricsBackend = "prompush"
	c.PushgatewayURL = "not a url"
	issues = Validate(c)
	if !hasIssue(t, issues, SeverityError, "metrics.pushgateway_url", "absolute URL") {
		t.Fatalf("missing pushgateway_url error, got %v", issues)
	}

	c.PushgatewayURL = "http://pushgateway:9091"
	if issues := Validate(c); HasErrors(issues) {
		t.Fatalf("valid prompush config flagged: %v", issues)
	}
}

func TestValidate_RuntimeFields(t *testing.T) {
	t.Parallel()

	c := validConfig()
	c.DataDir = ""
	c.BatchSize = -1
	c.Job = ""

	issues := Validate(c)
	if !hasIssue(t, issues, SeverityError, "data_dir", "must not be empty") {
		t.Fatalf("missing data_dir error, got %v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "batch_size", "negative") {
		t.Fatalf("missing batch_size error, got %v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "job", "must not be empty") {
		t.Fatalf("missing job error, got %v", issues)
	}
}
