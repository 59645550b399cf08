package agent

import "time"

// Config holds configuration for the reconciliation driver.
type Config struct {
	// AuthoritativeRemovals lets the agent delete remote components that are
	// no longer reported locally.
	AuthoritativeRemovals bool `mapstructure:"authoritative_removals" default:"false"`
	// DryRun computes and reports the changeset without applying it.
	DryRun bool `mapstructure:"dry_run" default:"false"`
	// IntervalSeconds is the period between runs in serve mode.
	IntervalSeconds int `mapstructure:"interval_seconds" default:"3600"`
	// Workers bounds how many tools run at the same time.
	Workers int `mapstructure:"workers" default:"4"`
	// LookupAttempts bounds remote lookups on transient failures.
	LookupAttempts int `mapstructure:"lookup_attempts" default:"3"`
	// BackoffMS is the initial delay between lookup attempts.
	BackoffMS int `mapstructure:"backoff_ms" default:"500"`
	// ArchiveReports stores every report in the database.
	ArchiveReports bool `mapstructure:"archive_reports" default:"false"`
	// UploadReports stores every report in the object storage bucket.
	UploadReports bool `mapstructure:"upload_reports" default:"false"`
	// ReportPrefix is the object key prefix of uploaded reports.
	ReportPrefix string `mapstructure:"report_prefix" default:"reports"`
	// KeepReports is how many uploaded reports are kept per device; zero keeps all.
	KeepReports int `mapstructure:"keep_reports" default:"50"`
}

// Interval returns the run period, defaulting to one hour.
func (c Config) Interval() time.Duration {
	if c.IntervalSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.IntervalSeconds) * time.Second
}

func (c Config) workers() int {
	if c.Workers <= 0 {
		return 1
	}
	return c.Workers
}

func (c Config) attempts() int {
	if c.LookupAttempts <= 0 {
		return 1
	}
	return c.LookupAttempts
}

func (c Config) backoff() time.Duration {
	if c.BackoffMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.BackoffMS) * time.Millisecond
}
