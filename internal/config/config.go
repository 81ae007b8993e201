// Package config provides configuration types, defaults and validation for
// promoter.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zjrosen/promoter/internal/approval"
	"github.com/zjrosen/promoter/internal/flags"
	"github.com/zjrosen/promoter/internal/notify"
	"github.com/zjrosen/promoter/internal/promotion"
	"github.com/zjrosen/promoter/internal/registry"
	"github.com/zjrosen/promoter/internal/tracing"
)

// Config holds all configuration options for promoter.
type Config struct {
	StateDir  string          `mapstructure:"state_dir"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Artifacts []string        `mapstructure:"artifacts"`
	Promotion PromotionConfig `mapstructure:"promotion"`
	Approval  ApprovalConfig  `mapstructure:"approval"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	History   HistoryConfig   `mapstructure:"history"`
	Logs      LogsConfig      `mapstructure:"logs"`
	Tracing   tracing.Config  `mapstructure:"tracing"`
	Flags     map[string]bool `mapstructure:"flags"`
}

// RegistryConfig holds the target registry and how to talk to it.
type RegistryConfig struct {
	// Host is the registry host with an optional namespace path,
	// e.g. "registry.example.com/team".
	Host     string `mapstructure:"host"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	registry.Config `mapstructure:",squash"`
}

// PromotionConfig holds defaults for `promoter run`.
type PromotionConfig struct {
	Mode        string        `mapstructure:"mode"` // latest-to-stable, tag-to-latest, custom
	SourceTag   string        `mapstructure:"source_tag"`
	DestTag     string        `mapstructure:"dest_tag"`
	Concurrency int           `mapstructure:"concurrency"`
	Retries     int           `mapstructure:"retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

// ApprovalConfig holds the approval gate settings.
type ApprovalConfig struct {
	Channel   string        `mapstructure:"channel"` // terminal (default) or file
	Dir       string        `mapstructure:"dir"`     // file channel exchange dir
	Approvers []string      `mapstructure:"approvers"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// NotifyConfig selects the report notifiers.
type NotifyConfig struct {
	Terminal    bool              `mapstructure:"terminal"`
	ResultsFile string            `mapstructure:"results_file"`
	Email       EmailConfig       `mapstructure:"email"`
	CloudEvents CloudEventsConfig `mapstructure:"cloudevents"`
	Archive     ArchiveConfig     `mapstructure:"archive"`
}

// EmailConfig enables SMTP delivery.
type EmailConfig struct {
	Enabled bool `mapstructure:"enabled"`

	notify.EmailConfig `mapstructure:",squash"`
}

// CloudEventsConfig configures the CloudEvents sink. Delivery is gated by the
// "cloudevents" feature flag.
type CloudEventsConfig struct {
	Target  string `mapstructure:"target"`
	Source  string `mapstructure:"source"`
	Retries int    `mapstructure:"retries"`
}

// ArchiveConfig enables the object-store archive.
type ArchiveConfig struct {
	Enabled bool `mapstructure:"enabled"`

	notify.ArchiveConfig `mapstructure:",squash"`
}

// HistoryConfig holds run history settings.
type HistoryConfig struct {
	// Path is the SQLite file. Default: <state_dir>/history.db
	Path string `mapstructure:"path"`
	// ListLimit is the default row count of `promoter history`.
	ListLimit int `mapstructure:"list_limit"`
}

// LogsConfig holds per-run log settings.
type LogsConfig struct {
	// Dir is the per-run log root. Default: <state_dir>/logs
	Dir string `mapstructure:"dir"`
	// TailLines is how many lines each stream keeps in memory.
	TailLines int `mapstructure:"tail_lines"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Registry: RegistryConfig{
			Config: registry.Config{
				Driver:       registry.DriverRemote,
				CacheTTL:     10 * time.Minute,
				DockerBinary: registry.DefaultDockerBinary,
			},
		},
		Artifacts: append([]string(nil), promotion.DefaultArtifacts...),
		Promotion: PromotionConfig{
			Mode:        string(promotion.KindLatestToStable),
			Concurrency: promotion.DefaultConcurrency,
			Retries:     promotion.DefaultRetryLimit,
			RetryDelay:  promotion.DefaultRetryDelay,
		},
		Approval: ApprovalConfig{
			Channel: approval.ChannelTerminal,
			Timeout: promotion.DefaultApprovalWait,
		},
		Notify: NotifyConfig{
			Terminal: true,
			Email: EmailConfig{
				EmailConfig: notify.EmailConfig{Port: 25},
			},
			CloudEvents: CloudEventsConfig{
				Source:  notify.DefaultEventSource,
				Retries: 3,
			},
			Archive: ArchiveConfig{
				ArchiveConfig: notify.ArchiveConfig{Prefix: "promotions", UseSSL: true},
			},
		},
		History: HistoryConfig{ListLimit: 20},
		Logs:    LogsConfig{TailLines: 200},
		Tracing: tracing.DefaultConfig(),
		Flags:   flags.Defaults(),
	}
}

// Validate checks every section and joins the errors.
func Validate(cfg Config) error {
	return errors.Join(
		ValidateRegistry(cfg.Registry),
		ValidateArtifacts(cfg.Artifacts),
		ValidatePromotion(cfg.Promotion),
		ValidateApproval(cfg.Approval),
		ValidateNotify(cfg.Notify),
		ValidateHistory(cfg.History),
		ValidateLogs(cfg.Logs),
		ValidateTracing(cfg.Tracing),
	)
}

// ValidateRegistry checks registry configuration for errors.
// The host may be empty here; `promoter run --registry` can supply it.
func ValidateRegistry(r RegistryConfig) error {
	switch r.Driver {
	case "", registry.DriverRemote, registry.DriverDocker:
	default:
		return fmt.Errorf("registry.driver must be %q or %q, got %q", registry.DriverRemote, registry.DriverDocker, r.Driver)
	}
	if r.CacheTTL < 0 {
		return fmt.Errorf("registry.cache_ttl must not be negative, got %s", r.CacheTTL)
	}
	if strings.Contains(r.Host, "://") {
		return fmt.Errorf("registry.host must not include a scheme, got %q", r.Host)
	}
	return nil
}

// ValidateArtifacts checks the canonical artifact list.
func ValidateArtifacts(artifacts []string) error {
	seen := make(map[string]bool, len(artifacts))
	for i, a := range artifacts {
		name := strings.TrimSpace(a)
		if name == "" {
			return fmt.Errorf("artifacts[%d]: name is required", i)
		}
		if strings.EqualFold(name, promotion.SelectAll) {
			return fmt.Errorf("artifacts[%d]: %q is reserved", i, promotion.SelectAll)
		}
		if seen[name] {
			return fmt.Errorf("artifacts[%d]: duplicate name %q", i, name)
		}
		seen[name] = true
	}
	return nil
}

// ValidatePromotion checks promotion defaults for errors.
func ValidatePromotion(p PromotionConfig) error {
	if p.Mode != "" {
		if _, err := promotion.ParseMode(p.Mode, p.SourceTag, p.DestTag); err != nil {
			return fmt.Errorf("promotion.mode: %w", err)
		}
	}
	if p.Concurrency < 0 {
		return fmt.Errorf("promotion.concurrency must not be negative, got %d", p.Concurrency)
	}
	if p.Retries < 0 {
		return fmt.Errorf("promotion.retries must not be negative, got %d", p.Retries)
	}
	if p.RetryDelay < 0 {
		return fmt.Errorf("promotion.retry_delay must not be negative, got %s", p.RetryDelay)
	}
	return nil
}

// ValidateApproval checks approval configuration for errors.
func ValidateApproval(a ApprovalConfig) error {
	switch strings.ToLower(a.Channel) {
	case "", approval.ChannelTerminal, approval.ChannelFile:
	default:
		return fmt.Errorf("approval.channel must be %q or %q, got %q", approval.ChannelTerminal, approval.ChannelFile, a.Channel)
	}
	if a.Timeout < 0 {
		return fmt.Errorf("approval.timeout must not be negative, got %s", a.Timeout)
	}
	return nil
}

// ValidateNotify checks the enabled notifiers.
func ValidateNotify(n NotifyConfig) error {
	if n.Email.Enabled {
		if err := n.Email.Validate(); err != nil {
			return fmt.Errorf("notify.email: %w", err)
		}
	}
	if n.Archive.Enabled {
		if err := n.Archive.Validate(); err != nil {
			return fmt.Errorf("notify.archive: %w", err)
		}
	}
	if n.CloudEvents.Retries < 0 {
		return fmt.Errorf("notify.cloudevents.retries must not be negative, got %d", n.CloudEvents.Retries)
	}
	return nil
}

// ValidateHistory checks history configuration for errors.
func ValidateHistory(h HistoryConfig) error {
	if h.ListLimit < 0 {
		return fmt.Errorf("history.list_limit must not be negative, got %d", h.ListLimit)
	}
	return nil
}

// ValidateLogs checks log configuration for errors.
func ValidateLogs(l LogsConfig) error {
	if l.TailLines < 0 {
		return fmt.Errorf("logs.tail_lines must not be negative, got %d", l.TailLines)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	if t.Exporter != "" {
		switch t.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
		}
	}

	// file_path defaults from state_dir, so only otlp needs an explicit value.
	if t.Enabled && t.Exporter == "otlp" && t.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}
	return nil
}

// ParseYesNo accepts the legacy YES/NO spelling as well as boolean strings.
func ParseYesNo(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return true, nil
	case "no", "n", "false", "0", "":
		return false, nil
	default:
		return false, fmt.Errorf("expected YES or NO, got %q", s)
	}
}
