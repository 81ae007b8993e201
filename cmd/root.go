package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/promoter/internal/config"
	"github.com/zjrosen/promoter/internal/log"
	"github.com/zjrosen/promoter/internal/paths"
)

func init() {
	// Query the terminal background before the approval prompt starts so the
	// OSC 11 reply cannot race with Bubble Tea's input loop.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

// envPrefix is the prefix for environment overrides, e.g.
// PROMOTER_REGISTRY_PASSWORD for registry.password.
const envPrefix = "PROMOTER"

var (
	version    = "dev"
	cfgFile    string
	debug      bool
	cfg        config.Config
	cfgPath    string
	cfgErr     error
	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "promoter",
	Short: "Promote container image tags across a fixed set of artifacts",
	Long: `Promote container image tags (latest -> stable, or any custom pair) for a
set of artifacts in one registry, behind a human approval gate, and report
per-artifact results.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initLogging(); err != nil {
			return err
		}
		if cfgErr != nil {
			return cfgErr
		}
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid configuration (%s): %w", cfgPath, err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			logCleanup()
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .promoter/config.yaml, then ~/.config/promoter/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"write debug logs to $PROMOTER_LOG (default: debug.log)")
}

func initConfig() {
	cfg, cfgPath, cfgErr = loadConfig(viper.GetViper(), cfgFile)
}

// loadConfig resolves the config file, writes the default template when no
// file exists, and unmarshals it over the defaults.
func loadConfig(v *viper.Viper, explicit string) (config.Config, string, error) {
	defaults := config.Defaults()
	setDefaults(v, defaults)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	localPath := filepath.Join(paths.StateDirName, "config.yaml")
	switch {
	case explicit != "":
		v.SetConfigFile(explicit)
	default:
		// Config lookup order:
		// 1. .promoter/config.yaml (current directory)
		// 2. ~/.config/promoter/config.yaml (user config)
		if _, err := os.Stat(localPath); err == nil {
			v.SetConfigFile(localPath)
		} else {
			v.AddConfigPath(paths.UserConfigDir())
			v.SetConfigName("config")
			v.SetConfigType("yaml")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			// No config file found anywhere - create default at .promoter/config.yaml
			if writeErr := config.WriteDefaultConfig(localPath); writeErr == nil {
				v.SetConfigFile(localPath)
				_ = v.ReadInConfig()
			}
		default:
			return defaults, explicit, fmt.Errorf("reading config: %w", err)
		}
	}

	out := defaults
	if err := v.Unmarshal(&out); err != nil {
		return defaults, v.ConfigFileUsed(), fmt.Errorf("decoding config: %w", err)
	}
	return out, v.ConfigFileUsed(), nil
}

// setDefaults registers every key so environment overrides and Unmarshal see
// it even when the file leaves it out.
func setDefaults(v *viper.Viper, d config.Config) {
	v.SetDefault("state_dir", d.StateDir)

	v.SetDefault("registry.host", d.Registry.Host)
	v.SetDefault("registry.username", d.Registry.Username)
	v.SetDefault("registry.password", d.Registry.Password)
	v.SetDefault("registry.driver", d.Registry.Driver)
	v.SetDefault("registry.insecure", d.Registry.Insecure)
	v.SetDefault("registry.cache_ttl", d.Registry.CacheTTL)
	v.SetDefault("registry.skip_cache", d.Registry.SkipCache)
	v.SetDefault("registry.docker_binary", d.Registry.DockerBinary)
	v.SetDefault("registry.docker_config", d.Registry.DockerConfig)

	v.SetDefault("artifacts", d.Artifacts)

	v.SetDefault("promotion.mode", d.Promotion.Mode)
	v.SetDefault("promotion.source_tag", d.Promotion.SourceTag)
	v.SetDefault("promotion.dest_tag", d.Promotion.DestTag)
	v.SetDefault("promotion.concurrency", d.Promotion.Concurrency)
	v.SetDefault("promotion.retries", d.Promotion.Retries)
	v.SetDefault("promotion.retry_delay", d.Promotion.RetryDelay)

	v.SetDefault("approval.channel", d.Approval.Channel)
	v.SetDefault("approval.dir", d.Approval.Dir)
	v.SetDefault("approval.approvers", d.Approval.Approvers)
	v.SetDefault("approval.timeout", d.Approval.Timeout)

	v.SetDefault("notify.terminal", d.Notify.Terminal)
	v.SetDefault("notify.results_file", d.Notify.ResultsFile)
	v.SetDefault("notify.email.enabled", d.Notify.Email.Enabled)
	v.SetDefault("notify.email.host", d.Notify.Email.Host)
	v.SetDefault("notify.email.port", d.Notify.Email.Port)
	v.SetDefault("notify.email.username", d.Notify.Email.Username)
	v.SetDefault("notify.email.password", d.Notify.Email.Password)
	v.SetDefault("notify.email.from", d.Notify.Email.From)
	v.SetDefault("notify.email.recipients", d.Notify.Email.Recipients)
	v.SetDefault("notify.cloudevents.target", d.Notify.CloudEvents.Target)
	v.SetDefault("notify.cloudevents.source", d.Notify.CloudEvents.Source)
	v.SetDefault("notify.cloudevents.retries", d.Notify.CloudEvents.Retries)
	v.SetDefault("notify.archive.enabled", d.Notify.Archive.Enabled)
	v.SetDefault("notify.archive.endpoint", d.Notify.Archive.Endpoint)
	v.SetDefault("notify.archive.access_key", d.Notify.Archive.AccessKey)
	v.SetDefault("notify.archive.secret_key", d.Notify.Archive.SecretKey)
	v.SetDefault("notify.archive.region", d.Notify.Archive.Region)
	v.SetDefault("notify.archive.bucket", d.Notify.Archive.Bucket)
	v.SetDefault("notify.archive.prefix", d.Notify.Archive.Prefix)
	v.SetDefault("notify.archive.use_ssl", d.Notify.Archive.UseSSL)

	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("history.list_limit", d.History.ListLimit)

	v.SetDefault("logs.dir", d.Logs.Dir)
	v.SetDefault("logs.tail_lines", d.Logs.TailLines)

	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)

	v.SetDefault("flags", d.Flags)
}

// initLogging enables the debug log when --debug or PROMOTER_DEBUG is set.
func initLogging() error {
	if !debug && os.Getenv("PROMOTER_DEBUG") == "" {
		return nil
	}
	path := os.Getenv("PROMOTER_LOG")
	if path == "" {
		path = "debug.log"
	}
	cleanup, err := log.Init(path)
	if err != nil {
		return fmt.Errorf("opening debug log: %w", err)
	}
	logCleanup = cleanup
	if lvl := os.Getenv("PROMOTER_LOG_LEVEL"); lvl != "" {
		log.SetMinLevel(log.ParseLevel(lvl))
	}
	log.Info(log.CatConfig, "Promoter starting", "version", version, "config", cfgPath)
	return nil
}

// stateDir resolves the configured state directory.
func stateDir() string {
	return paths.ResolveStateDir(cfg.StateDir)
}

// ExitError carries a process exit code out of a command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps an Execute error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return 1
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
