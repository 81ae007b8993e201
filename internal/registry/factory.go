package registry

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/promoter/internal/promotion"
)

// Driver names accepted by New.
const (
	DriverRemote = "remote"
	DriverDocker = "docker"
)

// Config selects and configures a client.
type Config struct {
	Driver       string        `mapstructure:"driver"`
	Insecure     bool          `mapstructure:"insecure"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	SkipCache    bool          `mapstructure:"skip_cache"`
	DockerBinary string        `mapstructure:"docker_binary"`
	DockerConfig string        `mapstructure:"docker_config"`
}

// New builds the client for host. A non-nil tracer wraps it in spans.
func New(host string, cfg Config, tracer trace.Tracer) (promotion.RegistryClient, error) {
	var client promotion.RegistryClient
	switch cfg.Driver {
	case "", DriverRemote:
		client = NewRemoteClient(RemoteConfig{
			Registry:  host,
			Insecure:  cfg.Insecure,
			CacheTTL:  cfg.CacheTTL,
			SkipCache: cfg.SkipCache,
		})
	case DriverDocker:
		client = NewDockerClient(DockerConfig{
			Registry:  host,
			Binary:    cfg.DockerBinary,
			ConfigDir: cfg.DockerConfig,
		})
	default:
		return nil, fmt.Errorf("unknown registry driver %q (want %s or %s)", cfg.Driver, DriverRemote, DriverDocker)
	}
	return NewTraced(client, tracer, host), nil
}
