package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zjrosen/promoter/internal/log"
)

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Promoter Configuration

# Directory for run history, per-run logs and approval files
# (default: ./.promoter)
# state_dir: /var/lib/promoter

# Target registry
registry:
  host: ""              # e.g. registry.example.com/team
  # username: ci         # or PROMOTER_REGISTRY_USERNAME
  # password: ""         # or PROMOTER_REGISTRY_PASSWORD
  driver: remote        # remote (registry API) or docker (docker CLI)
  insecure: false       # allow plain HTTP registries
  cache_ttl: 10m        # descriptor cache lifetime (remote driver)
  # docker_binary: docker
  # docker_config: ~/.docker

# Canonical artifact list; "all" on the command line expands to it
artifacts:
  - appmw
  - cardui
  - gateway
  - batchsvc

# Defaults for 'promoter run'
promotion:
  mode: latest-to-stable  # latest-to-stable, tag-to-latest or custom
  # source_tag: ""        # tag-to-latest and custom
  # dest_tag: ""          # custom only
  concurrency: 3
  retries: 3              # attempts per pull/push
  retry_delay: 5s

# Human approval before real (non dry-run) promotions
approval:
  channel: terminal       # terminal or file
  # dir: ./.promoter/approvals  # file channel: <run-id>.request.yaml / <run-id>.decision.yaml
  approvers: []
  timeout: 30m

# Report delivery
notify:
  terminal: true
  # results_file: results.json
  email:
    enabled: false
    # host: smtp.example.com
    # port: 25
    # from: promoter@example.com
    # recipients: [release@example.com]
  cloudevents:            # requires flags.cloudevents: true
    # target: http://broker.example.com/default
    source: /promoter
    retries: 3
  archive:
    enabled: false
    # endpoint: minio.example.com:9000
    # access_key: ""
    # secret_key: ""
    # bucket: promotions
    prefix: promotions
    use_ssl: true

history:
  # path: ./.promoter/history.db
  list_limit: 20

logs:
  # dir: ./.promoter/logs
  tail_lines: 200

# Distributed tracing
# tracing:
#   enabled: false
#   exporter: file                 # none, file, stdout, otlp
#   file_path: ./.promoter/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0

flags:
  run-history: true
  descriptor-cache: true
  cloudevents: false
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
