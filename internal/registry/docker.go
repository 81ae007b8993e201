package registry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/zjrosen/promoter/internal/log"
	"github.com/zjrosen/promoter/internal/promotion"
)

// DefaultDockerBinary is the CLI invoked when DockerConfig.Binary is empty.
const DefaultDockerBinary = "docker"

// DockerConfig configures a DockerClient.
type DockerConfig struct {
	Registry string
	Binary   string
	// ConfigDir is passed as --config so runs do not share a credential store.
	ConfigDir string
}

// DockerClient implements promotion.RegistryClient by running the docker CLI.
type DockerClient struct {
	cfg DockerConfig
}

var _ promotion.RegistryClient = (*DockerClient)(nil)

// NewDockerClient creates a DockerClient.
func NewDockerClient(cfg DockerConfig) *DockerClient {
	if cfg.Binary == "" {
		cfg.Binary = DefaultDockerBinary
	}
	return &DockerClient{cfg: cfg}
}

// Login runs docker login with the password on stdin.
func (d *DockerClient) Login(ctx context.Context, creds promotion.Credentials) error {
	if creds.Username == "" {
		log.Debug(log.CatRegistry, "No username, using existing docker credentials", "registry", d.cfg.Registry)
		return nil
	}
	host, _, _ := strings.Cut(d.cfg.Registry, "/")
	_, err := d.run(ctx, "login", strings.NewReader(creds.Password),
		"login", host, "--username", creds.Username, "--password-stdin")
	return err
}

// Pull runs docker pull registry/artifact:tag.
func (d *DockerClient) Pull(ctx context.Context, artifact, tag string) error {
	_, err := d.run(ctx, "pull", nil, "pull", d.ref(artifact, tag))
	return err
}

// Tag runs docker tag src dst.
func (d *DockerClient) Tag(ctx context.Context, artifact, srcTag, dstTag string) error {
	_, err := d.run(ctx, "tag", nil, "tag", d.ref(artifact, srcTag), d.ref(artifact, dstTag))
	return err
}

// Push runs docker push registry/artifact:tag.
func (d *DockerClient) Push(ctx context.Context, artifact, tag string) error {
	_, err := d.run(ctx, "push", nil, "push", d.ref(artifact, tag))
	return err
}

// Logout runs docker logout for the registry host.
func (d *DockerClient) Logout(ctx context.Context) error {
	host, _, _ := strings.Cut(d.cfg.Registry, "/")
	_, err := d.run(ctx, "logout", nil, "logout", host)
	return err
}

func (d *DockerClient) ref(artifact, tag string) string {
	return fmt.Sprintf("%s/%s:%s", d.cfg.Registry, artifact, tag)
}

// run executes the CLI and classifies failures from stderr.
func (d *DockerClient) run(ctx context.Context, op string, stdin io.Reader, args ...string) (string, error) {
	if d.cfg.ConfigDir != "" {
		args = append([]string{"--config", d.cfg.ConfigDir}, args...)
	}

	//nolint:gosec // G204: binary comes from config, args are validated refs
	cmd := exec.CommandContext(ctx, d.cfg.Binary, args...)
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		msg := strings.TrimSpace(stderr.String())
		log.Debug(log.CatRegistry, "docker command failed", "op", op, "stderr", msg)
		return "", ClassifyDocker(op, msg, err)
	}
	return strings.TrimSpace(stdout.String()), nil
}
