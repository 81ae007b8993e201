package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/remote/transport"

	"github.com/zjrosen/promoter/internal/cachemanager"
	"github.com/zjrosen/promoter/internal/log"
	"github.com/zjrosen/promoter/internal/promotion"
)

// ErrNotStaged is returned by Push when Tag was not called for the same
// artifact and destination first.
var ErrNotStaged = errors.New("destination tag was not staged")

// RemoteConfig configures a RemoteClient.
type RemoteConfig struct {
	Registry  string        // host[:port][/namespace]
	Insecure  bool          // plain HTTP
	CacheTTL  time.Duration // descriptor cache lifetime
	SkipCache bool          // always fetch descriptors
	Keychain  authn.Keychain
	Transport http.RoundTripper
}

// RemoteClient talks to the registry over the distribution API. Pull fetches
// the source manifest descriptor, Tag stages it for the destination, and Push
// writes the destination tag. No layers are downloaded.
type RemoteClient struct {
	cfg         RemoteConfig
	descriptors *cachemanager.ReadThroughCache[string, *remote.Descriptor, name.Reference]
	cache       *cachemanager.InMemoryCacheManager[string, *remote.Descriptor]

	mu     sync.Mutex
	auth   authn.Authenticator
	staged map[string]*remote.Descriptor
}

var _ promotion.RegistryClient = (*RemoteClient)(nil)

// NewRemoteClient creates a client for cfg.Registry.
func NewRemoteClient(cfg RemoteConfig) *RemoteClient {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = cachemanager.DefaultExpiration
	}
	if cfg.Keychain == nil {
		cfg.Keychain = authn.DefaultKeychain
	}
	if cfg.Transport == nil {
		cfg.Transport = remote.DefaultTransport
	}

	c := &RemoteClient{
		cfg:    cfg,
		cache:  cachemanager.NewInMemoryCacheManager[string, *remote.Descriptor]("descriptors", cfg.CacheTTL, cachemanager.DefaultCleanupInterval),
		staged: make(map[string]*remote.Descriptor),
	}
	c.descriptors = cachemanager.NewReadThroughCache[string, *remote.Descriptor, name.Reference](c.cache, c.fetch, cfg.SkipCache)
	return c
}

// Login authenticates against the registry. Empty credentials fall back to the
// configured keychain (docker config, credential helpers).
func (c *RemoteClient) Login(ctx context.Context, creds promotion.Credentials) error {
	reg, err := name.NewRegistry(c.registryHost(), c.nameOptions()...)
	if err != nil {
		return promotion.Permanent("login", err)
	}

	var auth authn.Authenticator
	if creds.Username != "" {
		auth = authn.FromConfig(authn.AuthConfig{Username: creds.Username, Password: creds.Password})
	} else {
		auth, err = c.cfg.Keychain.Resolve(reg)
		if err != nil {
			return promotion.Permanent("login", fmt.Errorf("resolve keychain: %w", err))
		}
	}

	// Ping and token exchange; fails fast on bad credentials.
	if _, err := transport.NewWithContext(ctx, reg, auth, c.cfg.Transport, []string{}); err != nil {
		return ClassifyRemote("login", err)
	}

	c.mu.Lock()
	c.auth = auth
	c.mu.Unlock()

	log.Info(log.CatRegistry, "Logged in", "registry", c.cfg.Registry, "user", creds.Username)
	return nil
}

// Pull verifies the source tag exists and caches its descriptor.
func (c *RemoteClient) Pull(ctx context.Context, artifact, tag string) error {
	ref, err := c.tagRef(artifact, tag)
	if err != nil {
		return promotion.Permanent("pull", err)
	}
	desc, err := c.descriptors.Reload(ctx, ref.String(), ref, 0)
	if err != nil {
		return ClassifyRemote("pull", err)
	}
	log.Debug(log.CatRegistry, "Pulled descriptor", "ref", ref.String(), "digest", desc.Digest.String())
	return nil
}

// Tag stages the source descriptor under the destination tag.
func (c *RemoteClient) Tag(ctx context.Context, artifact, srcTag, dstTag string) error {
	src, err := c.tagRef(artifact, srcTag)
	if err != nil {
		return promotion.Permanent("tag", err)
	}
	dst, err := c.tagRef(artifact, dstTag)
	if err != nil {
		return promotion.Permanent("tag", err)
	}

	desc, err := c.descriptors.Get(ctx, src.String(), src, c.cfg.CacheTTL)
	if err != nil {
		return ClassifyRemote("tag", err)
	}

	c.mu.Lock()
	c.staged[dst.String()] = desc
	c.mu.Unlock()

	log.Debug(log.CatRegistry, "Staged tag", "src", src.String(), "dst", dst.String(), "digest", desc.Digest.String())
	return nil
}

// Push writes the staged descriptor to the destination tag.
func (c *RemoteClient) Push(ctx context.Context, artifact, tag string) error {
	dst, err := c.tagRef(artifact, tag)
	if err != nil {
		return promotion.Permanent("push", err)
	}

	c.mu.Lock()
	desc, ok := c.staged[dst.String()]
	c.mu.Unlock()
	if !ok {
		return promotion.Permanent("push", fmt.Errorf("%w: %s", ErrNotStaged, dst))
	}

	if err := remote.Tag(dst, desc, c.remoteOptions(ctx)...); err != nil {
		return ClassifyRemote("push", err)
	}

	c.mu.Lock()
	delete(c.staged, dst.String())
	c.mu.Unlock()

	log.Info(log.CatRegistry, "Pushed tag", "ref", dst.String(), "digest", desc.Digest.String())
	return nil
}

// Logout drops credentials, staged tags and cached descriptors.
func (c *RemoteClient) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.auth = nil
	c.staged = make(map[string]*remote.Descriptor)
	c.mu.Unlock()
	return c.cache.Flush(ctx)
}

// CacheStats reports descriptor cache usage.
func (c *RemoteClient) CacheStats() cachemanager.Stats {
	return c.cache.Stats()
}

// Digest returns the digest the registry currently serves for artifact:tag.
func (c *RemoteClient) Digest(ctx context.Context, artifact, tag string) (string, error) {
	ref, err := c.tagRef(artifact, tag)
	if err != nil {
		return "", err
	}
	d, err := remote.Head(ref, c.remoteOptions(ctx)...)
	if err != nil {
		return "", ClassifyRemote("head", err)
	}
	return d.Digest.String(), nil
}

func (c *RemoteClient) fetch(ctx context.Context, ref name.Reference) (*remote.Descriptor, error) {
	return remote.Get(ref, c.remoteOptions(ctx)...)
}

func (c *RemoteClient) tagRef(artifact, tag string) (name.Tag, error) {
	return name.NewTag(fmt.Sprintf("%s/%s:%s", c.cfg.Registry, artifact, tag), c.nameOptions()...)
}

func (c *RemoteClient) registryHost() string {
	host, _, _ := strings.Cut(c.cfg.Registry, "/")
	return host
}

func (c *RemoteClient) nameOptions() []name.Option {
	opts := []name.Option{name.StrictValidation}
	if c.cfg.Insecure {
		opts = append(opts, name.Insecure)
	}
	return opts
}

func (c *RemoteClient) remoteOptions(ctx context.Context) []remote.Option {
	opts := []remote.Option{
		remote.WithContext(ctx),
		remote.WithTransport(c.cfg.Transport),
	}

	c.mu.Lock()
	auth := c.auth
	c.mu.Unlock()
	if auth != nil {
		opts = append(opts, remote.WithAuth(auth))
	} else {
		opts = append(opts, remote.WithAuthFromKeychain(c.cfg.Keychain))
	}
	return opts
}
