package registry

import (
	"context"
	"errors"
	"io"
	stdlog "log"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/registry"
	"github.com/google/go-containerregistry/pkg/v1/random"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/promoter/internal/promotion"
)

// newTestRegistry starts an in-process registry and returns its host:port.
func newTestRegistry(t *testing.T) string {
	t.Helper()
	s := httptest.NewServer(registry.New(registry.Logger(stdlog.New(io.Discard, "", 0))))
	t.Cleanup(s.Close)
	u, err := url.Parse(s.URL)
	require.NoError(t, err)
	return u.Host
}

// seedImage pushes a random image to host/artifact:tag and returns its digest.
func seedImage(t *testing.T, host, artifact, tag string) string {
	t.Helper()
	img, err := random.Image(1024, 1)
	require.NoError(t, err)
	ref, err := name.NewTag(host + "/" + artifact + ":" + tag)
	require.NoError(t, err)
	require.NoError(t, remote.Write(ref, img))
	d, err := img.Digest()
	require.NoError(t, err)
	return d.String()
}

func newTestRemoteClient(host string) *RemoteClient {
	return NewRemoteClient(RemoteConfig{
		Registry: host + "/team",
		Keychain: authn.NewMultiKeychain(),
	})
}

func TestRemoteClient_PromotesTag(t *testing.T) {
	host := newTestRegistry(t)
	want := seedImage(t, host, "team/appmw", "latest")
	c := newTestRemoteClient(host)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, promotion.Credentials{Username: "ci", Password: "secret"}))
	require.NoError(t, c.Pull(ctx, "appmw", "latest"))
	require.NoError(t, c.Tag(ctx, "appmw", "latest", "stable"))
	require.NoError(t, c.Push(ctx, "appmw", "stable"))

	got, err := c.Digest(ctx, "appmw", "stable")
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestRemoteClient_TagUsesCachedDescriptor(t *testing.T) {
	host := newTestRegistry(t)
	seedImage(t, host, "team/cardui", "latest")
	c := newTestRemoteClient(host)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, promotion.Credentials{}))
	require.NoError(t, c.Pull(ctx, "cardui", "latest"))
	require.NoError(t, c.Tag(ctx, "cardui", "latest", "stable"))

	require.Equal(t, int64(1), c.CacheStats().Hits)
}

func TestRemoteClient_PullMissingTagIsPermanent(t *testing.T) {
	host := newTestRegistry(t)
	seedImage(t, host, "team/gateway", "latest")
	c := newTestRemoteClient(host)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, promotion.Credentials{}))
	err := c.Pull(ctx, "gateway", "v9.9.9")
	require.Error(t, err)
	require.Equal(t, promotion.ClassPermanent, promotion.ClassOf(err))
}

func TestRemoteClient_PushWithoutTagIsPermanent(t *testing.T) {
	host := newTestRegistry(t)
	c := newTestRemoteClient(host)

	err := c.Push(context.Background(), "batchsvc", "stable")
	require.ErrorIs(t, err, ErrNotStaged)
	require.Equal(t, promotion.ClassPermanent, promotion.ClassOf(err))
}

func TestRemoteClient_InvalidTagIsPermanent(t *testing.T) {
	c := newTestRemoteClient("registry.example.com")

	err := c.Tag(context.Background(), "appmw", "latest", "bad tag!")
	require.Error(t, err)
	require.Equal(t, promotion.ClassPermanent, promotion.ClassOf(err))
}

func TestRemoteClient_LogoutDropsStagedTags(t *testing.T) {
	host := newTestRegistry(t)
	seedImage(t, host, "team/appmw", "latest")
	c := newTestRemoteClient(host)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, promotion.Credentials{}))
	require.NoError(t, c.Pull(ctx, "appmw", "latest"))
	require.NoError(t, c.Tag(ctx, "appmw", "latest", "stable"))
	require.NoError(t, c.Logout(ctx))

	err := c.Push(ctx, "appmw", "stable")
	require.True(t, errors.Is(err, ErrNotStaged))
}

func TestNew_SelectsDriver(t *testing.T) {
	c, err := New("registry.example.com", Config{}, nil)
	require.NoError(t, err)
	require.IsType(t, &RemoteClient{}, c)

	c, err = New("registry.example.com", Config{Driver: DriverDocker}, nil)
	require.NoError(t, err)
	require.IsType(t, &DockerClient{}, c)

	_, err = New("registry.example.com", Config{Driver: "podman"}, nil)
	require.ErrorContains(t, err, "unknown registry driver")
}
