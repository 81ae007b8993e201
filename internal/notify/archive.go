package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/zjrosen/promoter/internal/promotion"
)

// ArchiveConfig configures the object-store archive.
type ArchiveConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// Validate reports missing connection settings.
func (c ArchiveConfig) Validate() error {
	if c.Endpoint == "" {
		return errors.New("archive endpoint is required")
	}
	if c.Bucket == "" {
		return errors.New("archive bucket is required")
	}
	return nil
}

// objectStore is the part of *minio.Client the archive uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type upload struct {
	name, contentType string
	data              []byte
}

// Archive uploads report.json, results.json, report.md and the run log
// under <prefix>/<run-id>/.
type Archive struct {
	store  objectStore
	cfg    ArchiveConfig
	runLog string
}

// NewArchive connects to the configured S3-compatible endpoint. runLog is the
// path of the run-level log file; it is skipped when empty or missing.
func NewArchive(cfg ArchiveConfig, runLog string) (*Archive, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating object store client: %w", err)
	}
	return newArchive(client, cfg, runLog), nil
}

func newArchive(store objectStore, cfg ArchiveConfig, runLog string) *Archive {
	return &Archive{store: store, cfg: cfg, runLog: runLog}
}

// ObjectKey returns the key of name for runID.
func (a *Archive) ObjectKey(runID, name string) string {
	return path.Join(a.cfg.Prefix, runID, name)
}

// Notify implements promotion.Notifier.
func (a *Archive) Notify(ctx context.Context, report promotion.RunReport) error {
	if err := a.ensureBucket(ctx); err != nil {
		return err
	}

	s := Summarize(report)
	summary, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	rows, err := json.MarshalIndent(s.Results, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}

	uploads := []upload{
		{"report.json", "application/json", summary},
		{"results.json", "application/json", rows},
		{"report.md", "text/markdown", []byte(Markdown(report))},
	}
	if a.runLog != "" {
		data, err := os.ReadFile(a.runLog)
		switch {
		case err == nil:
			uploads = append(uploads, upload{"run.log", "text/plain", data})
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("reading run log: %w", err)
		}
	}

	for _, u := range uploads {
		key := a.ObjectKey(s.RunID, u.name)
		_, err := a.store.PutObject(ctx, a.cfg.Bucket, key, bytes.NewReader(u.data), int64(len(u.data)),
			minio.PutObjectOptions{ContentType: u.contentType})
		if err != nil {
			return fmt.Errorf("uploading %s: %w", key, err)
		}
	}
	return nil
}

func (a *Archive) ensureBucket(ctx context.Context) error {
	exists, err := a.store.BucketExists(ctx, a.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", a.cfg.Bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.store.MakeBucket(ctx, a.cfg.Bucket, minio.MakeBucketOptions{Region: a.cfg.Region}); err != nil {
		return fmt.Errorf("creating bucket %s: %w", a.cfg.Bucket, err)
	}
	return nil
}
