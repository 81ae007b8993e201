package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/promoter/internal/promotion"
	"github.com/zjrosen/promoter/internal/testutil"
)

type fakeStore struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{buckets: map[string]bool{}, objects: map[string][]byte{}}
}

func (s *fakeStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buckets[bucket], nil
}

func (s *fakeStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets[bucket] = true
	return nil
}

func (s *fakeStore) PutObject(_ context.Context, bucket, object string, r io.Reader, _ int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	if s.putErr != nil {
		return minio.UploadInfo{}, s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+object] = data
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: int64(len(data))}, nil
}

func archiveReport() promotion.RunReport {
	return testutil.Report("run-5",
		testutil.Status(promotion.RunPartialFailure),
		testutil.Artifact("appmw", promotion.TaskSuccess, 3),
		testutil.Artifact("cardui", promotion.TaskFailed, 1),
	)
}

func TestArchive_UploadsReport(t *testing.T) {
	runLog := filepath.Join(t.TempDir(), "run.log")
	require.NoError(t, os.WriteFile(runLog, []byte("2025-12-06T10:45:00 [INFO] [run] started\n"), 0o600))
	store := newFakeStore()

	a := newArchive(store, ArchiveConfig{Bucket: "promotions", Prefix: "reports"}, runLog)
	require.NoError(t, a.Notify(context.Background(), archiveReport()))

	require.True(t, store.buckets["promotions"])
	require.Contains(t, store.objects, "promotions/reports/run-5/report.json")
	require.Contains(t, store.objects, "promotions/reports/run-5/results.json")
	require.Contains(t, store.objects, "promotions/reports/run-5/report.md")
	require.Contains(t, string(store.objects["promotions/reports/run-5/run.log"]), "started")

	var rows []ResultRow
	require.NoError(t, json.Unmarshal(store.objects["promotions/reports/run-5/results.json"], &rows))
	require.Len(t, rows, 2)
}

func TestArchive_SkipsMissingLog(t *testing.T) {
	store := newFakeStore()
	store.buckets["promotions"] = true

	a := newArchive(store, ArchiveConfig{Bucket: "promotions"}, filepath.Join(t.TempDir(), "missing.log"))
	require.NoError(t, a.Notify(context.Background(), archiveReport()))

	require.Len(t, store.objects, 3)
	require.Contains(t, store.objects, "promotions/run-5/report.json")
}

func TestArchive_PutError(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("access denied")

	err := newArchive(store, ArchiveConfig{Bucket: "promotions"}, "").Notify(context.Background(), archiveReport())

	require.ErrorContains(t, err, "access denied")
}

func TestArchiveConfig_Validate(t *testing.T) {
	require.Error(t, ArchiveConfig{Bucket: "b"}.Validate())
	require.Error(t, ArchiveConfig{Endpoint: "localhost:9000"}.Validate())
	require.NoError(t, ArchiveConfig{Endpoint: "localhost:9000", Bucket: "b"}.Validate())

	_, err := NewArchive(ArchiveConfig{}, "")
	require.Error(t, err)
}
