package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"uvlhub/internal/model"
	"uvlhub/internal/service"
	"uvlhub/pkg/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSync struct {
	err       error
	published []uint
}

func (f *fakeSync) Publish(ctx context.Context, ds *model.DataSet) service.SyncResult {
	return service.SyncResult{}
}

func (f *fakeSync) PublishNow(ctx context.Context, datasetID uint) error {
	f.published = append(f.published, datasetID)
	return f.err
}

func stagedFile(t *testing.T, staging service.StagingService, userID uint) string {
	t.Helper()
	dir := staging.TempFolder(userID)
	require.NoError(t, os.MkdirAll(dir, os.ModePerm))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.uvl"), []byte("features\n"), 0o644))
	return dir
}

func TestProcessClearsTempOnSuccess(t *testing.T) {
	staging := service.NewStagingService(service.Paths{UploadsDir: t.TempDir()}, time.Second)
	dir := stagedFile(t, staging, 3)
	sync := &fakeSync{}

	err := NewProcessor(sync, staging).Process(context.Background(), tasks.DatasetSyncTask{DatasetID: 7, UserID: 3})
	require.NoError(t, err)
	assert.Equal(t, []uint{7}, sync.published)
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestProcessKeepsTempOnFailure(t *testing.T) {
	staging := service.NewStagingService(service.Paths{UploadsDir: t.TempDir()}, time.Second)
	dir := stagedFile(t, staging, 3)
	boom := errors.New("boom")

	err := NewProcessor(&fakeSync{err: boom}, staging).Process(context.Background(), tasks.DatasetSyncTask{DatasetID: 7, UserID: 3})
	assert.ErrorIs(t, err, boom)
	_, err = os.Stat(dir)
	assert.NoError(t, err)
}
