package repository

import (
	"testing"
	"time"

	"uvlhub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewRecordExistsMatchesAnonymousUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecordRepository(db)
	require.NoError(t, repo.CreateViewRecord(&model.DSViewRecord{DatasetID: 1, ViewDate: time.Now(), ViewCookie: "abc"}))

	exists, err := repo.ViewRecordExists(nil, 1, "abc")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ViewRecordExists(uintPtr(3), 1, "abc")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.ViewRecordExists(nil, 1, "other")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDownloadRecordForAllDatasets(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecordRepository(db)
	require.NoError(t, repo.CreateDownloadRecord(&model.DSDownloadRecord{UserID: uintPtr(2), DownloadDate: time.Now(), DownloadCookie: "c"}))
	require.NoError(t, repo.CreateDownloadRecord(&model.DSDownloadRecord{DatasetID: uintPtr(5), DownloadDate: time.Now(), DownloadCookie: "c"}))

	exists, err := repo.DownloadRecordExists(uintPtr(2), nil, "c")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.DownloadRecordExists(uintPtr(2), uintPtr(5), "c")
	require.NoError(t, err)
	assert.False(t, exists)

	total, err := repo.TotalDownloads()
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	n, err := repo.CountDownloadsByDataset(5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
