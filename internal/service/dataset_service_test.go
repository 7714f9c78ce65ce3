package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"uvlhub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFromForm(t *testing.T) {
	env := newTestEnv(t)
	env.stage(t, "a.uvl", sampleUVL)
	env.stage(t, "b.uvl", sampleUVL)

	ds, err := env.datasets.CreateFromForm(context.Background(), env.form("a.uvl", "b.uvl"), env.user)
	require.NoError(t, err)

	assert.False(t, ds.IsSynchronized())
	require.Len(t, ds.DSMetaData.Authors, 2)
	assert.Equal(t, "Doe, John", ds.DSMetaData.Authors[0].Name)
	assert.Equal(t, "Coauthor", ds.DSMetaData.Authors[1].Name)
	assert.Equal(t, model.PublicationNone, ds.DSMetaData.PublicationType)
	require.NotNil(t, ds.DSMetaData.DSMetrics)
	assert.Equal(t, 2, ds.DSMetaData.DSMetrics.NumberOfModels)
	assert.Equal(t, 6, ds.DSMetaData.DSMetrics.NumberOfFeatures)
	require.Len(t, ds.Files(), 2)
	assert.Equal(t, int64(2*len(sampleUVL)), ds.TotalSize())
	assert.Len(t, ds.Files()[0].Checksum, 32)
}

func TestCreateFromFormRollsBackOnMissingFile(t *testing.T) {
	env := newTestEnv(t)
	env.stage(t, "a.uvl", sampleUVL)

	_, err := env.datasets.CreateFromForm(context.Background(), env.form("a.uvl", "missing.uvl"), env.user)
	require.Error(t, err)

	var n int64
	require.NoError(t, env.db.Model(&model.DSMetaData{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, env.db.Model(&model.DataSet{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, env.db.Model(&model.Hubfile{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreateFromFormRejectsUnknownPublicationType(t *testing.T) {
	env := newTestEnv(t)
	env.stage(t, "a.uvl", sampleUVL)
	form := env.form("a.uvl")
	form.PublicationType = "poem"

	_, err := env.datasets.CreateFromForm(context.Background(), form, env.user)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMoveFeatureModels(t *testing.T) {
	env := newTestEnv(t)
	ds := env.createMoved(t, "a.uvl")

	_, err := os.Stat(filepath.Join(env.paths.DatasetFolder(env.user.ID, ds.ID), "a.uvl"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(env.paths.TempFolder(env.user.ID), "a.uvl"))
	assert.True(t, os.IsNotExist(err))
}

func TestGetUnsynchronizedDatasetNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.datasets.GetUnsynchronizedDataset(env.user.ID, 42)
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestStatsAndSummaries(t *testing.T) {
	env := newTestEnv(t)
	ds := env.createMoved(t, "a.uvl")

	st, err := env.datasets.Stats()
	require.NoError(t, err)
	assert.Zero(t, st.DatasetsCounter)
	assert.Equal(t, int64(1), st.FeatureModelsCounter)
	assert.Equal(t, int64(2), st.AuthorsCounter)
	assert.Equal(t, int64(1), st.DSMetaDataCounter)

	summaries := env.datasets.Summaries([]model.DataSet{*ds})
	require.Len(t, summaries, 1)
	assert.Equal(t, "http://localhost/doi/", summaries[0].URL)
	assert.Equal(t, []string{"tag1", "tag2"}, summaries[0].Tags)
}

func TestHumanReadableSize(t *testing.T) {
	cases := map[int64]string{
		0:                      "0 bytes",
		1023:                   "1023 bytes",
		1024:                   "1.0 KB",
		1536:                   "1.5 KB",
		1100:                   "1.07 KB",
		5 * 1024 * 1024:        "5.0 MB",
		3 * 1024 * 1024 * 1024: "3.0 GB",
	}
	for size, want := range cases {
		assert.Equal(t, want, HumanReadableSize(size), "size %d", size)
	}
}
