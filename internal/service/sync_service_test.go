package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"uvlhub/internal/model"
	"uvlhub/internal/repository"
	"uvlhub/pkg/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fakeQueue struct {
	err   error
	tasks []tasks.DatasetSyncTask
}

func (q *fakeQueue) Enqueue(ctx context.Context, task tasks.DatasetSyncTask) error {
	q.tasks = append(q.tasks, task)
	return q.err
}

type fakeIndexer struct {
	indexed []uint
}

func (i *fakeIndexer) IndexDataset(ctx context.Context, ds *model.DataSet) error {
	i.indexed = append(i.indexed, ds.ID)
	return nil
}

// failingDepositions 在创建存档时失败。
type failingDepositions struct{ DepositionService }

func (failingDepositions) CreateNewDeposition(ds *model.DataSet) (*DepositionCreated, error) {
	return nil, errors.New("fakenodo unavailable")
}

func (e *testEnv) depositions() DepositionService {
	return NewDepositionService(repository.NewDepositionRepository(e.db), e.paths)
}

func TestPublishSynchronizesDataset(t *testing.T) {
	env := newTestEnv(t)
	ds := env.createMoved(t, "a.uvl", "b.uvl")
	indexer := &fakeIndexer{}
	sync := NewSyncService(env.datasets, env.depositions(), nil, indexer)

	res := sync.Publish(context.Background(), ds)
	assert.Equal(t, SyncResult{Message: MsgEverythingWorks}, res)

	synced, err := env.datasets.GetByID(ds.ID)
	require.NoError(t, err)
	require.True(t, synced.IsSynchronized())
	assert.Equal(t, "10.1234/fakenodo-1", *synced.DSMetaData.DatasetDOI)
	require.NotNil(t, synced.DSMetaData.DepositionID)
	assert.Equal(t, uint(1), *synced.DSMetaData.DepositionID)
	assert.Equal(t, []uint{ds.ID}, indexer.indexed)
}

func TestPublishFailsWhenFilesWereNotMoved(t *testing.T) {
	env := newTestEnv(t)
	env.stage(t, "a.uvl", sampleUVL)
	ds, err := env.datasets.CreateFromForm(context.Background(), env.form("a.uvl"), env.user)
	require.NoError(t, err)
	sync := NewSyncService(env.datasets, env.depositions(), nil, nil)

	res := sync.Publish(context.Background(), ds)
	assert.True(t, res.Failed)
	assert.True(t, strings.HasPrefix(res.Message, "it has not been possible upload feature models in Zenodo and update the DOI: "))

	reloaded, err := env.datasets.GetByID(ds.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsSynchronized())
}

func TestPublishDepositionCreateFailureIsNotReported(t *testing.T) {
	env := newTestEnv(t)
	ds := env.createMoved(t, "a.uvl")
	sync := NewSyncService(env.datasets, failingDepositions{}, nil, nil)

	res := sync.Publish(context.Background(), ds)
	assert.Equal(t, SyncResult{Message: MsgEverythingWorks}, res)

	reloaded, err := env.datasets.GetByID(ds.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsSynchronized())
}

func TestPublishNowRetryReusesDeposition(t *testing.T) {
	env := newTestEnv(t)
	env.stage(t, "a.uvl", sampleUVL)
	ds, err := env.datasets.CreateFromForm(context.Background(), env.form("a.uvl"), env.user)
	require.NoError(t, err)
	depositions := env.depositions()
	sync := NewSyncService(env.datasets, depositions, nil, nil)

	// 文件尚未移动到永久目录，上传失败但存档已创建
	require.Error(t, sync.PublishNow(context.Background(), ds.ID))
	all, err := depositions.GetAllDepositions()
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, env.datasets.MoveFeatureModels(context.Background(), ds))
	require.NoError(t, sync.PublishNow(context.Background(), ds.ID))

	all, err = depositions.GetAllDepositions()
	require.NoError(t, err)
	assert.Len(t, all, 1)
	synced, err := env.datasets.GetByID(ds.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.1234/fakenodo-1", *synced.DSMetaData.DatasetDOI)
}

func TestPublishEnqueuesWhenQueueConfigured(t *testing.T) {
	env := newTestEnv(t)
	ds := env.createMoved(t, "a.uvl")
	queue := &fakeQueue{}
	sync := NewSyncService(env.datasets, env.depositions(), queue, nil)

	res := sync.Publish(context.Background(), ds)
	assert.True(t, res.Queued)
	assert.Equal(t, []tasks.DatasetSyncTask{{DatasetID: ds.ID, UserID: env.user.ID}}, queue.tasks)

	reloaded, err := env.datasets.GetByID(ds.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsSynchronized())

	require.NoError(t, sync.PublishNow(context.Background(), ds.ID))
	reloaded, err = env.datasets.GetByID(ds.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsSynchronized())

	// 已同步的数据集再次处理时跳过
	require.NoError(t, sync.PublishNow(context.Background(), ds.ID))
}

func TestPublishFallsBackWhenEnqueueFails(t *testing.T) {
	env := newTestEnv(t)
	ds := env.createMoved(t, "a.uvl")
	sync := NewSyncService(env.datasets, env.depositions(), &fakeQueue{err: errors.New("broker down")}, nil)

	res := sync.Publish(context.Background(), ds)
	assert.False(t, res.Queued)
	assert.False(t, res.Failed)

	reloaded, err := env.datasets.GetByID(ds.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsSynchronized())
}

func TestBuildDepositionMetadata(t *testing.T) {
	ds := &model.DataSet{DSMetaData: model.DSMetaData{
		Title:           "T",
		PublicationType: model.PublicationNone,
		Tags:            "cars, embedded",
		Authors:         []model.Author{{Name: "Doe, John", Affiliation: "Some University"}},
	}}
	md := BuildDepositionMetadata(ds)
	assert.Equal(t, "dataset", md.UploadType)
	assert.Nil(t, md.PublicationType)
	assert.Equal(t, []string{"cars", "embedded", "uvlhub"}, md.Keywords)
	assert.Equal(t, []Creator{{Name: "Doe, John", Affiliation: "Some University"}}, md.Creators)
	assert.Equal(t, "open", md.AccessRight)
	assert.Equal(t, "CC-BY-4.0", md.License)

	ds.DSMetaData.PublicationType = model.PublicationJournalArticle
	ds.DSMetaData.Tags = ""
	md = BuildDepositionMetadata(ds)
	assert.Equal(t, "publication", md.UploadType)
	require.NotNil(t, md.PublicationType)
	assert.Equal(t, "article", *md.PublicationType)
	assert.Equal(t, []string{"uvlhub"}, md.Keywords)
}

func TestDepositionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	deps := env.depositions()

	_, err := deps.GetDeposition(99)
	assert.ErrorIs(t, err, ErrDepositionNotFound)

	created, err := deps.CreateNewDeposition(&model.DataSet{DSMetaData: model.DSMetaData{Title: "T"}})
	require.NoError(t, err)
	doi, err := deps.GetDOI(created.ID)
	require.NoError(t, err)
	assert.Empty(t, doi)

	require.NoError(t, deps.PublishDeposition(created.ID))
	view, err := deps.GetDeposition(created.ID)
	require.NoError(t, err)
	assert.True(t, view.Published)
	assert.Equal(t, "10.1234/fakenodo-1", *view.DOI)

	all, err := deps.GetAllDepositions()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.IsType(t, datatypes.JSON{}, all[0])
	assert.Contains(t, string(all[0]), `"title":"T"`)
}
