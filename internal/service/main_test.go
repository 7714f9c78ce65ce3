package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"uvlhub/internal/model"
	"uvlhub/internal/repository"
	"uvlhub/pkg/database"
	"uvlhub/pkg/log"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const sampleUVL = "features\n\tRoot\n\t\toptional\n\t\t\tA\n\t\t\tB\n"

type testEnv struct {
	db       *gorm.DB
	paths    Paths
	datasets DatasetService
	user     *model.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log.Init("error", "console", "")
	dir := t.TempDir()
	db, err := database.Open("sqlite", filepath.Join(dir, "uvlhub_test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	user := &model.User{Email: "user1@example.com", Password: "x"}
	profile := &model.UserProfile{Name: "John", Surname: "Doe", Affiliation: "Some University"}
	require.NoError(t, repository.NewUserRepository(db).CreateWithProfile(user, profile))
	user.Profile = profile

	paths := Paths{UploadsDir: filepath.Join(dir, "uploads")}
	return &testEnv{
		db:       db,
		paths:    paths,
		datasets: NewDatasetService(repository.NewDatasetRepository(db), repository.NewRecordRepository(db), paths, "localhost", nil),
		user:     user,
	}
}

// stage 把文件写入用户的暂存目录。
func (e *testEnv) stage(t *testing.T, name, content string) {
	t.Helper()
	dir := e.paths.TempFolder(e.user.ID)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func (e *testEnv) form(files ...string) model.DatasetForm {
	form := model.DatasetForm{
		Title:       "Sample dataset",
		Description: "Description",
		Tags:        "tag1, tag2",
		Authors:     []model.AuthorInput{{Name: "Coauthor"}},
	}
	for _, f := range files {
		form.FeatureModels = append(form.FeatureModels, model.FeatureModelInput{UVLFilename: f, Title: f})
	}
	return form
}

// createMoved 创建数据集并把文件移动到永久目录。
func (e *testEnv) createMoved(t *testing.T, files ...string) *model.DataSet {
	t.Helper()
	for _, f := range files {
		e.stage(t, f, sampleUVL)
	}
	ds, err := e.datasets.CreateFromForm(context.Background(), e.form(files...), e.user)
	require.NoError(t, err)
	require.NoError(t, e.datasets.MoveFeatureModels(context.Background(), ds))
	return ds
}
