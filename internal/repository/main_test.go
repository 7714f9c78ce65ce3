package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"uvlhub/internal/model"
	"uvlhub/pkg/database"
	"uvlhub/pkg/log"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	log.Init("error", "console", "")
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "uvlhub_test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, Password: "x"}
	profile := &model.UserProfile{Name: "Name", Surname: "Surname"}
	require.NoError(t, NewUserRepository(db).CreateWithProfile(user, profile))
	return user
}

type datasetFixture struct {
	title           string
	description     string
	doi             string // 为空表示未同步
	tags            string
	publicationType model.PublicationType
	createdAt       time.Time
	features        int
	fileSizes       []int64
	author          string
	fmTitle         string
	userID          uint
	communityID     *uint
}

func createDataset(t *testing.T, db *gorm.DB, f datasetFixture) *model.DataSet {
	t.Helper()
	repo := NewDatasetRepository(db)
	if f.publicationType == "" {
		f.publicationType = model.PublicationNone
	}
	if f.userID == 0 {
		f.userID = 1
	}
	if f.createdAt.IsZero() {
		f.createdAt = time.Now()
	}

	var ds *model.DataSet
	err := repo.Transaction(context.Background(), func(tx DatasetRepository) error {
		metrics := &model.DSMetrics{NumberOfModels: 1, NumberOfFeatures: f.features}
		if err := tx.CreateDSMetrics(metrics); err != nil {
			return err
		}
		meta := &model.DSMetaData{
			Title:           f.title,
			Description:     f.description,
			PublicationType: f.publicationType,
			Tags:            f.tags,
			DSMetricsID:     &metrics.ID,
		}
		if f.doi != "" {
			doi := f.doi
			meta.DatasetDOI = &doi
		}
		if err := tx.CreateDSMetaData(meta); err != nil {
			return err
		}
		if f.author != "" {
			if err := tx.CreateAuthors(model.AuthorOwnerDataset, meta.ID, []model.Author{{Name: f.author}}); err != nil {
				return err
			}
		}
		ds = &model.DataSet{UserID: f.userID, CommunityID: f.communityID, DSMetaDataID: meta.ID, CreatedAt: f.createdAt}
		if err := tx.CreateDataSet(ds); err != nil {
			return err
		}
		fmMeta := &model.FMMetaData{
			UVLFilename:     fmt.Sprintf("model_%d.uvl", ds.ID),
			Title:           f.fmTitle,
			PublicationType: model.PublicationNone,
		}
		if err := tx.CreateFMMetaData(fmMeta); err != nil {
			return err
		}
		fm := &model.FeatureModel{DataSetID: ds.ID, FMMetaDataID: fmMeta.ID}
		if err := tx.CreateFeatureModel(fm); err != nil {
			return err
		}
		for i, size := range f.fileSizes {
			file := &model.Hubfile{Name: fmt.Sprintf("file_%d.uvl", i), Checksum: "c", Size: size, FeatureModelID: fm.ID}
			if err := tx.CreateHubfile(file); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return ds
}

func ids(datasets []model.DataSet) []uint {
	out := make([]uint, 0, len(datasets))
	for _, ds := range datasets {
		out = append(out, ds.ID)
	}
	return out
}

func int64Ptr(v int64) *int64 { return &v }

func intPtr(v int) *int { return &v }

func uintPtr(v uint) *uint { return &v }
