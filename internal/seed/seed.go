// Package seed 向空数据库写入演示数据：用户、社区、存档与已同步的数据集。
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"uvlhub/internal/model"
	"uvlhub/internal/repository"
	"uvlhub/internal/service"
	"uvlhub/pkg/hash"
	"uvlhub/pkg/log"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultPassword = "1234"

var seedUsers = []struct {
	Email, Name, Surname string
}{
	{"user1@example.com", "John", "Doe"},
	{"user2@example.com", "Jane", "Doe"},
	{"user3@example.com", "Alice", "Smith"},
	{"user4@example.com", "Bob", "Johnson"},
}

var seedCommunities = []string{"Data Science Enthusiasts", "AI Researchers", "Python Developers"}

// 每个数据集的 (模型数, 特征数)，与 DSMetrics 保持一致
var seedMetrics = []struct{ Models, Features int }{
	{2, 20}, {1, 20}, {3, 30}, {2, 10}, {2, 40},
}

const datasetCount = 7

// Seeder 持有写入演示数据所需的仓库。
type Seeder struct {
	db          *gorm.DB
	uploadsDir  string
	users       repository.UserRepository
	communities repository.CommunityRepository
	datasets    repository.DatasetRepository
	depositions repository.DepositionRepository
}

// NewSeeder 创建 Seeder，uploadsDir 为数据集文件的根目录。
func NewSeeder(db *gorm.DB, uploadsDir string) *Seeder {
	return &Seeder{
		db:          db,
		uploadsDir:  uploadsDir,
		users:       repository.NewUserRepository(db),
		communities: repository.NewCommunityRepository(db),
		datasets:    repository.NewDatasetRepository(db),
		depositions: repository.NewDepositionRepository(db),
	}
}

// Run 依次写入用户、社区、存档和数据集。已有用户时直接跳过。
func (s *Seeder) Run(ctx context.Context) error {
	n, err := s.users.Count()
	if err != nil {
		return err
	}
	if n > 0 {
		log.Infof("[Seeder] 已存在 %d 个用户，跳过写入演示数据", n)
		return nil
	}

	users, err := s.seedUsers()
	if err != nil {
		return fmt.Errorf("写入用户失败: %w", err)
	}
	communities, err := s.seedCommunities(users)
	if err != nil {
		return fmt.Errorf("写入社区失败: %w", err)
	}
	if err := s.seedDepositions(); err != nil {
		return fmt.Errorf("写入存档失败: %w", err)
	}
	if err := s.seedDatasets(ctx, users, communities); err != nil {
		return fmt.Errorf("写入数据集失败: %w", err)
	}
	log.Infof("[Seeder] 演示数据写入完成: %d 个用户, %d 个社区, %d 个数据集", len(users), len(communities), datasetCount)
	return nil
}

func (s *Seeder) seedUsers() ([]model.User, error) {
	hashed, err := hash.HashPassword(defaultPassword)
	if err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(seedUsers))
	for _, su := range seedUsers {
		user := &model.User{Email: su.Email, Password: hashed}
		profile := &model.UserProfile{Name: su.Name, Surname: su.Surname, Affiliation: "Some University"}
		if err := s.users.CreateWithProfile(user, profile); err != nil {
			return nil, err
		}
		user.Profile = profile
		users = append(users, *user)
	}
	return users, nil
}

// seedCommunities 第一个和第二个社区各有一个所有者，第三个社区有一个成员和两个待处理申请。
func (s *Seeder) seedCommunities(users []model.User) ([]model.Community, error) {
	owners := map[int]int{0: 0, 1: 1}
	members := map[int][]int{0: {2}, 2: {3}}
	requests := map[int][]int{2: {0, 2}}

	var out []model.Community
	for i, name := range seedCommunities {
		c := &model.Community{Name: name, Description: fmt.Sprintf("Community for %s", strings.ToLower(name))}
		if ownerIdx, ok := owners[i]; ok {
			if err := s.communities.Create(c, users[ownerIdx].ID); err != nil {
				return nil, err
			}
		} else if err := s.db.Create(c).Error; err != nil {
			return nil, err
		}
		for _, idx := range members[i] {
			if err := s.communities.AddMembership(c.ID, users[idx].ID, model.RoleMember); err != nil {
				return nil, err
			}
		}
		for _, idx := range requests[i] {
			if err := s.communities.AddMembership(c.ID, users[idx].ID, model.RoleRequester); err != nil {
				return nil, err
			}
		}
		out = append(out, *c)
	}
	return out, nil
}

// seedDepositions 为每个演示数据集创建一个已发布的存档，ID 与 deposition_id 对应。
func (s *Seeder) seedDepositions() error {
	for i := 0; i < datasetCount; i++ {
		doi := seedDOI(i)
		metadata, err := json.Marshal(map[string]interface{}{
			"title":       fmt.Sprintf("Sample dataset %d", i+1),
			"upload_type": "dataset",
			"description": fmt.Sprintf("Description for dataset %d", i+1),
			"keywords":    []string{"tag1", "tag2", "uvlhub"},
		})
		if err != nil {
			return err
		}
		dep := &model.Deposition{DepositionMetadata: datatypes.JSON(metadata), IsPublished: true, DOI: &doi}
		if err := s.depositions.Create(dep); err != nil {
			return err
		}
	}
	return nil
}

func seedDOI(i int) string {
	return fmt.Sprintf("10.1234/dataset%d", i+1)
}

// datasetCreatedAt 第二个数据集最早，第三个最晚，其余相同。
func datasetCreatedAt(i int) time.Time {
	day := 10
	switch i {
	case 1:
		day = 9
	case 2:
		day = 11
	}
	return time.Date(2024, time.December, day, 0, 0, 0, 0, time.UTC)
}

func (s *Seeder) seedDatasets(ctx context.Context, users []model.User, communities []model.Community) error {
	// 14 个特征模型：第 i 个属于数据集 i/2，第 8 个改为属于第 5 个数据集
	fmDataset := make([]int, 14)
	for i := range fmDataset {
		fmDataset[i] = i / 2
	}
	fmDataset[7] = 4

	return s.datasets.Transaction(ctx, func(tx repository.DatasetRepository) error {
		var datasets []*model.DataSet
		for i := 0; i < datasetCount; i++ {
			metricsIdx := 0
			if i >= 3 && i < 7 {
				metricsIdx = i - 2
			}
			metrics := &model.DSMetrics{
				NumberOfModels:   seedMetrics[metricsIdx].Models,
				NumberOfFeatures: seedMetrics[metricsIdx].Features,
			}
			if err := tx.CreateDSMetrics(metrics); err != nil {
				return err
			}
			depositionID := uint(i + 1)
			doi := seedDOI(i)
			meta := &model.DSMetaData{
				DepositionID:    &depositionID,
				Title:           fmt.Sprintf("Sample dataset %d", i+1),
				Description:     fmt.Sprintf("Description for dataset %d", i+1),
				PublicationType: model.PublicationDataManagementPlan,
				PublicationDOI:  doi,
				DatasetDOI:      &doi,
				Tags:            "tag1, tag2",
				DSMetricsID:     &metrics.ID,
			}
			if err := tx.CreateDSMetaData(meta); err != nil {
				return err
			}
			author := model.Author{
				Name:        fmt.Sprintf("Author %d", i+1),
				Affiliation: fmt.Sprintf("Affiliation %d", i+1),
				Orcid:       fmt.Sprintf("0000-0000-0000-000%d", i),
			}
			if err := tx.CreateAuthors(model.AuthorOwnerDataset, meta.ID, []model.Author{author}); err != nil {
				return err
			}

			owner := users[0]
			if i%2 == 1 {
				owner = users[1]
			}
			communityID := communities[i%3].ID
			ds := &model.DataSet{
				UserID:       owner.ID,
				CommunityID:  &communityID,
				DSMetaDataID: meta.ID,
				CreatedAt:    datasetCreatedAt(i),
			}
			if err := tx.CreateDataSet(ds); err != nil {
				return err
			}
			datasets = append(datasets, ds)
		}

		for i, dsIdx := range fmDataset {
			ds := datasets[dsIdx]
			fileName := fmt.Sprintf("file%d.uvl", i+1)
			fmMeta := &model.FMMetaData{
				UVLFilename:     fileName,
				Title:           fmt.Sprintf("Feature Model %d", i+1),
				Description:     fmt.Sprintf("Description for feature model %d", i+1),
				PublicationType: model.PublicationSoftwareDocumentation,
				PublicationDOI:  fmt.Sprintf("10.1234/fm%d", i+1),
				Tags:            "tag1, tag2",
				UVLVersion:      "1.0",
			}
			if err := tx.CreateFMMetaData(fmMeta); err != nil {
				return err
			}
			author := model.Author{
				Name:        fmt.Sprintf("Author %d", i+5),
				Affiliation: fmt.Sprintf("Affiliation %d", i+5),
				Orcid:       fmt.Sprintf("0000-0000-0000-000%d", i+5),
			}
			if err := tx.CreateAuthors(model.AuthorOwnerFeatureModel, fmMeta.ID, []model.Author{author}); err != nil {
				return err
			}
			fm := &model.FeatureModel{DataSetID: ds.ID, FMMetaDataID: fmMeta.ID}
			if err := tx.CreateFeatureModel(fm); err != nil {
				return err
			}

			size, err := s.writeSampleUVL(ds, fileName, 10)
			if err != nil {
				return err
			}
			file := &model.Hubfile{
				Name:           fileName,
				Checksum:       fmt.Sprintf("checksum%d", i+1),
				Size:           size,
				FeatureModelID: fm.ID,
			}
			if err := tx.CreateHubfile(file); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeSampleUVL 在数据集永久目录下生成一个包含 features 个特征的 UVL 文件。
func (s *Seeder) writeSampleUVL(ds *model.DataSet, fileName string, features int) (int64, error) {
	dir := service.Paths{UploadsDir: s.uploadsDir}.DatasetFolder(ds.UserID, ds.ID)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return 0, err
	}
	content := SampleUVL(strings.TrimSuffix(fileName, filepath.Ext(fileName)), features)
	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return 0, err
	}
	return int64(len(content)), nil
}

// SampleUVL 返回一个根特征下挂 features-1 个可选子特征的 UVL 模型。
func SampleUVL(root string, features int) string {
	var b strings.Builder
	b.WriteString("features\n")
	fmt.Fprintf(&b, "\t%s\n", root)
	if features > 1 {
		b.WriteString("\t\toptional\n")
		for i := 1; i < features; i++ {
			fmt.Fprintf(&b, "\t\t\tFeature%d\n", i)
		}
	}
	return b.String()
}
