package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"uvlhub/internal/model"
	"uvlhub/internal/repository"
	"uvlhub/pkg/log"
	"uvlhub/pkg/storage"
	"uvlhub/pkg/uvl"

	"github.com/dustin/go-humanize"
	"gorm.io/gorm"
)

// 首页展示的最新已同步数据集数量
const latestSynchronizedLimit = 5

// FileMirror 是永久文件的对象存储镜像。
type FileMirror interface {
	Put(ctx context.Context, objectName, localPath string) error
	PresignedURL(ctx context.Context, objectName string) (string, error)
}

// DatasetStats 是首页统计数据。
type DatasetStats struct {
	DatasetsCounter       int64 `json:"datasets_counter"`
	FeatureModelsCounter  int64 `json:"feature_models_counter"`
	AuthorsCounter        int64 `json:"authors_counter"`
	DSMetaDataCounter     int64 `json:"dsmetadata_counter"`
	TotalDatasetDownloads int64 `json:"total_dataset_downloads"`
	TotalDatasetViews     int64 `json:"total_dataset_views"`
}

// DatasetService 接口定义了数据集相关的业务操作。
type DatasetService interface {
	// CreateFromForm 在一个事务中创建数据集聚合，任一步失败则整体回滚。
	CreateFromForm(ctx context.Context, form model.DatasetForm, user *model.User) (*model.DataSet, error)
	// MoveFeatureModels 将暂存文件移动到数据集的永久目录。
	MoveFeatureModels(ctx context.Context, ds *model.DataSet) error
	UpdateDSMetaData(id uint, fields map[string]interface{}) error

	GetByID(id uint) (*model.DataSet, error)
	GetSynchronized(userID uint) ([]model.DataSet, error)
	GetUnsynchronized(userID uint) ([]model.DataSet, error)
	GetUnsynchronizedDataset(userID, datasetID uint) (*model.DataSet, error)
	LatestSynchronized() ([]model.DataSet, error)
	GetAll() ([]model.DataSet, error)
	GetAllByCommunity(communityID uint) ([]model.DataSet, error)
	Stats() (*DatasetStats, error)

	GetUVLHubDOI(ds *model.DataSet) string
	Summaries(datasets []model.DataSet) []model.DatasetSummary
}

type datasetService struct {
	datasetRepo repository.DatasetRepository
	recordRepo  repository.RecordRepository
	paths       Paths
	domain      string
	mirror      FileMirror
}

// NewDatasetService 创建一个新的 DatasetService 实例，mirror 可以为 nil。
func NewDatasetService(datasetRepo repository.DatasetRepository, recordRepo repository.RecordRepository, paths Paths, domain string, mirror FileMirror) DatasetService {
	return &datasetService{
		datasetRepo: datasetRepo,
		recordRepo:  recordRepo,
		paths:       paths,
		domain:      domain,
		mirror:      mirror,
	}
}

func parseFormPublicationType(label string) (model.PublicationType, error) {
	if strings.TrimSpace(label) == "" {
		return model.PublicationNone, nil
	}
	pt, ok := model.ParsePublicationType(label)
	if !ok {
		return "", invalidInput(fmt.Sprintf("Invalid publication type: %s", label))
	}
	return pt, nil
}

// mainAuthor 由用户资料生成主作者，姓名格式为 "surname, name"。
func mainAuthor(user *model.User) model.Author {
	if user.Profile == nil {
		return model.Author{Name: user.Email}
	}
	p := user.Profile
	return model.Author{
		Name:        fmt.Sprintf("%s, %s", p.Surname, p.Name),
		Affiliation: p.Affiliation,
		Orcid:       p.Orcid,
	}
}

// checksumAndSize 计算文件的 MD5 与字节数。
func checksumAndSize(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	h := md5.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}

func (s *datasetService) CreateFromForm(ctx context.Context, form model.DatasetForm, user *model.User) (*model.DataSet, error) {
	log.Infof("[DatasetService] 开始创建数据集, userID: %d, title: %s, 模型数: %d", user.ID, form.Title, len(form.FeatureModels))

	dsType, err := parseFormPublicationType(form.PublicationType)
	if err != nil {
		return nil, err
	}
	if len(form.FeatureModels) == 0 {
		return nil, invalidInput("At least one feature model is required.")
	}
	tempFolder := s.paths.TempFolder(user.ID)

	var ds *model.DataSet
	err = s.datasetRepo.Transaction(ctx, func(tx repository.DatasetRepository) error {
		// 1. 数据集元数据与作者（主作者在前）
		meta := &model.DSMetaData{
			Title:           form.Title,
			Description:     form.Description,
			PublicationType: dsType,
			PublicationDOI:  form.PublicationDOI,
			Tags:            form.Tags,
		}
		if err := tx.CreateDSMetaData(meta); err != nil {
			return fmt.Errorf("创建数据集元数据失败: %w", err)
		}
		authors := append([]model.Author{mainAuthor(user)}, model.ToAuthors(form.Authors)...)
		if err := tx.CreateAuthors(model.AuthorOwnerDataset, meta.ID, authors); err != nil {
			return fmt.Errorf("创建数据集作者失败: %w", err)
		}

		// 2. 数据集本身
		ds = &model.DataSet{UserID: user.ID, CommunityID: form.CommunityID, DSMetaDataID: meta.ID}
		if err := tx.CreateDataSet(ds); err != nil {
			return fmt.Errorf("创建数据集失败: %w", err)
		}

		// 3. 每个特征模型：元数据、作者、模型、文件
		var models, features int
		for _, in := range form.FeatureModels {
			fmType, err := parseFormPublicationType(in.PublicationType)
			if err != nil {
				return err
			}
			fmMeta := &model.FMMetaData{
				UVLFilename:     in.UVLFilename,
				Title:           in.Title,
				Description:     in.Description,
				PublicationType: fmType,
				PublicationDOI:  in.PublicationDOI,
				Tags:            in.Tags,
				UVLVersion:      in.UVLVersion,
			}
			if err := tx.CreateFMMetaData(fmMeta); err != nil {
				return fmt.Errorf("创建特征模型元数据失败: %w", err)
			}
			if len(in.Authors) > 0 {
				if err := tx.CreateAuthors(model.AuthorOwnerFeatureModel, fmMeta.ID, model.ToAuthors(in.Authors)); err != nil {
					return fmt.Errorf("创建特征模型作者失败: %w", err)
				}
			}
			fm := &model.FeatureModel{DataSetID: ds.ID, FMMetaDataID: fmMeta.ID}
			if err := tx.CreateFeatureModel(fm); err != nil {
				return fmt.Errorf("创建特征模型失败: %w", err)
			}

			filePath := filepath.Join(tempFolder, filepath.Base(in.UVLFilename))
			checksum, size, err := checksumAndSize(filePath)
			if err != nil {
				return fmt.Errorf("读取暂存文件 %s 失败: %w", in.UVLFilename, err)
			}
			n, err := uvl.CountFeaturesFile(filePath)
			if err != nil {
				return fmt.Errorf("统计特征数失败 %s: %w", in.UVLFilename, err)
			}
			features += n

			file := &model.Hubfile{Name: in.UVLFilename, Checksum: checksum, Size: size, FeatureModelID: fm.ID}
			if err := tx.CreateHubfile(file); err != nil {
				return fmt.Errorf("创建文件记录失败: %w", err)
			}
			models++
			log.Debugf("[DatasetService] 特征模型 %s: %s, %d 个特征", in.UVLFilename, humanize.IBytes(uint64(size)), n)
		}

		// 4. 指标
		metrics := &model.DSMetrics{NumberOfModels: models, NumberOfFeatures: features}
		if err := tx.CreateDSMetrics(metrics); err != nil {
			return fmt.Errorf("创建数据集指标失败: %w", err)
		}
		return tx.UpdateDSMetaData(meta.ID, map[string]interface{}{"ds_metrics_id": metrics.ID})
	})
	if err != nil {
		log.Errorf("[DatasetService] 创建数据集失败，事务已回滚, userID: %d, error: %v", user.ID, err)
		return nil, err
	}

	created, err := s.datasetRepo.FindByID(ds.ID)
	if err != nil {
		return nil, err
	}
	log.Infof("[DatasetService] 数据集创建成功, datasetID: %d", created.ID)
	return created, nil
}

// MoveFeatureModels 移动文件后，如启用镜像则上传到对象存储；镜像失败只记录日志。
func (s *datasetService) MoveFeatureModels(ctx context.Context, ds *model.DataSet) error {
	src := s.paths.TempFolder(ds.UserID)
	dest := s.paths.DatasetFolder(ds.UserID, ds.ID)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("创建数据集目录失败: %w", err)
	}

	for _, fm := range ds.FeatureModels {
		name := filepath.Base(fm.FMMetaData.UVLFilename)
		target := filepath.Join(dest, name)
		if err := moveFile(filepath.Join(src, name), target); err != nil {
			return fmt.Errorf("移动文件 %s 失败: %w", name, err)
		}
		if s.mirror != nil {
			objectName := storage.ObjectName(ds.UserID, ds.ID, name)
			if err := s.mirror.Put(ctx, objectName, target); err != nil {
				log.Warnf("[DatasetService] 镜像文件到对象存储失败, object: %s, error: %v", objectName, err)
			}
		}
	}
	log.Infof("[DatasetService] 已移动 %d 个文件到 %s", len(ds.FeatureModels), dest)
	return nil
}

// moveFile 优先使用 rename，跨设备时退化为复制后删除。
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

func (s *datasetService) UpdateDSMetaData(id uint, fields map[string]interface{}) error {
	return s.datasetRepo.UpdateDSMetaData(id, fields)
}

func (s *datasetService) GetByID(id uint) (*model.DataSet, error) {
	ds, err := s.datasetRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDatasetNotFound
	}
	return ds, err
}

func (s *datasetService) GetSynchronized(userID uint) ([]model.DataSet, error) {
	return s.datasetRepo.FindSynchronized(userID)
}

func (s *datasetService) GetUnsynchronized(userID uint) ([]model.DataSet, error) {
	return s.datasetRepo.FindUnsynchronized(userID)
}

func (s *datasetService) GetUnsynchronizedDataset(userID, datasetID uint) (*model.DataSet, error) {
	ds, err := s.datasetRepo.FindUnsynchronizedDataset(userID, datasetID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDatasetNotFound
	}
	return ds, err
}

func (s *datasetService) LatestSynchronized() ([]model.DataSet, error) {
	return s.datasetRepo.LatestSynchronized(latestSynchronizedLimit)
}

func (s *datasetService) GetAll() ([]model.DataSet, error) {
	return s.datasetRepo.FindAll()
}

func (s *datasetService) GetAllByCommunity(communityID uint) ([]model.DataSet, error) {
	return s.datasetRepo.FindAllByCommunity(communityID)
}

func (s *datasetService) Stats() (*DatasetStats, error) {
	var st DatasetStats
	var err error
	if st.DatasetsCounter, err = s.datasetRepo.CountSynchronized(); err != nil {
		return nil, err
	}
	if st.FeatureModelsCounter, err = s.datasetRepo.CountFeatureModels(); err != nil {
		return nil, err
	}
	if st.AuthorsCounter, err = s.datasetRepo.CountAuthors(); err != nil {
		return nil, err
	}
	if st.DSMetaDataCounter, err = s.datasetRepo.CountDSMetaData(); err != nil {
		return nil, err
	}
	if st.TotalDatasetDownloads, err = s.recordRepo.TotalDownloads(); err != nil {
		return nil, err
	}
	if st.TotalDatasetViews, err = s.recordRepo.TotalViews(); err != nil {
		return nil, err
	}
	return &st, nil
}

// GetUVLHubDOI 返回数据集在本站的 DOI 地址。
func (s *datasetService) GetUVLHubDOI(ds *model.DataSet) string {
	doi := ""
	if ds.DSMetaData.DatasetDOI != nil {
		doi = *ds.DSMetaData.DatasetDOI
	}
	return fmt.Sprintf("http://%s/doi/%s", s.domain, doi)
}

func (s *datasetService) Summaries(datasets []model.DataSet) []model.DatasetSummary {
	out := make([]model.DatasetSummary, 0, len(datasets))
	for i := range datasets {
		ds := &datasets[i]
		out = append(out, model.NewDatasetSummary(ds, s.GetUVLHubDOI(ds), HumanReadableSize(ds.TotalSize())))
	}
	return out
}

// HumanReadableSize 以 bytes/KB/MB/GB 表示大小，保留两位小数。
func HumanReadableSize(size int64) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d bytes", size)
	case size < 1024*1024:
		return formatUnit(float64(size)/1024) + " KB"
	case size < 1024*1024*1024:
		return formatUnit(float64(size)/(1024*1024)) + " MB"
	default:
		return formatUnit(float64(size)/(1024*1024*1024)) + " GB"
	}
}

// formatUnit 四舍五入到两位小数，整数值保留一位 ".0"。
func formatUnit(v float64) string {
	s := strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
