package repository

import (
	"context"

	"uvlhub/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HubfileLocation 是文件及其所属数据集的定位信息。
type HubfileLocation struct {
	Hubfile   model.Hubfile
	DataSetID uint
	UserID    uint
}

// DatasetRepository 管理数据集聚合：元数据、作者、指标、特征模型与文件。
type DatasetRepository interface {
	// Transaction 在同一个事务中执行 fn，fn 返回错误时整体回滚。
	Transaction(ctx context.Context, fn func(tx DatasetRepository) error) error

	CreateDSMetaData(meta *model.DSMetaData) error
	CreateAuthors(ownerType string, ownerID uint, authors []model.Author) error
	CreateDataSet(ds *model.DataSet) error
	CreateFMMetaData(meta *model.FMMetaData) error
	CreateFeatureModel(fm *model.FeatureModel) error
	CreateHubfile(file *model.Hubfile) error
	CreateDSMetrics(metrics *model.DSMetrics) error
	UpdateDSMetaData(id uint, fields map[string]interface{}) error

	FindByID(id uint) (*model.DataSet, error)
	FindByDOI(doi string) (*model.DataSet, error)
	FindAll() ([]model.DataSet, error)
	FindAllByCommunity(communityID uint) ([]model.DataSet, error)
	FindSynchronized(userID uint) ([]model.DataSet, error)
	FindUnsynchronized(userID uint) ([]model.DataSet, error)
	FindUnsynchronizedDataset(userID, datasetID uint) (*model.DataSet, error)
	LatestSynchronized(limit int) ([]model.DataSet, error)
	FindHubfile(id uint) (*HubfileLocation, error)

	CountSynchronized() (int64, error)
	CountFeatureModels() (int64, error)
	CountAuthors() (int64, error)
	CountDSMetaData() (int64, error)
}

type hubfileOwner struct {
	DataSetID uint
	UserID    uint
}

type datasetRepository struct {
	db *gorm.DB
}

// NewDatasetRepository 创建一个新的 DatasetRepository 实例。
func NewDatasetRepository(db *gorm.DB) DatasetRepository {
	return &datasetRepository{db: db}
}

// preloadAggregate 预加载数据集的完整聚合。
func preloadAggregate(db *gorm.DB) *gorm.DB {
	return db.
		Preload("DSMetaData.Authors").
		Preload("DSMetaData.DSMetrics").
		Preload("FeatureModels.FMMetaData.Authors").
		Preload("FeatureModels.Files")
}

func (r *datasetRepository) withMetaData() *gorm.DB {
	return preloadAggregate(r.db).
		Joins("JOIN ds_meta_data ON ds_meta_data.id = data_set.ds_meta_data_id")
}

func (r *datasetRepository) Transaction(ctx context.Context, fn func(tx DatasetRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&datasetRepository{db: tx})
	})
}

// CreateDSMetaData 只写入元数据本身，作者与指标单独创建。
func (r *datasetRepository) CreateDSMetaData(meta *model.DSMetaData) error {
	return r.db.Omit(clause.Associations).Create(meta).Error
}

// CreateAuthors 为指定的所属对象批量创建作者。
func (r *datasetRepository) CreateAuthors(ownerType string, ownerID uint, authors []model.Author) error {
	if len(authors) == 0 {
		return nil
	}
	for i := range authors {
		authors[i].OwnerType = ownerType
		authors[i].OwnerID = ownerID
	}
	return r.db.Create(&authors).Error
}

func (r *datasetRepository) CreateDataSet(ds *model.DataSet) error {
	return r.db.Omit(clause.Associations).Create(ds).Error
}

func (r *datasetRepository) CreateFMMetaData(meta *model.FMMetaData) error {
	return r.db.Omit(clause.Associations).Create(meta).Error
}

func (r *datasetRepository) CreateFeatureModel(fm *model.FeatureModel) error {
	return r.db.Omit(clause.Associations).Create(fm).Error
}

func (r *datasetRepository) CreateHubfile(file *model.Hubfile) error {
	return r.db.Create(file).Error
}

func (r *datasetRepository) CreateDSMetrics(metrics *model.DSMetrics) error {
	return r.db.Create(metrics).Error
}

// UpdateDSMetaData 按字段更新元数据，例如 deposition_id 与 dataset_doi。
func (r *datasetRepository) UpdateDSMetaData(id uint, fields map[string]interface{}) error {
	return r.db.Model(&model.DSMetaData{}).Where("id = ?", id).Updates(fields).Error
}

// FindByID 根据 ID 查找数据集，不存在时返回 gorm.ErrRecordNotFound。
func (r *datasetRepository) FindByID(id uint) (*model.DataSet, error) {
	var ds model.DataSet
	if err := preloadAggregate(r.db).First(&ds, id).Error; err != nil {
		return nil, err
	}
	return &ds, nil
}

// FindByDOI 根据外部 DOI 查找数据集。
func (r *datasetRepository) FindByDOI(doi string) (*model.DataSet, error) {
	var ds model.DataSet
	err := r.withMetaData().
		Where("ds_meta_data.dataset_doi = ?", doi).
		First(&ds).Error
	if err != nil {
		return nil, err
	}
	return &ds, nil
}

func (r *datasetRepository) FindAll() ([]model.DataSet, error) {
	var datasets []model.DataSet
	err := preloadAggregate(r.db).Order("data_set.id").Find(&datasets).Error
	return datasets, err
}

func (r *datasetRepository) FindAllByCommunity(communityID uint) ([]model.DataSet, error) {
	var datasets []model.DataSet
	err := preloadAggregate(r.db).
		Where("data_set.community_id = ?", communityID).
		Order("data_set.created_at DESC").
		Find(&datasets).Error
	return datasets, err
}

// FindSynchronized 返回用户已获得 DOI 的数据集，最新的在前。
func (r *datasetRepository) FindSynchronized(userID uint) ([]model.DataSet, error) {
	var datasets []model.DataSet
	err := r.withMetaData().
		Where("data_set.user_id = ? AND ds_meta_data.dataset_doi IS NOT NULL", userID).
		Order("data_set.created_at DESC").
		Find(&datasets).Error
	return datasets, err
}

// FindUnsynchronized 返回用户尚未同步的数据集，最新的在前。
func (r *datasetRepository) FindUnsynchronized(userID uint) ([]model.DataSet, error) {
	var datasets []model.DataSet
	err := r.withMetaData().
		Where("data_set.user_id = ? AND ds_meta_data.dataset_doi IS NULL", userID).
		Order("data_set.created_at DESC").
		Find(&datasets).Error
	return datasets, err
}

func (r *datasetRepository) FindUnsynchronizedDataset(userID, datasetID uint) (*model.DataSet, error) {
	var ds model.DataSet
	err := r.withMetaData().
		Where("data_set.user_id = ? AND data_set.id = ? AND ds_meta_data.dataset_doi IS NULL", userID, datasetID).
		First(&ds).Error
	if err != nil {
		return nil, err
	}
	return &ds, nil
}

// LatestSynchronized 返回最近的已同步数据集，按 ID 倒序。
func (r *datasetRepository) LatestSynchronized(limit int) ([]model.DataSet, error) {
	var datasets []model.DataSet
	err := r.withMetaData().
		Where("ds_meta_data.dataset_doi IS NOT NULL").
		Order("data_set.id DESC").
		Limit(limit).
		Find(&datasets).Error
	return datasets, err
}

// FindHubfile 查找文件及其所属数据集与用户。
func (r *datasetRepository) FindHubfile(id uint) (*HubfileLocation, error) {
	var loc HubfileLocation
	if err := r.db.First(&loc.Hubfile, id).Error; err != nil {
		return nil, err
	}
	var row hubfileOwner
	res := r.db.Table("feature_model").
		Select("data_set.id AS data_set_id, data_set.user_id AS user_id").
		Joins("JOIN data_set ON data_set.id = feature_model.data_set_id").
		Where("feature_model.id = ?", loc.Hubfile.FeatureModelID).
		Scan(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	loc.DataSetID = row.DataSetID
	loc.UserID = row.UserID
	return &loc, nil
}

func (r *datasetRepository) CountSynchronized() (int64, error) {
	var n int64
	err := r.db.Model(&model.DataSet{}).
		Joins("JOIN ds_meta_data ON ds_meta_data.id = data_set.ds_meta_data_id").
		Where("ds_meta_data.dataset_doi IS NOT NULL").
		Count(&n).Error
	return n, err
}

func (r *datasetRepository) CountFeatureModels() (int64, error) {
	var n int64
	err := r.db.Model(&model.FeatureModel{}).Count(&n).Error
	return n, err
}

func (r *datasetRepository) CountAuthors() (int64, error) {
	var n int64
	err := r.db.Model(&model.Author{}).Count(&n).Error
	return n, err
}

func (r *datasetRepository) CountDSMetaData() (int64, error) {
	var n int64
	err := r.db.Model(&model.DSMetaData{}).Count(&n).Error
	return n, err
}
