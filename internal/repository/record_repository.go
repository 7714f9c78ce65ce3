package repository

import (
	"uvlhub/internal/model"

	"gorm.io/gorm"
)

// RecordRepository 管理数据集的浏览与下载记录。
type RecordRepository interface {
	ViewRecordExists(userID *uint, datasetID uint, cookie string) (bool, error)
	CreateViewRecord(record *model.DSViewRecord) error
	DownloadRecordExists(userID *uint, datasetID *uint, cookie string) (bool, error)
	CreateDownloadRecord(record *model.DSDownloadRecord) error
	TotalViews() (int64, error)
	TotalDownloads() (int64, error)
	CountViewsByDataset(datasetID uint) (int64, error)
	CountDownloadsByDataset(datasetID uint) (int64, error)
}

type recordRepository struct {
	db *gorm.DB
}

// NewRecordRepository 创建一个新的 RecordRepository 实例。
func NewRecordRepository(db *gorm.DB) RecordRepository {
	return &recordRepository{db: db}
}

// nullableEq 生成可空列的等值条件，nil 对应 IS NULL。
func nullableEq(db *gorm.DB, column string, v *uint) *gorm.DB {
	if v == nil {
		return db.Where(column + " IS NULL")
	}
	return db.Where(column+" = ?", *v)
}

// ViewRecordExists 判断同一用户（匿名为 NULL）与 cookie 是否已浏览过该数据集。
func (r *recordRepository) ViewRecordExists(userID *uint, datasetID uint, cookie string) (bool, error) {
	var n int64
	q := r.db.Model(&model.DSViewRecord{}).Where("dataset_id = ? AND view_cookie = ?", datasetID, cookie)
	err := nullableEq(q, "user_id", userID).Count(&n).Error
	return n > 0, err
}

func (r *recordRepository) CreateViewRecord(record *model.DSViewRecord) error {
	return r.db.Create(record).Error
}

// DownloadRecordExists 判断下载记录是否已存在；datasetID 为 nil 表示全量下载。
func (r *recordRepository) DownloadRecordExists(userID *uint, datasetID *uint, cookie string) (bool, error) {
	var n int64
	q := r.db.Model(&model.DSDownloadRecord{}).Where("download_cookie = ?", cookie)
	q = nullableEq(q, "user_id", userID)
	err := nullableEq(q, "dataset_id", datasetID).Count(&n).Error
	return n > 0, err
}

func (r *recordRepository) CreateDownloadRecord(record *model.DSDownloadRecord) error {
	return r.db.Create(record).Error
}

func (r *recordRepository) TotalViews() (int64, error) {
	var n int64
	err := r.db.Model(&model.DSViewRecord{}).Count(&n).Error
	return n, err
}

func (r *recordRepository) TotalDownloads() (int64, error) {
	var n int64
	err := r.db.Model(&model.DSDownloadRecord{}).Count(&n).Error
	return n, err
}

func (r *recordRepository) CountViewsByDataset(datasetID uint) (int64, error) {
	var n int64
	err := r.db.Model(&model.DSViewRecord{}).Where("dataset_id = ?", datasetID).Count(&n).Error
	return n, err
}

func (r *recordRepository) CountDownloadsByDataset(datasetID uint) (int64, error) {
	var n int64
	err := r.db.Model(&model.DSDownloadRecord{}).Where("dataset_id = ?", datasetID).Count(&n).Error
	return n, err
}
