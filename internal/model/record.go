package model

import "time"

// DSViewRecord 记录一次数据集浏览，按 cookie 去重。
type DSViewRecord struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     *uint     `gorm:"index" json:"userId"`
	DatasetID  uint      `gorm:"column:dataset_id;not null;index" json:"datasetId"`
	ViewDate   time.Time `gorm:"not null" json:"viewDate"`
	ViewCookie string    `gorm:"type:varchar(36);index" json:"viewCookie"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (DSViewRecord) TableName() string {
	return "ds_view_record"
}

// DSDownloadRecord 记录一次下载；DatasetID 为空表示全量下载。
type DSDownloadRecord struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         *uint     `gorm:"index" json:"userId"`
	DatasetID      *uint     `gorm:"column:dataset_id;index" json:"datasetId"`
	DownloadDate   time.Time `gorm:"not null" json:"downloadDate"`
	DownloadCookie string    `gorm:"type:varchar(36);index" json:"downloadCookie"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (DSDownloadRecord) TableName() string {
	return "ds_download_record"
}
