package model

import "gorm.io/datatypes"

// Deposition 是本地存档服务（fakenodo）中的一次发布尝试。
type Deposition struct {
	ID                 uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	DepositionMetadata datatypes.JSON `gorm:"column:deposition_metadata;not null" json:"metadata"`
	IsPublished        bool           `gorm:"not null;default:false" json:"published"`
	DOI                *string        `gorm:"column:doi;type:varchar(100);uniqueIndex" json:"doi"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Deposition) TableName() string {
	return "deposition"
}
