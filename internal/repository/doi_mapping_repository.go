package repository

import (
	"errors"

	"uvlhub/internal/model"

	"gorm.io/gorm"
)

// DOIMappingRepository 保存旧 DOI 到新 DOI 的映射。
type DOIMappingRepository interface {
	Create(mapping *model.DOIMapping) error
	// FindNewDOI 返回旧 DOI 对应的新 DOI，没有映射时 ok 为 false。
	FindNewDOI(oldDOI string) (newDOI string, ok bool, err error)
}

type doiMappingRepository struct {
	db *gorm.DB
}

// NewDOIMappingRepository 创建一个新的 DOIMappingRepository 实例。
func NewDOIMappingRepository(db *gorm.DB) DOIMappingRepository {
	return &doiMappingRepository{db: db}
}

func (r *doiMappingRepository) Create(mapping *model.DOIMapping) error {
	return r.db.Create(mapping).Error
}

func (r *doiMappingRepository) FindNewDOI(oldDOI string) (string, bool, error) {
	var m model.DOIMapping
	err := r.db.Where("dataset_doi_old = ?", oldDOI).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return m.DatasetDOINew, true, nil
}
