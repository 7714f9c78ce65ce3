package repository

import (
	"uvlhub/internal/model"

	"gorm.io/gorm"
)

// DepositionRepository 是本地存档服务的持久化层。
type DepositionRepository interface {
	Create(dep *model.Deposition) error
	FindByID(id uint) (*model.Deposition, error)
	FindAll() ([]model.Deposition, error)
	Update(dep *model.Deposition) error
	Delete(id uint) error
}

type depositionRepository struct {
	db *gorm.DB
}

// NewDepositionRepository 创建一个新的 DepositionRepository 实例。
func NewDepositionRepository(db *gorm.DB) DepositionRepository {
	return &depositionRepository{db: db}
}

func (r *depositionRepository) Create(dep *model.Deposition) error {
	return r.db.Create(dep).Error
}

func (r *depositionRepository) FindByID(id uint) (*model.Deposition, error) {
	var d model.Deposition
	if err := r.db.First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *depositionRepository) FindAll() ([]model.Deposition, error) {
	var ds []model.Deposition
	err := r.db.Order("id").Find(&ds).Error
	return ds, err
}

func (r *depositionRepository) Update(dep *model.Deposition) error {
	return r.db.Save(dep).Error
}

func (r *depositionRepository) Delete(id uint) error {
	res := r.db.Delete(&model.Deposition{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
