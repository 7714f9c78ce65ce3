package repository

import (
	"errors"
	"strings"

	"uvlhub/internal/model"

	"gorm.io/gorm"
)

// CommunityRepository 定义了社区及成员关系的持久化操作。
type CommunityRepository interface {
	// Create 在同一事务中创建社区并把 ownerID 登记为所有者。
	Create(community *model.Community, ownerID uint) error
	FindByID(id uint) (*model.Community, error)
	FindByName(name string) (*model.Community, error)
	FindAll() ([]model.Community, error)
	FindByMember(userID uint) ([]model.Community, error)
	SearchByName(query string) ([]model.Community, error)
	Update(community *model.Community) error
	// Delete 删除社区及其成员关系，并解除数据集与社区的关联。
	Delete(id uint) error

	GetMembership(communityID, userID uint) (*model.CommunityMembership, error)
	AddMembership(communityID, userID uint, role model.CommunityRole) error
	UpdateRole(communityID, userID uint, role model.CommunityRole) error
	DeleteMembership(communityID, userID uint) error
}

type communityRepository struct {
	db *gorm.DB
}

// NewCommunityRepository 创建一个新的 CommunityRepository 实例。
func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) Create(community *model.Community, ownerID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Memberships").Create(community).Error; err != nil {
			return err
		}
		m := model.CommunityMembership{CommunityID: community.ID, UserID: ownerID, Role: model.RoleOwner}
		if err := tx.Omit("User").Create(&m).Error; err != nil {
			return err
		}
		community.Memberships = []model.CommunityMembership{m}
		return nil
	})
}

func (r *communityRepository) FindByID(id uint) (*model.Community, error) {
	var c model.Community
	err := r.db.Preload("Memberships.User.Profile").First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *communityRepository) FindByName(name string) (*model.Community, error) {
	var c model.Community
	if err := r.db.Where("name = ?", name).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *communityRepository) FindAll() ([]model.Community, error) {
	var cs []model.Community
	err := r.db.Preload("Memberships").Order("id").Find(&cs).Error
	return cs, err
}

// FindByMember 返回用户作为所有者或成员所在的社区，不含待审批的申请。
func (r *communityRepository) FindByMember(userID uint) ([]model.Community, error) {
	var cs []model.Community
	err := r.db.Preload("Memberships").
		Where("id IN (?)", r.db.Model(&model.CommunityMembership{}).
			Select("community_id").
			Where("user_id = ? AND role IN ?", userID, []model.CommunityRole{model.RoleOwner, model.RoleMember})).
		Order("id").Find(&cs).Error
	return cs, err
}

// SearchByName 按名称做大小写不敏感的子串匹配。
func (r *communityRepository) SearchByName(query string) ([]model.Community, error) {
	var cs []model.Community
	like := "%" + strings.ToLower(query) + "%"
	err := r.db.Preload("Memberships").Where("LOWER(name) LIKE ?", like).Order("id").Find(&cs).Error
	return cs, err
}

func (r *communityRepository) Update(community *model.Community) error {
	return r.db.Model(community).Select("name", "description").Updates(community).Error
}

func (r *communityRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("community_id = ?", id).Delete(&model.CommunityMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.DataSet{}).Where("community_id = ?", id).
			Update("community_id", gorm.Expr("NULL")).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Community{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *communityRepository) GetMembership(communityID, userID uint) (*model.CommunityMembership, error) {
	var m model.CommunityMembership
	err := r.db.Where("community_id = ? AND user_id = ?", communityID, userID).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *communityRepository) AddMembership(communityID, userID uint, role model.CommunityRole) error {
	m := model.CommunityMembership{CommunityID: communityID, UserID: userID, Role: role}
	return r.db.Omit("User").Create(&m).Error
}

func (r *communityRepository) UpdateRole(communityID, userID uint, role model.CommunityRole) error {
	res := r.db.Model(&model.CommunityMembership{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *communityRepository) DeleteMembership(communityID, userID uint) error {
	res := r.db.Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&model.CommunityMembership{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsNotFound 判断错误是否为记录不存在。
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
