package service

import (
	"errors"
	"strings"

	"uvlhub/internal/model"
	"uvlhub/internal/repository"
	"uvlhub/pkg/log"

	"gorm.io/gorm"
)

// CommunityDetail 是社区详情：按角色划分的用户以及社区内的数据集。
type CommunityDetail struct {
	Community *model.Community `json:"community"`
	Owners    []model.User     `json:"owners"`
	Members   []model.User     `json:"members"`
	Requests  []model.User     `json:"requests"`
	Datasets  []model.DataSet  `json:"datasets"`
}

// CommunityService 接口定义了社区及成员关系相关的业务操作。
type CommunityService interface {
	List() ([]model.Community, error)
	GetByID(communityID uint) (*CommunityDetail, error)
	ListByMember(userID uint) ([]model.Community, error)
	ListByOwner(userID uint) ([]model.Community, error)
	SearchByName(query string) ([]model.Community, error)

	Create(name, description string, userID uint) (*model.Community, error)
	Update(communityID, actorID uint, name, description string) (*model.Community, error)
	Delete(communityID, actorID uint) error

	Request(communityID, userID uint) error
	// HandleRequest 由所有者接受或拒绝加入申请，action 为 accept 或 reject。
	HandleRequest(communityID, actorID, userID uint, action string) error
	// RemoveMember 使用户退出社区，所有者不能退出。
	RemoveMember(communityID, userID uint) error
}

type communityService struct {
	communityRepo repository.CommunityRepository
	datasetRepo   repository.DatasetRepository
}

// NewCommunityService 创建一个新的 CommunityService 实例。
func NewCommunityService(communityRepo repository.CommunityRepository, datasetRepo repository.DatasetRepository) CommunityService {
	return &communityService{communityRepo: communityRepo, datasetRepo: datasetRepo}
}

func (s *communityService) List() ([]model.Community, error) {
	return s.communityRepo.FindAll()
}

func (s *communityService) GetByID(communityID uint) (*CommunityDetail, error) {
	c, err := s.communityRepo.FindByID(communityID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCommunityNotFound
	}
	if err != nil {
		return nil, err
	}
	detail := &CommunityDetail{
		Community: c,
		Owners:    []model.User{},
		Members:   []model.User{},
		Requests:  []model.User{},
	}
	for _, m := range c.Memberships {
		switch m.Role {
		case model.RoleOwner:
			detail.Owners = append(detail.Owners, m.User)
		case model.RoleMember:
			detail.Members = append(detail.Members, m.User)
		case model.RoleRequester:
			detail.Requests = append(detail.Requests, m.User)
		}
	}
	if detail.Datasets, err = s.datasetRepo.FindAllByCommunity(communityID); err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *communityService) ListByMember(userID uint) ([]model.Community, error) {
	return s.communityRepo.FindByMember(userID)
}

func (s *communityService) ListByOwner(userID uint) ([]model.Community, error) {
	all, err := s.communityRepo.FindByMember(userID)
	if err != nil {
		return nil, err
	}
	owned := make([]model.Community, 0, len(all))
	for _, c := range all {
		for _, id := range c.UsersWithRole(model.RoleOwner) {
			if id == userID {
				owned = append(owned, c)
				break
			}
		}
	}
	return owned, nil
}

// SearchByName 空查询返回空列表。
func (s *communityService) SearchByName(query string) ([]model.Community, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Community{}, nil
	}
	return s.communityRepo.SearchByName(query)
}

func (s *communityService) nameTaken(name string) (bool, error) {
	_, err := s.communityRepo.FindByName(name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *communityService) Create(name, description string, userID uint) (*model.Community, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("Community name is required.")
	}
	taken, err := s.nameTaken(name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrCommunityNameTaken
	}
	c := &model.Community{Name: name, Description: description}
	if err := s.communityRepo.Create(c, userID); err != nil {
		return nil, err
	}
	log.Infof("[CommunityService] 社区创建成功, communityID: %d, owner: %d", c.ID, userID)
	return c, nil
}

// membership 返回用户在社区中的角色，没有关系时返回空字符串。
func (s *communityService) membership(communityID, userID uint) (model.CommunityRole, error) {
	m, err := s.communityRepo.GetMembership(communityID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return m.Role, nil
}

// requireOwner 校验社区存在且 actor 是所有者。
func (s *communityService) requireOwner(communityID, actorID uint) (*model.Community, error) {
	c, err := s.communityRepo.FindByID(communityID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCommunityNotFound
	}
	if err != nil {
		return nil, err
	}
	role, err := s.membership(communityID, actorID)
	if err != nil {
		return nil, err
	}
	if role != model.RoleOwner {
		return nil, ErrForbidden
	}
	return c, nil
}

func (s *communityService) Update(communityID, actorID uint, name, description string) (*model.Community, error) {
	c, err := s.requireOwner(communityID, actorID)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name != "" && name != c.Name {
		taken, err := s.nameTaken(name)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrCommunityNameTaken
		}
		c.Name = name
	}
	c.Description = description
	if err := s.communityRepo.Update(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *communityService) Delete(communityID, actorID uint) error {
	if _, err := s.requireOwner(communityID, actorID); err != nil {
		return err
	}
	log.Infof("[CommunityService] 删除社区, communityID: %d, actor: %d", communityID, actorID)
	return s.communityRepo.Delete(communityID)
}

func (s *communityService) Request(communityID, userID uint) error {
	if _, err := s.communityRepo.FindByID(communityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommunityNotFound
		}
		return err
	}
	role, err := s.membership(communityID, userID)
	if err != nil {
		return err
	}
	switch {
	case role.IsMember():
		return ErrAlreadyMember
	case role == model.RoleRequester:
		return ErrRequestPending
	}
	return s.communityRepo.AddMembership(communityID, userID, model.RoleRequester)
}

func (s *communityService) HandleRequest(communityID, actorID, userID uint, action string) error {
	if _, err := s.requireOwner(communityID, actorID); err != nil {
		return err
	}
	if action != "accept" && action != "reject" {
		return ErrInvalidAction
	}
	role, err := s.membership(communityID, userID)
	if err != nil {
		return err
	}
	if role != model.RoleRequester {
		return ErrRequestNotFound
	}
	if action == "accept" {
		return s.communityRepo.UpdateRole(communityID, userID, model.RoleMember)
	}
	return s.communityRepo.DeleteMembership(communityID, userID)
}

func (s *communityService) RemoveMember(communityID, userID uint) error {
	if _, err := s.communityRepo.FindByID(communityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommunityNotFound
		}
		return err
	}
	role, err := s.membership(communityID, userID)
	if err != nil {
		return err
	}
	if !role.IsMember() {
		return ErrNotMember
	}
	if role == model.RoleOwner {
		return ErrOwnerCannotLeave
	}
	return s.communityRepo.DeleteMembership(communityID, userID)
}
