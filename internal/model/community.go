package model

import "time"

// CommunityRole 表示用户在社区中的状态，每个 (社区, 用户) 只有一行。
type CommunityRole string

const (
	RoleOwner     CommunityRole = "owner"
	RoleMember    CommunityRole = "member"
	RoleRequester CommunityRole = "requester"
)

// IsMember 所有者同时视为成员。
func (r CommunityRole) IsMember() bool {
	return r == RoleOwner || r == RoleMember
}

// Community 对应于数据库中的 'community' 表。
type Community struct {
	ID          uint                  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string                `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string                `gorm:"type:text" json:"description"`
	CreatedAt   time.Time             `gorm:"autoCreateTime" json:"createdAt"`
	Memberships []CommunityMembership `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Community) TableName() string {
	return "community"
}

// UsersWithRole 返回已预加载的成员关系中拥有指定角色的用户 ID。
func (c *Community) UsersWithRole(roles ...CommunityRole) []uint {
	var ids []uint
	for _, m := range c.Memberships {
		for _, r := range roles {
			if m.Role == r {
				ids = append(ids, m.UserID)
				break
			}
		}
	}
	return ids
}

// CommunityMembership 记录用户与社区之间的关系。
type CommunityMembership struct {
	ID          uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	CommunityID uint          `gorm:"not null;uniqueIndex:idx_community_user" json:"communityId"`
	UserID      uint          `gorm:"not null;uniqueIndex:idx_community_user;index" json:"userId"`
	Role        CommunityRole `gorm:"type:varchar(16);not null" json:"role"`
	CreatedAt   time.Time     `gorm:"autoCreateTime" json:"createdAt"`
	User        User          `gorm:"foreignKey:UserID" json:"user"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (CommunityMembership) TableName() string {
	return "community_membership"
}
