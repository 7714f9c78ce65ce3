// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// User 对应于数据库中的 'users' 表。
type User struct {
	ID        uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string       `gorm:"type:varchar(256);uniqueIndex;not null" json:"email"`
	Password  string       `gorm:"type:varchar(256);not null" json:"-"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"createdAt"`
	Profile   *UserProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "users"
}

// UserProfile 保存用户的展示信息，创建数据集时用于生成主作者。
type UserProfile struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint   `gorm:"uniqueIndex;not null" json:"userId"`
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Surname     string `gorm:"type:varchar(100);not null" json:"surname"`
	Affiliation string `gorm:"type:varchar(100)" json:"affiliation"`
	Orcid       string `gorm:"type:varchar(19)" json:"orcid"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (UserProfile) TableName() string {
	return "user_profile"
}

// All 返回需要自动迁移的全部模型。
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserProfile{},
		&Community{},
		&CommunityMembership{},
		&DSMetrics{},
		&DSMetaData{},
		&Author{},
		&DataSet{},
		&FMMetaData{},
		&FeatureModel{},
		&Hubfile{},
		&DSViewRecord{},
		&DSDownloadRecord{},
		&DOIMapping{},
		&Deposition{},
	}
}
