package model

import "time"

type User struct {
	UserID     uint64 `gorm:"column:user_id;primaryKey;autoIncrement"`
	ExternalID string `gorm:"column:external_id;type:varchar(255);not null;uniqueIndex"`
	Name       string `gorm:"column:name;type:varchar(255);not null"`

	Permissions []SubSystemPermission `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string {
	return "user"
}

type SubSystem struct {
	SubSystemID uint64 `gorm:"column:sub_system_id;primaryKey;autoIncrement"`
	Name        string `gorm:"column:sub_system_name;type:varchar(255);not null;uniqueIndex"`

	Permissions []SubSystemPermission `gorm:"foreignKey:SubSystemID;references:SubSystemID;constraint:OnDelete:CASCADE"`
}

func (SubSystem) TableName() string {
	return "sub_system"
}

type SubSystemPermission struct {
	PermissionID     uint64    `gorm:"column:sub_system_permission_id;primaryKey;autoIncrement"`
	UserID           uint64    `gorm:"column:user_id;not null;index"`
	SubSystemID      uint64    `gorm:"column:sub_system_id;not null;index"`
	TokenHash        string    `gorm:"column:sub_system_hash;type:varchar(255);not null"`
	TokenDescription string    `gorm:"column:sub_system_token_description;type:varchar(255);not null;default:''"`
	IsMember         bool      `gorm:"column:is_member;not null;default:false"`
	EditEorReason    bool      `gorm:"column:edit_eor_reason;not null;default:false"`
	CreatedAt        time.Time `gorm:"column:created_at;not null"`
}

func (SubSystemPermission) TableName() string {
	return "sub_system_permission"
}
