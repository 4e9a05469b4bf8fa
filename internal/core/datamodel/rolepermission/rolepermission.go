package rolepermission

import "time"

// RolePermission links one role to one permission. The pair is the primary key.
type RolePermission struct {
	RoleID       string    `gorm:"primaryKey;column:role_id;type:uuid"`
	PermissionID string    `gorm:"primaryKey;column:permission_id;type:uuid"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}

// RolePermissionView is an association row joined with both endpoint names.
type RolePermissionView struct {
	RoleID         string    `gorm:"column:role_id" db:"role_id"`
	RoleName       string    `gorm:"column:role_name" db:"role_name"`
	PermissionID   string    `gorm:"column:permission_id" db:"permission_id"`
	PermissionName string    `gorm:"column:permission_name" db:"permission_name"`
	CreatedAt      time.Time `gorm:"column:created_at" db:"created_at"`
}
