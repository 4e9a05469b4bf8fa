package role

import "time"

type Role struct {
	ID          string    `gorm:"primaryKey;type:uuid"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description *string   `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Role) TableName() string {
	return "roles"
}
