package models

import "time"

// User bridges the identity provider's subject claim to a local row.
// Profile attributes are refreshed from the provider's claims on login;
// nothing else in the system mutates them.
type User struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SubjectID string `gorm:"column:subject_id;type:text;uniqueIndex;not null" json:"subject_id"`

	Email   string `gorm:"column:email;type:text;uniqueIndex" json:"email"`
	Name    string `gorm:"column:name;type:text" json:"name"`
	Picture string `gorm:"column:picture;type:text" json:"picture"`

	CreatedAt   time.Time  `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	LastLoginAt *time.Time `gorm:"column:last_login_at;type:timestamptz" json:"last_login_at,omitempty"`
}

func (User) TableName() string { return "users" }
