package postgres

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"` // UUID generated before insert
	Email     string    `gorm:"not null;uniqueIndex"`        // Unique, compared case-sensitively
	Password  string    `gorm:"not null"`                    // bcrypt hash
	Name      string    `gorm:"not null;default:''"`
	Role      string    `gorm:"not null;default:user"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID when none was provided.
func (u *UserSchema) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// ActivityLogSchema represents the database schema for the activity_logs table.
type ActivityLogSchema struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	Action    string    `gorm:"not null;index"`
	UserID    string    `gorm:"type:varchar(36);not null;index"`
	Details   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`

	// User is only declared for the foreign key; entries are written with it nil.
	User *UserSchema `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName specifies the table name for the ActivityLogSchema model.
func (ActivityLogSchema) TableName() string {
	return "activity_logs"
}

// BeforeCreate assigns a UUID when none was provided.
func (a *ActivityLogSchema) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// AutoMigrate creates or updates the tables owned by this package.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserSchema{}, &ActivityLogSchema{})
}

// isUniqueViolation reports whether err is a unique constraint failure.
// TranslateError covers both drivers; the message checks catch connections
// opened without it.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
