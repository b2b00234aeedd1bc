package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Group names with fixed meaning. Voters is assigned to every new account at
// registration; Staff membership grants poll-authoring rights.
const (
	GroupVoters = "voters"
	GroupStaff  = "staff"
)

// User represents the users table
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"uniqueIndex;size:150;not null"`
	Email        sql.NullString
	PasswordHash string `gorm:"not null"`
	IsSuperuser  bool   `gorm:"not null;default:false"`
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Groups []Group `gorm:"many2many:user_groups"`
}

// Group represents the groups table
type Group struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"uniqueIndex;size:150;not null"`
}

// UserSession represents the user_sessions table
type UserSession struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID `gorm:"type:uuid;index;not null"`
	RefreshTokenHash string    `gorm:"not null"`
	ExpiresAt        time.Time
	IsRevoked        bool `gorm:"not null;default:false"`
	CreatedAt        time.Time
}

// IsAdmin reports whether the user may author and edit polls: superusers and
// members of the staff group. Groups must be preloaded.
func (u *User) IsAdmin() bool {
	if u.IsSuperuser {
		return true
	}
	for _, g := range u.Groups {
		if g.Name == GroupStaff {
			return true
		}
	}
	return false
}

func (User) TableName() string {
	return "users"
}

func (Group) TableName() string {
	return "groups"
}

func (UserSession) TableName() string {
	return "user_sessions"
}
