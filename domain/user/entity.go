package user

import (
	"time"
)

// User is an account that owns tasks.
type User struct {
	ID           string `gorm:"primaryKey;type:text"`
	Name         string `gorm:"not null;type:text"`
	Email        string `gorm:"uniqueIndex;not null;type:text"`
	PasswordHash string `gorm:"not null;type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// Profile is the public view of a user.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile returns the public view of u.
func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// Session is an issued access token together with its owner.
type Session struct {
	User      Profile `json:"user"`
	Token     string  `json:"token"`
	ExpiresIn int64   `json:"expiresIn"`
	TokenType string  `json:"tokenType"`
}

// Claims identifies the authenticated principal.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}
