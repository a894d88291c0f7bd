package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// FavoritesTable is the join table behind User.FavoriteRecipes
const FavoritesTable = "user_favorite_recipes"

// User is a registered cookbook member. FavoriteRecipes is independent of authorship.
type User struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Username        string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email           string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash    string    `gorm:"not null" json:"-"`
	Bio             string    `gorm:"size:500" json:"bio"`
	ProfileImageKey string    `gorm:"column:profile_image" json:"-"`
	Role            string    `gorm:"default:'user'" json:"role"`
	FavoriteRecipes []Recipe  `gorm:"many2many:user_favorite_recipes;" json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SetPassword stores the bcrypt hash of the given plain password
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether plain matches the stored hash
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// UserSummary is the public projection embedded in recipes and comments
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username}
}
