package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Comment on a recipe. Rating is optional; a nil rating is a text-only comment.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RecipeID  uint      `gorm:"not null;index" json:"recipe_id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;" json:"-"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Rating    *int      `json:"rating"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
