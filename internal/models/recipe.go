package models

import (
	"time"
)

const RecipeTagsTable = "recipe_tags"

// Recipe is the main cookbook entry.
// Ingredients holds one item per line by convention and is never parsed.
type Recipe struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	Description  string    `gorm:"type:text;not null" json:"description"`
	Ingredients  string    `gorm:"type:text;not null" json:"ingredients"`
	Instructions string    `gorm:"type:text;not null" json:"instructions"`
	CookingTime  int       `gorm:"not null" json:"cooking_time"`
	Servings     int       `gorm:"not null;default:1" json:"servings"`
	ImageKey     string    `json:"image_key,omitempty"`
	AuthorID     uint      `gorm:"not null;index" json:"author_id"`
	Author       User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;" json:"-"`
	CategoryID   *uint     `gorm:"index" json:"category_id"`
	Category     *Category `gorm:"foreignKey:CategoryID" json:"-"`
	Tags         []Tag     `gorm:"many2many:recipe_tags;" json:"-"`
	Comments     []Comment `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
