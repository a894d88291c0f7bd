package models

// Category groups recipes (desserts, main courses, ...).
// Deleting a category nulls Recipe.CategoryID instead of deleting recipes.
type Category struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Name        string   `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string   `gorm:"type:text" json:"description"`
	Recipes     []Recipe `gorm:"constraint:OnDelete:SET NULL;" json:"-"`
}
