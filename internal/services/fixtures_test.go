package services

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/auth"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/testdb"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// cookbook is a small seeded store:
//
//	sacher   Desserts  [vegetarian]         comments rated 5, 3
//	linzer   Desserts  []                   5 unrated comments
//	peaSoup  Soups     [vegetarian, quick]  comments rated 5, unrated
//	applePie -         []                   no comments
//	goulash  Soups     []                   no comments
//
// Recipes are created one hour apart in that order.
type cookbook struct {
	db *gorm.DB

	anna, ben, admin models.User
	desserts, soups  models.Category
	veg, quick       models.Tag

	sacher, linzer, peaSoup, applePie, goulash models.Recipe

	clock time.Time
}

func newCookbook(t *testing.T) *cookbook {
	t.Helper()
	f := &cookbook{db: testdb.Open(t), clock: baseTime.Add(24 * time.Hour)}

	f.anna = f.user(t, "anna", models.RoleUser)
	f.ben = f.user(t, "ben", models.RoleUser)
	f.admin = f.user(t, "root", models.RoleAdmin)

	f.desserts = models.Category{Name: "Desserts", Description: "Sweet things"}
	f.soups = models.Category{Name: "Soups"}
	require.NoError(t, f.db.Create(&f.desserts).Error)
	require.NoError(t, f.db.Create(&f.soups).Error)

	f.veg = models.Tag{Name: "Vegetarian", Slug: "vegetarian"}
	f.quick = models.Tag{Name: "Quick", Slug: "quick"}
	require.NoError(t, f.db.Create(&f.veg).Error)
	require.NoError(t, f.db.Create(&f.quick).Error)

	f.sacher = f.recipe(t, f.anna, "Sachertorte", "Chocolate cake with apricot jam", "chocolate\nbutter\napricot jam", &f.desserts.ID, 1, f.veg)
	f.linzer = f.recipe(t, f.anna, "Linzer Torte", "Lattice cake", "almonds\nflour\nredcurrant jam", &f.desserts.ID, 2)
	f.peaSoup = f.recipe(t, f.ben, "Pea Soup", "Green and quick", "peas\nmint", &f.soups.ID, 3, f.veg, f.quick)
	f.applePie = f.recipe(t, f.ben, "Apple Pie", "Classic pie", "apples\nbutter\nTORTE crumbs", nil, 4)
	f.goulash = f.recipe(t, f.anna, "Goulash", "Beef stew", "beef\npaprika", &f.soups.ID, 5)

	f.comment(t, f.sacher, f.ben, ptr(5))
	f.comment(t, f.sacher, f.ben, ptr(3))
	for i := 0; i < 5; i++ {
		f.comment(t, f.linzer, f.ben, nil)
	}
	f.comment(t, f.peaSoup, f.anna, ptr(5))
	f.comment(t, f.peaSoup, f.anna, nil)

	return f
}

func (f *cookbook) user(t *testing.T, name, role string) models.User {
	t.Helper()
	u := models.User{Username: name, Email: name + "@example.com", Role: role, PasswordHash: "x"}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func (f *cookbook) recipe(t *testing.T, author models.User, title, description, ingredients string, categoryID *uint, hour int, tags ...models.Tag) models.Recipe {
	t.Helper()
	r := models.Recipe{
		Title:        title,
		Description:  description,
		Ingredients:  ingredients,
		Instructions: "Cook it.",
		CookingTime:  30,
		Servings:     4,
		AuthorID:     author.ID,
		CategoryID:   categoryID,
		CreatedAt:    baseTime.Add(time.Duration(hour) * time.Hour),
	}
	require.NoError(t, f.db.Omit(clause.Associations).Create(&r).Error)
	if len(tags) > 0 {
		require.NoError(t, f.db.Model(&r).Association("Tags").Append(tags))
	}
	return r
}

func (f *cookbook) comment(t *testing.T, recipe models.Recipe, author models.User, rating *int) models.Comment {
	t.Helper()
	f.clock = f.clock.Add(time.Minute)
	c := models.Comment{RecipeID: recipe.ID, AuthorID: author.ID, Content: "Nice", Rating: rating, CreatedAt: f.clock}
	require.NoError(t, f.db.Omit(clause.Associations).Create(&c).Error)
	return c
}

func caller(u models.User) auth.AuthContext {
	return auth.AuthContext{UserID: u.ID, Role: u.Role}
}

func ids(items []RecipeSummary) []uint {
	out := make([]uint, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

// memoryImages is an in-process ImageStore
type memoryImages struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func newMemoryImages() *memoryImages {
	return &memoryImages{objects: make(map[string][]byte)}
}

func (m *memoryImages) Put(_ context.Context, key string, body io.ReadSeeker, _ int64, _ string) error {
	if m.failPut {
		return io.ErrClosedPipe
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryImages) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryImages) URL(key string) string {
	return "https://img.test/" + key
}

// recordingHooks remembers every lifecycle call
type recordingHooks struct {
	replaced [][2]string
	deleted  []uint
}

func (h *recordingHooks) ImageReplaced(_ context.Context, oldKey, newKey string) {
	h.replaced = append(h.replaced, [2]string{oldKey, newKey})
}

func (h *recordingHooks) RecipeDeleted(_ context.Context, recipe *models.Recipe) {
	h.deleted = append(h.deleted, recipe.ID)
}

var pngBytes = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}, make([]byte, 48)...)

func pngUpload() ImageUpload {
	return ImageUpload{Body: bytes.NewReader(pngBytes), Size: int64(len(pngBytes))}
}
