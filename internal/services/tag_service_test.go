package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	testCases := map[string]string{
		"Vegetarian":       "vegetarian",
		"Gluten Free":      "gluten-free",
		"  Quick & Easy! ": "quick-easy",
		"low_carb":         "low_carb",
		"Crème brûlée":     "crme-brle",
		"a -- b":           "a-b",
	}
	for input, expected := range testCases {
		assert.Equal(t, expected, Slugify(input), input)
	}
}

func TestListTags(t *testing.T) {
	f := newCookbook(t)
	svc := NewTagService(f.db, newMemoryImages())

	tags, err := svc.ListTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []TagCount{
		{ID: f.quick.ID, Name: "Quick", Slug: "quick", RecipeCount: 1},
		{ID: f.veg.ID, Name: "Vegetarian", Slug: "vegetarian", RecipeCount: 2},
	}, tags)
}

func TestGetTag(t *testing.T) {
	f := newCookbook(t)
	svc := NewTagService(f.db, newMemoryImages())

	detail, err := svc.GetTag(context.Background(), f.veg.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.peaSoup.ID, f.sacher.ID}, ids(detail.Recipes.Items))

	_, err = svc.GetTag(context.Background(), 999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateTag(t *testing.T) {
	f := newCookbook(t)
	svc := NewTagService(f.db, newMemoryImages())
	ctx := context.Background()

	tag, err := svc.CreateTag(ctx, caller(f.admin), TagInput{Name: "Gluten Free"})
	require.NoError(t, err)
	assert.Equal(t, "gluten-free", tag.Slug)

	tag, err = svc.CreateTag(ctx, caller(f.admin), TagInput{Name: "Low carb", Slug: "low_carb"})
	require.NoError(t, err)
	assert.Equal(t, "low_carb", tag.Slug)

	_, err = svc.CreateTag(ctx, caller(f.admin), TagInput{Name: "Spicy", Slug: "very spicy"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateTag(ctx, caller(f.admin), TagInput{Name: "!!!"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateTag(ctx, caller(f.admin), TagInput{Name: "Veggie", Slug: "vegetarian"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.CreateTag(ctx, caller(f.ben), TagInput{Name: "Sweet"})
	assert.ErrorIs(t, err, ErrForbidden)
}
