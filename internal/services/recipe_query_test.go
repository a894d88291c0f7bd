package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSortMode(t *testing.T) {
	testCases := map[string]SortMode{
		"":        SortNewest,
		"newest":  SortNewest,
		"oldest":  SortOldest,
		"Popular": SortPopular,
		" rating": SortRating,
		"random":  SortNewest,
	}
	for input, expected := range testCases {
		assert.Equal(t, expected, ParseSortMode(input), input)
	}
}

func TestBuildQueryPlanPredicateOrder(t *testing.T) {
	cat, tag := uint(3), uint(7)
	plan := BuildQueryPlan(RecipeCriteria{TagID: &tag, Query: "Torte", CategoryID: &cat})

	names := make([]string, len(plan.Predicates))
	for i, p := range plan.Predicates {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"query", "category", "tag"}, names)
	assert.Equal(t, []interface{}{"%Torte%", "%Torte%", "%Torte%"}, plan.Predicates[0].Args)
	assert.Equal(t, []interface{}{cat}, plan.Predicates[1].Args)
	assert.Equal(t, []interface{}{tag}, plan.Predicates[2].Args)
	assert.Equal(t, 3, plan.Filters.Count())
}

func TestBuildQueryPlanWithoutCriteria(t *testing.T) {
	plan := BuildQueryPlan(RecipeCriteria{Query: " \t "})

	assert.Empty(t, plan.Predicates)
	assert.Equal(t, SortNewest, plan.Mode)
	assert.Equal(t, 0, plan.Filters.Count())
	assert.Equal(t, 1, plan.Page)
	assert.Equal(t, RecipePageSize, plan.Limit)
	assert.Equal(t, 0, plan.Offset)
}

func TestBuildQueryPlanSortKeys(t *testing.T) {
	testCases := []struct {
		mode     SortMode
		expected []string
	}{
		{SortNewest, []string{"recipes.created_at DESC", "recipes.id DESC"}},
		{SortOldest, []string{"recipes.created_at ASC", "recipes.id ASC"}},
		{SortPopular, []string{"COALESCE(stats.comment_count, 0) DESC", "recipes.created_at DESC", "recipes.id DESC"}},
		{SortRating, []string{"COALESCE(stats.avg_rating, 0) DESC", "recipes.created_at DESC", "recipes.id DESC"}},
	}

	for _, tt := range testCases {
		t.Run(string(tt.mode), func(t *testing.T) {
			plan := BuildQueryPlan(RecipeCriteria{Sort: tt.mode})
			keys := make([]string, len(plan.Sort))
			for i, k := range plan.Sort {
				keys[i] = k.String()
			}
			assert.Equal(t, tt.expected, keys)
		})
	}
}

func TestBuildQueryPlanPaging(t *testing.T) {
	assert.Equal(t, 0, BuildQueryPlan(RecipeCriteria{Page: -4}).Offset)
	assert.Equal(t, 24, BuildQueryPlan(RecipeCriteria{Page: 3}).Offset)

	huge := BuildQueryPlan(RecipeCriteria{Page: math.MaxInt})
	assert.Equal(t, math.MaxInt/RecipePageSize+1, huge.Page)
	assert.GreaterOrEqual(t, huge.Offset, 0)
	assert.Equal(t, (huge.Page-1)*RecipePageSize, huge.Offset)

	plan := BuildQueryPlan(RecipeCriteria{Page: 3}).WithLimit(6)
	assert.Equal(t, 1, plan.Page)
	assert.Equal(t, 6, plan.Limit)
	assert.Equal(t, 0, plan.Offset)
}

func TestQueryPlanAndDoesNotAlias(t *testing.T) {
	cat := uint(1)
	base := BuildQueryPlan(RecipeCriteria{CategoryID: &cat})
	a := base.And(excludeRecipePredicate(1))
	b := base.And(authorPredicate(2))

	assert.Len(t, base.Predicates, 1)
	assert.Equal(t, "exclude", a.Predicates[1].Name)
	assert.Equal(t, "author", b.Predicates[1].Name)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% rye\_bread \\ more`, escapeLike(`100% rye_bread \ more`))
}
