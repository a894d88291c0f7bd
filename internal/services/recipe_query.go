package services

import (
	"math"
	"strings"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"gorm.io/gorm"
)

// RecipePageSize is the fixed number of recipes per listing page
const RecipePageSize = 12

// SortMode selects the single ordering applied to a recipe listing
type SortMode string

const (
	SortNewest  SortMode = "newest"
	SortOldest  SortMode = "oldest"
	SortPopular SortMode = "popular"
	SortRating  SortMode = "rating"
)

// ParseSortMode maps user input to a SortMode. Empty or unknown values fall back to newest.
func ParseSortMode(s string) SortMode {
	switch SortMode(strings.ToLower(strings.TrimSpace(s))) {
	case SortOldest:
		return SortOldest
	case SortPopular:
		return SortPopular
	case SortRating:
		return SortRating
	default:
		return SortNewest
	}
}

// RecipeCriteria is the optional filter/sort set supplied by a caller.
// Nil ids and an empty query mean "no filter".
type RecipeCriteria struct {
	Query      string
	CategoryID *uint
	TagID      *uint
	Sort       SortMode
	Page       int
}

// ActiveFilters echoes the normalized criteria back to the caller
type ActiveFilters struct {
	Query      string   `json:"query"`
	CategoryID *uint    `json:"category_id"`
	TagID      *uint    `json:"tag_id"`
	Sort       SortMode `json:"sort"`
}

// Count returns how many filters (not counting the sort) are active
func (f ActiveFilters) Count() int {
	n := 0
	if f.Query != "" {
		n++
	}
	if f.CategoryID != nil {
		n++
	}
	if f.TagID != nil {
		n++
	}
	return n
}

// Predicate is one WHERE condition of a query plan
type Predicate struct {
	Name   string
	Clause string
	Args   []interface{}
}

// SortKey is one ORDER BY term of a query plan
type SortKey struct {
	Expr string
	Desc bool
}

func (k SortKey) String() string {
	if k.Desc {
		return k.Expr + " DESC"
	}
	return k.Expr + " ASC"
}

// Columns and aggregate expressions the plans refer to. The aggregates come
// from the comment stats subquery joined as "stats".
const (
	colID           = "recipes.id"
	colCreatedAt    = "recipes.created_at"
	colCommentCount = "COALESCE(stats.comment_count, 0)"
	colRatingCount  = "COALESCE(stats.rating_count, 0)"
	colRatingSum    = "COALESCE(stats.rating_sum, 0)"
	colAvgRating    = "COALESCE(stats.avg_rating, 0)"
)

// QueryPlan is the ordered list of predicates and sort keys for one listing,
// plus the page window
type QueryPlan struct {
	Predicates []Predicate
	Sort       []SortKey
	Mode       SortMode
	Page       int
	Limit      int
	Offset     int
	Filters    ActiveFilters
}

// BuildQueryPlan turns criteria into a plan: filters in the fixed order
// query, category, tag, then exactly one sort mode, then the page window.
func BuildQueryPlan(c RecipeCriteria) QueryPlan {
	mode := ParseSortMode(string(c.Sort))
	query := strings.TrimSpace(c.Query)

	plan := QueryPlan{
		Mode: mode,
		Filters: ActiveFilters{
			Query:      query,
			CategoryID: c.CategoryID,
			TagID:      c.TagID,
			Sort:       mode,
		},
	}

	if query != "" {
		// both sides are folded by the database so they agree; SQLite only
		// folds ASCII letters
		pattern := "%" + escapeLike(query) + "%"
		plan.Predicates = append(plan.Predicates, Predicate{
			Name: "query",
			Clause: "(LOWER(recipes.title) LIKE LOWER(?) ESCAPE '\\' OR " +
				"LOWER(recipes.description) LIKE LOWER(?) ESCAPE '\\' OR " +
				"LOWER(recipes.ingredients) LIKE LOWER(?) ESCAPE '\\')",
			Args: []interface{}{pattern, pattern, pattern},
		})
	}
	if c.CategoryID != nil {
		plan.Predicates = append(plan.Predicates, Predicate{
			Name:   "category",
			Clause: "recipes.category_id = ?",
			Args:   []interface{}{*c.CategoryID},
		})
	}
	if c.TagID != nil {
		plan.Predicates = append(plan.Predicates, Predicate{
			Name:   "tag",
			Clause: "EXISTS (SELECT 1 FROM " + models.RecipeTagsTable + " rt WHERE rt.recipe_id = recipes.id AND rt.tag_id = ?)",
			Args:   []interface{}{*c.TagID},
		})
	}

	plan.Sort = sortKeys(mode)

	page := c.Page
	if page < 1 {
		page = 1
	}
	// past this page the offset would overflow; it is empty anyway
	if maxPage := math.MaxInt/RecipePageSize + 1; page > maxPage {
		page = maxPage
	}
	plan.Page = page
	plan.Limit = RecipePageSize
	plan.Offset = (page - 1) * RecipePageSize

	return plan
}

// sortKeys ends every mode with recipes.id so that equal keys still order
// deterministically
func sortKeys(mode SortMode) []SortKey {
	switch mode {
	case SortOldest:
		return []SortKey{{Expr: colCreatedAt}, {Expr: colID}}
	case SortPopular:
		return []SortKey{{Expr: colCommentCount, Desc: true}, {Expr: colCreatedAt, Desc: true}, {Expr: colID, Desc: true}}
	case SortRating:
		// unrated recipes aggregate to 0 and land after every rated one
		return []SortKey{{Expr: colAvgRating, Desc: true}, {Expr: colCreatedAt, Desc: true}, {Expr: colID, Desc: true}}
	default:
		return []SortKey{{Expr: colCreatedAt, Desc: true}, {Expr: colID, Desc: true}}
	}
}

// And returns a copy of the plan with an extra predicate appended
func (p QueryPlan) And(pred Predicate) QueryPlan {
	preds := make([]Predicate, 0, len(p.Predicates)+1)
	preds = append(preds, p.Predicates...)
	p.Predicates = append(preds, pred)
	return p
}

// WithLimit returns a copy of the plan reading the first n rows
func (p QueryPlan) WithLimit(n int) QueryPlan {
	p.Page = 1
	p.Limit = n
	p.Offset = 0
	return p
}

func (p QueryPlan) filter(db *gorm.DB) *gorm.DB {
	for _, pred := range p.Predicates {
		db = db.Where(pred.Clause, pred.Args...)
	}
	return db
}

func (p QueryPlan) order(db *gorm.DB) *gorm.DB {
	for _, key := range p.Sort {
		db = db.Order(key.String())
	}
	return db
}

func authorPredicate(userID uint) Predicate {
	return Predicate{Name: "author", Clause: "recipes.author_id = ?", Args: []interface{}{userID}}
}

func favoritedByPredicate(userID uint) Predicate {
	return Predicate{
		Name:   "favorited_by",
		Clause: "EXISTS (SELECT 1 FROM " + models.FavoritesTable + " f WHERE f.recipe_id = recipes.id AND f.user_id = ?)",
		Args:   []interface{}{userID},
	}
}

func excludeRecipePredicate(id uint) Predicate {
	return Predicate{Name: "exclude", Clause: "recipes.id <> ?", Args: []interface{}{id}}
}

// commentStats is the single grouped aggregate over comments used for both
// counts and ratings of every candidate recipe
func commentStats(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Comment{}).
		Select("recipe_id, COUNT(*) AS comment_count, COUNT(rating) AS rating_count, SUM(rating) AS rating_sum, AVG(rating) AS avg_rating").
		Group("recipe_id")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
