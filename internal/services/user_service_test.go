package services

import (
	"context"
	"strings"
	"testing"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/auth"
	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	f := newCookbook(t)
	svc := NewUserService(f.db, newMemoryImages(), &recordingHooks{})
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "clara", Email: "Clara@Example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "clara@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	_, err = svc.Register(ctx, RegisterInput{Username: "clara", Email: "other@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = svc.Register(ctx, RegisterInput{Username: "clara2", Email: "clara@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = svc.Register(ctx, RegisterInput{Username: "dora", Email: "dora@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Register(ctx, RegisterInput{Username: "dora", Email: "not-an-email", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrValidation)

	byName, err := svc.Authenticate(ctx, "clara", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byEmail, err := svc.Authenticate(ctx, "CLARA@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = svc.Authenticate(ctx, "clara", "wrong-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetProfile(t *testing.T) {
	f := newCookbook(t)
	svc := NewUserService(f.db, newMemoryImages(), &recordingHooks{})

	profile, err := svc.GetProfile(context.Background(), f.anna.ID)
	require.NoError(t, err)
	assert.Equal(t, "anna", profile.Username)
	assert.Equal(t, []uint{f.goulash.ID, f.linzer.ID, f.sacher.ID}, ids(profile.Recipes))

	_, err = svc.GetProfile(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggleFavorite(t *testing.T) {
	f := newCookbook(t)
	svc := NewUserService(f.db, newMemoryImages(), &recordingHooks{})
	recipes, _, _ := newRecipeService(f)
	ctx := context.Background()

	on, err := svc.ToggleFavorite(ctx, caller(f.ben), f.sacher.ID)
	require.NoError(t, err)
	assert.True(t, on)

	_, err = svc.ToggleFavorite(ctx, caller(f.ben), f.goulash.ID)
	require.NoError(t, err)

	favorites, err := svc.ListFavorites(ctx, caller(f.ben))
	require.NoError(t, err)
	assert.Equal(t, []uint{f.goulash.ID, f.sacher.ID}, ids(favorites))

	detail, err := recipes.GetRecipeDetail(ctx, f.sacher.ID, caller(f.ben))
	require.NoError(t, err)
	assert.True(t, detail.IsFavorite)
	assert.False(t, detail.IsAuthor)

	off, err := svc.ToggleFavorite(ctx, caller(f.ben), f.sacher.ID)
	require.NoError(t, err)
	assert.False(t, off)

	favorites, err = svc.ListFavorites(ctx, caller(f.ben))
	require.NoError(t, err)
	assert.Equal(t, []uint{f.goulash.ID}, ids(favorites))

	// favorites are per user
	annaFavorites, err := svc.ListFavorites(ctx, caller(f.anna))
	require.NoError(t, err)
	assert.Empty(t, annaFavorites)

	_, err = svc.ToggleFavorite(ctx, caller(f.ben), 999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.ToggleFavorite(ctx, auth.Anonymous, f.sacher.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGetMyProfile(t *testing.T) {
	f := newCookbook(t)
	svc := NewUserService(f.db, newMemoryImages(), &recordingHooks{})
	ctx := context.Background()

	_, err := svc.ToggleFavorite(ctx, caller(f.anna), f.peaSoup.ID)
	require.NoError(t, err)

	me, err := svc.GetMyProfile(ctx, caller(f.anna))
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", me.Email)
	assert.Equal(t, models.RoleUser, me.Role)
	assert.Equal(t, []uint{f.goulash.ID, f.linzer.ID, f.sacher.ID}, ids(me.Recipes))
	assert.Equal(t, []uint{f.peaSoup.ID}, ids(me.Favorites))
	assert.Equal(t, int64(3), me.TotalRecipes)
	assert.Equal(t, int64(2), me.TotalComments)
	assert.Empty(t, me.ProfileImageURL)

	ben, err := svc.GetMyProfile(ctx, caller(f.ben))
	require.NoError(t, err)
	assert.Equal(t, int64(2), ben.TotalRecipes)
	assert.Equal(t, int64(7), ben.TotalComments)
	assert.Empty(t, ben.Favorites)

	_, err = svc.GetMyProfile(ctx, auth.Anonymous)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestUpdateProfile(t *testing.T) {
	f := newCookbook(t)
	svc := NewUserService(f.db, newMemoryImages(), &recordingHooks{})
	ctx := context.Background()

	me, err := svc.UpdateProfile(ctx, caller(f.anna), ProfileInput{Email: " Anna.Cook@Example.com ", Bio: "  Baker in Vienna "})
	require.NoError(t, err)
	assert.Equal(t, "anna.cook@example.com", me.Email)
	assert.Equal(t, "Baker in Vienna", me.Bio)

	var stored models.User
	require.NoError(t, f.db.First(&stored, f.anna.ID).Error)
	assert.Equal(t, "anna.cook@example.com", stored.Email)

	// keeping the own email is not a conflict
	_, err = svc.UpdateProfile(ctx, caller(f.anna), ProfileInput{Email: "anna.cook@example.com"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input ProfileInput
		want  error
	}{
		{"email of another user", ProfileInput{Email: "BEN@example.com"}, ErrConflict},
		{"malformed email", ProfileInput{Email: "anna at home"}, ErrValidation},
		{"empty email", ProfileInput{Email: "  "}, ErrValidation},
		{"bio too long", ProfileInput{Email: "anna@example.com", Bio: strings.Repeat("é", 501)}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateProfile(ctx, caller(f.anna), tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = svc.UpdateProfile(ctx, auth.Anonymous, ProfileInput{Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSetProfileImage(t *testing.T) {
	f := newCookbook(t)
	images := newMemoryImages()
	hooks := &recordingHooks{}
	svc := NewUserService(f.db, images, hooks)
	ctx := context.Background()

	me, err := svc.SetProfileImage(ctx, caller(f.ben), pngUpload())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(me.ProfileImageURL, "https://img.test/users/"))
	assert.True(t, strings.HasSuffix(me.ProfileImageURL, ".png"))

	var stored models.User
	require.NoError(t, f.db.First(&stored, f.ben.ID).Error)
	firstKey := stored.ProfileImageKey
	require.Len(t, hooks.replaced, 1)
	assert.Equal(t, [2]string{"", firstKey}, hooks.replaced[0])

	_, err = svc.SetProfileImage(ctx, caller(f.ben), pngUpload())
	require.NoError(t, err)
	require.NoError(t, f.db.First(&stored, f.ben.ID).Error)
	require.Len(t, hooks.replaced, 2)
	assert.Equal(t, [2]string{firstKey, stored.ProfileImageKey}, hooks.replaced[1])

	public, err := svc.GetProfile(ctx, f.ben.ID)
	require.NoError(t, err)
	assert.Equal(t, images.URL(stored.ProfileImageKey), public.ProfileImageURL)

	text := "not an image"
	_, err = svc.SetProfileImage(ctx, caller(f.ben), ImageUpload{Body: strings.NewReader(text), Size: int64(len(text))})
	assert.ErrorIs(t, err, ErrValidation)

	images.failPut = true
	_, err = svc.SetProfileImage(ctx, caller(f.ben), pngUpload())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Len(t, hooks.replaced, 2)

	_, err = svc.SetProfileImage(ctx, auth.Anonymous, pngUpload())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
