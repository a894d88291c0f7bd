package services

import (
	"context"
	"testing"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddComment(t *testing.T) {
	f := newCookbook(t)
	svc := NewCommentService(f.db)
	ctx := context.Background()

	comment, err := svc.AddComment(ctx, caller(f.anna), f.applePie.ID, CommentInput{Content: " Lovely crust ", Rating: ptr(4)})
	require.NoError(t, err)
	assert.Equal(t, "Lovely crust", comment.Content)
	assert.Equal(t, "anna", comment.Author.Username)
	assert.Equal(t, 4, *comment.Rating)

	unrated, err := svc.AddComment(ctx, caller(f.ben), f.applePie.ID, CommentInput{Content: "Made it twice"})
	require.NoError(t, err)
	assert.Nil(t, unrated.Rating)

	comments, err := svc.ListComments(ctx, f.applePie.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, unrated.ID, comments[0].ID)
}

func TestAddCommentRejectsInvalidInput(t *testing.T) {
	f := newCookbook(t)
	svc := NewCommentService(f.db)
	ctx := context.Background()

	_, err := svc.AddComment(ctx, caller(f.anna), f.applePie.ID, CommentInput{Content: "Too good", Rating: ptr(6)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddComment(ctx, caller(f.anna), f.applePie.ID, CommentInput{Content: "Bad", Rating: ptr(0)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddComment(ctx, caller(f.anna), f.applePie.ID, CommentInput{Content: "   "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddComment(ctx, caller(f.anna), 999, CommentInput{Content: "Where?"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AddComment(ctx, auth.Anonymous, f.applePie.ID, CommentInput{Content: "Hi"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.ListComments(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
