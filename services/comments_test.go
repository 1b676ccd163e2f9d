package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/yatube/models"
)

func TestCreateComment(t *testing.T) {
	db := newTestDB(t)
	svc := NewComments(db)
	ctx := context.Background()
	leo := mustUser(t, db, "leo")
	reader := mustUser(t, db, "reader")
	post := mustPost(t, db, leo, nil, 1)

	c, err := svc.Create(ctx, reader, post, " great post ")
	require.NoError(t, err)
	assert.Equal(t, reader.ID, c.AuthorID)
	assert.Equal(t, post.ID, c.PostID)
	assert.Equal(t, "great post", c.Text)

	_, err = svc.Create(ctx, nil, post, "anon")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCommentValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewComments(db)
	ctx := context.Background()
	leo := mustUser(t, db, "leo")
	post := mustPost(t, db, leo, nil, 1)

	var verr *ValidationError
	_, err := svc.Create(ctx, leo, post, "")
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "text")

	_, err = svc.Create(ctx, leo, post, strings.Repeat("я", models.CommentMaxLength+1))
	require.ErrorAs(t, err, &verr)

	_, err = svc.Create(ctx, leo, post, strings.Repeat("я", models.CommentMaxLength))
	assert.NoError(t, err, "limit counts characters, not bytes")
}

func TestCommentOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := NewComments(db)
	ctx := context.Background()
	leo := mustUser(t, db, "leo")
	reader := mustUser(t, db, "reader")
	post := mustPost(t, db, leo, nil, 1)
	c, err := svc.Create(ctx, reader, post, "mine")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Update(ctx, leo, c, "post author edits"), ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, leo, c), ErrForbidden)

	stored, err := svc.Get(ctx, post, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", stored.Text)

	require.NoError(t, svc.Update(ctx, reader, c, "edited"))
	stored, err = svc.Get(ctx, post, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", stored.Text)
	assert.Equal(t, reader.ID, stored.AuthorID)

	require.NoError(t, svc.Delete(ctx, reader, c))
	_, err = svc.Get(ctx, post, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentMustBelongToPost(t *testing.T) {
	db := newTestDB(t)
	svc := NewComments(db)
	ctx := context.Background()
	leo := mustUser(t, db, "leo")
	p1 := mustPost(t, db, leo, nil, 1)
	p2 := mustPost(t, db, leo, nil, 2)
	c, err := svc.Create(ctx, leo, p1, "on p1")
	require.NoError(t, err)

	_, err = svc.Get(ctx, p2, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
