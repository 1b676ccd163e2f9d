package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGroupDerivesSlug(t *testing.T) {
	db := newTestDB(t)
	svc := NewGroups(db)
	ctx := context.Background()

	g, err := svc.Create(ctx, GroupInput{Title: "Cats & Dogs", Description: "pets"})
	require.NoError(t, err)
	assert.Equal(t, "cats-and-dogs", g.Slug)

	long, err := svc.Create(ctx, GroupInput{Title: strings.Repeat("word ", 20)})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(long.Slug), 30)

	found, err := svc.BySlug(ctx, "cats-and-dogs")
	require.NoError(t, err)
	assert.Equal(t, g.ID, found.ID)
}

func TestCreateGroupValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewGroups(db)
	ctx := context.Background()
	_, err := svc.Create(ctx, GroupInput{Title: "Cats", Slug: "cats"})
	require.NoError(t, err)

	var verr *ValidationError
	_, err = svc.Create(ctx, GroupInput{Title: "Cats", Slug: "cats"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "slug")

	_, err = svc.Create(ctx, GroupInput{Title: "Bad", Slug: "Not A Slug"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "slug")

	_, err = svc.Create(ctx, GroupInput{})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
}

func TestListAndDeleteGroups(t *testing.T) {
	db := newTestDB(t)
	svc := NewGroups(db)
	ctx := context.Background()
	mustGroup(t, db, "zebra")
	mustGroup(t, db, "apple")

	groups, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "apple", groups[0].Slug)

	require.NoError(t, svc.Delete(ctx, "apple"))
	assert.ErrorIs(t, svc.Delete(ctx, "apple"), ErrNotFound)
	_, err = svc.BySlug(ctx, "apple")
	assert.ErrorIs(t, err, ErrNotFound)
}
