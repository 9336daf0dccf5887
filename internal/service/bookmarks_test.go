package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/planning-tool/planner-server/internal/models"
	"github.com/planning-tool/planner-server/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookmarksAreScopedToTheirOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "mona")
	other := f.addUser(t, "ned")

	b, err := f.svc.CreateBookmark(ctx, owner.ID, models.BookmarkRequest{
		Title: "Docs",
		URL:   "https://example.com/docs",
	})
	require.NoError(t, err)
	assert.Equal(t, "Uncategorized", b.Category)
	assert.Equal(t, []string{}, []string(b.Tags))

	list, err := f.svc.ListBookmarks(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.svc.UpdateBookmark(ctx, other.ID, b.ID, models.UpdateBookmarkRequest{Title: ptr("mine now")})
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteBookmark(ctx, other.ID, b.ID), service.ErrNotFound)

	tags := []string{"go", "api"}
	updated, err := f.svc.UpdateBookmark(ctx, owner.ID, b.ID, models.UpdateBookmarkRequest{
		Category: ptr("Reference"),
		Tags:     &tags,
	})
	require.NoError(t, err)
	assert.Equal(t, "Docs", updated.Title)
	assert.Equal(t, "Reference", updated.Category)
	assert.Equal(t, tags, []string(updated.Tags))

	list, err = f.svc.ListBookmarks(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, f.svc.DeleteBookmark(ctx, owner.ID, b.ID))
	list, err = f.svc.ListBookmarks(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCollectionMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "olga")
	guest := f.addUser(t, "pete")

	created, err := f.svc.CreateCollection(ctx, owner.ID, models.CollectionRequest{Name: "design"})
	require.NoError(t, err)
	require.Len(t, created.Members, 1)
	assert.Equal(t, models.CollectionRoleOwner, created.Members[0].Role)
	assert.Equal(t, "olga", created.Members[0].Username)

	_, err = f.svc.CreateCollection(ctx, guest.ID, models.CollectionRequest{Name: "design"})
	assert.ErrorIs(t, err, service.ErrConflict)

	f.clock.Advance(time.Minute)
	member, err := f.svc.AddCollectionMember(ctx, "design", models.AddCollectionMemberRequest{Username: "pete"})
	require.NoError(t, err)
	assert.Equal(t, models.CollectionRoleMember, member.Role)
	assert.Equal(t, guest.ID, member.UserID)

	_, err = f.svc.AddCollectionMember(ctx, "design", models.AddCollectionMemberRequest{Username: "pete"})
	assert.ErrorIs(t, err, service.ErrConflict)
	_, err = f.svc.AddCollectionMember(ctx, "design", models.AddCollectionMemberRequest{Username: "nobody"})
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = f.svc.AddCollectionMember(ctx, "missing", models.AddCollectionMemberRequest{Username: "pete"})
	assert.ErrorIs(t, err, service.ErrNotFound)

	got, err := f.svc.GetCollection(ctx, "design")
	require.NoError(t, err)
	require.Len(t, got.Members, 2)
	assert.Equal(t, "pete", got.Members[1].Username)

	mine, err := f.svc.ListCollections(ctx, guest.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "design", mine[0].Name)

	require.NoError(t, f.svc.RemoveCollectionMember(ctx, "design", "pete"))
	assert.ErrorIs(t, f.svc.RemoveCollectionMember(ctx, "design", "pete"), service.ErrNotFound)

	require.NoError(t, f.svc.DeleteCollection(ctx, "design"))
	_, err = f.svc.GetCollection(ctx, "design")
	assert.ErrorIs(t, err, service.ErrNotFound)
}
