package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vinald/bookapi/internal/apperr"
	"github.com/vinald/bookapi/internal/models"
	"github.com/vinald/bookapi/internal/mykafka"
)

func newReviewService(t *testing.T) *ReviewService {
	t.Helper()
	return &ReviewService{DB: newTestDB(t), Producer: &mykafka.Producer{}}
}

func TestReviewCreate(t *testing.T) {
	svc := newReviewService(t)
	ctx := context.Background()
	user := createUser(t, svc.DB, "alice", "alice@example.com", "password123", models.RoleUser, true)
	book := createBook(t, svc.DB, "Book One", "Author One")

	review, err := svc.Create(ctx, book.UUID, user, ReviewRequest{
		Content: strPtr("A thorough introduction."),
		Rating:  intPtr(5),
	})
	require.NoError(t, err)
	require.NotEmpty(t, review.UUID)
	require.Equal(t, user.ID, review.UserID)
	require.Equal(t, book.ID, review.BookID)

	// One review per user per book.
	_, err = svc.Create(ctx, book.UUID, user, ReviewRequest{
		Content: strPtr("Second attempt."),
		Rating:  intPtr(3),
	})
	require.ErrorIs(t, err, apperr.ErrDuplicateReview)

	_, err = svc.Create(ctx, "unknown-uuid", user, ReviewRequest{
		Content: strPtr("Fine."),
		Rating:  intPtr(3),
	})
	require.ErrorIs(t, err, apperr.ErrBookNotFound)
}

func TestReviewCreateValidation(t *testing.T) {
	svc := newReviewService(t)
	ctx := context.Background()
	user := createUser(t, svc.DB, "alice", "alice@example.com", "password123", models.RoleUser, true)
	book := createBook(t, svc.DB, "Book One", "Author One")

	cases := []ReviewRequest{
		{Content: strPtr("Off the scale."), Rating: intPtr(6)},
		{Content: strPtr("Below the scale."), Rating: intPtr(0)},
		{Content: strPtr(""), Rating: intPtr(3)},
		{Rating: intPtr(3)},
		{Content: strPtr("No rating.")},
	}
	for _, req := range cases {
		_, err := svc.Create(ctx, book.UUID, user, req)
		require.ErrorIs(t, err, apperr.ErrValidation)
	}
}

func TestReviewUpdateOwnership(t *testing.T) {
	svc := newReviewService(t)
	ctx := context.Background()
	alice := createUser(t, svc.DB, "alice", "alice@example.com", "password123", models.RoleUser, true)
	bob := createUser(t, svc.DB, "bob", "bob@example.com", "password123", models.RoleUser, true)
	admin := createUser(t, svc.DB, "root", "root@example.com", "password123", models.RoleAdmin, true)
	book := createBook(t, svc.DB, "Book One", "Author One")

	review, err := svc.Create(ctx, book.UUID, alice, ReviewRequest{
		Content: strPtr("great"), Rating: intPtr(5),
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, review.UUID, bob, ReviewRequest{Rating: intPtr(1)})
	require.ErrorIs(t, err, apperr.ErrOwnershipRequired)

	updated, err := svc.Update(ctx, review.UUID, alice, ReviewRequest{Rating: intPtr(4)})
	require.NoError(t, err)
	require.Equal(t, 4, updated.Rating)
	require.Equal(t, "great", updated.Content)

	// Admins can edit anything.
	_, err = svc.Update(ctx, review.UUID, admin, ReviewRequest{Content: strPtr("adjusted")})
	require.NoError(t, err)
}

func TestReviewDeleteRoles(t *testing.T) {
	svc := newReviewService(t)
	ctx := context.Background()
	alice := createUser(t, svc.DB, "alice", "alice@example.com", "password123", models.RoleUser, true)
	bob := createUser(t, svc.DB, "bob", "bob@example.com", "password123", models.RoleUser, true)
	mod := createUser(t, svc.DB, "mod", "mod@example.com", "password123", models.RoleModerator, true)
	book := createBook(t, svc.DB, "Book One", "Author One")

	review, err := svc.Create(ctx, book.UUID, alice, ReviewRequest{
		Content: strPtr("great"), Rating: intPtr(5),
	})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, review.UUID, bob), apperr.ErrOwnershipRequired)
	require.NoError(t, svc.Delete(ctx, review.UUID, mod))
	require.ErrorIs(t, svc.Delete(ctx, review.UUID, mod), apperr.ErrReviewNotFound)
}

func TestReviewListByBook(t *testing.T) {
	svc := newReviewService(t)
	ctx := context.Background()
	alice := createUser(t, svc.DB, "alice", "alice@example.com", "password123", models.RoleUser, true)
	bob := createUser(t, svc.DB, "bob", "bob@example.com", "password123", models.RoleUser, true)
	book := createBook(t, svc.DB, "Book One", "Author One")
	other := createBook(t, svc.DB, "Book Two", "Author Two")

	for _, u := range []*models.User{alice, bob} {
		_, err := svc.Create(ctx, book.UUID, u, ReviewRequest{Content: strPtr("fine"), Rating: intPtr(3)})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, other.UUID, alice, ReviewRequest{Content: strPtr("fine"), Rating: intPtr(3)})
	require.NoError(t, err)

	reviews, err := svc.ListByBook(ctx, book.UUID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	mine, err := svc.ListMine(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	byUser, err := svc.ListByUser(ctx, bob.UUID)
	require.NoError(t, err)
	require.Len(t, byUser, 1)

	_, err = svc.ListByBook(ctx, "unknown-uuid")
	require.ErrorIs(t, err, apperr.ErrBookNotFound)
}
