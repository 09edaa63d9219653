package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"knightgaming.gg/backend/internal/entity"
	gameRepo "knightgaming.gg/backend/internal/modules/game/repository"
	"knightgaming.gg/backend/internal/modules/review/dto"
	"knightgaming.gg/backend/pkg/apperror"
)

type fakeReviewRepo struct {
	reviews map[uuid.UUID]*entity.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: make(map[uuid.UUID]*entity.Review)}
}

func (r *fakeReviewRepo) Create(ctx context.Context, review *entity.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	cp := *review
	r.reviews[review.ID] = &cp
	return nil
}

func (r *fakeReviewRepo) Update(ctx context.Context, review *entity.Review) error {
	if _, ok := r.reviews[review.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *review
	r.reviews[review.ID] = &cp
	return nil
}

func (r *fakeReviewRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	if rv, ok := r.reviews[id]; ok {
		cp := *rv
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeReviewRepo) FindByGameAndUser(ctx context.Context, gameID, userID uuid.UUID) (*entity.Review, error) {
	for _, rv := range r.reviews {
		if rv.GameID == gameID && rv.UserID == userID {
			cp := *rv
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeReviewRepo) ListByGame(ctx context.Context, gameID uuid.UUID, sort string, limit, offset int) ([]entity.Review, int64, error) {
	var out []entity.Review
	for _, rv := range r.reviews {
		if rv.GameID == gameID && rv.Status == entity.ReviewStatusApproved {
			out = append(out, *rv)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeReviewRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Review, int64, error) {
	var out []entity.Review
	for _, rv := range r.reviews {
		if rv.UserID == userID {
			out = append(out, *rv)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeReviewRepo) ListByStatus(ctx context.Context, status string, limit, offset int) ([]entity.Review, int64, error) {
	var out []entity.Review
	for _, rv := range r.reviews {
		if rv.Status == status {
			out = append(out, *rv)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeReviewRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.reviews, id)
	return nil
}

func (r *fakeReviewRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.reviews)), nil
}

func (r *fakeReviewRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	for _, rv := range r.reviews {
		if rv.Status == status {
			count++
		}
	}
	return count, nil
}

type statGameRepo struct {
	games      map[uuid.UUID]*entity.Game
	recomputed int
}

func (r *statGameRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Game, error) {
	if g, ok := r.games[id]; ok {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *statGameRepo) RecomputeReviewStats(ctx context.Context, gameID uuid.UUID) error {
	r.recomputed++
	return nil
}

func (r *statGameRepo) Create(ctx context.Context, game *entity.Game) error { return nil }
func (r *statGameRepo) Update(ctx context.Context, game *entity.Game) error { return nil }
func (r *statGameRepo) FindBySlug(ctx context.Context, slug string) (*entity.Game, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *statGameRepo) FindBySteamAppID(ctx context.Context, appID int64) (*entity.Game, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *statGameRepo) List(ctx context.Context, filter gameRepo.ListFilter) ([]entity.Game, int64, error) {
	return nil, 0, nil
}
func (r *statGameRepo) ListWithSteamAppID(ctx context.Context) ([]entity.Game, error) {
	return nil, nil
}
func (r *statGameRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (r *statGameRepo) Count(ctx context.Context) (int64, error)       { return 0, nil }
func (r *statGameRepo) RecordPlayerCount(ctx context.Context, sample *entity.PlayerCountSample) error {
	return nil
}
func (r *statGameRepo) PlayerHistory(ctx context.Context, gameID uuid.UUID, since time.Time) ([]entity.PlayerCountSample, error) {
	return nil, nil
}
func (r *statGameRepo) PlayerStatsSince(ctx context.Context, gameID uuid.UUID, since time.Time) (int, int, error) {
	return 0, 0, nil
}
func (r *statGameRepo) Facets(ctx context.Context) ([]entity.Game, error) { return nil, nil }
func (r *statGameRepo) PrunePlayerSamples(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}
func (r *statGameRepo) UpdateTrendingFlags(ctx context.Context, topIDs []uuid.UUID) error {
	return nil
}

type countingUserRepo struct {
	delta int
}

func (r *countingUserRepo) IncrementReviewsWritten(ctx context.Context, userID uuid.UUID, delta int) error {
	r.delta += delta
	return nil
}

func (r *countingUserRepo) Create(ctx context.Context, user *entity.User) error { return nil }
func (r *countingUserRepo) Update(ctx context.Context, user *entity.User) error { return nil }
func (r *countingUserRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *countingUserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *countingUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *countingUserRepo) FindByStripeCustomerID(ctx context.Context, customerID string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *countingUserRepo) FindAll(ctx context.Context, search string, limit, offset int) ([]entity.User, int64, error) {
	return nil, 0, nil
}
func (r *countingUserRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (r *countingUserRepo) IncrementLeaderboardEntries(ctx context.Context, userID uuid.UUID) error {
	return nil
}
func (r *countingUserRepo) Count(ctx context.Context) (int64, error) { return 0, nil }

type recordingNotifier struct {
	sent []entity.Notification
}

func (n *recordingNotifier) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	n.sent = append(n.sent, *notification)
	return nil
}
func (n *recordingNotifier) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error) {
	return nil, nil
}
func (n *recordingNotifier) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error { return nil }
func (n *recordingNotifier) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error  { return nil }
func (n *recordingNotifier) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type reviewEnv struct {
	svc    ReviewService
	repo   *fakeReviewRepo
	games  *statGameRepo
	users  *countingUserRepo
	notif  *recordingNotifier
	gameID uuid.UUID
	userID uuid.UUID
}

func newReviewEnv(t *testing.T) *reviewEnv {
	t.Helper()

	gameID := uuid.New()
	games := &statGameRepo{games: map[uuid.UUID]*entity.Game{
		gameID: {ID: gameID, Name: "Starfall", Slug: "starfall", IsActive: true},
	}}
	repo := newFakeReviewRepo()
	users := &countingUserRepo{}
	notif := &recordingNotifier{}

	return &reviewEnv{
		svc:    NewReviewService(repo, games, users, notif),
		repo:   repo,
		games:  games,
		users:  users,
		notif:  notif,
		gameID: gameID,
		userID: uuid.New(),
	}
}

func validCreateReq(gameID uuid.UUID) dto.CreateReviewRequest {
	return dto.CreateReviewRequest{
		GameID:  gameID.String(),
		Rating:  4,
		Title:   "Solid roguelite",
		Content: "Twenty hours in and the loop still surprises me. Well worth the price.",
	}
}

func TestCreateReview(t *testing.T) {
	env := newReviewEnv(t)
	ctx := context.Background()

	review, err := env.svc.CreateReview(ctx, env.userID, validCreateReq(env.gameID))
	require.NoError(t, err)
	require.Equal(t, entity.ReviewStatusApproved, review.Status)
	require.True(t, review.RecommendGame)
	require.Equal(t, 1, env.users.delta)
	require.Equal(t, 1, env.games.recomputed)

	// One review per (game, user).
	_, err = env.svc.CreateReview(ctx, env.userID, validCreateReq(env.gameID))
	require.ErrorIs(t, err, apperror.ErrConflict)
}

func TestCreateReview_SanitizesMarkup(t *testing.T) {
	env := newReviewEnv(t)

	req := validCreateReq(env.gameID)
	req.Content = `Great game.<script>alert("pwned")</script> Highly recommended to everyone.`

	review, err := env.svc.CreateReview(context.Background(), env.userID, req)
	require.NoError(t, err)
	require.NotContains(t, review.Content, "<script>")
	require.Contains(t, review.Content, "Great game.")
}

func TestCreateReview_UnknownGame(t *testing.T) {
	env := newReviewEnv(t)

	_, err := env.svc.CreateReview(context.Background(), env.userID, validCreateReq(uuid.New()))
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateReview_OwnerOnly(t *testing.T) {
	env := newReviewEnv(t)
	ctx := context.Background()

	review, err := env.svc.CreateReview(ctx, env.userID, validCreateReq(env.gameID))
	require.NoError(t, err)

	newTitle := "Revised verdict"
	_, err = env.svc.UpdateReview(ctx, review.ID, uuid.New(), dto.UpdateReviewRequest{Title: &newTitle})
	require.ErrorIs(t, err, apperror.ErrForbidden)

	updated, err := env.svc.UpdateReview(ctx, review.ID, env.userID, dto.UpdateReviewRequest{Title: &newTitle})
	require.NoError(t, err)
	require.Equal(t, "Revised verdict", updated.Title)
	require.True(t, updated.Edited)
	require.NotNil(t, updated.EditedAt)
}

func TestUpdateReview_FlaggedGoesBackToPending(t *testing.T) {
	env := newReviewEnv(t)
	ctx := context.Background()

	review, err := env.svc.CreateReview(ctx, env.userID, validCreateReq(env.gameID))
	require.NoError(t, err)

	modID := uuid.New()
	_, err = env.svc.RejectReview(ctx, review.ID, modID, "tos violation")
	require.NoError(t, err)

	content := "Rewritten after the moderator feedback, with the offending part removed."
	updated, err := env.svc.UpdateReview(ctx, review.ID, env.userID, dto.UpdateReviewRequest{Content: &content})
	require.NoError(t, err)
	require.Equal(t, entity.ReviewStatusPending, updated.Status)
	require.Nil(t, updated.ModeratedBy)
	require.Empty(t, updated.ModerationNotes)
}

func TestVoteHelpful(t *testing.T) {
	env := newReviewEnv(t)
	ctx := context.Background()

	review, err := env.svc.CreateReview(ctx, env.userID, validCreateReq(env.gameID))
	require.NoError(t, err)

	_, err = env.svc.VoteHelpful(ctx, review.ID, env.userID, true)
	require.ErrorIs(t, err, apperror.ErrForbidden, "no votes on your own review")

	voter := uuid.New()
	voted, err := env.svc.VoteHelpful(ctx, review.ID, voter, true)
	require.NoError(t, err)
	require.Equal(t, 1, voted.HelpfulCount)
	require.Equal(t, 0, voted.NotHelpfulCount)

	// Changing your mind revises the vote instead of stacking a second one.
	voted, err = env.svc.VoteHelpful(ctx, review.ID, voter, false)
	require.NoError(t, err)
	require.Equal(t, 0, voted.HelpfulCount)
	require.Equal(t, 1, voted.NotHelpfulCount)
	require.Len(t, voted.HelpfulVotes, 1)
}

func TestReportReview_ThresholdFlags(t *testing.T) {
	env := newReviewEnv(t)
	ctx := context.Background()

	review, err := env.svc.CreateReview(ctx, env.userID, validCreateReq(env.gameID))
	require.NoError(t, err)

	reporter := uuid.New()
	require.NoError(t, env.svc.ReportReview(ctx, review.ID, reporter, "spam"))
	err = env.svc.ReportReview(ctx, review.ID, reporter, "spam again")
	require.ErrorIs(t, err, apperror.ErrConflict)

	stored, _ := env.repo.FindByID(ctx, review.ID)
	require.Equal(t, entity.ReviewStatusApproved, stored.Status, "below threshold stays approved")

	for i := 0; i < entity.AutoFlagThreshold-1; i++ {
		require.NoError(t, env.svc.ReportReview(ctx, review.ID, uuid.New(), "spam"))
	}

	stored, _ = env.repo.FindByID(ctx, review.ID)
	require.Equal(t, entity.ReviewStatusFlagged, stored.Status)
	require.Len(t, stored.Reports, entity.AutoFlagThreshold)
}

func TestModerateReview(t *testing.T) {
	env := newReviewEnv(t)
	ctx := context.Background()

	review, err := env.svc.CreateReview(ctx, env.userID, validCreateReq(env.gameID))
	require.NoError(t, err)

	for i := 0; i < entity.AutoFlagThreshold; i++ {
		require.NoError(t, env.svc.ReportReview(ctx, review.ID, uuid.New(), "spam"))
	}

	modID := uuid.New()
	approved, err := env.svc.ApproveReview(ctx, review.ID, modID, "checked, looks fine")
	require.NoError(t, err)
	require.Equal(t, entity.ReviewStatusApproved, approved.Status)
	require.Empty(t, approved.Reports, "approval clears the report list")
	require.Equal(t, modID, *approved.ModeratedBy)

	require.Len(t, env.notif.sent, 1)
	require.Equal(t, entity.NotificationReviewApproved, env.notif.sent[0].Type)
	require.Equal(t, env.userID, env.notif.sent[0].UserID)
}

func TestDeleteReview(t *testing.T) {
	env := newReviewEnv(t)
	ctx := context.Background()

	review, err := env.svc.CreateReview(ctx, env.userID, validCreateReq(env.gameID))
	require.NoError(t, err)

	err = env.svc.DeleteReview(ctx, review.ID, uuid.New(), entity.RoleUser)
	require.ErrorIs(t, err, apperror.ErrForbidden)

	err = env.svc.DeleteReview(ctx, review.ID, uuid.New(), entity.RoleModerator)
	require.NoError(t, err)
	require.Equal(t, 0, env.users.delta, "counter decremented back to zero")

	err = env.svc.DeleteReview(ctx, review.ID, env.userID, entity.RoleUser)
	require.ErrorIs(t, err, apperror.ErrNotFound)
}
