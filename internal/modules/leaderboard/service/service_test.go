package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"knightgaming.gg/backend/internal/entity"
	gameRepo "knightgaming.gg/backend/internal/modules/game/repository"
	"knightgaming.gg/backend/internal/modules/leaderboard/dto"
	"knightgaming.gg/backend/internal/modules/leaderboard/repository"
	"knightgaming.gg/backend/pkg/apperror"
)

type fakeEntryRepo struct {
	entries map[uuid.UUID]*entity.LeaderboardEntry
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: make(map[uuid.UUID]*entity.LeaderboardEntry)}
}

func (r *fakeEntryRepo) Create(ctx context.Context, entry *entity.LeaderboardEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	cp := *entry
	r.entries[entry.ID] = &cp
	return nil
}

func (r *fakeEntryRepo) Update(ctx context.Context, entry *entity.LeaderboardEntry) error {
	stored, ok := r.entries[entry.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != entry.Version {
		return apperror.ErrVersionConflict
	}
	entry.Version++
	cp := *entry
	r.entries[entry.ID] = &cp
	return nil
}

func (r *fakeEntryRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.LeaderboardEntry, error) {
	if e, ok := r.entries[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeEntryRepo) FindByKey(ctx context.Context, key repository.EntryKey, userID uuid.UUID) (*entity.LeaderboardEntry, error) {
	for _, e := range r.entries {
		if e.GameID == key.GameID && e.UserID == userID && e.Category == key.Category && e.Season == key.Season {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeEntryRepo) matchesVerified(e *entity.LeaderboardEntry, key repository.EntryKey) bool {
	if e.GameID != key.GameID || e.Category != key.Category {
		return false
	}
	if key.Season != "" && e.Season != key.Season {
		return false
	}
	return e.Status == entity.EntryStatusVerified && e.IsActive
}

func (r *fakeEntryRepo) FindVerifiedByUser(ctx context.Context, key repository.EntryKey, userID uuid.UUID) (*entity.LeaderboardEntry, error) {
	for _, e := range r.entries {
		if e.UserID == userID && r.matchesVerified(e, key) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeEntryRepo) CountHigher(ctx context.Context, key repository.EntryKey, score int64) (int64, error) {
	var count int64
	for _, e := range r.entries {
		if r.matchesVerified(e, key) && e.Score > score {
			count++
		}
	}
	return count, nil
}

func (r *fakeEntryRepo) ListVerified(ctx context.Context, key repository.EntryKey, limit, offset int) ([]entity.LeaderboardEntry, error) {
	var out []entity.LeaderboardEntry
	for _, e := range r.entries {
		if r.matchesVerified(e, key) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeEntryRepo) CountVerified(ctx context.Context, key repository.EntryKey) (int64, error) {
	var count int64
	for _, e := range r.entries {
		if r.matchesVerified(e, key) {
			count++
		}
	}
	return count, nil
}

func (r *fakeEntryRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.LeaderboardEntry, int64, error) {
	var out []entity.LeaderboardEntry
	for _, e := range r.entries {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeEntryRepo) ListFlagged(ctx context.Context, limit, offset int) ([]entity.LeaderboardEntry, int64, error) {
	var out []entity.LeaderboardEntry
	for _, e := range r.entries {
		if e.Status == entity.EntryStatusFlagged {
			out = append(out, *e)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeEntryRepo) DistinctCategories(ctx context.Context, gameID uuid.UUID) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, e := range r.entries {
		if e.GameID == gameID && e.Status == entity.EntryStatusVerified && !seen[e.Category] {
			seen[e.Category] = true
			out = append(out, e.Category)
		}
	}
	return out, nil
}

func (r *fakeEntryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.entries, id)
	return nil
}

func (r *fakeEntryRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.entries)), nil
}

func (r *fakeEntryRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	for _, e := range r.entries {
		if e.Status == status {
			count++
		}
	}
	return count, nil
}

type fakeGameRepo struct {
	games map[uuid.UUID]*entity.Game
}

func (r *fakeGameRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Game, error) {
	if g, ok := r.games[id]; ok {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeGameRepo) Create(ctx context.Context, game *entity.Game) error { return nil }
func (r *fakeGameRepo) Update(ctx context.Context, game *entity.Game) error { return nil }
func (r *fakeGameRepo) FindBySlug(ctx context.Context, slug string) (*entity.Game, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeGameRepo) FindBySteamAppID(ctx context.Context, appID int64) (*entity.Game, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeGameRepo) List(ctx context.Context, filter gameRepo.ListFilter) ([]entity.Game, int64, error) {
	return nil, 0, nil
}
func (r *fakeGameRepo) ListWithSteamAppID(ctx context.Context) ([]entity.Game, error) {
	return nil, nil
}
func (r *fakeGameRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (r *fakeGameRepo) Count(ctx context.Context) (int64, error)       { return 0, nil }
func (r *fakeGameRepo) RecordPlayerCount(ctx context.Context, sample *entity.PlayerCountSample) error {
	return nil
}
func (r *fakeGameRepo) PlayerHistory(ctx context.Context, gameID uuid.UUID, since time.Time) ([]entity.PlayerCountSample, error) {
	return nil, nil
}
func (r *fakeGameRepo) PrunePlayerSamples(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}
func (r *fakeGameRepo) PlayerStatsSince(ctx context.Context, gameID uuid.UUID, since time.Time) (int, int, error) {
	return 0, 0, nil
}
func (r *fakeGameRepo) Facets(ctx context.Context) ([]entity.Game, error) { return nil, nil }
func (r *fakeGameRepo) RecomputeReviewStats(ctx context.Context, gameID uuid.UUID) error { return nil }
func (r *fakeGameRepo) UpdateTrendingFlags(ctx context.Context, topIDs []uuid.UUID) error {
	return nil
}

type fakeUserRepo struct {
	users      map[string]*entity.User
	increments int
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) IncrementLeaderboardEntries(ctx context.Context, userID uuid.UUID) error {
	r.increments++
	return nil
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error { return nil }
func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error { return nil }
func (r *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeUserRepo) FindByStripeCustomerID(ctx context.Context, customerID string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeUserRepo) FindAll(ctx context.Context, search string, limit, offset int) ([]entity.User, int64, error) {
	return nil, 0, nil
}
func (r *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (r *fakeUserRepo) IncrementReviewsWritten(ctx context.Context, userID uuid.UUID, delta int) error {
	return nil
}
func (r *fakeUserRepo) Count(ctx context.Context) (int64, error) { return 0, nil }

type fakeNotifier struct {
	sent []entity.Notification
}

func (n *fakeNotifier) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	n.sent = append(n.sent, *notification)
	return nil
}
func (n *fakeNotifier) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error) {
	return nil, nil
}
func (n *fakeNotifier) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error  { return nil }
func (n *fakeNotifier) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error   { return nil }
func (n *fakeNotifier) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type testEnv struct {
	svc    LeaderboardService
	repo   *fakeEntryRepo
	users  *fakeUserRepo
	notif  *fakeNotifier
	gameID uuid.UUID
	userID uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gameID := uuid.New()
	userID := uuid.New()

	games := &fakeGameRepo{games: map[uuid.UUID]*entity.Game{
		gameID: {ID: gameID, Name: "Starfall", Slug: "starfall", IsActive: true},
	}}
	users := &fakeUserRepo{users: map[string]*entity.User{
		userID.String(): {ID: userID, Username: "player1"},
	}}
	repo := newFakeEntryRepo()
	notif := &fakeNotifier{}

	return &testEnv{
		svc:    NewLeaderboardService(repo, games, users, notif),
		repo:   repo,
		users:  users,
		notif:  notif,
		gameID: gameID,
		userID: userID,
	}
}

func ptrInt64(v int64) *int64     { return &v }
func ptrFloat(v float64) *float64 { return &v }

func TestEvaluateEntry(t *testing.T) {
	tests := map[string]struct {
		entry     entity.LeaderboardEntry
		wantFlags []string
	}{
		"plausible entry raises nothing": {
			entry: entity.LeaderboardEntry{
				Score: 100,
				Metadata: &entity.EntryMetadata{
					TimePlayed: ptrFloat(3600),
					Accuracy:   ptrFloat(50),
				},
			},
			wantFlags: nil,
		},
		"score above ceiling": {
			entry:     entity.LeaderboardEntry{Score: 1_000_001},
			wantFlags: []string{FlagSuspiciousScore},
		},
		"score at ceiling passes": {
			entry:     entity.LeaderboardEntry{Score: 1_000_000},
			wantFlags: nil,
		},
		"high score in under a minute": {
			entry: entity.LeaderboardEntry{
				Score:    10_001,
				Metadata: &entity.EntryMetadata{TimePlayed: ptrFloat(59)},
			},
			wantFlags: []string{FlagScoreTimeMismatch},
		},
		"high score with no time played metadata passes": {
			entry: entity.LeaderboardEntry{Score: 10_001},
		},
		"superhuman accuracy": {
			entry: entity.LeaderboardEntry{
				Score:    100,
				Metadata: &entity.EntryMetadata{Accuracy: ptrFloat(98.5)},
			},
			wantFlags: []string{FlagSuspiciousAccuracy},
		},
		"every heuristic fires": {
			entry: entity.LeaderboardEntry{
				Score: 2_000_000,
				Metadata: &entity.EntryMetadata{
					TimePlayed: ptrFloat(10),
					Accuracy:   ptrFloat(100),
				},
			},
			wantFlags: []string{FlagSuspiciousScore, FlagScoreTimeMismatch, FlagSuspiciousAccuracy},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			flags := EvaluateEntry(&tt.entry)
			var got []string
			for _, f := range flags {
				got = append(got, f.Flag)
			}
			require.Equal(t, tt.wantFlags, got)
		})
	}
}

func TestSubmit_NewEntryAutoVerified(t *testing.T) {
	env := newTestEnv(t)

	entry, err := env.svc.Submit(context.Background(), env.userID, dto.SubmitEntryRequest{
		GameID: env.gameID.String(),
		Score:  ptrInt64(500),
		Metadata: &entity.EntryMetadata{
			TimePlayed: ptrFloat(1200),
			Accuracy:   ptrFloat(72),
		},
	})
	require.NoError(t, err)
	require.Equal(t, entity.EntryStatusVerified, entry.Status)
	require.Empty(t, entry.AntiCheatFlags)
	require.Equal(t, entity.DefaultCategory, entry.Category)
	require.Equal(t, "player1", entry.PlayerName)
	require.Equal(t, 1, env.users.increments)
}

func TestSubmit_SuspiciousEntryFlaggedNotRejected(t *testing.T) {
	env := newTestEnv(t)

	entry, err := env.svc.Submit(context.Background(), env.userID, dto.SubmitEntryRequest{
		GameID: env.gameID.String(),
		Score:  ptrInt64(5_000_000),
	})
	require.NoError(t, err)
	require.Equal(t, entity.EntryStatusFlagged, entry.Status)
	require.NotEmpty(t, entry.AntiCheatFlags)
	require.NotEqual(t, entity.EntryStatusRejected, entry.Status)
}

func TestSubmit_ScoreNotImproved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.svc.Submit(ctx, env.userID, dto.SubmitEntryRequest{
		GameID: env.gameID.String(),
		Score:  ptrInt64(100),
	})
	require.NoError(t, err)

	for _, score := range []int64{100, 50} {
		_, err = env.svc.Submit(ctx, env.userID, dto.SubmitEntryRequest{
			GameID: env.gameID.String(),
			Score:  ptrInt64(score),
		})
		require.ErrorIs(t, err, apperror.ErrScoreNotImproved)
	}

	stored, err := env.repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, int64(100), stored.Score)
	require.Equal(t, 1, env.users.increments, "counter only bumps on first creation")
}

func TestSubmit_ImprovementUpdatesInPlace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.svc.Submit(ctx, env.userID, dto.SubmitEntryRequest{
		GameID: env.gameID.String(),
		Score:  ptrInt64(100),
	})
	require.NoError(t, err)
	require.Equal(t, entity.EntryStatusVerified, first.Status)

	// Simulate a prior manual verification that must not survive the update.
	modID := uuid.New()
	stored, _ := env.repo.FindByID(ctx, first.ID)
	now := time.Now()
	stored.VerifiedBy = &modID
	stored.VerifiedAt = &now
	env.repo.entries[stored.ID] = stored

	updated, err := env.svc.Submit(ctx, env.userID, dto.SubmitEntryRequest{
		GameID: env.gameID.String(),
		Score:  ptrInt64(250),
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, updated.ID, "one row per (game, user, category, season)")
	require.Equal(t, int64(250), updated.Score)
	require.Equal(t, entity.EntryStatusVerified, updated.Status)
	require.Nil(t, updated.VerifiedBy)
	require.Nil(t, updated.VerifiedAt)
	require.Equal(t, 1, env.users.increments)
}

func TestSubmit_SeparateCategoriesAndSeasons(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a, err := env.svc.Submit(ctx, env.userID, dto.SubmitEntryRequest{
		GameID:   env.gameID.String(),
		Score:    ptrInt64(100),
		Category: "speedrun",
	})
	require.NoError(t, err)

	b, err := env.svc.Submit(ctx, env.userID, dto.SubmitEntryRequest{
		GameID:   env.gameID.String(),
		Score:    ptrInt64(100),
		Category: "speedrun",
		Season:   "s2",
	})
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID, "different seasons are different boards")
}

func TestSubmit_UnknownOrInactiveGame(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Submit(ctx, env.userID, dto.SubmitEntryRequest{
		GameID: uuid.New().String(),
		Score:  ptrInt64(10),
	})
	require.ErrorIs(t, err, apperror.ErrNotFound)

	inactive := uuid.New()
	games := &fakeGameRepo{games: map[uuid.UUID]*entity.Game{
		inactive: {ID: inactive, IsActive: false},
	}}
	svc := NewLeaderboardService(env.repo, games, env.users, env.notif)
	_, err = svc.Submit(ctx, env.userID, dto.SubmitEntryRequest{
		GameID: inactive.String(),
		Score:  ptrInt64(10),
	})
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGetLeaderboard_RanksSortedPage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, score := range []int64{90, 50, 100, 90} {
		uid := uuid.New()
		env.users.users[uid.String()] = &entity.User{ID: uid, Username: "u" + uid.String()[:8]}
		_, err := env.svc.Submit(ctx, uid, dto.SubmitEntryRequest{
			GameID: env.gameID.String(),
			Score:  ptrInt64(score),
		})
		require.NoError(t, err)
	}

	resp, err := env.svc.GetLeaderboard(ctx, env.gameID, dto.LeaderboardQuery{})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 4)

	scores := []int64{100, 90, 90, 50}
	for i, e := range resp.Entries {
		require.Equal(t, i+1, e.Rank)
		require.Equal(t, scores[i], e.Score)
	}
	require.Equal(t, int64(4), resp.Meta.TotalItems)
}

func TestGetLeaderboard_PaginationOffsetRank(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		uid := uuid.New()
		env.users.users[uid.String()] = &entity.User{ID: uid, Username: "u" + uid.String()[:8]}
		_, err := env.svc.Submit(ctx, uid, dto.SubmitEntryRequest{
			GameID: env.gameID.String(),
			Score:  ptrInt64(int64(1000 - i)),
		})
		require.NoError(t, err)
	}

	resp, err := env.svc.GetLeaderboard(ctx, env.gameID, dto.LeaderboardQuery{Page: 2, Limit: 10})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 5)
	require.Equal(t, 11, resp.Entries[0].Rank)
	require.Equal(t, 2, resp.Meta.CurrentPage)
	require.Equal(t, 2, resp.Meta.TotalPages)
}

func TestGetLeaderboard_ExcludesNonVerified(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Submit(ctx, env.userID, dto.SubmitEntryRequest{
		GameID: env.gameID.String(),
		Score:  ptrInt64(5_000_000), // flagged
	})
	require.NoError(t, err)

	resp, err := env.svc.GetLeaderboard(ctx, env.gameID, dto.LeaderboardQuery{})
	require.NoError(t, err)
	require.Empty(t, resp.Entries)
}

func TestGetUserRank(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.GetUserRank(ctx, env.gameID, env.userID, dto.RankQuery{})
	require.NoError(t, err)
	require.False(t, resp.HasEntry)

	for _, score := range []int64{300, 200} {
		uid := uuid.New()
		env.users.users[uid.String()] = &entity.User{ID: uid, Username: "u" + uid.String()[:8]}
		_, err := env.svc.Submit(ctx, uid, dto.SubmitEntryRequest{
			GameID: env.gameID.String(),
			Score:  ptrInt64(score),
		})
		require.NoError(t, err)
	}
	_, err = env.svc.Submit(ctx, env.userID, dto.SubmitEntryRequest{
		GameID: env.gameID.String(),
		Score:  ptrInt64(100),
	})
	require.NoError(t, err)

	resp, err = env.svc.GetUserRank(ctx, env.gameID, env.userID, dto.RankQuery{})
	require.NoError(t, err)
	require.True(t, resp.HasEntry)
	require.Equal(t, int64(3), *resp.Rank)
	require.Equal(t, int64(100), *resp.Score)
}

func TestVerifyAndRejectEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	entry, err := env.svc.Submit(ctx, env.userID, dto.SubmitEntryRequest{
		GameID: env.gameID.String(),
		Score:  ptrInt64(5_000_000),
	})
	require.NoError(t, err)
	require.Equal(t, entity.EntryStatusFlagged, entry.Status)

	modID := uuid.New()
	verified, err := env.svc.VerifyEntry(ctx, entry.ID, modID)
	require.NoError(t, err)
	require.Equal(t, entity.EntryStatusVerified, verified.Status)
	require.Equal(t, modID, *verified.VerifiedBy)
	require.NotNil(t, verified.VerifiedAt)

	rejected, err := env.svc.RejectEntry(ctx, entry.ID, modID, "impossible score")
	require.NoError(t, err)
	require.Equal(t, entity.EntryStatusRejected, rejected.Status)
	require.Equal(t, "impossible score", rejected.RejectionReason)

	require.Len(t, env.notif.sent, 2)
	require.Equal(t, entity.NotificationEntryVerified, env.notif.sent[0].Type)
	require.Equal(t, entity.NotificationEntryRejected, env.notif.sent[1].Type)
	require.Equal(t, env.userID, env.notif.sent[1].UserID)
}

func TestDeleteEntry_Ownership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	entry, err := env.svc.Submit(ctx, env.userID, dto.SubmitEntryRequest{
		GameID: env.gameID.String(),
		Score:  ptrInt64(10),
	})
	require.NoError(t, err)

	err = env.svc.DeleteEntry(ctx, entry.ID, uuid.New(), entity.RoleUser)
	require.ErrorIs(t, err, apperror.ErrForbidden)

	err = env.svc.DeleteEntry(ctx, entry.ID, uuid.New(), entity.RoleAdmin)
	require.NoError(t, err)

	_, err = env.repo.FindByID(ctx, entry.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
