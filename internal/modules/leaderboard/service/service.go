package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"knightgaming.gg/backend/internal/entity"
	gameRepo "knightgaming.gg/backend/internal/modules/game/repository"
	"knightgaming.gg/backend/internal/modules/leaderboard/dto"
	"knightgaming.gg/backend/internal/modules/leaderboard/repository"
	notifService "knightgaming.gg/backend/internal/modules/notification/service"
	userRepo "knightgaming.gg/backend/internal/modules/user/repository"
	"knightgaming.gg/backend/pkg/apperror"
	commonDto "knightgaming.gg/backend/pkg/dto"
)

type LeaderboardService interface {
	// Submit records a score for (game, user, category, season). It either
	// creates the unique entry or updates it in place when the score improves;
	// a non-improving score is rejected without touching the stored entry.
	Submit(ctx context.Context, userID uuid.UUID, req dto.SubmitEntryRequest) (*entity.LeaderboardEntry, error)
	GetLeaderboard(ctx context.Context, gameID uuid.UUID, q dto.LeaderboardQuery) (*dto.LeaderboardResponse, error)
	GetUserRank(ctx context.Context, gameID, userID uuid.UUID, q dto.RankQuery) (*dto.RankResponse, error)
	GetUserEntries(ctx context.Context, userID uuid.UUID, page, limit int) ([]entity.LeaderboardEntry, commonDto.PaginationMeta, error)
	GetCategories(ctx context.Context, gameID uuid.UUID) ([]string, error)
	DeleteEntry(ctx context.Context, entryID, actorID uuid.UUID, actorRole string) error
	VerifyEntry(ctx context.Context, entryID, moderatorID uuid.UUID) (*entity.LeaderboardEntry, error)
	RejectEntry(ctx context.Context, entryID, moderatorID uuid.UUID, reason string) (*entity.LeaderboardEntry, error)
	ListFlagged(ctx context.Context, page, limit int) ([]entity.LeaderboardEntry, commonDto.PaginationMeta, error)
}

type leaderboardService struct {
	repo                repository.LeaderboardRepository
	gameRepo            gameRepo.GameRepository
	userRepo            userRepo.UserRepository
	notificationService notifService.NotificationService
}

func NewLeaderboardService(
	repo repository.LeaderboardRepository,
	gameRepo gameRepo.GameRepository,
	userRepo userRepo.UserRepository,
	notificationService notifService.NotificationService,
) LeaderboardService {
	return &leaderboardService{
		repo:                repo,
		gameRepo:            gameRepo,
		userRepo:            userRepo,
		notificationService: notificationService,
	}
}

func (s *leaderboardService) Submit(ctx context.Context, userID uuid.UUID, req dto.SubmitEntryRequest) (*entity.LeaderboardEntry, error) {
	gameID, err := uuid.Parse(req.GameID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid game id", apperror.ErrInvalidInput)
	}

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil || !game.IsActive {
		return nil, fmt.Errorf("%w: game not found", apperror.ErrNotFound)
	}

	user, err := s.userRepo.FindByID(ctx, userID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: user not found", apperror.ErrNotFound)
	}

	category := req.Category
	if category == "" {
		category = entity.DefaultCategory
	}

	key := repository.EntryKey{GameID: gameID, Category: category, Season: req.Season}

	achievedAt := time.Now()
	if req.AchievedAt != nil {
		achievedAt = *req.AchievedAt
	}

	existing, err := s.repo.FindByKey(ctx, key, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if existing != nil {
		if *req.Score <= existing.Score {
			return nil, apperror.ErrScoreNotImproved
		}

		// Overwrite and force re-verification: any score update must be
		// re-vetted even if the entry was previously verified.
		existing.Score = *req.Score
		existing.Metadata = req.Metadata
		existing.Proof = req.Proof
		existing.AchievedAt = achievedAt
		existing.SubmittedAt = time.Now()
		existing.PlayerName = user.PlayerName()
		existing.Status = entity.EntryStatusPending
		existing.VerifiedBy = nil
		existing.VerifiedAt = nil
		existing.RejectionReason = ""

		s.applyVerdict(existing)

		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}

		log.Printf("Leaderboard entry updated by user %s for game %s (status=%s)", userID, gameID, existing.Status)
		return existing, nil
	}

	entry := &entity.LeaderboardEntry{
		GameID:      gameID,
		UserID:      userID,
		PlayerName:  user.PlayerName(),
		Score:       *req.Score,
		Category:    category,
		Season:      req.Season,
		Metadata:    req.Metadata,
		Proof:       req.Proof,
		Status:      entity.EntryStatusPending,
		SubmittedAt: time.Now(),
		AchievedAt:  achievedAt,
		IsActive:    true,
	}

	s.applyVerdict(entry)

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	// First-time creation only: bump the user's lifetime entry counter.
	if err := s.userRepo.IncrementLeaderboardEntries(ctx, userID); err != nil {
		log.Printf("Failed to increment leaderboard counter for user %s: %v", userID, err)
	}

	log.Printf("Leaderboard entry submitted by user %s for game %s (status=%s)", userID, gameID, entry.Status)
	return entry, nil
}

// applyVerdict runs the anti-cheat heuristics and assigns the resulting
// status: flagged when any heuristic fired, otherwise auto-verified. The flag
// list is replaced wholesale, discarding results of prior runs.
func (s *leaderboardService) applyVerdict(entry *entity.LeaderboardEntry) {
	entry.AntiCheatFlags = EvaluateEntry(entry)
	if entry.Flagged() {
		entry.Status = entity.EntryStatusFlagged
	} else {
		entry.Status = entity.EntryStatusVerified
	}
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, gameID uuid.UUID, q dto.LeaderboardQuery) (*dto.LeaderboardResponse, error) {
	if _, err := s.gameRepo.FindByID(ctx, gameID); err != nil {
		return nil, fmt.Errorf("%w: game not found", apperror.ErrNotFound)
	}

	category := q.Category
	if category == "" {
		category = entity.DefaultCategory
	}
	key := repository.EntryKey{GameID: gameID, Category: category, Season: q.Season}

	page, limit := commonDto.NormalizePage(q.Page, q.Limit, 100, 100)
	offset := (page - 1) * limit

	entries, err := s.repo.ListVerified(ctx, key, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountVerified(ctx, key)
	if err != nil {
		return nil, err
	}

	// Ranks are assigned sequentially over the sorted page starting at
	// offset+1; correct because the sort key is the ranking key.
	ranked := make([]dto.RankedEntry, 0, len(entries))
	for i, e := range entries {
		ranked = append(ranked, dto.RankedEntry{
			Rank:       offset + i + 1,
			EntryID:    e.ID,
			PlayerName: e.PlayerName,
			UserID:     e.UserID,
			Score:      e.Score,
			Category:   e.Category,
			Season:     e.Season,
			AchievedAt: e.AchievedAt,
			Metadata:   e.Metadata,
		})
	}

	return &dto.LeaderboardResponse{
		Entries: ranked,
		Meta:    commonDto.NewPaginationMeta(page, limit, total),
	}, nil
}

func (s *leaderboardService) GetUserRank(ctx context.Context, gameID, userID uuid.UUID, q dto.RankQuery) (*dto.RankResponse, error) {
	category := q.Category
	if category == "" {
		category = entity.DefaultCategory
	}
	key := repository.EntryKey{GameID: gameID, Category: category, Season: q.Season}

	entry, err := s.repo.FindVerifiedByUser(ctx, key, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.RankResponse{HasEntry: false}, nil
		}
		return nil, err
	}

	// Rank is recomputed per query: count of strictly higher verified scores
	// plus one. No persisted rank column, no cache to invalidate.
	higher, err := s.repo.CountHigher(ctx, key, entry.Score)
	if err != nil {
		return nil, err
	}

	rank := higher + 1
	return &dto.RankResponse{
		HasEntry: true,
		Rank:     &rank,
		Score:    &entry.Score,
		Entry:    entry,
	}, nil
}

func (s *leaderboardService) GetUserEntries(ctx context.Context, userID uuid.UUID, page, limit int) ([]entity.LeaderboardEntry, commonDto.PaginationMeta, error) {
	page, limit = commonDto.NormalizePage(page, limit, 10, 50)
	offset := (page - 1) * limit

	entries, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}
	return entries, commonDto.NewPaginationMeta(page, limit, total), nil
}

func (s *leaderboardService) GetCategories(ctx context.Context, gameID uuid.UUID) ([]string, error) {
	return s.repo.DistinctCategories(ctx, gameID)
}

func (s *leaderboardService) DeleteEntry(ctx context.Context, entryID, actorID uuid.UUID, actorRole string) error {
	entry, err := s.repo.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: entry not found", apperror.ErrNotFound)
		}
		return err
	}

	if entry.UserID != actorID && actorRole != entity.RoleAdmin {
		return fmt.Errorf("%w: you can only delete your own entries", apperror.ErrForbidden)
	}

	return s.repo.Delete(ctx, entryID)
}

func (s *leaderboardService) VerifyEntry(ctx context.Context, entryID, moderatorID uuid.UUID) (*entity.LeaderboardEntry, error) {
	return s.moderate(ctx, entryID, moderatorID, entity.EntryStatusVerified, "")
}

func (s *leaderboardService) RejectEntry(ctx context.Context, entryID, moderatorID uuid.UUID, reason string) (*entity.LeaderboardEntry, error) {
	return s.moderate(ctx, entryID, moderatorID, entity.EntryStatusRejected, reason)
}

func (s *leaderboardService) moderate(ctx context.Context, entryID, moderatorID uuid.UUID, status, reason string) (*entity.LeaderboardEntry, error) {
	entry, err := s.repo.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: entry not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	now := time.Now()
	entry.Status = status
	entry.VerifiedBy = &moderatorID
	entry.VerifiedAt = &now
	entry.RejectionReason = reason

	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.notifyVerdict(ctx, entry, moderatorID)
	return entry, nil
}

func (s *leaderboardService) notifyVerdict(ctx context.Context, entry *entity.LeaderboardEntry, moderatorID uuid.UUID) {
	if s.notificationService == nil {
		return
	}

	notifType := entity.NotificationEntryVerified
	message := fmt.Sprintf("Your %s score of %d has been verified!", entry.Category, entry.Score)
	if entry.Status == entity.EntryStatusRejected {
		notifType = entity.NotificationEntryRejected
		message = fmt.Sprintf("Your %s score of %d was rejected: %s", entry.Category, entry.Score, entry.RejectionReason)
	}

	notification := &entity.Notification{
		UserID:     entry.UserID,
		ActorID:    &moderatorID,
		EntityID:   entry.ID,
		EntityType: "leaderboard_entry",
		Type:       notifType,
		Message:    message,
	}

	if err := s.notificationService.CreateNotification(ctx, notification); err != nil {
		log.Printf("Failed to send verdict notification for entry %s: %v", entry.ID, err)
	}
}

func (s *leaderboardService) ListFlagged(ctx context.Context, page, limit int) ([]entity.LeaderboardEntry, commonDto.PaginationMeta, error) {
	page, limit = commonDto.NormalizePage(page, limit, 20, 100)
	offset := (page - 1) * limit

	entries, total, err := s.repo.ListFlagged(ctx, limit, offset)
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}
	return entries, commonDto.NewPaginationMeta(page, limit, total), nil
}
