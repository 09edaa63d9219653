package service

import (
	"time"

	"knightgaming.gg/backend/internal/entity"
)

// Anti-cheat thresholds. Fixed constants, not calibrated per game.
const (
	// Scores above this are outside the plausible range for any tracked genre.
	SuspiciousScoreCeiling = 1_000_000

	// A score above ScoreDensityCeiling achieved in under MinPlausibleSeconds
	// of play implies an implausible score density per unit time.
	MinPlausibleSeconds = 60
	ScoreDensityCeiling = 10_000

	// Accuracy above this percentage is treated as super-human.
	MaxHumanAccuracy = 98
)

const (
	FlagSuspiciousScore    = "suspicious_score"
	FlagScoreTimeMismatch  = "score_time_mismatch"
	FlagSuspiciousAccuracy = "suspicious_accuracy"
)

// EvaluateEntry runs every heuristic against the entry and returns the union
// of raised flags. It is a pure function of the entry state: no I/O, no
// short-circuiting. Callers replace the entry's flag list wholesale with the
// result so each run reflects only the current state.
func EvaluateEntry(e *entity.LeaderboardEntry) []entity.AntiCheatFlag {
	now := time.Now()
	var flags []entity.AntiCheatFlag

	if e.Score > SuspiciousScoreCeiling {
		flags = append(flags, entity.AntiCheatFlag{
			Flag:      FlagSuspiciousScore,
			Severity:  entity.SeverityHigh,
			Details:   "Score exceeds typical maximum values",
			FlaggedAt: now,
		})
	}

	if e.Metadata != nil && e.Metadata.TimePlayed != nil &&
		*e.Metadata.TimePlayed < MinPlausibleSeconds && e.Score > ScoreDensityCeiling {
		flags = append(flags, entity.AntiCheatFlag{
			Flag:      FlagScoreTimeMismatch,
			Severity:  entity.SeverityMedium,
			Details:   "High score achieved in unrealistically short time",
			FlaggedAt: now,
		})
	}

	if e.Metadata != nil && e.Metadata.Accuracy != nil && *e.Metadata.Accuracy > MaxHumanAccuracy {
		flags = append(flags, entity.AntiCheatFlag{
			Flag:      FlagSuspiciousAccuracy,
			Severity:  entity.SeverityMedium,
			Details:   "Accuracy exceeds human capabilities",
			FlaggedAt: now,
		})
	}

	return flags
}
