// Package leaderboard ranks users by weekly completed spend.
package leaderboard

import (
	"time"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/google/uuid"
)

// Entry is one ranked row.
type Entry struct {
	Rank       int          `json:"rank"`
	UserID     uuid.UUID    `json:"userId"`
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	TotalSpent domain.Paise `json:"totalSpent"`
	OrderCount int64        `json:"orderCount"`
}

// Board is a leaderboard snapshot for one week.
type Board struct {
	Entries   []Entry   `json:"leaderboard"`
	WeekStart time.Time `json:"weekStart"`
	WeekEnd   time.Time `json:"weekEnd"`
}

// WeekRange returns Monday 00:00 and Sunday 23:59:59.999 of the week
// containing now, in now's location.
func WeekRange(now time.Time) (start, end time.Time) {
	daysFromMonday := (int(now.Weekday()) + 6) % 7
	y, m, d := now.Date()
	start = time.Date(y, m, d-daysFromMonday, 0, 0, 0, 0, now.Location())
	end = start.AddDate(0, 0, 7).Add(-time.Millisecond)
	return start, end
}

// NextReset returns the next Monday 00:00 strictly after now.
func NextReset(now time.Time) time.Time {
	start, _ := WeekRange(now)
	return start.AddDate(0, 0, 7)
}

// Rank assigns 1-based ranks in slice order.
func Rank(entries []Entry) []Entry {
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
