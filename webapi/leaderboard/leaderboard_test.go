package leaderboard_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/amirasaad/topup/pkg/domain/leaderboard"
	leaderboardsvc "github.com/amirasaad/topup/pkg/service/leaderboard"
	"github.com/amirasaad/topup/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
)

type LeaderboardTestSuite struct {
	testutils.E2ETestSuite
}

func (s *LeaderboardTestSuite) TestWeekly_NoAuthNeeded() {
	resp := s.MakeRequest(http.MethodGet, "/leaderboard", "", "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var board leaderboard.Board
	s.DecodeData(resp, &board)
	s.Empty(board.Entries)
	s.Equal(time.Monday, board.WeekStart.Weekday())
}

func (s *LeaderboardTestSuite) TestResetTime() {
	resp := s.MakeRequest(http.MethodGet, "/leaderboard/reset-time", "", "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var reset leaderboardsvc.Reset
	s.DecodeData(resp, &reset)
	s.Equal(time.Monday, reset.NextReset.Weekday())
	s.True(reset.NextReset.After(time.Now()))
	s.Positive(reset.SecondsRemaining)
	s.NotEmpty(reset.Countdown)
}

func TestLeaderboardTestSuite(t *testing.T) {
	suite.Run(t, new(LeaderboardTestSuite))
}
