// Package testutils runs route tests against the full fiber app backed by
// an in-memory sqlite database and mocked gateway and provider.
package testutils

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/amirasaad/topup/infra/eventbus"
	"github.com/amirasaad/topup/infra/provider/email"
	"github.com/amirasaad/topup/internal/fixtures/mocks"
	"github.com/amirasaad/topup/pkg/app"
	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/catalog"
	"github.com/amirasaad/topup/pkg/domain/user"
	"github.com/amirasaad/topup/pkg/provider/topup"
	pkgtestutils "github.com/amirasaad/topup/pkg/testutils"
	"github.com/amirasaad/topup/webapi"
	"github.com/amirasaad/topup/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// ProviderName is the provider the seeded game is fulfilled by.
const ProviderName = "smileone"

// E2ETestSuite builds a fresh app for every test so mock expectations never
// leak between tests.
type E2ETestSuite struct {
	suite.Suite
	DB       *gorm.DB
	Core     *app.App
	App      *fiber.App
	Gateway  *mocks.MockGateway
	Provider *mocks.MockTopupClient
	Game     *catalog.Game
}

// TestConfig is the configuration every route test runs with.
func TestConfig() *config.App {
	return &config.App{
		Env:         "test",
		Auth:        &config.Auth{Jwt: &config.Jwt{Secret: "webapi-test-secret", Expiry: time.Hour}},
		Order:       &config.Order{ContactPrefixes: []string{"62", "60", "65", "91"}},
		Wallet:      &config.Wallet{MinDepositPaise: 100, AllowStubDeposits: true},
		Reconcile:   &config.Reconcile{Spec: "@every 1m", PendingAge: 2 * time.Minute, BatchSize: 10},
		Leaderboard: &config.Leaderboard{Size: 10, Timezone: "UTC"},
	}
}

func (s *E2ETestSuite) SetupTest() {
	t := s.T()
	uow, db := pkgtestutils.NewTestUoW(t)
	s.DB = db
	s.Gateway = mocks.NewMockGateway(t)
	s.Provider = mocks.NewMockTopupClient(t, ProviderName, false)

	core, err := app.New(&app.Deps{
		Uow:       uow,
		EventBus:  eventbus.NewWithMemory(pkgtestutils.Discard),
		Gateway:   s.Gateway,
		Providers: topup.NewRegistry(pkgtestutils.Discard, s.Provider),
		Notifier:  email.NewLogNotifier(pkgtestutils.Discard),
		Logger:    pkgtestutils.Discard,
	}, TestConfig())
	s.Require().NoError(err)
	s.Core = core
	s.App = webapi.SetupApp(core)
	s.Game = pkgtestutils.SeedGame(t, db, ProviderName)
}

// CreateTestUser inserts a user with role and balance.
func (s *E2ETestSuite) CreateTestUser(role user.Role, balance domain.Paise) *user.User {
	return pkgtestutils.SeedUser(s.T(), s.DB, role, balance)
}

// Token issues a bearer token for u without going through login.
func (s *E2ETestSuite) Token(u *user.User) string {
	tok, _, err := s.Core.AuthService.GenerateToken(u)
	s.Require().NoError(err)
	return tok
}

// LoginUser logs u in over HTTP and returns the token.
func (s *E2ETestSuite) LoginUser(u *user.User) string {
	body, err := json.Marshal(map[string]string{"email": u.Email, "password": pkgtestutils.DefaultPassword})
	s.Require().NoError(err)
	resp := s.MakeRequest(http.MethodPost, "/auth/login", string(body), "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	s.Require().NotEmpty(out.Data.Token)
	return out.Data.Token
}

// MakeRequest is a helper for making HTTP requests in tests
func (s *E2ETestSuite) MakeRequest(method, path, body, token string) *http.Response {
	return MakeRequest(s.App, method, path, body, token)
}

// MakeRequest sends one request through app.Test.
func MakeRequest(app *fiber.App, method, path, body, token string) *http.Response {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		panic(err)
	}
	return resp
}

// DecodeData decodes the success envelope, unmarshalling its data into out.
func (s *E2ETestSuite) DecodeData(resp *http.Response, out any) common.Response {
	defer resp.Body.Close() //nolint: errcheck
	var raw struct {
		common.Response
		Data json.RawMessage `json:"data"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&raw))
	if out != nil {
		s.Require().NoError(json.Unmarshal(raw.Data, out))
	}
	return raw.Response
}

// DecodeProblem decodes a problem details body.
func (s *E2ETestSuite) DecodeProblem(resp *http.Response) common.ProblemDetails {
	defer resp.Body.Close() //nolint: errcheck
	var pd common.ProblemDetails
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&pd))
	return pd
}
