// Package topupapi implements the top-up provider clients over resty.
package topupapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/domain"
	"github.com/go-resty/resty/v2"
)

// Provider names as stored on games and orders.
const (
	SmileOne  = "smileone"
	Yokcash   = "yokcash"
	Hopestore = "hopestore"
)

func newRestyClient(cfg *config.ProviderAPI) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
}

// decode turns a resty response into a JSON object. Anything that is not a
// 2xx JSON answer is a transport failure.
func decode(resp *resty.Response, err error) (map[string]any, error) {
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProvider, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: http %d: %s", domain.ErrProvider, resp.StatusCode(), truncate(resp.String(), 256))
	}
	var raw map[string]any
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrProvider, err)
	}
	return raw, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func target(userID, serverID string) string {
	if serverID == "" {
		return userID
	}
	return userID + "|" + serverID
}

func scopedLogger(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With("provider", name)
}
