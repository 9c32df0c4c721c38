package topupapi

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/provider/topup"
	"github.com/go-resty/resty/v2"
)

// SmileOneClient talks to smile.one. Requests are form encoded and signed;
// there is no status endpoint, the create response is final.
type SmileOneClient struct {
	client *resty.Client
	uid    string
	email  string
	key    string
	now    func() time.Time
	logger *slog.Logger
}

func NewSmileOne(cfg *config.ProviderAPI, l *slog.Logger) *SmileOneClient {
	return &SmileOneClient{
		client: newRestyClient(cfg),
		uid:    cfg.UID,
		email:  cfg.Email,
		key:    cfg.Key,
		now:    time.Now,
		logger: scopedLogger(l, SmileOne),
	}
}

func (c *SmileOneClient) Name() string          { return SmileOne }
func (c *SmileOneClient) RequiresContact() bool { return false }

func (c *SmileOneClient) SubmitOrder(ctx context.Context, req topup.SubmitRequest) (*topup.Result, error) {
	params := c.signed(map[string]string{
		"product":   req.GameCode,
		"productid": req.ProductID,
		"userid":    req.UserID,
		"zoneid":    req.ServerID,
		"orderid":   req.OrderID,
	})
	raw, err := decode(c.client.R().
		SetContext(ctx).
		SetFormData(params).
		Post("/smilecoin/api/createorder"))
	if err != nil {
		return nil, err
	}
	c.logger.Debug("createorder answered", "order_id", req.OrderID, "status", raw["status"])
	return topup.Normalize(raw, "status", "order_id"), nil
}

// GetOrderStatus replays the stored create response. An accepted order is
// already fulfilled on smile.one.
func (c *SmileOneClient) GetOrderStatus(_ context.Context, _ string, last map[string]any) (*topup.Status, error) {
	res := topup.Normalize(last, "status", "order_id")
	if res.Success {
		return &topup.Status{State: topup.StateSuccess, Raw: last}, nil
	}
	if len(last) == 0 {
		return &topup.Status{State: topup.StateUnknown, Raw: last}, nil
	}
	return &topup.Status{State: topup.StateFailed, Reason: res.Reason, Raw: last}, nil
}

func (c *SmileOneClient) ValidateAccount(ctx context.Context, req topup.ValidateRequest) (*topup.Validation, error) {
	params := c.signed(map[string]string{
		"product":   req.GameCode,
		"productid": req.ProductID,
		"userid":    req.UserID,
		"zoneid":    req.ServerID,
	})
	raw, err := decode(c.client.R().
		SetContext(ctx).
		SetFormData(params).
		Post("/smilecoin/api/getrole"))
	if err != nil {
		return nil, err
	}
	v := &topup.Validation{Raw: raw, Valid: topup.IsTruthy(raw["status"])}
	if v.Valid {
		if name, _ := raw["username"].(string); name != "" {
			v.DisplayName = name
		} else if zone, _ := raw["zone"].(string); zone != "" {
			v.DisplayName = zone
		}
	}
	return v, nil
}

func (c *SmileOneClient) signed(params map[string]string) map[string]string {
	params["uid"] = c.uid
	params["email"] = c.email
	params["time"] = strconv.FormatInt(c.now().Unix(), 10)
	params["sign"] = smileSign(params, c.key)
	return params
}

// smileSign is md5(md5("k1=v1&k2=v2&...&" + key)) over the sorted keys.
func smileSign(params map[string]string, key string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k != "sign" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
		b.WriteByte('&')
	}
	b.WriteString(key)
	first := md5.Sum([]byte(b.String()))
	second := md5.Sum([]byte(hex.EncodeToString(first[:])))
	return hex.EncodeToString(second[:])
}
