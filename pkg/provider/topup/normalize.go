package topup

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// reasonKeys are tried in order when a provider explains a failure.
var reasonKeys = []string{"msg", "message", "data.msg", "data.message", "error"}

// Normalize applies the success rule to a decoded provider response: the
// value at flagPath must be boolean true or a number in [200,300), and one
// of idPaths must hold a non-empty external order id.
func Normalize(raw map[string]any, flagPath string, idPaths ...string) *Result {
	res := &Result{Raw: raw}
	var externalID string
	for _, p := range idPaths {
		if id := asString(Lookup(raw, p)); id != "" {
			externalID = id
			break
		}
	}
	if IsTruthy(Lookup(raw, flagPath)) && externalID != "" {
		res.Success = true
		res.ExternalOrderID = externalID
		return res
	}
	res.FailureKind = FailureBusiness
	res.Reason = Reason(raw)
	return res
}

// TransportFailure converts a call error into a failed Result.
func TransportFailure(err error) *Result {
	return &Result{
		Success:     false,
		Reason:      err.Error(),
		FailureKind: FailureTransport,
		Raw:         map[string]any{"error": err.Error()},
	}
}

// IsTruthy reports whether v encodes success: boolean true or a numeric
// code in [200,300). Numeric strings count as numbers.
func IsTruthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t >= 200 && t < 300
	case int:
		return t >= 200 && t < 300
	case int64:
		return t >= 200 && t < 300
	case json.Number:
		n, err := t.Int64()
		return err == nil && n >= 200 && n < 300
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return err == nil && n >= 200 && n < 300
	}
	return false
}

// Reason extracts a human-readable failure message, falling back to the
// serialized response.
func Reason(raw map[string]any) string {
	for _, k := range reasonKeys {
		if s := asString(Lookup(raw, k)); s != "" {
			return s
		}
	}
	if len(raw) == 0 {
		return "empty provider response"
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Sprintf("%v", raw)
	}
	return string(b)
}

// Lookup resolves a dotted path such as "data.id" in a decoded JSON object.
func Lookup(raw map[string]any, path string) any {
	if raw == nil || path == "" {
		return nil
	}
	var cur any = raw
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[part]
		if !ok {
			return nil
		}
	}
	return cur
}

// MapState maps a remote status word to the core vocabulary.
func MapState(remote string) State {
	switch strings.ToLower(strings.TrimSpace(remote)) {
	case "success", "completed":
		return StateSuccess
	case "pending", "processing":
		return StatePending
	case "failed", "error":
		return StateFailed
	}
	return StateUnknown
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return ""
}
