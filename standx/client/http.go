package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/perpbot/gostandx/standx/types"
)

// httpClient wraps the resty client for the trading API. Transport-level
// retries stay off: the gateway owns the retry budget and stacking resty's
// would multiply attempts.
type httpClient struct {
	client *resty.Client
}

func newHTTPClient(baseURL string, timeout time.Duration) *httpClient {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "*/*").
		SetHeader("User-Agent", "gostandx")

	return &httpClient{client: client}
}

// postSigned transmits payload byte-for-byte as the request body, with the
// bearer token and the signature headers computed over those same bytes.
func (h *httpClient) postSigned(ctx context.Context, endpoint, payload, token string, sig types.SignatureHeaders) (*resty.Response, error) {
	return h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+token).
		SetHeaders(sig.Map()).
		SetBody(payload).
		Post(endpoint)
}

// getSigned issues a GET whose canonical query string is the signed payload.
func (h *httpClient) getSigned(ctx context.Context, endpoint, query, token string, sig types.SignatureHeaders) (*resty.Response, error) {
	r := h.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetHeaders(sig.Map())
	if query != "" {
		r.SetQueryString(query)
	}
	return r.Get(endpoint)
}

// get issues an unauthenticated GET (public endpoints only).
func (h *httpClient) get(ctx context.Context, endpoint, query string) (*resty.Response, error) {
	r := h.client.R().SetContext(ctx)
	if query != "" {
		r.SetQueryString(query)
	}
	return r.Get(endpoint)
}

// canonicalQuery renders params as a sorted k=v&k=v string; the same bytes
// are signed and transmitted.
func canonicalQuery(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	return strings.Join(pairs, "&")
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// decodeList unwraps list responses that arrive either as a bare JSON array
// or wrapped in a {"result": [...]} envelope.
func decodeList(body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return errors.New("empty response body")
	}
	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}

	var wrapper struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return errors.Wrap(err, "decode response")
	}
	if wrapper.Result == nil {
		return errors.Errorf("unexpected response shape: %s", trimmed)
	}
	return json.Unmarshal(wrapper.Result, out)
}
