package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spacesedan/reviewflow/internal/models"
)

type NaverClient struct {
	Client       *http.Client
	Endpoint     string
	ClientID     string
	ClientSecret string
}

type BlogSearchRequest struct {
	Query string
	Count int
	Start int
	Sort  models.SortMode
}

func NewNaverClient(clientID, clientSecret, endpoint string, timeout time.Duration) *NaverClient {
	if endpoint == "" {
		endpoint = NAVER_BLOG_ENDPOINT
	}
	if timeout <= 0 {
		timeout = NAVER_TIMEOUT
	}
	return &NaverClient{
		Client:       &http.Client{Timeout: timeout},
		Endpoint:     endpoint,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}
}

// HasCredentials reports whether both Naver headers can be populated.
func (n *NaverClient) HasCredentials() bool {
	return strings.TrimSpace(n.ClientID) != "" && strings.TrimSpace(n.ClientSecret) != ""
}

// Bounds clamps count, start and sort to what the endpoint accepts.
func (r BlogSearchRequest) Bounds() BlogSearchRequest {
	switch {
	case r.Count <= 0:
		r.Count = DEFAULT_DISPLAY
	case r.Count < MIN_DISPLAY:
		r.Count = MIN_DISPLAY
	case r.Count > MAX_DISPLAY:
		r.Count = MAX_DISPLAY
	}
	if r.Start < 1 {
		r.Start = 1
	}
	if r.Start > MAX_START {
		r.Start = MAX_START
	}
	if !r.Sort.Valid() {
		r.Sort = models.SortByDate
	}
	return r
}

func (n *NaverClient) buildURL(r BlogSearchRequest) (string, error) {
	base, err := url.Parse(n.Endpoint)
	if err != nil {
		return "", fmt.Errorf("[NaverClient] invalid endpoint %q: %w", n.Endpoint, err)
	}
	// spaces go out as %20, not '+'
	query := strings.ReplaceAll(url.QueryEscape(r.Query), "+", "%20")
	base.RawQuery = fmt.Sprintf("sort=%s&display=%d&start=%d&query=%s", r.Sort, r.Count, r.Start, query)
	return base.String(), nil
}

// SearchBlog runs a single blog search. It is never retried: a failure is
// returned once and the caller decides what to show.
func (n *NaverClient) SearchBlog(ctx context.Context, r BlogSearchRequest) (*models.NaverBlogSearchResponse, error) {
	if !n.HasCredentials() {
		slog.Error("[NaverClient] client id or secret is missing")
		return nil, fmt.Errorf("[NaverClient] naver client id and secret are required: %w", ErrMissingCredential)
	}
	if strings.TrimSpace(r.Query) == "" {
		return nil, fmt.Errorf("[NaverClient] query must not be empty")
	}
	r = r.Bounds()

	endpoint, err := n.buildURL(r)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("[NaverClient] failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", USER_AGENT)
	req.Header.Set("X-Naver-Client-Id", n.ClientID)
	req.Header.Set("X-Naver-Client-Secret", n.ClientSecret)

	slog.Info("[NaverClient] Searching blogs",
		slog.String("query", r.Query),
		slog.Int("display", r.Count),
		slog.Int("start", r.Start),
		slog.String("sort", string(r.Sort)))

	start := time.Now()
	res, err := n.Client.Do(req)
	if err != nil {
		slog.Error("[NaverClient] request failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("[NaverClient] request failed: %v: %w", err, ErrTransport)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, MAX_ERROR_BODY_BYTES))
		slog.Warn("[NaverClient] Unexpected response",
			slog.Int("statusCode", res.StatusCode),
			slog.String("body", string(body)))
		return nil, fmt.Errorf("[NaverClient] unexpected status %d: %w", res.StatusCode, ErrTransport)
	}

	var response models.NaverBlogSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		slog.Error("[NaverClient] Failed to parse JSON response", slog.String("error", err.Error()))
		return nil, fmt.Errorf("[NaverClient] invalid response body: %v: %w", err, ErrDecode)
	}

	slog.Info("[NaverClient] Search complete",
		slog.Int("total", response.Total),
		slog.Int("items", len(response.Items)),
		slog.Duration("elapsed", time.Since(start)))
	return &response, nil
}
