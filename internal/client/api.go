package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/anonto42/picgram/backend/internal/apperr"
	"github.com/anonto42/picgram/backend/internal/models"
)

// APIError is a failure envelope returned by the server.
type APIError struct {
	Status  int
	Code    apperr.Code
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap exposes the domain error so errors.Is works against apperr sentinels.
func (e *APIError) Unwrap() error {
	return apperr.New(e.Code, e.Message)
}

// SearchResult is the body of a successful search.
type SearchResult struct {
	Users      []models.UserSummary  `json:"users"`
	Hashtags   []models.HashtagCount `json:"hashtags"`
	SearchTerm string                `json:"searchTerm"`
}

// APIClient calls the social graph HTTP API. Requests carry no deadline of
// their own; callers bound them with ctx.
type APIClient struct {
	baseURL  string
	http     *http.Client
	token    string
	language string
}

type Option func(*APIClient)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *APIClient) { c.http = hc }
}

// WithToken authenticates requests with a bearer token.
func WithToken(token string) Option {
	return func(c *APIClient) { c.token = token }
}

// WithLanguage asks for error messages in the given language.
func WithLanguage(lang string) Option {
	return func(c *APIClient) { c.language = lang }
}

func NewAPIClient(baseURL string, opts ...Option) *APIClient {
	c := &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ToggleFollow toggles the follow edge to userID.
func (c *APIClient) ToggleFollow(ctx context.Context, userID uint) (Snapshot, error) {
	var body struct {
		IsFollowing    bool  `json:"isFollowing"`
		FollowersCount int64 `json:"followersCount"`
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", userID), nil, &body); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{State: body.IsFollowing, Count: body.FollowersCount}, nil
}

// ToggleLike toggles the like edge on postID.
func (c *APIClient) ToggleLike(ctx context.Context, postID uint) (Snapshot, error) {
	var body struct {
		IsLiked    bool  `json:"isLiked"`
		LikesCount int64 `json:"likesCount"`
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/like", postID), nil, &body); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{State: body.IsLiked, Count: body.LikesCount}, nil
}

// Feed fetches the feed; feedType is "all" or "following".
func (c *APIClient) Feed(ctx context.Context, feedType string) ([]models.FeedPost, error) {
	q := url.Values{}
	if feedType != "" {
		q.Set("type", feedType)
	}
	var body struct {
		Posts []models.FeedPost `json:"posts"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/feed", q, &body); err != nil {
		return nil, err
	}
	return body.Posts, nil
}

// Recommended fetches up to limit suggested users; 0 uses the server default.
func (c *APIClient) Recommended(ctx context.Context, limit int) ([]models.UserSummary, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var body struct {
		Users []models.UserSummary `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/recommended", q, &body); err != nil {
		return nil, err
	}
	return body.Users, nil
}

// Search looks up users and hashtags matching query.
func (c *APIClient) Search(ctx context.Context, query string) (SearchResult, error) {
	var res SearchResult
	err := c.do(ctx, http.MethodGet, "/api/v1/search", url.Values{"q": {query}}, &res)
	return res, err
}

// Toggler adapts the client to a Reconciler.
func (c *APIClient) Toggler() ToggleFunc {
	return func(ctx context.Context, key EntityKey) (Snapshot, error) {
		switch key.Kind {
		case KindFollow:
			return c.ToggleFollow(ctx, key.ID)
		case KindLike:
			return c.ToggleLike(ctx, key.ID)
		default:
			return Snapshot{}, fmt.Errorf("unknown entity kind %q", key.Kind)
		}
	}
}

func (c *APIClient) do(ctx context.Context, method, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var env struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		apiErr := &APIError{Status: resp.StatusCode, Code: apperr.CodeUnknownStore, Message: http.StatusText(resp.StatusCode)}
		if json.Unmarshal(data, &env) == nil && env.Code != "" {
			apiErr.Code = apperr.Code(env.Code)
			apiErr.Message = env.Error
		}
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
