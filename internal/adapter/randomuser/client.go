package randomuser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "user-browser-service/internal/domain/user"
	apperrors "user-browser-service/pkg/errors"
)

// DefaultBaseURL is the public randomuser.me endpoint.
const DefaultBaseURL = "https://randomuser.me"

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 16 << 20

// Client fetches pages of users from the randomuser.me API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
	validate   *validator.Validate
}

// NewClient creates a new randomuser client. Requests are bounded only by
// the context passed to FetchPage.
func NewClient(baseURL string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		log:        log,
		validate:   validator.New(),
	}
}

// pageResponse mirrors the subset of the randomuser payload we consume.
type pageResponse struct {
	Error   string       `json:"error"`
	Results []userResult `json:"results"`
	Info    struct {
		Seed    string `json:"seed"`
		Results int    `json:"results"`
		Page    int    `json:"page"`
	} `json:"info"`
}

type userResult struct {
	Login struct {
		UUID string `json:"uuid"`
	} `json:"login"`
	Name struct {
		First string `json:"first"`
		Last  string `json:"last"`
	} `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"picture"`
}

// pageURL builds the request URL for a page.
func (c *Client) pageURL(req domain.PageRequest) string {
	q := url.Values{}
	q.Set("results", strconv.Itoa(req.Size))
	q.Set("page", strconv.Itoa(req.Page))
	if req.Seed != "" {
		q.Set("seed", req.Seed)
	}
	return fmt.Sprintf("%s/api/?%s", c.baseURL, q.Encode())
}

// FetchPage retrieves one page of users. Every failure is reported as a
// *errors.FetchError.
func (c *Client) FetchPage(ctx context.Context, req domain.PageRequest) ([]domain.Record, error) {
	endpoint := c.pageURL(req)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewFetchError(req.Page, "build request", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Warn("randomuser request failed", zap.Int("page", req.Page), zap.Error(err))
		return nil, apperrors.NewFetchError(req.Page, "request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		c.log.Warn("randomuser returned error status", zap.Int("page", req.Page), zap.Int("status", resp.StatusCode))
		return nil, apperrors.NewFetchError(req.Page, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var body pageResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		c.log.Warn("failed to decode randomuser payload", zap.Int("page", req.Page), zap.Error(err))
		return nil, apperrors.NewFetchError(req.Page, "decode response", err)
	}
	if body.Error != "" {
		return nil, apperrors.NewFetchError(req.Page, "remote error: "+body.Error, nil)
	}

	records := make([]domain.Record, 0, len(body.Results))
	for i, u := range body.Results {
		r := domain.Record{
			ID:           u.Login.UUID,
			FirstName:    u.Name.First,
			LastName:     u.Name.Last,
			Email:        u.Email,
			ThumbnailURL: u.Picture.Thumbnail,
		}
		if err := c.validate.Struct(r); err != nil {
			c.log.Warn("malformed user in randomuser payload", zap.Int("page", req.Page), zap.Int("index", i), zap.Error(err))
			return nil, apperrors.NewFetchError(req.Page, fmt.Sprintf("malformed user at index %d", i), err)
		}
		records = append(records, r)
	}

	c.log.Debug("fetched randomuser page",
		zap.Int("page", req.Page),
		zap.Int("size", req.Size),
		zap.Int("count", len(records)),
		zap.Duration("took", time.Since(start)),
	)

	return records, nil
}
