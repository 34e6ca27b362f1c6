package vda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"roofscore/packages/go/logger"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	ErrUnauthorized = errors.New("vda: unauthorized")
	// ErrRequestFailed is returned for any other unsuccessful call, once retries are exhausted.
	ErrRequestFailed = errors.New("vda: request failed")
)

type Options struct {
	BaseUrl    string
	Key        string
	Secret     string
	RatePerSec int
	Retries    int
	CacheTTL   time.Duration
	MinBackoff time.Duration
	MaxBackoff time.Duration
	Timeout    time.Duration
}

func NewDefaultOptions() *Options {
	return &Options{
		RatePerSec: 5,
		Retries:    3,
		CacheTTL:   5 * time.Minute,
		MinBackoff: 500 * time.Millisecond,
		MaxBackoff: 5 * time.Second,
		Timeout:    30 * time.Second,
	}
}

// Client calls the mission data API. Requests are rate limited and retried on transient failures;
// the bearer token is fetched lazily and renewed once when a call is rejected with 401.
type Client struct {
	baseUrl *url.URL
	key     string
	secret  string
	http    *retryablehttp.Client
	limiter *rate.Limiter
	cache   *cache.Cache
	logger  *zerolog.Logger

	mu    sync.Mutex
	token string
}

func NewClient(opts *Options, l *zerolog.Logger) (*Client, error) {
	if opts == nil {
		opts = NewDefaultOptions()
	}
	if opts.BaseUrl == "" {
		return nil, fmt.Errorf("vda base url is required")
	}
	base, err := url.Parse(strings.TrimSuffix(opts.BaseUrl, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid vda base url: %w", err)
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 1
	}

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = opts.Retries
	httpClient.RetryWaitMin = opts.MinBackoff
	httpClient.RetryWaitMax = opts.MaxBackoff
	httpClient.HTTPClient.Timeout = opts.Timeout
	httpClient.Logger = logger.NewLevelHTTPLogger(l)
	// keep the last response so callers see the upstream status code
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseUrl: base,
		key:     opts.Key,
		secret:  opts.Secret,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.RatePerSec),
		cache:   cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		logger:  l,
	}, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseUrl.ResolveReference(&url.URL{Path: strings.TrimPrefix(path, "/")}).String()
}

func (c *Client) authenticate(ctx context.Context) (string, error) {
	form := url.Values{"key": {c.key}, "secret": {c.secret}}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("auth"), strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: auth: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: auth returned %s", ErrUnauthorized, resp.Status)
	}
	body := struct {
		Token string `json:"token"`
	}{}
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: auth response: %w", ErrRequestFailed, err)
	}
	if body.Token == "" {
		return "", fmt.Errorf("%w: empty token", ErrUnauthorized)
	}
	return body.Token, nil
}

// getToken returns the current token, authenticating when there is none or when renew is set.
func (c *Client) getToken(ctx context.Context, renew bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && !renew {
		return c.token, nil
	}
	token, err := c.authenticate(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	c.logger.Debug().Msg("vda token renewed")
	return token, nil
}

func (c *Client) send(ctx context.Context, method, path, token string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.endpoint(path), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	return c.http.Do(req)
}

// GetJSON calls the API and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out interface{}) error {
	token, err := c.getToken(ctx, false)
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, http.MethodGet, path, token)
	if err == nil && resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if token, err = c.getToken(ctx, true); err != nil {
			return err
		}
		resp, err = c.send(ctx, http.MethodGet, path, token)
	}
	if err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrRequestFailed, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: GET %s", ErrUnauthorized, path)
	case resp.StatusCode >= 300:
		return fmt.Errorf("%w: GET %s returned %s", ErrRequestFailed, path, resp.Status)
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrRequestFailed, path, err)
	}
	return nil
}

// MissionDetail returns the metadata of a mission version, cached for the configured TTL.
func (c *Client) MissionDetail(ctx context.Context, missionID string) (*MissionDetail, error) {
	if cached, found := c.cache.Get(missionID); found {
		if detail, ok := cached.(*MissionDetail); ok {
			return detail, nil
		}
	}
	detail := &MissionDetail{}
	if err := c.GetJSON(ctx, "missions/"+url.PathEscape(missionID)+"/missiondata", detail); err != nil {
		return nil, err
	}
	c.cache.Set(missionID, detail, cache.DefaultExpiration)
	return detail, nil
}
