package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"shareit/internal/models"

	"github.com/redis/go-redis/v9"
)

// Client forwards validated requests to the server tier and hands back the
// raw status and body, so the gateway relays whatever the server decided.
type Client struct {
	baseURL    string
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// UseRedisCache configures optional Redis caching for idempotent GETs.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// Do sends one request to the server tier. pathAndQuery already carries
// the encoded query string. userID is forwarded verbatim in the identity
// header when non-empty.
func (c *Client) Do(ctx context.Context, method, pathAndQuery, userID, requestID string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+pathAndQuery, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(models.UserIDHeader, userID)
	}
	if requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("server request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func (c *Client) readCache(ctx context.Context, key string) ([]byte, bool) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return nil, false
	}
	val, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *Client) writeCache(ctx context.Context, key string, body []byte) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	_ = c.redis.Set(ctx, key, body, c.cacheTTL).Err()
}

// cachedGet serves an idempotent GET through the cache when possible.
func (c *Client) cachedGet(ctx context.Context, pathAndQuery, userID, requestID string) (int, []byte, error) {
	key := "gw:" + pathAndQuery
	if body, ok := c.readCache(ctx, key); ok {
		return http.StatusOK, body, nil
	}

	status, body, err := c.Do(ctx, http.MethodGet, pathAndQuery, userID, requestID, nil)
	if err == nil && status == http.StatusOK {
		c.writeCache(ctx, key, body)
	}
	return status, body, err
}

// marshalBody is a small helper for handlers that re-encode a validated
// payload before forwarding.
func marshalBody(v any) []byte {
	data, _ := json.Marshal(v)
	return data
}
