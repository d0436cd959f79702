// Package mcp is the HTTP client for the warranty MCP data server. It exposes
// one method per tool, with a TTL response cache and retries on transport
// failures.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// Tool names exposed by the MCP server.
const (
	ToolWarrantyDays          = "warranty_days"
	ToolWarrantyHistory       = "warranty_history"
	ToolMaintenanceHistory    = "maintenance_history"
	ToolVehicleRepairsHistory = "vehicle_repairs_history"
	ToolComplianceRAG         = "compliance_rag"
)

var (
	// ErrConnection marks transport-level failures after retries ran out.
	ErrConnection = errors.New("mcp: connection failed")
	// ErrToolNotFound marks a 404 from the server.
	ErrToolNotFound = errors.New("mcp: tool not found")
	// ErrToolValidation marks a 422 from the server.
	ErrToolValidation = errors.New("mcp: tool arguments rejected")
)

type Config struct {
	ServerURL  string        `envconfig:"SERVER_URL" split_words:"true" default:"http://localhost:8004"`
	Timeout    time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	MaxRetries uint64        `envconfig:"MAX_RETRIES" split_words:"true" default:"3"`
	CacheTTL   time.Duration `envconfig:"CACHE_TTL" split_words:"true" default:"5m"`
	AuthToken  string        `envconfig:"AUTH_TOKEN" split_words:"true"`
}

type cacheEntry struct {
	payload   map[string]any
	expiresAt time.Time
}

// Client calls MCP tools over HTTP. Safe for concurrent use.
type Client struct {
	baseURL    string
	authToken  string
	maxRetries uint64
	cacheTTL   time.Duration
	httpClient *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.ServerURL)
	if baseURL == "" {
		return nil, errors.New("mcp server url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authToken:  strings.TrimSpace(cfg.AuthToken),
		maxRetries: cfg.MaxRetries,
		cacheTTL:   cfg.CacheTTL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      map[string]cacheEntry{},
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// WarrantyDays returns days-in-repair statistics for a VIN.
func (c *Client) WarrantyDays(ctx context.Context, vin string) (map[string]any, error) {
	return c.CallTool(ctx, ToolWarrantyDays, map[string]any{"vin": vin})
}

// WarrantyHistory returns warranty claim history for a VIN.
func (c *Client) WarrantyHistory(ctx context.Context, vin string) (map[string]any, error) {
	return c.CallTool(ctx, ToolWarrantyHistory, map[string]any{"vin": vin})
}

// MaintenanceHistory returns scheduled maintenance history for a VIN.
func (c *Client) MaintenanceHistory(ctx context.Context, vin string) (map[string]any, error) {
	return c.CallTool(ctx, ToolMaintenanceHistory, map[string]any{"vin": vin})
}

// VehicleRepairsHistory returns dealer repair orders for a VIN.
func (c *Client) VehicleRepairsHistory(ctx context.Context, vin string) (map[string]any, error) {
	return c.CallTool(ctx, ToolVehicleRepairsHistory, map[string]any{"vin": vin})
}

// ComplianceSearch runs a retrieval query over the warranty policy base.
func (c *Client) ComplianceSearch(ctx context.Context, query string) (map[string]any, error) {
	return c.CallTool(ctx, ToolComplianceRAG, map[string]any{"query": query})
}

// Health probes the MCP server. It never returns a Go error; an unreachable
// server yields a payload with status "unhealthy".
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return map[string]any{"status": "unhealthy", "error": err.Error()}, nil
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return map[string]any{"status": "unhealthy", "error": err.Error()}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return map[string]any{
			"status": "unhealthy",
			"error":  fmt.Sprintf("status %d", resp.StatusCode),
		}, nil
	}

	payload, err := decodeBody(resp.Body)
	if err != nil {
		return map[string]any{"status": "unhealthy", "error": err.Error()}, nil
	}
	if _, ok := payload["status"]; !ok {
		payload["status"] = "healthy"
	}
	return payload, nil
}

// CallTool invokes a named tool. Successful responses are cached for the
// configured TTL; transport failures are retried with exponential backoff,
// HTTP error statuses are not.
func (c *Client) CallTool(ctx context.Context, tool string, args map[string]any) (map[string]any, error) {
	key := cacheKey(tool, args)
	if payload, ok := c.cached(key); ok {
		log.Debug().Str("tool", tool).Msg("mcp cache hit")
		return payload, nil
	}

	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("mcp: encode %s args: %w", tool, err)
	}

	operation := func() (map[string]any, error) {
		return c.post(ctx, tool, body)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	payload, err := backoff.RetryWithData(operation, policy)
	if err != nil {
		return nil, err
	}

	c.store(key, payload)
	return payload, nil
}

func (c *Client) post(ctx context.Context, tool string, body []byte) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tools/"+tool, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("mcp: build request: %w", err))
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport failure: retryable.
		return nil, fmt.Errorf("%w: %s: %v", ErrConnection, tool, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		payload, err := decodeBody(resp.Body)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("mcp: decode %s response: %w", tool, err))
		}
		return payload, nil
	case http.StatusNotFound:
		return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrToolNotFound, tool))
	case http.StatusUnprocessableEntity:
		detail := readDetail(resp.Body)
		return nil, backoff.Permanent(fmt.Errorf("%w: %s: %s", ErrToolValidation, tool, detail))
	default:
		return nil, backoff.Permanent(fmt.Errorf("mcp: %s returned status %d", tool, resp.StatusCode))
	}
}

func (c *Client) setHeaders(req *http.Request) {
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
}

func (c *Client) cached(key string) (map[string]any, bool) {
	if c.cacheTTL <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(c.cache, key)
		return nil, false
	}
	return entry.payload, true
}

func (c *Client) store(key string, payload map[string]any) {
	if c.cacheTTL <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cacheEntry{payload: payload, expiresAt: time.Now().Add(c.cacheTTL)}
}

// cacheKey is tool + args with keys sorted, so identical calls share an entry
// regardless of map iteration order.
func cacheKey(tool string, args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(tool)
	for _, k := range keys {
		fmt.Fprintf(&b, "|%s=%v", k, args[k])
	}
	return b.String()
}

func decodeBody(r io.Reader) (map[string]any, error) {
	var payload map[string]any
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, err
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}

func readDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return "no detail"
	}
	return string(bytes.TrimSpace(raw))
}
