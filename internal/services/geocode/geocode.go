package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"residence-booking/utils"
)

type Config struct {
	BaseURL   string        `json:"baseUrl" mapstructure:"base_url"`
	UserAgent string        `json:"userAgent" mapstructure:"user_agent"`
	Country   string        `json:"country" mapstructure:"country"`
	Timeout   time.Duration `json:"timeout" mapstructure:"timeout"`
	Retries   int           `json:"retries" mapstructure:"retries"`
	CacheTTL  time.Duration `json:"cacheTtl" mapstructure:"cache_ttl"`
}

// Client resolves coordinates and place queries against Nominatim. Reverse
// results are cached in Redis keyed on rounded coordinates; the cache is the
// injected collaborator state, never a process global.
type Client struct {
	baseURL   string
	userAgent string
	country   string
	retries   int
	cacheTTL  time.Duration

	redis   *redis.Client
	breaker *utils.CircuitBreaker
	hc      *http.Client
}

// ErrTimeout marks a geocoder that did not answer in time. Callers degrade to
// a partial response with a warning flag instead of failing the request.
var ErrTimeout = errors.New("geocode: upstream timeout")

func New(cfg *Config, redisClient *redis.Client) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = 2
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}

	return &Client{
		baseURL:   baseURL,
		userAgent: cfg.UserAgent,
		country:   cfg.Country,
		retries:   retries,
		cacheTTL:  cacheTTL,

		redis:   redisClient,
		breaker: utils.NewCircuitBreaker("geocode"),
		hc: &http.Client{
			Timeout: timeout,
		},
	}
}

// Address is the normalized geocode result.
type Address struct {
	AddressLabel string  `json:"address_label"`
	City         string  `json:"city,omitempty"`
	Area         string  `json:"area,omitempty"`
	Borough      string  `json:"borough,omitempty"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

type nominatimPlace struct {
	DisplayName string            `json:"display_name"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	Address     map[string]string `json:"address"`
}

// Reverse resolves coordinates to an address, serving repeats from the cache.
// Coordinates are rounded to 5 decimals so nearby lookups share an entry.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*Address, error) {
	lat, lng = round5(lat), round5(lng)
	cacheKey := fmt.Sprintf("geocode:reverse:%.5f:%.5f", lat, lng)

	if cached, err := c.redis.Get(ctx, cacheKey).Bytes(); err == nil {
		var addr Address
		if err := json.Unmarshal(cached, &addr); err == nil {
			return &addr, nil
		}
	}

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 5, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', 5, 64))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")

	raw, err := c.fetch(ctx, "/reverse", q)
	if err != nil {
		return nil, err
	}

	var place nominatimPlace
	if err := json.Unmarshal(raw, &place); err != nil {
		return nil, fmt.Errorf("geocode reverse: decode: %w", err)
	}

	addr := placeToAddress(&place)
	addr.Latitude, addr.Longitude = lat, lng

	if data, err := json.Marshal(addr); err == nil {
		c.redis.Set(ctx, cacheKey, data, c.cacheTTL)
	}

	return addr, nil
}

// Search forward-geocodes a text query into candidate addresses.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]*Address, error) {
	if query == "" {
		return []*Address{}, nil
	}
	if limit <= 0 || limit > 20 {
		limit = 6
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("limit", strconv.Itoa(limit))
	if c.country != "" {
		q.Set("countrycodes", c.country)
	}

	raw, err := c.fetch(ctx, "/search", q)
	if err != nil {
		return nil, err
	}

	var places []nominatimPlace
	if err := json.Unmarshal(raw, &places); err != nil {
		return nil, fmt.Errorf("geocode search: decode: %w", err)
	}

	results := make([]*Address, 0, len(places))
	for i := range places {
		lat, errLat := strconv.ParseFloat(places[i].Lat, 64)
		lng, errLng := strconv.ParseFloat(places[i].Lon, 64)
		if errLat != nil || errLng != nil {
			continue
		}
		addr := placeToAddress(&places[i])
		addr.Latitude, addr.Longitude = lat, lng
		results = append(results, addr)
	}

	return results, nil
}

// fetch performs the upstream call, retrying timeouts with a small backoff.
func (c *Client) fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		result, err := c.breaker.Execute(ctx, func() (any, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("User-Agent", c.userAgent)

			resp, err := c.hc.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("geocode: status %d", resp.StatusCode)
			}

			var raw json.RawMessage
			if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
				return nil, err
			}
			return []byte(raw), nil
		})
		if err == nil {
			return result.([]byte), nil
		}

		lastErr = err
		if !isTimeout(err) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ErrTimeout
		case <-time.After(time.Duration(attempt+1) * 350 * time.Millisecond):
		}
	}

	if isTimeout(lastErr) {
		return nil, ErrTimeout
	}
	return nil, lastErr
}

func placeToAddress(p *nominatimPlace) *Address {
	addr := p.Address
	city := first(addr, "city", "town", "village", "state")
	borough := first(addr, "neighbourhood", "quarter", "city_district", "district")
	area := first(addr, "suburb", "city_district", "municipality", "county", "state_district")

	return &Address{
		AddressLabel: p.DisplayName,
		City:         city,
		Area:         area,
		Borough:      borough,
	}
}

func first(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}

func round5(v float64) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 5, 64), 64)
	return f
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}
