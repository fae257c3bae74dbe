package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

// GeoClient queries the administrative-geography service used to fill
// the department/province/district fields of the permit form.  Answers
// are cached aggressively: the division of the country changes on the
// order of years.
type GeoClient struct {
	base string
	http *http.Client
	rdb  *redis.Client // nil disables caching
	ttl  time.Duration
}

// NewGeoClient builds a client for the given base URL.  rdb may be nil.
func NewGeoClient(baseURL string, rdb *redis.Client) *GeoClient {
	return &GeoClient{
		base: baseURL,
		http: &http.Client{Timeout: 5 * time.Second},
		rdb:  rdb,
		ttl:  7 * 24 * time.Hour,
	}
}

// Departments lists all departments.
func (c *GeoClient) Departments(ctx context.Context) ([]string, error) {
	return c.fetch(ctx, "/departments", nil)
}

// Provinces lists the provinces of a department.
func (c *GeoClient) Provinces(ctx context.Context, department string) ([]string, error) {
	return c.fetch(ctx, "/provinces", url.Values{"department": {department}})
}

// Districts lists the districts of a province.
func (c *GeoClient) Districts(ctx context.Context, department, province string) ([]string, error) {
	return c.fetch(ctx, "/districts", url.Values{
		"department": {department},
		"province":   {province},
	})
}

func (c *GeoClient) fetch(ctx context.Context, path string, q url.Values) ([]string, error) {
	if c.base == "" {
		return nil, ErrUnavailable
	}
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	key := "lookup:geo:" + path
	if len(q) > 0 {
		key += ":" + q.Encode()
	}
	if c.rdb != nil {
		if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
			var out []string
			if json.Unmarshal(raw, &out) == nil {
				return out, nil
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: upstream status %d", ErrUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("lookup: decode response: %w", err)
	}
	if c.rdb != nil {
		if raw, err := json.Marshal(out); err == nil {
			c.rdb.Set(ctx, key, raw, c.ttl)
		}
	}
	return out, nil
}
