package lookup // lookup wraps the external identity and geography services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when the upstream service has no record for
// the requested document number.
var ErrNotFound = errors.New("lookup: not found")

// ErrUnavailable is returned when no upstream service is configured or
// the service cannot be reached.  Callers treat lookups as a
// convenience: a form can always be filled in by hand.
var ErrUnavailable = errors.New("lookup: service unavailable")

// Person is the subset of the national registry record used to prefill
// permit forms.
type Person struct {
	DocNumber  string `json:"doc_number"`
	Name       string `json:"name"`
	FirstNames string `json:"first_names"`
	Surname1   string `json:"surname1"`
	Surname2   string `json:"surname2"`
}

// DNIClient queries the government ID service, caching successful
// answers in Redis.  Registry records change rarely, so a long TTL is
// safe and keeps the office responsive when the upstream is slow.
type DNIClient struct {
	base string
	http *http.Client
	rdb  *redis.Client // nil disables caching
	ttl  time.Duration
}

// NewDNIClient builds a client for the given base URL.  An empty base
// URL yields a client whose lookups always fail with ErrUnavailable.
// rdb may be nil.
func NewDNIClient(baseURL string, rdb *redis.Client) *DNIClient {
	return &DNIClient{
		base: baseURL,
		http: &http.Client{Timeout: 5 * time.Second},
		rdb:  rdb,
		ttl:  24 * time.Hour,
	}
}

// Lookup returns the registry record for a document number, consulting
// the cache first.
func (c *DNIClient) Lookup(ctx context.Context, docNumber string) (*Person, error) {
	if c.base == "" {
		return nil, ErrUnavailable
	}
	key := "lookup:dni:" + docNumber
	if c.rdb != nil {
		if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
			var p Person
			if json.Unmarshal(raw, &p) == nil {
				return &p, nil
			}
		}
	}

	u := fmt.Sprintf("%s?numero=%s", c.base, url.QueryEscape(docNumber))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: upstream status %d", ErrUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var p Person
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("lookup: decode response: %w", err)
	}
	if p.DocNumber == "" {
		p.DocNumber = docNumber
	}
	if c.rdb != nil {
		if raw, err := json.Marshal(&p); err == nil {
			c.rdb.Set(ctx, key, raw, c.ttl) // cache write failures are ignored
		}
	}
	return &p, nil
}
