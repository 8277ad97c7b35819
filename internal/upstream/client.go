// Package upstream is the rate-limited, circuit-broken HTTP client for the
// upstream card catalog (SPEC_FULL.md §4.4), grounded on original_source's
// upstream client module: every call acquires a rate-limit token, then runs
// inside the circuit breaker. A call the breaker rejects has already spent
// its token, and surfaces as a distinct error for the HTTP layer to map to
// SCRYFALL_API_ERROR.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/tetrabit/cardcache/internal/breaker"
	"github.com/tetrabit/cardcache/internal/card"
	"github.com/tetrabit/cardcache/internal/ratelimit"
)

const (
	requestTimeout      = 30 * time.Second
	bulkDownloadTimeout = 10 * time.Minute
	collectionChunkSize = 75
	userAgent           = "cardcache/1.0"
)

// Client is the upstream HTTP client.
type Client struct {
	http     *http.Client
	download *http.Client
	baseURL  string
	limiter  *ratelimit.Limiter
	breaker  *breaker.Breaker
	log      logr.Logger
}

// New builds a Client against baseURL, gated by a rate limiter at
// ratePerSecond and a circuit breaker configured with breakerCfg.
func New(baseURL string, ratePerSecond int, breakerCfg breaker.Config, log logr.Logger) *Client {
	return &Client{
		http: &http.Client{Timeout: requestTimeout},
		// download has no fixed Timeout: a bulk snapshot can take minutes to
		// transfer, so Download's own context deadline (bulkDownloadTimeout)
		// is the only ceiling on the exchange.
		download: &http.Client{},
		baseURL:  strings.TrimRight(baseURL, "/"),
		limiter:  ratelimit.New(ratePerSecond),
		breaker:  breaker.New(breakerCfg),
		log:      log.WithValues("component", "upstream"),
	}
}

// BreakerState exposes the breaker's state for /metrics and /readyz.
func (c *Client) BreakerState() breaker.State { return c.breaker.State() }

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// doRequest acquires a rate-limit token, then runs the request through the
// circuit breaker. A 5xx response and a transport error both count as
// breaker failures; 4xx responses do not (client errors shouldn't trip the
// breaker) and are returned to the caller to interpret (404 vs other).
func (c *Client) doRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.doRequestWith(ctx, c.http, req)
}

// doRequestWith is doRequest parameterized on the underlying http.Client,
// so Download can run against a client with no fixed Timeout and let its
// own context deadline govern the whole exchange instead.
func (c *Client) doRequestWith(ctx context.Context, httpClient *http.Client, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	var resp *http.Response
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		r, err := httpClient.Do(req.WithContext(ctx))
		if err != nil {
			return err
		}
		if r.StatusCode >= 500 {
			body, _ := io.ReadAll(r.Body)
			_ = r.Body.Close()
			return &Error{Status: r.StatusCode, Body: string(body)}
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// ByID returns nil, nil when id is absent upstream (404), and
// *Error{Status} for any other non-2xx response.
func (c *Client) ByID(ctx context.Context, id string) (*card.Card, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/cards/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.doRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Status: resp.StatusCode, Body: string(body)}
	}
	c2, err := DecodeCard(body)
	if err != nil {
		return nil, err
	}
	return &c2, nil
}

// ByName looks up a single card by exact or fuzzy name matching, mirroring
// upstream's ?exact=/?fuzzy= convention.
func (c *Client) ByName(ctx context.Context, name string, fuzzy bool) (*card.Card, error) {
	param := "exact"
	if fuzzy {
		param = "fuzzy"
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/cards/named?"+param+"="+url.QueryEscape(name), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.doRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Status: resp.StatusCode, Body: string(body)}
	}
	c2, err := DecodeCard(body)
	if err != nil {
		return nil, err
	}
	return &c2, nil
}

// Search runs query against the upstream search endpoint, following
// next_page links until has_more is false. Each page is a separate rate
// limited, circuit broken HTTP call; records that fail per-record decode
// are logged and skipped rather than failing the whole search.
func (c *Client) Search(ctx context.Context, query string) ([]card.Card, error) {
	var out []card.Card
	path := "/cards/search?q=" + url.QueryEscape(query)

	for path != "" {
		req, err := c.newRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.doRequest(ctx, req)
		if err != nil {
			return nil, err
		}
		body, err := readBody(resp)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &Error{Status: resp.StatusCode, Body: string(body)}
		}

		var page searchPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode search page: %w", err)
		}
		for _, raw := range page.Data {
			decoded, err := DecodeCard(raw)
			if err != nil {
				c.log.V(1).Info("skipping undecodable search result", "error", err.Error())
				continue
			}
			out = append(out, decoded)
		}

		if !page.HasMore || page.NextPage == "" {
			break
		}
		path = stripBaseURL(c.baseURL, page.NextPage)
	}
	return out, nil
}

// stripBaseURL converts an absolute next_page URL back into a path relative
// to baseURL, since newRequest always joins baseURL with a path.
func stripBaseURL(baseURL, next string) string {
	if strings.HasPrefix(next, baseURL) {
		return strings.TrimPrefix(next, baseURL)
	}
	return next
}

type collectionRequest struct {
	Identifiers []collectionIdentifier `json:"identifiers"`
}

type collectionIdentifier struct {
	ID string `json:"id"`
}

type collectionResponse struct {
	Data     []json.RawMessage `json:"data"`
	NotFound []json.RawMessage `json:"not_found"`
}

// ByIDsCollection looks up many ids in one or more chunked collection
// calls, splitting at collectionChunkSize per upstream's documented limit.
func (c *Client) ByIDsCollection(ctx context.Context, ids []string) ([]card.Card, error) {
	var out []card.Card
	for start := 0; start < len(ids); start += collectionChunkSize {
		end := start + collectionChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		identifiers := make([]collectionIdentifier, len(chunk))
		for i, id := range chunk {
			identifiers[i] = collectionIdentifier{ID: id}
		}
		payload, err := json.Marshal(collectionRequest{Identifiers: identifiers})
		if err != nil {
			return nil, err
		}

		req, err := c.newRequest(ctx, http.MethodPost, "/cards/collection", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		resp, err := c.doRequest(ctx, req)
		if err != nil {
			return nil, err
		}
		body, err := readBody(resp)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &Error{Status: resp.StatusCode, Body: string(body)}
		}

		var page collectionResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode collection response: %w", err)
		}
		for _, raw := range page.Data {
			decoded, err := DecodeCard(raw)
			if err != nil {
				c.log.V(1).Info("skipping undecodable collection result", "error", err.Error())
				continue
			}
			out = append(out, decoded)
		}
	}
	return out, nil
}

// BulkData fetches and parses the upstream bulk catalog listing.
func (c *Client) BulkData(ctx context.Context) ([]BulkDataEntry, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/bulk-data", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.doRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Status: resp.StatusCode, Body: string(body)}
	}

	var list bulkDataResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode bulk-data listing: %w", err)
	}
	return list.Data, nil
}

// Download fetches downloadURI with the longer bulk-download timeout,
// returning the raw (possibly gzip-compressed) response bytes undecoded;
// internal/bulkload owns decompression and JSON decoding.
func (c *Client) Download(ctx context.Context, downloadURI string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, bulkDownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURI, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.doRequestWith(ctx, c.download, req)
	if err != nil {
		return nil, err
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
