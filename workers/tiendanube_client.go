package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"nadin-revendedoras/models"
	"nadin-revendedoras/utils"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultTiendanubeBaseURL = "https://api.tiendanube.com/v1"
	DefaultPerPage           = 200
	// Tiendanube caps per_page at 200 and throttles at ~2 req/s per store.
	maxPerPage = 200
	// safety net against an API that never returns a short page
	maxPages = 500
)

// TiendanubeConfig holds the remote catalog source settings.
type TiendanubeConfig struct {
	BaseURL       string
	StoreID       string
	AccessToken   string
	UserAgent     string
	PerPage       int
	RatePerSecond float64
	MaxRetries    int
	RetryDelay    time.Duration
	Timeout       time.Duration
}

// StatusError is returned for non-2xx answers from the remote catalog.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tiendanube returned status %d for %s: %s", e.StatusCode, e.URL, e.Body)
}

// TiendanubeClient pulls products and categories page by page.
type TiendanubeClient struct {
	BaseURL    string
	StoreID    string
	Token      string
	UserAgent  string
	PerPage    int
	HTTPClient *http.Client

	limiter     *rate.Limiter
	retryPolicy retrypolicy.RetryPolicy[*http.Response]
}

func NewTiendanubeClient(cfg TiendanubeConfig) *TiendanubeClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTiendanubeBaseURL
	}
	if cfg.PerPage <= 0 || cfg.PerPage > maxPerPage {
		cfg.PerPage = DefaultPerPage
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 2
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	policy := retrypolicy.Builder[*http.Response]().
		HandleIf(isRetryable).
		WithMaxRetries(cfg.MaxRetries).
		WithBackoff(cfg.RetryDelay, 10*cfg.RetryDelay).
		ReturnLastFailure().
		Build()

	return &TiendanubeClient{
		BaseURL:     cfg.BaseURL,
		StoreID:     cfg.StoreID,
		Token:       cfg.AccessToken,
		UserAgent:   cfg.UserAgent,
		PerPage:     cfg.PerPage,
		HTTPClient:  utils.NewHTTPClient(cfg.Timeout),
		limiter:     rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		retryPolicy: policy,
	}
}

// FetchProducts returns every published product.
func (c *TiendanubeClient) FetchProducts(ctx context.Context) ([]models.RemoteProduct, error) {
	return fetchAll[models.RemoteProduct](ctx, c, "products", url.Values{"published": {"true"}})
}

// FetchCategories returns the full flat category table.
func (c *TiendanubeClient) FetchCategories(ctx context.Context) ([]models.RemoteCategory, error) {
	return fetchAll[models.RemoteCategory](ctx, c, "categories", nil)
}

// fetchAll walks pages until a short page. Tiendanube answers 404 past the last page,
// which is also treated as the end when it happens after page 1.
func fetchAll[T any](ctx context.Context, c *TiendanubeClient, resource string, extra url.Values) ([]T, error) {
	var all []T
	for page := 1; page <= maxPages; page++ {
		var batch []T
		err := c.getPage(ctx, resource, page, extra, &batch)
		if err != nil {
			var se *StatusError
			if page > 1 && errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
				return finishFetch(resource, page-1, all), nil
			}
			return nil, fmt.Errorf("fetching %s page %d: %w", resource, page, err)
		}
		all = append(all, batch...)
		if len(batch) < c.PerPage {
			return finishFetch(resource, page, all), nil
		}
	}
	return nil, fmt.Errorf("fetching %s: exceeded %d pages", resource, maxPages)
}

func finishFetch[T any](resource string, pages int, all []T) []T {
	log.Info().Str("resource", resource).Int("pages", pages).Int("items", len(all)).Msg("[SYNC] 📥 remote fetch complete")
	return all
}

func (c *TiendanubeClient) getPage(ctx context.Context, resource string, page int, extra url.Values, out any) error {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid tiendanube base URL '%s': %w", c.BaseURL, err)
	}
	endpoint := base.JoinPath(c.StoreID, resource)
	q := endpoint.Query()
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(c.PerPage))
	endpoint.RawQuery = q.Encode()
	finalURL := endpoint.String()

	resp, err := failsafe.NewExecutor[*http.Response](c.retryPolicy).
		WithContext(ctx).
		Get(func() (*http.Response, error) {
			return c.do(ctx, finalURL)
		})
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", finalURL, err)
	}
	return nil
}

func (c *TiendanubeClient) do(ctx context.Context, finalURL string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("Authentication", "bearer "+c.Token)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	log.Debug().Str("url", finalURL).Msg("[SYNC] ➡️ GET")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()
		log.Warn().Int("status", resp.StatusCode).Str("url", finalURL).Msg("[SYNC] ❌ tiendanube returned non-2xx")
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: finalURL, Body: string(body)}
	}
	return resp, nil
}

// retry transport failures, throttling and server errors; never a cancelled context
func isRetryable(_ *http.Response, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return true
}
