package tile

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"historicalmap/internal/config"
	"historicalmap/internal/exchange"
	"historicalmap/internal/model"
)

// Source produces raw encoded tiles.
type Source interface {
	// ID identifies the tile set; tiles of different IDs never share storage.
	ID() string
	Fetch(ctx context.Context, c model.TileCoordinate) ([]byte, error)
}

// SourceTypeURL is the only source type: a slippy-map URL template.
const SourceTypeURL = "URL"

// SourceTypes lists the supported tile source types.
func SourceTypes() []string { return []string{SourceTypeURL} }

const DefaultTemplate = "https://a.tile.openstreetmap.org/{Z}/{X}/{Y}.png"

var placeholders = strings.NewReplacer("{zoom}", "{Z}", "{x}", "{X}", "{y}", "{Y}")

// NormalizeTemplate accepts {Z}/{X}/{Y} or {zoom}/{x}/{y} placeholders and returns the
// upper case form. A template missing any placeholder is INVALID_PARAM.
func NormalizeTemplate(template string) (string, error) {
	t := placeholders.Replace(strings.TrimSpace(template))
	for _, p := range []string{"{Z}", "{X}", "{Y}"} {
		if !strings.Contains(t, p) {
			return "", exchange.Errorf(exchange.CodeInvalidParam, "tile url %q lacks %s", template, p)
		}
	}
	if !strings.HasPrefix(t, "http://") && !strings.HasPrefix(t, "https://") {
		return "", exchange.Errorf(exchange.CodeInvalidParam, "tile url %q is not http(s)", template)
	}
	return t, nil
}

// URLSource fetches tiles over HTTP from a URL template. The template is fixed for the
// lifetime of the source; WithTemplate derives a new one.
type URLSource struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	template  string
}

var _ Source = (*URLSource)(nil)

// NewURLSource builds a source from the tile configuration.
func NewURLSource(cfg config.TileConfig) (*URLSource, error) {
	template := cfg.URLTemplate
	if template == "" {
		template = DefaultTemplate
	}
	t, err := NormalizeTemplate(template)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = time.Second
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &URLSource{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter:   rate.NewLimiter(limit, burst),
		userAgent: cfg.UserAgent,
		template:  t,
	}, nil
}

// WithTemplate returns a source for another template sharing the client and the rate
// limiter of s. s itself is left untouched.
func (s *URLSource) WithTemplate(template string) (*URLSource, error) {
	t, err := NormalizeTemplate(template)
	if err != nil {
		return nil, err
	}
	return &URLSource{
		client:    s.client,
		limiter:   s.limiter,
		userAgent: s.userAgent,
		template:  t,
	}, nil
}

func (s *URLSource) Template() string { return s.template }

func (s *URLSource) ID() string { return s.template }

// URL expands the template for c.
func (s *URLSource) URL(c model.TileCoordinate) string {
	return strings.NewReplacer(
		"{Z}", strconv.Itoa(c.Zoom),
		"{X}", strconv.Itoa(c.X),
		"{Y}", strconv.Itoa(c.Y),
	).Replace(s.template)
}

// Fetch downloads one tile. Any failure is reported as NETWORK_ERROR.
func (s *URLSource) Fetch(ctx context.Context, c model.TileCoordinate) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, exchange.Errorf(exchange.CodeNetworkError, "rate limit: %w", err)
	}
	url := s.URL(c)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, exchange.Errorf(exchange.CodeNetworkError, "build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, exchange.Errorf(exchange.CodeNetworkError, "get %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, exchange.Errorf(exchange.CodeNetworkError, "get %s: status %d", url, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, exchange.Errorf(exchange.CodeNetworkError, "read %s: %w", url, err)
	}
	if len(b) == 0 {
		return nil, exchange.Errorf(exchange.CodeNetworkError, "get %s: empty body", url)
	}
	return b, nil
}

func (s *URLSource) String() string { return fmt.Sprintf("url(%s)", s.template) }
