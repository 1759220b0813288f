package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Siddarth2230/url-mapping-service/internal/models"
	"github.com/Siddarth2230/url-mapping-service/internal/repository"
	"github.com/Siddarth2230/url-mapping-service/pkg/cache"
	"github.com/Siddarth2230/url-mapping-service/pkg/idgen"
	"github.com/Siddarth2230/url-mapping-service/pkg/metrics"
)

var (
	ErrInvalidURL = errors.New("invalid URL")
	ErrNotFound   = errors.New("short URL not found")
	// ErrUnresolvedConflict means every insert hit a unique constraint yet no
	// mapping for the full URL could be read back.
	ErrUnresolvedConflict = errors.New("could not resolve conflicting insert")
)

const defaultMaxAttempts = 6

// URLService provides URL shortening and lookup.
type URLService struct {
	store       repository.Store
	generator   idgen.Generator
	caches      []cache.Cache
	log         *zap.Logger
	validate    *validator.Validate
	maxAttempts int
}

type Option func(*URLService)

// WithCaches consults caches in order before the store on Expand.
func WithCaches(caches ...cache.Cache) Option {
	return func(s *URLService) { s.caches = append(s.caches, caches...) }
}

// WithMaxAttempts bounds how many inserts Shorten tries before giving up.
func WithMaxAttempts(n int) Option {
	return func(s *URLService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// NewURLService constructor.
func NewURLService(store repository.Store, gen idgen.Generator, log *zap.Logger, opts ...Option) *URLService {
	s := &URLService{
		store:       store,
		generator:   gen,
		log:         log,
		validate:    validator.New(),
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Shorten returns the short code for fullURL, allocating one on first use.
// Shortening the same URL again returns the same code.
func (s *URLService) Shorten(ctx context.Context, fullURL string) (string, error) {
	if err := s.validateURL(fullURL); err != nil {
		metrics.ShortenTotal.WithLabelValues("invalid").Inc()
		return "", err
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		existing, err := s.store.FindByFullURL(ctx, fullURL)
		if err != nil {
			metrics.ShortenTotal.WithLabelValues("error").Inc()
			return "", fmt.Errorf("find by full url: %w", err)
		}
		if existing != nil {
			metrics.ShortenTotal.WithLabelValues("existing").Inc()
			return existing.ShortURL, nil
		}

		code, err := s.generator.Generate(ctx)
		if err != nil {
			metrics.ShortenTotal.WithLabelValues("error").Inc()
			return "", fmt.Errorf("generate short code: %w", err)
		}

		m := &models.URLMapping{FullURL: fullURL, ShortURL: code}
		if err := s.store.Save(ctx, m); err != nil {
			if errors.Is(err, repository.ErrConstraintViolation) {
				// Another request took the URL or the code; re-resolve.
				metrics.StoreConflicts.Inc()
				s.log.Warn("insert conflict, re-resolving",
					zap.String("short_url", code), zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			metrics.ShortenTotal.WithLabelValues("error").Inc()
			return "", fmt.Errorf("save mapping: %w", err)
		}

		s.remember(ctx, code, fullURL, len(s.caches))
		metrics.ShortenTotal.WithLabelValues("created").Inc()
		s.log.Debug("created mapping", zap.Int64("id", m.ID), zap.String("short_url", code))
		return code, nil
	}

	metrics.ShortenTotal.WithLabelValues("error").Inc()
	return "", ErrUnresolvedConflict
}

// Expand returns the full URL shortURL was issued for.
func (s *URLService) Expand(ctx context.Context, shortURL string) (string, error) {
	if shortURL == "" {
		metrics.ExpandTotal.WithLabelValues("not_found").Inc()
		return "", ErrNotFound
	}

	for i, c := range s.caches {
		fullURL, err := c.Lookup(ctx, shortURL)
		if err == nil {
			metrics.CacheHits.WithLabelValues(c.Layer()).Inc()
			s.remember(ctx, shortURL, fullURL, i)
			metrics.ExpandTotal.WithLabelValues("found").Inc()
			return fullURL, nil
		}
		metrics.CacheMisses.WithLabelValues(c.Layer()).Inc()
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("cache lookup failed", zap.String("layer", c.Layer()), zap.Error(err))
		}
	}

	m, err := s.store.FindByShortURL(ctx, shortURL)
	if err != nil {
		metrics.ExpandTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("find by short url: %w", err)
	}
	if m == nil {
		metrics.ExpandTotal.WithLabelValues("not_found").Inc()
		s.log.Info("short URL not found", zap.String("short_url", shortURL))
		return "", ErrNotFound
	}

	s.remember(ctx, shortURL, m.FullURL, len(s.caches))
	metrics.ExpandTotal.WithLabelValues("found").Inc()
	return m.FullURL, nil
}

// remember writes the mapping into the first n cache layers.
func (s *URLService) remember(ctx context.Context, shortURL, fullURL string, n int) {
	for _, c := range s.caches[:n] {
		if err := c.Store(ctx, shortURL, fullURL); err != nil {
			s.log.Warn("cache store failed", zap.String("layer", c.Layer()), zap.Error(err))
		}
	}
}

// validateURL accepts absolute http and https URLs of 10 to 2048 characters
// whose host is a valid hostname or IP address.
func (s *URLService) validateURL(raw string) error {
	if err := s.validate.Var(raw, "required,min=10,max=2048,url"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	if strings.IndexFunc(raw, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: whitespace in %q", ErrInvalidURL, raw)
	}
	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, parsed.Scheme)
	}
	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("%w: missing host in %q", ErrInvalidURL, raw)
	}
	if err := s.validate.Var(host, "hostname_rfc1123|ip"); err != nil {
		return fmt.Errorf("%w: bad host %q", ErrInvalidURL, host)
	}
	if p := parsed.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("%w: bad port %q", ErrInvalidURL, p)
		}
	}
	return nil
}
