package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"

	"github.com/Siddarth2230/url-mapping-service/internal/models"
	"github.com/Siddarth2230/url-mapping-service/internal/repository"
	"github.com/Siddarth2230/url-mapping-service/pkg/cache"
	"github.com/Siddarth2230/url-mapping-service/pkg/idgen"
	"github.com/Siddarth2230/url-mapping-service/pkg/metrics"
)

func newService(t *testing.T, store repository.Store, opts ...Option) *URLService {
	t.Helper()
	gen := idgen.NewCodeGenerator(idgen.NewAtomicCounter(0, 1000), store, 0)
	return NewURLService(store, gen, zaptest.NewLogger(t), opts...)
}

func TestShorten_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, repository.NewMemoryStore())

	code, err := svc.Shorten(ctx, "https://www.example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, code)
	assert.LessOrEqual(t, len(code), idgen.MaxCodeLen)

	full, err := svc.Expand(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "https://www.example.com", full)
}

func TestShorten_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := newService(t, store)

	first, err := svc.Shorten(ctx, "https://example.com/page")
	require.NoError(t, err)
	second, err := svc.Shorten(ctx, "https://example.com/page")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.Len())
}

func TestShorten_DistinctURLsGetDistinctCodes(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, repository.NewMemoryStore())

	codes := make(map[string]string)
	for _, u := range []string{
		"https://example.com/a",
		"https://example.com/b",
		"http://example.org/path?q=1",
		"https://sub.example.net:8443/x#frag",
	} {
		code, err := svc.Shorten(ctx, u)
		require.NoError(t, err)
		prev, dup := codes[code]
		require.False(t, dup, "%s and %s share code %s", prev, u, code)
		codes[code] = u
	}

	for code, u := range codes {
		full, err := svc.Expand(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, u, full)
	}
}

func TestShorten_InvalidURL(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newService(t, store)

	for _, in := range []string{
		"",
		"not-a-url",
		"htp:/bad",
		"invalid-url",
		"ftp://example.com/file",
		"mailto:someone@example.com",
		"https://",
		"http:///only/path",
		"https://example.com/" + strings.Repeat("a", 2048),
		"https://.........",
		"https://-.-/abcdef",
		"https://exa mple.com",
		"https://example.com/a b",
		"https://example.com/a\tb",
		"https://example.com:99999/x",
		"https://example.com:0/x",
		"https://example.com/%zz",
	} {
		_, err := svc.Shorten(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidURL, "Shorten(%q)", in)
	}
	assert.Equal(t, 0, store.Len())
}

func TestShorten_AcceptsHostForms(t *testing.T) {
	svc := newService(t, repository.NewMemoryStore())

	for _, in := range []string{
		"http://localhost:8080/x",
		"http://127.0.0.1/path",
		"http://[::1]:8443/path",
		"https://example.com:65535/x",
		"https://a-b.example.co.uk/?q=a%20b",
	} {
		_, err := svc.Shorten(context.Background(), in)
		assert.NoError(t, err, "Shorten(%q)", in)
	}
}

func TestExpand_NotFound(t *testing.T) {
	svc := newService(t, repository.NewMemoryStore())

	_, err := svc.Expand(context.Background(), "doesnotexist")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Expand(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

// racingStore lets a competing request win every insert for the same URL.
type racingStore struct {
	*repository.MemoryStore
	winner string
	once   sync.Once
}

func (r *racingStore) Save(ctx context.Context, m *models.URLMapping) error {
	r.once.Do(func() {
		_ = r.MemoryStore.Save(ctx, &models.URLMapping{FullURL: m.FullURL, ShortURL: r.winner})
	})
	return r.MemoryStore.Save(ctx, m)
}

func TestShorten_ResolvesInsertRace(t *testing.T) {
	ctx := context.Background()
	store := &racingStore{MemoryStore: repository.NewMemoryStore(), winner: "winner"}
	svc := newService(t, store)
	before := testutil.ToFloat64(metrics.StoreConflicts)

	code, err := svc.Shorten(ctx, "https://www.example.com")
	require.NoError(t, err)
	assert.Equal(t, "winner", code)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.StoreConflicts))
}

// conflictStore rejects every insert without ever exposing a mapping.
type conflictStore struct {
	*repository.MemoryStore
	saves int
}

func (c *conflictStore) Save(context.Context, *models.URLMapping) error {
	c.saves++
	return repository.ErrConstraintViolation
}

func TestShorten_UnresolvedConflict(t *testing.T) {
	store := &conflictStore{MemoryStore: repository.NewMemoryStore()}
	svc := newService(t, store, WithMaxAttempts(3))

	_, err := svc.Shorten(context.Background(), "https://www.example.com")
	assert.ErrorIs(t, err, ErrUnresolvedConflict)
	assert.Equal(t, 3, store.saves)
}

type failingStore struct {
	*repository.MemoryStore
}

func (failingStore) FindByFullURL(context.Context, string) (*models.URLMapping, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) FindByShortURL(context.Context, string) (*models.URLMapping, error) {
	return nil, errors.New("connection refused")
}

func TestStoreErrorsPropagate(t *testing.T) {
	svc := newService(t, failingStore{repository.NewMemoryStore()})

	_, err := svc.Shorten(context.Background(), "https://www.example.com")
	assert.EqualError(t, err, "find by full url: connection refused")

	_, err = svc.Expand(context.Background(), "abc")
	assert.EqualError(t, err, "find by short url: connection refused")
}

func TestShorten_ConcurrentSameURL(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := newService(t, store)

	const callers = 32
	codes := make([]string, callers)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		i := i
		g.Go(func() error {
			code, err := svc.Shorten(ctx, "https://www.example.com/hot")
			codes[i] = code
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, c := range codes {
		assert.Equal(t, codes[0], c)
	}
	assert.Equal(t, 1, store.Len())
}

func TestShorten_ConcurrentDistinctURLs(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := newService(t, store)

	const callers = 64
	codes := make([]string, callers)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		i := i
		g.Go(func() error {
			code, err := svc.Shorten(ctx, "https://www.example.com/page/"+idgen.Encode(uint64(i)))
			codes[i] = code
			return err
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[string]bool, callers)
	for _, c := range codes {
		assert.False(t, seen[c], "duplicate code %s", c)
		seen[c] = true
	}
	assert.Equal(t, callers, store.Len())
}

// countingStore records how often the store is asked for a short code.
type countingStore struct {
	*repository.MemoryStore
	mu      sync.Mutex
	lookups int
}

func (c *countingStore) FindByShortURL(ctx context.Context, code string) (*models.URLMapping, error) {
	c.mu.Lock()
	c.lookups++
	c.mu.Unlock()
	return c.MemoryStore.FindByShortURL(ctx, code)
}

func TestExpand_UsesCaches(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{MemoryStore: repository.NewMemoryStore()}
	l1 := cache.NewLRUCache(10)
	svc := newService(t, store, WithCaches(l1))

	code, err := svc.Shorten(ctx, "https://www.example.com")
	require.NoError(t, err)

	cached, ok := l1.Peek(code)
	require.True(t, ok, "shorten should warm the cache")
	assert.Equal(t, "https://www.example.com", cached)

	for i := 0; i < 3; i++ {
		full, err := svc.Expand(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, "https://www.example.com", full)
	}
	assert.Equal(t, 0, store.lookups)
}

func TestExpand_BackfillsEarlierLayers(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{MemoryStore: repository.NewMemoryStore()}
	l1, l2 := cache.NewLRUCache(10), cache.NewLRUCache(10)
	require.NoError(t, l2.Store(ctx, "abc123", "https://www.example.com"))
	svc := newService(t, store, WithCaches(l1, l2))

	full, err := svc.Expand(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://www.example.com", full)

	v, ok := l1.Peek("abc123")
	assert.True(t, ok)
	assert.Equal(t, "https://www.example.com", v)
	assert.Equal(t, 0, store.lookups)
}

type brokenCache struct{}

func (brokenCache) Lookup(context.Context, string) (string, error) {
	return "", errors.New("cache unavailable")
}
func (brokenCache) Store(context.Context, string, string) error {
	return errors.New("cache unavailable")
}
func (brokenCache) Layer() string { return "broken" }

func TestExpand_CacheFailureFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{MemoryStore: repository.NewMemoryStore()}
	svc := newService(t, store, WithCaches(brokenCache{}))

	code, err := svc.Shorten(ctx, "https://www.example.com")
	require.NoError(t, err)

	full, err := svc.Expand(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "https://www.example.com", full)
	assert.Equal(t, 1, store.lookups)
}
