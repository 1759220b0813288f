package repository

import (
	"context"
	"errors"

	"github.com/Siddarth2230/url-mapping-service/internal/models"
)

// ErrConstraintViolation is returned by Save when the full URL or the short
// code already belongs to another mapping.
var ErrConstraintViolation = errors.New("unique constraint violation")

// Store persists URL mappings. Find methods return (nil, nil) when nothing
// matches.
type Store interface {
	FindByFullURL(ctx context.Context, fullURL string) (*models.URLMapping, error)
	FindByShortURL(ctx context.Context, shortURL string) (*models.URLMapping, error)
	ExistsByShortURL(ctx context.Context, shortURL string) (bool, error)
	// Save inserts m and assigns m.ID.
	Save(ctx context.Context, m *models.URLMapping) error
}
