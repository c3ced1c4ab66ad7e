package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/peerrent/compass/internal/models"
)

// ErrItemNotFound is returned when no item exists for the requested ID.
var ErrItemNotFound = errors.New("item not found")

const itemColumns = `
		item_id, title, description, category, price_per_day,
		latitude, longitude, location, image_urls, created_at, avg_rating`

// ListAll retrieves every listed item, newest first. Nullable columns map
// to absent values rather than errors: an item without coordinates, price
// or rating is still a valid search candidate.
func (r *Repository) ListAll(ctx context.Context) ([]models.Item, error) {
	query := `
		SELECT` + itemColumns + `
		FROM public.items
		WHERE is_listed = true
		ORDER BY created_at DESC;
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query listed items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		item, errScan := scanItem(rows)
		if errScan != nil {
			return nil, fmt.Errorf("failed to scan listed item: %w", errScan)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	r.log.DebugContext(ctx, "Fetched listed items from catalog", "count", len(items))

	return items, nil
}

// GetByID retrieves a single item by its identifier.
func (r *Repository) GetByID(ctx context.Context, id string) (models.Item, error) {
	query := `
		SELECT` + itemColumns + `
		FROM public.items
		WHERE item_id = $1;
	`

	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		return models.Item{}, fmt.Errorf("failed to scan item %s: %w", id, err)
	}

	return item, nil
}

// scanItem maps one catalog row onto the search candidate shape.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (models.Item, error) {
	var (
		item        models.Item
		description *string
		category    *string
		price       *float64
		lat, lon    *float64
		location    *string
		rating      *float64
	)

	err := row.Scan(
		&item.ID, &item.Title, &description, &category, &price,
		&lat, &lon, &location, &item.ImageURLs, &item.CreatedAt, &rating,
	)
	if err != nil {
		return models.Item{}, err
	}

	if description != nil {
		item.Description = *description
	}
	if category != nil {
		item.Category = *category
	}
	if price != nil {
		item.PricePerDay = *price
	}
	if location != nil {
		item.Location = *location
	}
	if lat != nil && lon != nil {
		item.Coordinates = &models.Coordinates{Latitude: *lat, Longitude: *lon}
	}
	item.Rating = rating

	return item, nil
}
