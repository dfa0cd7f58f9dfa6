package foodstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// FoodItem is one menu item in the relational catalog
type FoodItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Restaurant  string   `json:"restaurant,omitempty"`
	Cuisine     string   `json:"cuisine,omitempty"`
	Category    string   `json:"category,omitempty"`
	Price       float64  `json:"price,omitempty"`
	DietaryTags []string `json:"dietary_tags,omitempty"`
	Allergens   []string `json:"allergens,omitempty"`
}

// schema creates the two catalog tables. Array-typed columns hold the
// dietary tags, allergens and allergies without a join table.
const schema = `
CREATE TABLE IF NOT EXISTS user_profiles (
    user_id            TEXT PRIMARY KEY,
    name               TEXT,
    dietary_preference TEXT,
    allergies          TEXT[] NOT NULL DEFAULT '{}',
    price_sensitivity  TEXT,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS food_items (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    description  TEXT,
    restaurant   TEXT,
    cuisine      TEXT,
    category     TEXT,
    price        NUMERIC(8,2),
    dietary_tags TEXT[] NOT NULL DEFAULT '{}',
    allergens    TEXT[] NOT NULL DEFAULT '{}',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS food_items_cuisine_idx ON food_items (cuisine);
CREATE INDEX IF NOT EXISTS food_items_category_idx ON food_items (category);
CREATE INDEX IF NOT EXISTS food_items_restaurant_idx ON food_items (restaurant);
`

// Store exposes the relational food catalog
type Store struct {
	db *sql.DB
}

// Open connects to Postgres using the given DSN
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing database handle
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the catalog tables if they do not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Ping reports whether the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert inserts or replaces a food item by ID
func (s *Store) Upsert(ctx context.Context, item *FoodItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO food_items (id, name, description, restaurant, cuisine, category, price, dietary_tags, allergens)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			restaurant = EXCLUDED.restaurant,
			cuisine = EXCLUDED.cuisine,
			category = EXCLUDED.category,
			price = EXCLUDED.price,
			dietary_tags = EXCLUDED.dietary_tags,
			allergens = EXCLUDED.allergens`,
		item.ID, item.Name, item.Description, item.Restaurant, item.Cuisine,
		item.Category, item.Price, pq.Array(item.DietaryTags), pq.Array(item.Allergens))
	if err != nil {
		return fmt.Errorf("failed to upsert food item: %w", err)
	}
	return nil
}

// GetByID returns the food item with the given ID, or nil when absent
func (s *Store) GetByID(ctx context.Context, id string) (*FoodItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(description, ''), COALESCE(restaurant, ''),
		       COALESCE(cuisine, ''), COALESCE(category, ''), COALESCE(price, 0),
		       dietary_tags, allergens
		FROM food_items WHERE id = $1`, id)

	item, err := scanFoodItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get food item: %w", err)
	}
	return item, nil
}

// SearchByName returns catalog items whose name matches the pattern,
// case insensitively
func (s *Store) SearchByName(ctx context.Context, name string, limit int) ([]FoodItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(description, ''), COALESCE(restaurant, ''),
		       COALESCE(cuisine, ''), COALESCE(category, ''), COALESCE(price, 0),
		       dietary_tags, allergens
		FROM food_items WHERE name ILIKE '%' || $1 || '%'
		ORDER BY name LIMIT $2`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search food items: %w", err)
	}
	defer rows.Close()

	var items []FoodItem
	for rows.Next() {
		item, err := scanFoodItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ListCuisines returns the distinct cuisines in the catalog
func (s *Store) ListCuisines(ctx context.Context) ([]string, error) {
	return s.listDistinct(ctx, "cuisine")
}

// ListCategories returns the distinct food categories in the catalog
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	return s.listDistinct(ctx, "category")
}

// ListRestaurants returns the distinct restaurants in the catalog
func (s *Store) ListRestaurants(ctx context.Context) ([]string, error) {
	return s.listDistinct(ctx, "restaurant")
}

func (s *Store) listDistinct(ctx context.Context, column string) ([]string, error) {
	query := fmt.Sprintf(
		"SELECT DISTINCT %s FROM food_items WHERE %s IS NOT NULL AND %s <> '' ORDER BY %s",
		column, column, column, column)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s values: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan %s value: %w", column, err)
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFoodItem(row rowScanner) (*FoodItem, error) {
	var item FoodItem
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Restaurant,
		&item.Cuisine, &item.Category, &item.Price,
		pq.Array(&item.DietaryTags), pq.Array(&item.Allergens))
	if err != nil {
		return nil, err
	}
	return &item, nil
}
