package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifeast/unifeast-agent/pkg/foodstore"
)

type fakeWriter struct {
	items []foodstore.FoodItem
}

func (f *fakeWriter) Upsert(ctx context.Context, item *foodstore.FoodItem) error {
	f.items = append(f.items, *item)
	return nil
}

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSeedCatalog(t *testing.T) {
	path := writeSeedFile(t, `[
		{"id": "item1", "name": "Margherita Pizza", "cuisine": "italian", "price": 12.5},
		{"id": "item2", "name": "Pad Thai", "cuisine": "thai", "allergens": ["peanuts"]}
	]`)

	writer := &fakeWriter{}
	count, err := seedCatalog(context.Background(), writer, path)
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	require.Len(t, writer.items, 2)
	assert.Equal(t, "Margherita Pizza", writer.items[0].Name)
	assert.Equal(t, []string{"peanuts"}, writer.items[1].Allergens)
}

func TestSeedCatalogMissingID(t *testing.T) {
	path := writeSeedFile(t, `[{"name": "Nameless Special"}]`)

	writer := &fakeWriter{}
	_, err := seedCatalog(context.Background(), writer, path)
	assert.Error(t, err)
	assert.Empty(t, writer.items)
}

func TestSeedCatalogInvalidJSON(t *testing.T) {
	path := writeSeedFile(t, `{"not": "a list"}`)

	_, err := seedCatalog(context.Background(), &fakeWriter{}, path)
	assert.Error(t, err)
}

func TestSeedCatalogMissingFile(t *testing.T) {
	_, err := seedCatalog(context.Background(), &fakeWriter{}, filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
