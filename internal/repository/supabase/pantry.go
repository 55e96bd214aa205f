package supabase

import (
	"context"

	"chefmind/internal/domain"

	"github.com/supabase-community/postgrest-go"
)

// PantryRepository reads pantry_items through PostgREST with the caller's
// credential, so row level security decides what is visible.
type PantryRepository struct {
	client  *Client
	anonKey string
}

var _ domain.PantryRepository = (*PantryRepository)(nil)

func NewPantryRepository(client *Client, anonKey string) *PantryRepository {
	return &PantryRepository{client: client, anonKey: anonKey}
}

// ListPantryItems returns the names of the caller's pantry items.
func (r *PantryRepository) ListPantryItems(ctx context.Context, authorization string) ([]string, error) {
	if !r.client.Configured() || r.anonKey == "" {
		return nil, domain.ConfigError("Supabase Configuration Missing")
	}

	// The postgrest client holds its headers, so each caller gets its own.
	rest := postgrest.NewClient(r.client.restURL(), "", map[string]string{
		"apikey":        r.anonKey,
		"Authorization": authorization,
	})
	if rest.ClientError != nil {
		return nil, domain.ConfigError("Supabase Configuration Missing")
	}

	var rows []struct {
		Name string `json:"name"`
	}
	if _, err := rest.From("pantry_items").Select("name", "", false).ExecuteToWithContext(ctx, &rows); err != nil {
		return nil, domain.UpstreamError("Failed to fetch pantry: "+err.Error(), err)
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}
	return names, nil
}
