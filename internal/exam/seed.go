package exam

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// LoadSeed reads a JSON array of organizations (the bootstrap
// configuration an operator ships alongside the binary).
func LoadSeed(path string) ([]Organization, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var orgs []Organization
	if err := json.Unmarshal(b, &orgs); err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return orgs, nil
}

// SeedIfEmpty loads the seed file into the store when no organizations
// exist yet. Re-running against a populated store is a no-op.
func SeedIfEmpty(ctx context.Context, store Store, path string) error {
	if path == "" {
		return nil
	}
	existing, err := store.ListOrganizations(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	orgs, err := LoadSeed(path)
	if err != nil {
		return err
	}
	for _, o := range orgs {
		if err := store.PutOrganization(ctx, o); err != nil {
			return err
		}
	}
	return nil
}
