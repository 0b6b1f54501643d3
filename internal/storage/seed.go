package storage

import (
	"context"

	"haulcheck/internal/domain"
)

// SeedDemoEntities loads a couple of transporters for local development.
func SeedDemoEntities(store *InMemoryEntityStore) {
	ctx := context.Background()
	_ = store.Save(ctx, domain.Entity{
		ID:    "trk-1001",
		Name:  "Demo Transporter",
		Phone: "+910000000001",
		IdentifyingFields: map[string]string{
			"licence_number": "MH12 20110012345",
			"id_number":      "2345 6789 0123",
			"policy_number":  "POL/2024/881234",
		},
	})
	_ = store.Save(ctx, domain.Entity{
		ID:    "trk-1002",
		Name:  "Second Transporter",
		Phone: "+910000000002",
		IdentifyingFields: map[string]string{
			"licence_number": "KA05 20150054321",
			"id_number":      "9876 5432 1098",
			"policy_number":  "POL/2023/442199",
		},
	})
}
