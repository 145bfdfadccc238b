package pipeline

import (
	"context"

	"github.com/couchcryptid/offshore-downtime/internal/aggregate"
	"github.com/couchcryptid/offshore-downtime/internal/domain"
	"github.com/couchcryptid/offshore-downtime/internal/ingest"
)

// Transform is the stateless middle stage: classify every hourly record
// against the catalog, then roll the verdicts up into the output tables.
type Transform struct {
	catalog       domain.Catalog
	minKnownHours int
}

// NewTransform creates the standard Transformer for a catalog.
func NewTransform(catalog domain.Catalog, minKnownHours int) *Transform {
	return &Transform{
		catalog:       catalog,
		minKnownHours: minKnownHours,
	}
}

func (t *Transform) Transform(_ context.Context, batch ingest.Batch) (*aggregate.Tables, error) {
	hours := domain.ClassifyRecords(batch.Records, t.catalog)
	return aggregate.Build(batch.Records, hours, t.catalog, t.minKnownHours), nil
}
