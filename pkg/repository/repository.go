package repository

import (
	"context"

	"github.com/mochisura/marketer/pkg/model"
)

// Archive is an append-only store of curation records deduplicated by the
// summary prefix
type Archive interface {
	// Load returns the archived records in insertion order
	Load(ctx context.Context) ([]*model.Record, error)

	// AppendIfNew stamps and appends the record unless a record with the same
	// dedup key already exists. It returns false for duplicates.
	AppendIfNew(ctx context.Context, record *model.Record) (bool, error)

	// ListAll returns every archived record for presentation
	ListAll(ctx context.Context) ([]*model.Record, error)
}

// AnalysisCache keeps generated promotion patterns keyed by article file name
type AnalysisCache interface {
	// Load returns all cached patterns
	Load(ctx context.Context) (map[string][]string, error)

	// Put sets the patterns of an article, replacing previous ones
	Put(ctx context.Context, name string, patterns []string) error
}
