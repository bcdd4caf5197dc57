// Package mongodb wraps the MongoDB driver behind the small set of operations
// the gateway exposes over HTTP.
package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// Backend is the set of database operations the gateway performs. Filters,
// updates and commands are BSON values produced by the extjson package.
type Backend interface {
	// Ping checks that the server is reachable.
	Ping(ctx context.Context) error

	ListDatabases(ctx context.Context) ([]DatabaseInfo, error)
	ListCollectionNames(ctx context.Context, db string) ([]string, error)
	CollectionStats(ctx context.Context, db, coll string) (CollectionStats, error)

	Find(ctx context.Context, db, coll string, q FindQuery) ([]bson.Raw, error)
	Aggregate(ctx context.Context, db, coll string, pipeline []bson.D) ([]bson.Raw, error)
	Sample(ctx context.Context, db, coll string, size int64) ([]bson.Raw, error)

	Insert(ctx context.Context, db, coll string, docs []any, ordered bool) ([]any, error)
	Update(ctx context.Context, db, coll string, u UpdateSpec) (UpdateResult, error)
	Delete(ctx context.Context, db, coll string, filter bson.D, many bool) (int64, error)

	RunCommand(ctx context.Context, db string, cmd bson.D) (bson.Raw, error)
	EstimatedCount(ctx context.Context, db, coll string) (int64, error)
	ListIndexes(ctx context.Context, db, coll string) ([]bson.Raw, error)
}

// DatabaseInfo describes one database on the server.
type DatabaseInfo struct {
	Name       string `json:"name"`
	SizeOnDisk int64  `json:"sizeOnDisk"`
	Empty      bool   `json:"empty"`
}

// CollectionStats is the subset of collStats the gateway reports.
type CollectionStats struct {
	Count      int64   `mapstructure:"count"`
	Size       int64   `mapstructure:"size"`
	AvgObjSize float64 `mapstructure:"avgObjSize"`
}

// FindQuery carries the parameters of a find operation. Zero Limit and Skip
// mean no limit and no skip.
type FindQuery struct {
	Filter     bson.D
	Projection bson.D
	Sort       bson.D
	Limit      int64
	Skip       int64
}

// UpdateSpec carries the parameters of an update operation. Update is either
// an update document (bson.D) or an update pipeline ([]bson.D).
type UpdateSpec struct {
	Filter bson.D
	Update any
	Many   bool
	Upsert bool
}

// UpdateResult reports the outcome of an update.
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
	UpsertedCount int64
	UpsertedID    any
}
