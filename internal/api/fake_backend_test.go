package api

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/hashicorp-forge/mongobridge/pkg/audit"
	"github.com/hashicorp-forge/mongobridge/pkg/mongodb"
)

// fakeBackend records the arguments of each call and returns canned results.
// Unset funcs return zero values.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	listDatabases   func() ([]mongodb.DatabaseInfo, error)
	listCollections func(db string) ([]string, error)
	collectionStats func(db, coll string) (mongodb.CollectionStats, error)
	find            func(db, coll string, q mongodb.FindQuery) ([]bson.Raw, error)
	aggregate       func(db, coll string, pipeline []bson.D) ([]bson.Raw, error)
	sample          func(db, coll string, size int64) ([]bson.Raw, error)
	insert          func(db, coll string, docs []any, ordered bool) ([]any, error)
	update          func(db, coll string, u mongodb.UpdateSpec) (mongodb.UpdateResult, error)
	delete          func(db, coll string, filter bson.D, many bool) (int64, error)
	runCommand      func(db string, cmd bson.D) (bson.Raw, error)
	estimatedCount  func(db, coll string) (int64, error)
	listIndexes     func(db, coll string) ([]bson.Raw, error)
}

var _ mongodb.Backend = (*fakeBackend)(nil)

func (f *fakeBackend) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) Ping(context.Context) error {
	f.record("Ping")
	return nil
}

func (f *fakeBackend) ListDatabases(context.Context) ([]mongodb.DatabaseInfo, error) {
	f.record("ListDatabases")
	if f.listDatabases == nil {
		return nil, nil
	}
	return f.listDatabases()
}

func (f *fakeBackend) ListCollectionNames(_ context.Context, db string) ([]string, error) {
	f.record("ListCollectionNames")
	if f.listCollections == nil {
		return nil, nil
	}
	return f.listCollections(db)
}

func (f *fakeBackend) CollectionStats(_ context.Context, db, coll string) (mongodb.CollectionStats, error) {
	f.record("CollectionStats")
	if f.collectionStats == nil {
		return mongodb.CollectionStats{}, nil
	}
	return f.collectionStats(db, coll)
}

func (f *fakeBackend) Find(_ context.Context, db, coll string, q mongodb.FindQuery) ([]bson.Raw, error) {
	f.record("Find")
	if f.find == nil {
		return nil, nil
	}
	return f.find(db, coll, q)
}

func (f *fakeBackend) Aggregate(_ context.Context, db, coll string, pipeline []bson.D) ([]bson.Raw, error) {
	f.record("Aggregate")
	if f.aggregate == nil {
		return nil, nil
	}
	return f.aggregate(db, coll, pipeline)
}

func (f *fakeBackend) Sample(_ context.Context, db, coll string, size int64) ([]bson.Raw, error) {
	f.record("Sample")
	if f.sample == nil {
		return nil, nil
	}
	return f.sample(db, coll, size)
}

func (f *fakeBackend) Insert(_ context.Context, db, coll string, docs []any, ordered bool) ([]any, error) {
	f.record("Insert")
	if f.insert == nil {
		return nil, nil
	}
	return f.insert(db, coll, docs, ordered)
}

func (f *fakeBackend) Update(_ context.Context, db, coll string, u mongodb.UpdateSpec) (mongodb.UpdateResult, error) {
	f.record("Update")
	if f.update == nil {
		return mongodb.UpdateResult{}, nil
	}
	return f.update(db, coll, u)
}

func (f *fakeBackend) Delete(_ context.Context, db, coll string, filter bson.D, many bool) (int64, error) {
	f.record("Delete")
	if f.delete == nil {
		return 0, nil
	}
	return f.delete(db, coll, filter, many)
}

func (f *fakeBackend) RunCommand(_ context.Context, db string, cmd bson.D) (bson.Raw, error) {
	f.record("RunCommand")
	if f.runCommand == nil {
		return bsonDoc(bson.D{{Key: "ok", Value: 1.0}}), nil
	}
	return f.runCommand(db, cmd)
}

func (f *fakeBackend) EstimatedCount(_ context.Context, db, coll string) (int64, error) {
	f.record("EstimatedCount")
	if f.estimatedCount == nil {
		return 0, nil
	}
	return f.estimatedCount(db, coll)
}

func (f *fakeBackend) ListIndexes(_ context.Context, db, coll string) ([]bson.Raw, error) {
	f.record("ListIndexes")
	if f.listIndexes == nil {
		return nil, nil
	}
	return f.listIndexes(db, coll)
}

// bsonDoc marshals d, panicking on error.
func bsonDoc(d bson.D) bson.Raw {
	b, err := bson.Marshal(d)
	if err != nil {
		panic(err)
	}
	return b
}

// memorySink collects audit events.
type memorySink struct {
	mu     sync.Mutex
	events []*audit.Event
}

func (s *memorySink) Record(_ context.Context, e *audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *memorySink) Close() error { return nil }

func (s *memorySink) Events() []*audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*audit.Event(nil), s.events...)
}
