package mongodb

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/mapstructure"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Gateway implements Backend on top of a lazily created driver client.
type Gateway struct {
	connector *Connector
	log       hclog.Logger
}

var _ Backend = (*Gateway)(nil)

// NewGateway returns a Backend that delegates to the driver.
func NewGateway(connector *Connector, log hclog.Logger) *Gateway {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Gateway{
		connector: connector,
		log:       log,
	}
}

func (g *Gateway) collection(ctx context.Context, db, coll string) (*mongo.Collection, error) {
	client, err := g.connector.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(db).Collection(coll), nil
}

// Ping checks that the primary is reachable.
func (g *Gateway) Ping(ctx context.Context) error {
	client, err := g.connector.Client(ctx)
	if err != nil {
		return err
	}
	return client.Ping(ctx, readpref.Primary())
}

// ListDatabases enumerates the databases on the server.
func (g *Gateway) ListDatabases(ctx context.Context) ([]DatabaseInfo, error) {
	client, err := g.connector.Client(ctx)
	if err != nil {
		return nil, err
	}

	res, err := client.ListDatabases(ctx, bson.D{})
	if err != nil {
		return nil, err
	}

	dbs := make([]DatabaseInfo, 0, len(res.Databases))
	for _, spec := range res.Databases {
		dbs = append(dbs, DatabaseInfo{
			Name:       spec.Name,
			SizeOnDisk: spec.SizeOnDisk,
			Empty:      spec.Empty,
		})
	}

	return dbs, nil
}

// ListCollectionNames enumerates the collections of a database.
func (g *Gateway) ListCollectionNames(ctx context.Context, db string) ([]string, error) {
	client, err := g.connector.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(db).ListCollectionNames(ctx, bson.D{})
}

// CollectionStats runs collStats for a collection.
func (g *Gateway) CollectionStats(ctx context.Context, db, coll string) (CollectionStats, error) {
	client, err := g.connector.Client(ctx)
	if err != nil {
		return CollectionStats{}, err
	}

	var raw bson.M
	err = client.Database(db).
		RunCommand(ctx, bson.D{{Key: "collStats", Value: coll}}).
		Decode(&raw)
	if err != nil {
		return CollectionStats{}, err
	}

	return decodeCollectionStats(raw)
}

// decodeCollectionStats maps a collStats reply onto CollectionStats. The
// server reports numbers as int32, int64 or double depending on magnitude
// and version.
func decodeCollectionStats(raw map[string]any) (CollectionStats, error) {
	var stats CollectionStats

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &stats,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return CollectionStats{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return CollectionStats{}, fmt.Errorf("error decoding collStats: %w", err)
	}

	return stats, nil
}

// Find runs a filtered, sorted and paged read.
func (g *Gateway) Find(ctx context.Context, db, coll string, q FindQuery) ([]bson.Raw, error) {
	c, err := g.collection(ctx, db, coll)
	if err != nil {
		return nil, err
	}

	opts := options.Find()
	if len(q.Projection) > 0 {
		opts.SetProjection(q.Projection)
	}
	if len(q.Sort) > 0 {
		opts.SetSort(q.Sort)
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	filter := q.Filter
	if filter == nil {
		filter = bson.D{}
	}

	cur, err := c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	return readAll(ctx, cur)
}

// Aggregate runs an aggregation pipeline.
func (g *Gateway) Aggregate(ctx context.Context, db, coll string, pipeline []bson.D) ([]bson.Raw, error) {
	c, err := g.collection(ctx, db, coll)
	if err != nil {
		return nil, err
	}

	if pipeline == nil {
		pipeline = []bson.D{}
	}
	cur, err := c.Aggregate(ctx, mongo.Pipeline(pipeline))
	if err != nil {
		return nil, err
	}

	return readAll(ctx, cur)
}

// Sample returns up to size random documents using $sample.
func (g *Gateway) Sample(ctx context.Context, db, coll string, size int64) ([]bson.Raw, error) {
	return g.Aggregate(ctx, db, coll, []bson.D{
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: size}}}},
	})
}

// Insert inserts documents and returns their ids in input order.
func (g *Gateway) Insert(ctx context.Context, db, coll string, docs []any, ordered bool) ([]any, error) {
	c, err := g.collection(ctx, db, coll)
	if err != nil {
		return nil, err
	}

	res, err := c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(ordered))
	if err != nil {
		return nil, err
	}

	return res.InsertedIDs, nil
}

// Update updates one or many documents, optionally upserting.
func (g *Gateway) Update(ctx context.Context, db, coll string, u UpdateSpec) (UpdateResult, error) {
	c, err := g.collection(ctx, db, coll)
	if err != nil {
		return UpdateResult{}, err
	}

	filter := u.Filter
	if filter == nil {
		filter = bson.D{}
	}
	opts := options.Update().SetUpsert(u.Upsert)

	var res *mongo.UpdateResult
	if u.Many {
		res, err = c.UpdateMany(ctx, filter, u.Update, opts)
	} else {
		res, err = c.UpdateOne(ctx, filter, u.Update, opts)
	}
	if err != nil {
		return UpdateResult{}, err
	}

	return UpdateResult{
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
		UpsertedID:    res.UpsertedID,
	}, nil
}

// Delete deletes one or many documents and returns the number deleted.
func (g *Gateway) Delete(ctx context.Context, db, coll string, filter bson.D, many bool) (int64, error) {
	c, err := g.collection(ctx, db, coll)
	if err != nil {
		return 0, err
	}

	if filter == nil {
		filter = bson.D{}
	}

	var res *mongo.DeleteResult
	if many {
		res, err = c.DeleteMany(ctx, filter)
	} else {
		res, err = c.DeleteOne(ctx, filter)
	}
	if err != nil {
		return 0, err
	}

	return res.DeletedCount, nil
}

// RunCommand runs an arbitrary database command and returns the raw reply.
func (g *Gateway) RunCommand(ctx context.Context, db string, cmd bson.D) (bson.Raw, error) {
	client, err := g.connector.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(db).RunCommand(ctx, cmd).Raw()
}

// EstimatedCount returns the collection-metadata based document count.
func (g *Gateway) EstimatedCount(ctx context.Context, db, coll string) (int64, error) {
	c, err := g.collection(ctx, db, coll)
	if err != nil {
		return 0, err
	}
	return c.EstimatedDocumentCount(ctx)
}

// ListIndexes returns the index specifications of a collection.
func (g *Gateway) ListIndexes(ctx context.Context, db, coll string) ([]bson.Raw, error) {
	c, err := g.collection(ctx, db, coll)
	if err != nil {
		return nil, err
	}

	cur, err := c.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}

	return readAll(ctx, cur)
}

// readAll drains a cursor. Documents are copied because the cursor reuses
// its buffer between batches.
func readAll(ctx context.Context, cur *mongo.Cursor) ([]bson.Raw, error) {
	defer cur.Close(ctx)

	docs := []bson.Raw{}
	for cur.Next(ctx) {
		doc := make(bson.Raw, len(cur.Current))
		copy(doc, cur.Current)
		docs = append(docs, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}
