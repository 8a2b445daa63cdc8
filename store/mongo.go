package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matheusM9/distribuidores-render/models"
)

// Mongo is a RowAPI backed by a collection of position-keyed row documents.
// Like the Postgres backend, the header row is synthesized from the fixed
// column set.
type Mongo struct {
	coll *mongo.Collection
}

type rowDoc struct {
	Position int      `bson:"position"`
	Values   []string `bson:"values"`
}

// NewMongo wraps the "distributor_rows" collection of db.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{coll: db.Collection("distributor_rows")}
}

// EnsureIndexes creates the unique position index.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "position", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("position_idx"),
	})
	if err != nil {
		return fmt.Errorf("creating position index: %w", err)
	}
	return nil
}

func (m *Mongo) LoadAllRows(ctx context.Context) ([][]string, error) {
	cur, err := m.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("querying rows: %w", err)
	}
	defer cur.Close(ctx)

	var docs []rowDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding rows: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	all := [][]string{append([]string(nil), models.Columns...)}
	for _, d := range docs {
		all = append(all, padRow(d.Values))
	}
	return all, nil
}

func (m *Mongo) AppendRow(ctx context.Context, values []string) error {
	next := 2
	var last rowDoc
	err := m.coll.FindOne(ctx, bson.D{},
		options.FindOne().SetSort(bson.D{{Key: "position", Value: -1}})).Decode(&last)
	switch {
	case err == nil:
		next = last.Position + 1
	case err != mongo.ErrNoDocuments:
		return fmt.Errorf("finding last row: %w", err)
	}

	if _, err := m.coll.InsertOne(ctx, rowDoc{Position: next, Values: padRow(values)}); err != nil {
		return fmt.Errorf("appending row: %w", err)
	}
	return nil
}

func (m *Mongo) UpdateRow(ctx context.Context, index int, values []string) error {
	if index == 1 {
		return nil
	}
	res, err := m.coll.UpdateOne(ctx,
		bson.D{{Key: "position", Value: index}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "values", Value: padRow(values)}}}})
	if err != nil {
		return fmt.Errorf("updating row %d: %w", index, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("row index %d out of range", index)
	}
	return nil
}

func (m *Mongo) ReplaceAll(ctx context.Context, _ []string, rows [][]string) error {
	if _, err := m.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clearing rows: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}
	docs := make([]interface{}, len(rows))
	for i, row := range rows {
		docs[i] = rowDoc{Position: i + 2, Values: padRow(row)}
	}
	if _, err := m.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("inserting rows: %w", err)
	}
	return nil
}

func (m *Mongo) Clear(ctx context.Context) error {
	if _, err := m.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clearing rows: %w", err)
	}
	return nil
}
