package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/markolybrx/Celi-AI/internal/ai"
	"github.com/markolybrx/Celi-AI/internal/models"
)

// vectorIndexName is the Atlas Search index over history.embedding.
const vectorIndexName = "vector_index"

// ErrEntryNotFound is returned when a (user_id, timestamp) pair does
// not exist.
var ErrEntryNotFound = errors.New("entry not found")

// History wraps the "history" collection. Entries are append-only; the
// only mutation is the enrichment patch applied by the worker.
type History struct {
	col *mongo.Collection
}

func NewHistory(db *mongo.Database) *History {
	return &History{col: db.Collection("history")}
}

// EnsureIndexes creates the per-user ordering index. The vector index
// is managed in Atlas, not here.
func (s *History) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_valid_star", Value: 1}},
		},
	})
	return err
}

// appendRetries bounds the same-millisecond collision walk in Append.
const appendRetries = 8

// Append persists one entry. Timestamp is the identity key; when two
// turns from the same user land in the same millisecond, the unique
// index rejects the second insert and the key is bumped forward until
// it is free. The caller must read the final key back off the entry.
func (s *History) Append(ctx context.Context, entry *models.JournalEntry) error {
	var err error
	for i := 0; i < appendRetries; i++ {
		_, err = s.col.InsertOne(ctx, entry)
		if !mongo.IsDuplicateKeyError(err) {
			return err
		}
		entry.Timestamp++
	}
	return err
}

// List returns entries newest-first with the usual limit/skip paging.
func (s *History) List(ctx context.Context, userID string, limit, skip int) ([]models.JournalEntry, int64, error) {
	filter := bson.M{"user_id": userID}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find()
	findOptions.SetSort(bson.M{"timestamp": -1})
	findOptions.SetLimit(int64(limit))
	findOptions.SetSkip(int64(skip))

	cursor, err := s.col.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var entries []models.JournalEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// Get fetches a single entry by its identity key.
func (s *History) Get(ctx context.Context, userID string, timestamp int64) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	err := s.col.FindOne(ctx, bson.M{"user_id": userID, "timestamp": timestamp}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// CountValidStars counts the entries that contributed to streak and
// constellation progress.
func (s *History) CountValidStars(ctx context.Context, userID string) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{"user_id": userID, "is_valid_star": true})
}

// LastValidMessages returns the messages of the most recent n valid
// stars, oldest first, for constellation naming context.
func (s *History) LastValidMessages(ctx context.Context, userID string, n int) ([]models.JournalEntry, error) {
	findOptions := options.Find()
	findOptions.SetSort(bson.M{"timestamp": -1})
	findOptions.SetLimit(int64(n))

	cursor, err := s.col.Find(ctx, bson.M{"user_id": userID, "is_valid_star": true}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.JournalEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	// Reverse into chronological order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Recent returns the latest n entries newest-first (weekly insight
// context).
func (s *History) Recent(ctx context.Context, userID string, n int) ([]models.JournalEntry, error) {
	findOptions := options.Find()
	findOptions.SetSort(bson.M{"timestamp": -1})
	findOptions.SetLimit(int64(n))

	cursor, err := s.col.Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.JournalEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EnrichmentPatch carries the deferred fields for one entry. Nil/empty
// fields are left untouched, so re-delivery of the same task is a safe
// overwrite of the same values.
type EnrichmentPatch struct {
	Embedding  []float32
	AIAnalysis string
	Summary    string
}

// PatchEnrichment applies a field-level $set for the computed
// enrichment fields. All original fields are untouched.
func (s *History) PatchEnrichment(ctx context.Context, userID string, timestamp int64, patch EnrichmentPatch) error {
	set := bson.M{}
	if len(patch.Embedding) > 0 {
		set["embedding"] = patch.Embedding
	}
	if patch.AIAnalysis != "" {
		set["ai_analysis"] = patch.AIAnalysis
	}
	if patch.Summary != "" {
		set["summary"] = patch.Summary
	}
	if len(set) == 0 {
		return nil
	}

	res, err := s.col.UpdateOne(ctx,
		bson.M{"user_id": userID, "timestamp": timestamp},
		bson.M{"$set": set},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// SetConstellationName stamps the generated name onto the closing entry
// of a completed constellation.
func (s *History) SetConstellationName(ctx context.Context, userID string, timestamp int64, name string) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"user_id": userID, "timestamp": timestamp},
		bson.M{"$set": bson.M{"constellation_name": name}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// VectorSearch runs the Atlas $vectorSearch pipeline scoped to one
// user, projecting message/date plus the similarity score.
func (s *History) VectorSearch(ctx context.Context, userID string, vector []float32, numCandidates, limit int) ([]ai.Memory, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: vectorIndexName},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: numCandidates},
			{Key: "limit", Value: limit},
			{Key: "filter", Value: bson.D{{Key: "user_id", Value: userID}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "full_message", Value: 1},
			{Key: "date", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		FullMessage string  `bson:"full_message"`
		Date        string  `bson:"date"`
		Score       float64 `bson:"score"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	memories := make([]ai.Memory, 0, len(rows))
	for _, row := range rows {
		memories = append(memories, ai.Memory{
			Date:    row.Date,
			Message: row.FullMessage,
			Score:   row.Score,
		})
	}
	return memories, nil
}

// DeleteAll wipes a user's history on explicit account clear.
func (s *History) DeleteAll(ctx context.Context, userID string) error {
	_, err := s.col.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}
