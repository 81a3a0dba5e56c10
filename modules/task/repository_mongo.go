package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/example/task-manager/domain/task"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// taskDocument is the BSON shape of a task. The _id is the store's UUID
// string rather than an ObjectID so ids look the same on every backend.
type taskDocument struct {
	ID          string    `bson:"_id"`
	UserID      string    `bson:"userId"`
	Title       string    `bson:"title"`
	Description *string   `bson:"description"`
	Priority    string    `bson:"priority"`
	DueDate     time.Time `bson:"dueDate"`
	Status      string    `bson:"status"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func toDocument(t *domain.Task) taskDocument {
	return taskDocument{
		ID:          t.ID,
		UserID:      t.OwnerID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (d taskDocument) toDomain() *domain.Task {
	return &domain.Task{
		ID:          d.ID,
		OwnerID:     d.UserID,
		Title:       d.Title,
		Description: d.Description,
		Priority:    domain.Priority(d.Priority),
		DueDate:     d.DueDate.UTC(),
		Status:      domain.Status(d.Status),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

// MongoRepository stores tasks in a MongoDB collection.
type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

var _ domain.Backend = (*MongoRepository)(nil)

// NewMongoRepository connects to uri, verifies the connection and ensures
// the collection indexes exist.
func NewMongoRepository(ctx context.Context, uri, database string) (*MongoRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &MongoRepository{
		client:     client,
		collection: client.Database(database).Collection("tasks"),
	}
	if err := repo.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return repo, nil
}

func (r *MongoRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "dueDate", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Insert saves a new task.
func (r *MongoRepository) Insert(ctx context.Context, t *domain.Task) error {
	if _, err := r.collection.InsertOne(ctx, toDocument(t)); err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// FindOwned retrieves a task by ID and owner.
func (r *MongoRepository) FindOwned(ctx context.Context, id, ownerID string) (*domain.Task, error) {
	var doc taskDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "userId": ownerID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return doc.toDomain(), nil
}

// ListOwned retrieves every task of an owner, newest first.
func (r *MongoRepository) ListOwned(ctx context.Context, ownerID string) ([]*domain.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}

	tasks := make([]*domain.Task, 0, len(docs))
	for _, d := range docs {
		tasks = append(tasks, d.toDomain())
	}
	return tasks, nil
}

// ReplaceOwned writes the mutable fields of a task.
func (r *MongoRepository) ReplaceOwned(ctx context.Context, t *domain.Task) error {
	update := bson.M{"$set": bson.M{
		"title":       t.Title,
		"description": t.Description,
		"priority":    string(t.Priority),
		"dueDate":     t.DueDate,
		"status":      string(t.Status),
		"updatedAt":   t.UpdatedAt,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": t.ID, "userId": t.OwnerID}, update)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteOwned removes a task by ID and owner.
func (r *MongoRepository) DeleteOwned(ctx context.Context, id, ownerID string) (bool, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "userId": ownerID})
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return result.DeletedCount > 0, nil
}

// Ping verifies the server is reachable.
func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
