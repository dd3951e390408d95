package mongodb

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"tasksmith/internal/core/domain"
	"tasksmith/internal/core/ports"
)

const (
	idKey          = "_id"
	defaultTimeout = 5 * time.Second
)

type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// TaskStore keeps tasks as flat documents in one collection, keyed by _id.
type TaskStore struct {
	cfg Config

	mu         sync.RWMutex
	client     *mongo.Client
	collection *mongo.Collection
}

var _ ports.TaskStore = (*TaskStore)(nil)

func NewTaskStore(cfg Config) *TaskStore {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &TaskStore{cfg: cfg}
}

// NewTaskStoreWithCollection wraps an already opened collection. Close leaves
// the owning client alone.
func NewTaskStoreWithCollection(collection *mongo.Collection, timeout time.Duration) *TaskStore {
	store := NewTaskStore(Config{Timeout: timeout})
	store.collection = collection
	return store
}

func (s *TaskStore) Connect(ctx context.Context) error {
	const op = "mongodb.Connect"

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.cfg.URI))
	if err != nil {
		return domain.NewError(domain.KindConnection, op, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return domain.NewError(domain.KindConnection, op, err)
	}

	s.mu.Lock()
	s.client = client
	s.collection = client.Database(s.cfg.Database).Collection(s.cfg.Collection)
	s.mu.Unlock()

	zap.L().Info("connected to mongodb",
		zap.String("database", s.cfg.Database),
		zap.String("collection", s.cfg.Collection),
	)
	return nil
}

// Close is safe to call without a prior Connect.
func (s *TaskStore) Close(ctx context.Context) error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.collection = nil
	s.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

func (s *TaskStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	client := s.client
	s.mu.RUnlock()

	if client == nil {
		return domain.ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	return client.Ping(ctx, nil)
}

func (s *TaskStore) AddTask(ctx context.Context, task domain.Task) (bool, error) {
	const op = "mongodb.AddTask"

	coll, err := s.tasks(op)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if _, err := coll.InsertOne(ctx, toBSON(task.ToDocument())); err != nil {
		if errors.Is(err, mongo.ErrUnacknowledgedWrite) {
			zap.L().Warn("insert not acknowledged", zap.String("task_id", task.ID()))
			return false, nil
		}
		if isServerRejection(err) {
			zap.L().Warn("insert rejected", zap.String("task_id", task.ID()), zap.Error(err))
			return false, nil
		}
		return false, domain.NewError(domain.KindConnection, op, err)
	}
	return true, nil
}

func (s *TaskStore) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	const op = "mongodb.GetTask"

	coll, err := s.tasks(op)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	var raw bson.M
	if err := coll.FindOne(ctx, bson.M{idKey: id}).Decode(&raw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			zap.L().Warn("task not found", zap.String("task_id", id))
			return nil, nil
		}
		zap.L().Error("failed to retrieve task", zap.String("task_id", id), zap.Error(err))
		return nil, domain.NewError(domain.KindConnection, op, err)
	}

	task, err := domain.FromDocument(fromBSON(raw))
	if err != nil {
		zap.L().Error("failed to reconstruct task", zap.String("task_id", id), zap.Error(err))
		return nil, err
	}
	return &task, nil
}

func (s *TaskStore) ListTasks(ctx context.Context) ([]domain.Task, error) {
	const op = "mongodb.ListTasks"

	coll, err := s.tasks(op)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: domain.FieldCreatedAt, Value: 1}})
	cursor, err := coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, domain.NewError(domain.KindConnection, op, err)
	}
	defer cursor.Close(ctx)

	tasks := make([]domain.Task, 0)
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			zap.L().Warn("skipping undecodable document", zap.Error(err))
			continue
		}
		task, err := domain.FromDocument(fromBSON(raw))
		if err != nil {
			zap.L().Warn("skipping invalid task document", zap.Any("task_id", raw[idKey]), zap.Error(err))
			continue
		}
		tasks = append(tasks, task)
	}
	if err := cursor.Err(); err != nil {
		return nil, domain.NewError(domain.KindConnection, op, err)
	}
	return tasks, nil
}

// UpdateTask applies a $set of the sanitized fields. An update that sanitizes
// to nothing returns false without touching the collection. An updatedAt
// earlier than the stored createdAt matches no document.
func (s *TaskStore) UpdateTask(ctx context.Context, id string, updates domain.UpdatePayload) (bool, error) {
	const op = "mongodb.UpdateTask"

	prepared, err := domain.PrepareUpdates(updates)
	if err != nil {
		return false, err
	}
	if len(prepared) == 0 {
		return false, nil
	}

	coll, err := s.tasks(op)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	result, err := coll.UpdateOne(ctx,
		updateFilter(id, prepared),
		bson.M{"$set": bson.M(domain.EncodeTimes(prepared))},
	)
	if err != nil {
		if errors.Is(err, mongo.ErrUnacknowledgedWrite) {
			zap.L().Warn("update not acknowledged", zap.String("task_id", id))
			return false, nil
		}
		if isServerRejection(err) {
			zap.L().Warn("update rejected", zap.String("task_id", id), zap.Error(err))
			return false, nil
		}
		return false, domain.NewError(domain.KindConnection, op, err)
	}
	return result.ModifiedCount == 1, nil
}

func (s *TaskStore) DeleteTask(ctx context.Context, id string) (bool, error) {
	const op = "mongodb.DeleteTask"

	coll, err := s.tasks(op)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	result, err := coll.DeleteOne(ctx, bson.M{idKey: id})
	if err != nil {
		if errors.Is(err, mongo.ErrUnacknowledgedWrite) {
			zap.L().Warn("delete not acknowledged", zap.String("task_id", id))
			return false, nil
		}
		return false, domain.NewError(domain.KindConnection, op, err)
	}
	return result.DeletedCount == 1, nil
}

func (s *TaskStore) tasks(op string) (*mongo.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.collection == nil {
		return nil, domain.NewError(domain.KindConnection, op, domain.ErrNotConnected)
	}
	return s.collection, nil
}

// updateFilter matches the task by id. Timestamps are stored in one fixed UTC
// layout, so the createdAt guard compares them as strings.
func updateFilter(id string, prepared domain.Document) bson.M {
	filter := bson.M{idKey: id}
	if updatedAt, ok := domain.UpdatedAtOf(prepared); ok {
		filter[domain.FieldCreatedAt] = bson.M{"$lte": domain.FormatTimestamp(updatedAt)}
	}
	return filter
}

func isServerRejection(err error) bool {
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		return true
	}
	var serverErr mongo.ServerError
	return errors.As(err, &serverErr) && !mongo.IsNetworkError(err) && !mongo.IsTimeout(err)
}

func toBSON(doc domain.Document) bson.M {
	out := make(bson.M, len(doc))
	for key, value := range doc {
		if key == domain.FieldID {
			out[idKey] = value
			continue
		}
		out[key] = value
	}
	return out
}

func fromBSON(raw bson.M) domain.Document {
	doc := make(domain.Document, len(raw))
	for key, value := range raw {
		if key == idKey {
			key = domain.FieldID
		}
		if dt, ok := value.(primitive.DateTime); ok {
			value = dt.Time()
		}
		doc[key] = value
	}
	return doc
}
