package datastore

import (
	"context"
	"errors"
	"sync"
	"time"

	"cloud.google.com/go/datastore"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tasksmith/internal/core/domain"
	"tasksmith/internal/core/ports"
)

const defaultTimeout = 5 * time.Second

var errAlreadyExists = errors.New("entity already exists")

// Config maps the store onto Datastore: the database becomes a namespace and
// the collection becomes an entity kind.
type Config struct {
	ProjectID string
	Namespace string
	Kind      string
	Timeout   time.Duration
}

// TaskStore keeps one entity per task, named by the task id.
type TaskStore struct {
	cfg Config

	mu     sync.RWMutex
	client *datastore.Client
}

var _ ports.TaskStore = (*TaskStore)(nil)

func NewTaskStore(cfg Config) *TaskStore {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &TaskStore{cfg: cfg}
}

func (s *TaskStore) Connect(ctx context.Context) error {
	const op = "datastore.Connect"

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	client, err := datastore.NewClient(ctx, s.cfg.ProjectID)
	if err != nil {
		return domain.NewError(domain.KindConnection, op, err)
	}

	s.mu.Lock()
	s.client = client
	s.mu.Unlock()

	if err := s.Ping(ctx); err != nil {
		_ = s.Close(context.Background())
		return domain.NewError(domain.KindConnection, op, err)
	}

	zap.L().Info("connected to datastore",
		zap.String("project", s.cfg.ProjectID),
		zap.String("namespace", s.cfg.Namespace),
		zap.String("kind", s.cfg.Kind),
	)
	return nil
}

func (s *TaskStore) Close(_ context.Context) error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Close()
}

// Ping runs a one-key query, there is no dedicated health call.
func (s *TaskStore) Ping(ctx context.Context) error {
	client, err := s.handle("datastore.Ping")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	_, err = client.GetAll(ctx, s.query().KeysOnly().Limit(1), nil)
	return err
}

func (s *TaskStore) AddTask(ctx context.Context, task domain.Task) (bool, error) {
	const op = "datastore.AddTask"

	client, err := s.handle(op)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	key := s.key(task.ID())
	entity := entityFromDocument(task.ToDocument())

	_, err = client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var existing datastore.PropertyList
		switch err := tx.Get(key, &existing); {
		case err == nil:
			return errAlreadyExists
		case !errors.Is(err, datastore.ErrNoSuchEntity):
			return err
		}
		_, err := tx.Put(key, &entity)
		return err
	})
	if err != nil {
		if errors.Is(err, errAlreadyExists) || isServerRejection(err) {
			zap.L().Warn("insert rejected", zap.String("task_id", task.ID()), zap.Error(err))
			return false, nil
		}
		return false, domain.NewError(domain.KindConnection, op, err)
	}
	return true, nil
}

func (s *TaskStore) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	const op = "datastore.GetTask"

	client, err := s.handle(op)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	var entity datastore.PropertyList
	if err := client.Get(ctx, s.key(id), &entity); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			zap.L().Warn("task not found", zap.String("task_id", id))
			return nil, nil
		}
		return nil, domain.NewError(domain.KindConnection, op, err)
	}

	task, err := domain.FromDocument(documentFromEntity(id, entity))
	if err != nil {
		zap.L().Error("failed to reconstruct task", zap.String("task_id", id), zap.Error(err))
		return nil, err
	}
	return &task, nil
}

func (s *TaskStore) ListTasks(ctx context.Context) ([]domain.Task, error) {
	const op = "datastore.ListTasks"

	client, err := s.handle(op)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	var entities []datastore.PropertyList
	keys, err := client.GetAll(ctx, s.query().Order(domain.FieldCreatedAt), &entities)
	if err != nil {
		return nil, domain.NewError(domain.KindConnection, op, err)
	}

	tasks := make([]domain.Task, 0, len(entities))
	for i, entity := range entities {
		task, err := domain.FromDocument(documentFromEntity(keys[i].Name, entity))
		if err != nil {
			zap.L().Warn("skipping invalid task entity", zap.String("task_id", keys[i].Name), zap.Error(err))
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// UpdateTask merges the sanitized fields inside a transaction. It reports
// false when the entity is missing, already holds every value, or the update
// carries an updatedAt earlier than the stored createdAt.
func (s *TaskStore) UpdateTask(ctx context.Context, id string, updates domain.UpdatePayload) (bool, error) {
	const op = "datastore.UpdateTask"

	prepared, err := domain.PrepareUpdates(updates)
	if err != nil {
		return false, err
	}
	if len(prepared) == 0 {
		return false, nil
	}

	client, err := s.handle(op)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	key := s.key(id)
	modified, rewound := false, false
	_, err = client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		modified, rewound = false, false

		var entity datastore.PropertyList
		if err := tx.Get(key, &entity); err != nil {
			if errors.Is(err, datastore.ErrNoSuchEntity) {
				return nil
			}
			return err
		}
		if rewindsUpdatedAt(entity, prepared) {
			rewound = true
			return nil
		}

		merged, changed := mergeEntity(entity, prepared)
		if !changed {
			return nil
		}
		if _, err := tx.Put(key, &merged); err != nil {
			return err
		}
		modified = true
		return nil
	})
	if err != nil {
		if isServerRejection(err) {
			zap.L().Warn("update rejected", zap.String("task_id", id), zap.Error(err))
			return false, nil
		}
		return false, domain.NewError(domain.KindConnection, op, err)
	}
	if rewound {
		zap.L().Warn("update would set updatedAt before createdAt", zap.String("task_id", id))
	}
	return modified, nil
}

func (s *TaskStore) DeleteTask(ctx context.Context, id string) (bool, error) {
	const op = "datastore.DeleteTask"

	client, err := s.handle(op)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	key := s.key(id)
	deleted := false
	_, err = client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		deleted = false

		var entity datastore.PropertyList
		if err := tx.Get(key, &entity); err != nil {
			if errors.Is(err, datastore.ErrNoSuchEntity) {
				return nil
			}
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, domain.NewError(domain.KindConnection, op, err)
	}
	return deleted, nil
}

func (s *TaskStore) handle(op string) (*datastore.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.client == nil {
		return nil, domain.NewError(domain.KindConnection, op, domain.ErrNotConnected)
	}
	return s.client, nil
}

func (s *TaskStore) key(id string) *datastore.Key {
	key := datastore.NameKey(s.cfg.Kind, id, nil)
	key.Namespace = s.cfg.Namespace
	return key
}

func (s *TaskStore) query() *datastore.Query {
	return datastore.NewQuery(s.cfg.Kind).Namespace(s.cfg.Namespace)
}

func isServerRejection(err error) bool {
	switch status.Code(err) {
	case codes.InvalidArgument, codes.AlreadyExists, codes.FailedPrecondition:
		return true
	}
	return false
}
