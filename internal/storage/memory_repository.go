package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sandeepkv93/taskboard/internal/model"
)

// MemoryRepository keeps everything in maps. Error fields inject failures
// for tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	tasks map[string]model.Task
	users map[string]User
	subs  map[string]Subscription

	UpdateTaskErr map[string]error // task id -> error
	ListTasksErr  map[string]error // user id -> error
	// AfterListTasks runs after ListTasks returns its snapshot, outside the lock.
	AfterListTasks func()
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tasks:         make(map[string]model.Task),
		users:         make(map[string]User),
		subs:          make(map[string]Subscription),
		UpdateTaskErr: make(map[string]error),
		ListTasksErr:  make(map[string]error),
	}
}

func (r *MemoryRepository) Close() error { return nil }

func (r *MemoryRepository) CreateTask(_ context.Context, in model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[in.ID]; ok {
		return fmt.Errorf("storage: task %s already exists", in.ID)
	}
	in.RecurrenceType = recurrenceOrNone(in.RecurrenceType)
	r.tasks[in.ID] = cloneTask(in)
	return nil
}

func (r *MemoryRepository) GetTask(_ context.Context, id string) (model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	return cloneTask(t), nil
}

func (r *MemoryRepository) UpdateTask(_ context.Context, id string, patch model.TaskPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.UpdateTaskErr[id]; err != nil {
		return err
	}
	t, ok := r.tasks[id]
	if !ok {
		return ErrNotFound
	}
	patch.Apply(&t)
	r.tasks[id] = t
	return nil
}

// SetTask replaces a stored task, standing in for writers outside the engine
// such as the user completion path.
func (r *MemoryRepository) SetTask(t model.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = cloneTask(t)
}

func (r *MemoryRepository) DeleteTask(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryRepository) ListTasks(_ context.Context, filter TaskListFilter) ([]model.Task, error) {
	out, err := r.listTasks(filter)
	if err != nil {
		return nil, err
	}
	if r.AfterListTasks != nil {
		r.AfterListTasks()
	}
	return out, nil
}

func (r *MemoryRepository) listTasks(filter TaskListFilter) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.ListTasksErr[filter.UserID]; err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if filter.UserID != "" && t.UserID != filter.UserID {
			continue
		}
		if len(filter.Boards) > 0 && !containsBoard(filter.Boards, t.OriginBoard) {
			continue
		}
		if filter.Recurring != nil && t.RecurrenceType.IsRecurring() != *filter.Recurring {
			continue
		}
		if filter.WithTime && t.Time == "" {
			continue
		}
		out = append(out, cloneTask(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *MemoryRepository) CreateUser(_ context.Context, in User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[in.ID]; ok {
		return fmt.Errorf("storage: user %s already exists", in.ID)
	}
	r.users[in.ID] = in
	return nil
}

func (r *MemoryRepository) GetUser(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepository) ListUsers(_ context.Context, filter UserListFilter) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *MemoryRepository) CreateSubscription(_ context.Context, in Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[in.ID] = in
	return nil
}

func (r *MemoryRepository) ListSubscriptions(_ context.Context, filter SubscriptionListFilter) ([]Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Subscription, 0)
	for _, s := range r.subs {
		if filter.UserID != "" && s.UserID != filter.UserID {
			continue
		}
		if filter.Kind != "" && s.Kind != filter.Kind {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) DeleteSubscription(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[id]; !ok {
		return ErrNotFound
	}
	delete(r.subs, id)
	return nil
}

func containsBoard(boards []model.Board, b model.Board) bool {
	for _, item := range boards {
		if item == b {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func cloneTask(t model.Task) model.Task {
	out := t
	out.DueDate = cloneDate(t.DueDate)
	out.LastSuccessfulCompletionDate = cloneDate(t.LastSuccessfulCompletionDate)
	out.CompletedAt = cloneTime(t.CompletedAt)
	out.LastNotifiedAt = cloneTime(t.LastNotifiedAt)
	out.LastMovedToOverdueAt = cloneTime(t.LastMovedToOverdueAt)
	out.LastMovedToCompletedAt = cloneTime(t.LastMovedToCompletedAt)
	out.LastActivatedAt = cloneTime(t.LastActivatedAt)
	return out
}

func cloneDate(d *model.Date) *model.Date {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

var (
	_ Repository = (*MemoryRepository)(nil)
	_ Repository = (*SQLRepository)(nil)
)
