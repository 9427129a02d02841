package storage

import (
	"context"
	"errors"

	"github.com/sandeepkv93/taskboard/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

// Repository is the persistence collaborator. Each call is atomic per row;
// nothing spans several tasks.
type Repository interface {
	CreateTask(ctx context.Context, in model.Task) error
	GetTask(ctx context.Context, id string) (model.Task, error)
	UpdateTask(ctx context.Context, id string, patch model.TaskPatch) error
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error)

	CreateUser(ctx context.Context, in User) error
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context, filter UserListFilter) ([]User, error)

	CreateSubscription(ctx context.Context, in Subscription) error
	ListSubscriptions(ctx context.Context, filter SubscriptionListFilter) ([]Subscription, error)
	DeleteSubscription(ctx context.Context, id string) error

	Close() error
}
