package storage

import (
	"time"

	"github.com/sandeepkv93/taskboard/internal/model"
)

type User struct {
	ID        string
	Email     string
	Timezone  string
	CreatedAt time.Time
}

type SubscriptionKind string

const (
	SubscriptionWebhook     SubscriptionKind = "webhook"
	SubscriptionGoogleTasks SubscriptionKind = "gtasks"
	SubscriptionDesktop     SubscriptionKind = "desktop"
	SubscriptionLog         SubscriptionKind = "log"
)

// Subscription is one delivery channel for a user's reminders. Secret holds
// channel credentials, e.g. the OAuth token JSON for gtasks.
type Subscription struct {
	ID        string
	UserID    string
	Kind      SubscriptionKind
	Endpoint  string
	Secret    string
	CreatedAt time.Time
}

type TaskListFilter struct {
	UserID    string
	Boards    []model.Board
	Recurring *bool
	WithTime  bool
	Limit     int
	Offset    int
}

type UserListFilter struct {
	Limit  int
	Offset int
}

type SubscriptionListFilter struct {
	UserID string
	Kind   SubscriptionKind
}
