package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sandeepkv93/taskboard/internal/model"
	"github.com/sandeepkv93/taskboard/internal/storage"
)

// ErrSubscriptionGone tells the dispatcher the channel will never accept a
// delivery again and should be pruned.
var ErrSubscriptionGone = errors.New("notify: subscription gone")

var ErrNoSender = errors.New("notify: no sender for subscription kind")

type Sender interface {
	Send(ctx context.Context, sub storage.Subscription, r model.Reminder) error
}

type SenderFunc func(ctx context.Context, sub storage.Subscription, r model.Reminder) error

func (f SenderFunc) Send(ctx context.Context, sub storage.Subscription, r model.Reminder) error {
	return f(ctx, sub, r)
}

type Result struct {
	Delivered int `json:"delivered"`
	Pruned    int `json:"pruned"`
	Failed    int `json:"failed"`
}

// Dispatcher fans one reminder out to a user's subscriptions. Deliveries are
// attempted once; failures are logged and returned, never retried.
type Dispatcher struct {
	repo    storage.Repository
	senders map[storage.SubscriptionKind]Sender
	logger  *slog.Logger
}

func NewDispatcher(repo storage.Repository, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		repo:    repo,
		senders: make(map[storage.SubscriptionKind]Sender),
		logger:  logger,
	}
}

func (d *Dispatcher) Register(kind storage.SubscriptionKind, s Sender) {
	d.senders[kind] = s
}

func (d *Dispatcher) SendReminder(ctx context.Context, r model.Reminder) (Result, error) {
	if err := r.Validate(); err != nil {
		return Result{}, err
	}
	subs, err := d.repo.ListSubscriptions(ctx, storage.SubscriptionListFilter{UserID: r.UserID})
	if err != nil {
		return Result{}, fmt.Errorf("list subscriptions: %w", err)
	}

	var res Result
	var errs []error
	for _, sub := range subs {
		log := d.logger.With("user_id", r.UserID, "task_id", r.TaskID, "subscription_id", sub.ID, "kind", sub.Kind)
		sender, ok := d.senders[sub.Kind]
		if !ok {
			res.Failed++
			errs = append(errs, fmt.Errorf("%w: %s", ErrNoSender, sub.Kind))
			log.Warn("no sender registered")
			continue
		}

		err := sender.Send(ctx, sub, r)
		switch {
		case err == nil:
			res.Delivered++
		case errors.Is(err, ErrSubscriptionGone):
			if delErr := d.repo.DeleteSubscription(ctx, sub.ID); delErr != nil && !errors.Is(delErr, storage.ErrNotFound) {
				res.Failed++
				errs = append(errs, fmt.Errorf("prune subscription %s: %w", sub.ID, delErr))
				log.Error("pruning subscription failed", "err", delErr)
				continue
			}
			res.Pruned++
			log.Info("subscription pruned", "err", err)
		default:
			res.Failed++
			errs = append(errs, fmt.Errorf("subscription %s: %w", sub.ID, err))
			log.Warn("delivery failed", "err", err)
		}
	}
	return res, errors.Join(errs...)
}
