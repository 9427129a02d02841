package seed

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/taskboard/internal/model"
	"github.com/sandeepkv93/taskboard/internal/storage"
)

type File struct {
	Users         []User         `yaml:"users"`
	Subscriptions []Subscription `yaml:"subscriptions"`
	Tasks         []Task         `yaml:"tasks"`
}

type User struct {
	ID       string `yaml:"id"`
	Email    string `yaml:"email"`
	Timezone string `yaml:"timezone"`
}

type Subscription struct {
	ID       string `yaml:"id"`
	UserID   string `yaml:"user_id"`
	Kind     string `yaml:"kind"`
	Endpoint string `yaml:"endpoint"`
	Secret   string `yaml:"secret"`
}

type Task struct {
	ID                string `yaml:"id"`
	UserID            string `yaml:"user_id"`
	Title             string `yaml:"title"`
	DueDate           string `yaml:"due_date"`
	Time              string `yaml:"time"`
	RecurrenceType    string `yaml:"recurrence_type"`
	RecurrenceDetails string `yaml:"recurrence_details"`
	Priority          bool   `yaml:"priority"`
	ProjectID         string `yaml:"project_id"`
	Board             string `yaml:"board"`
	Completed         bool   `yaml:"completed"`
	LastCompleted     string `yaml:"last_completed"`
}

type Summary struct {
	Users         int
	Subscriptions int
	Tasks         int
}

func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("seed: parse: %w", err)
	}
	return f, nil
}

func LoadFile(path string) (File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return Parse(b)
}

// Import writes users, then subscriptions, then tasks. It stops at the first
// invalid or rejected record; earlier records stay written.
func Import(ctx context.Context, repo storage.Repository, f File, now time.Time) (Summary, error) {
	var sum Summary
	for i, u := range f.Users {
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		if u.Timezone != "" {
			if _, err := time.LoadLocation(u.Timezone); err != nil {
				return sum, fmt.Errorf("seed: user %d: %w", i, err)
			}
		}
		if err := repo.CreateUser(ctx, storage.User{ID: u.ID, Email: u.Email, Timezone: u.Timezone, CreatedAt: now}); err != nil {
			return sum, fmt.Errorf("seed: user %s: %w", u.ID, err)
		}
		sum.Users++
	}

	for i, s := range f.Subscriptions {
		kind := storage.SubscriptionKind(strings.ToLower(strings.TrimSpace(s.Kind)))
		switch kind {
		case storage.SubscriptionWebhook, storage.SubscriptionGoogleTasks, storage.SubscriptionDesktop, storage.SubscriptionLog:
		default:
			return sum, fmt.Errorf("seed: subscription %d: unknown kind %q", i, s.Kind)
		}
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if err := repo.CreateSubscription(ctx, storage.Subscription{
			ID:        s.ID,
			UserID:    s.UserID,
			Kind:      kind,
			Endpoint:  s.Endpoint,
			Secret:    s.Secret,
			CreatedAt: now,
		}); err != nil {
			return sum, fmt.Errorf("seed: subscription %s: %w", s.ID, err)
		}
		sum.Subscriptions++
	}

	for i, raw := range f.Tasks {
		task, err := raw.toModel(now)
		if err != nil {
			return sum, fmt.Errorf("seed: task %d: %w", i, err)
		}
		if err := task.Validate(); err != nil {
			return sum, fmt.Errorf("seed: task %d: %w", i, err)
		}
		if err := repo.CreateTask(ctx, task); err != nil {
			return sum, fmt.Errorf("seed: task %s: %w", task.ID, err)
		}
		sum.Tasks++
	}
	return sum, nil
}

func (t Task) toModel(now time.Time) (model.Task, error) {
	out := model.Task{
		ID:                t.ID,
		UserID:            t.UserID,
		Title:             t.Title,
		Time:              t.Time,
		RecurrenceType:    model.RecurrenceType(strings.ToLower(strings.TrimSpace(t.RecurrenceType))),
		RecurrenceDetails: t.RecurrenceDetails,
		Priority:          t.Priority,
		ProjectID:         t.ProjectID,
		IsCompleted:       t.Completed,
		CreatedAt:         now,
	}
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.RecurrenceType == "" {
		out.RecurrenceType = model.RecurrenceNone
	}

	switch {
	case t.Board != "":
		b, err := model.ParseBoard(t.Board)
		if err != nil {
			return model.Task{}, err
		}
		out.OriginBoard = b
	case out.RecurrenceType.IsRecurring():
		out.OriginBoard = model.BoardRecurrent
	default:
		out.OriginBoard = model.BoardGeneral
	}

	if t.DueDate != "" {
		d, err := model.ParseDate(t.DueDate)
		if err != nil {
			return model.Task{}, err
		}
		out.DueDate = &d
	}
	if t.LastCompleted != "" {
		d, err := model.ParseDate(t.LastCompleted)
		if err != nil {
			return model.Task{}, err
		}
		out.LastSuccessfulCompletionDate = &d
	}
	return out, nil
}
