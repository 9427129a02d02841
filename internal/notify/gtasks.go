package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"github.com/sandeepkv93/taskboard/internal/model"
	"github.com/sandeepkv93/taskboard/internal/storage"
)

const (
	DefaultTaskList = "@default"

	googleAPITimeout = 5 * time.Second
)

// GoogleTasksSender mirrors a reminder into the user's Google Tasks list.
// The subscription secret holds the user's OAuth token as JSON and the
// endpoint names the task list.
type GoogleTasksSender struct {
	newService func(ctx context.Context, token *oauth2.Token) (*tasks.Service, error)
}

// LoadGoogleConfig reads an OAuth client file as downloaded from the Google
// Cloud console.
func LoadGoogleConfig(path string) (*oauth2.Config, error) {
	clientJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read oauth client file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(clientJSON, tasks.TasksScope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth client file: %w", err)
	}
	return cfg, nil
}

func NewGoogleTasksSender(cfg *oauth2.Config) *GoogleTasksSender {
	return &GoogleTasksSender{
		newService: func(ctx context.Context, token *oauth2.Token) (*tasks.Service, error) {
			httpClient := oauth2.NewClient(ctx, cfg.TokenSource(ctx, token))
			return tasks.NewService(ctx, option.WithHTTPClient(httpClient))
		},
	}
}

// NewGoogleTasksSenderWithHTTPClient skips OAuth and talks to endpoint with
// the given client.
func NewGoogleTasksSenderWithHTTPClient(httpClient *http.Client, endpoint string) *GoogleTasksSender {
	return &GoogleTasksSender{
		newService: func(ctx context.Context, _ *oauth2.Token) (*tasks.Service, error) {
			return tasks.NewService(ctx, option.WithHTTPClient(httpClient), option.WithEndpoint(endpoint))
		},
	}
}

func (s *GoogleTasksSender) Send(ctx context.Context, sub storage.Subscription, r model.Reminder) error {
	var token oauth2.Token
	if err := json.Unmarshal([]byte(sub.Secret), &token); err != nil {
		return fmt.Errorf("%w: invalid stored token: %v", ErrSubscriptionGone, err)
	}

	svc, err := s.newService(ctx, &token)
	if err != nil {
		return fmt.Errorf("create tasks service: %w", err)
	}

	listID := strings.TrimSpace(sub.Endpoint)
	if listID == "" {
		listID = DefaultTaskList
	}

	ctx, cancel := context.WithTimeout(ctx, googleAPITimeout)
	defer cancel()
	_, err = svc.Tasks.Insert(listID, &tasks.Task{
		Title: r.Title,
		Notes: "Reminder scheduled for " + r.TriggerTime.Format("Mon 2 Jan 15:04 MST"),
		Due:   r.TriggerTime.UTC().Format(time.RFC3339),
	}).Context(ctx).Do()
	return wrapGoogleError(err)
}

func wrapGoogleError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusGone:
			return fmt.Errorf("%w: google tasks returned %d", ErrSubscriptionGone, apiErr.Code)
		}
		return fmt.Errorf("google tasks: %w", err)
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		// invalid_grant means the refresh token was revoked.
		if retrieveErr.ErrorCode == "invalid_grant" {
			return fmt.Errorf("%w: token revoked", ErrSubscriptionGone)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.New("google tasks: request timed out")
	}
	return fmt.Errorf("google tasks: %w", err)
}
