package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sandeepkv93/taskboard/internal/model"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

const taskColumns = `id, user_id, title, due_date, time_of_day, recurrence_type, recurrence_details, priority, project_id,
	is_completed, completed_at, last_successful_completion_date, origin_board, last_notified_at,
	last_moved_to_overdue_at, last_moved_to_completed_at, last_activated_at, created_at`

// SQLRepository implements Repository on database/sql. Queries are written
// with ? placeholders and rebound for the dialect.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLiteRepository(db *sql.DB) (*SQLRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLRepository{db: db, dialect: DialectSQLite}, nil
}

func OpenSQLite(path string) (*SQLRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps in-memory databases and PRAGMAs consistent.
	db.SetMaxOpenConns(1)
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLRepository) DB() *sql.DB { return r.db }

func (r *SQLRepository) Dialect() Dialect { return r.dialect }

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func (r *SQLRepository) CreateTask(ctx context.Context, in model.Task) error {
	_, err := r.exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.UserID, in.Title, nullDate(in.DueDate), in.Time, string(recurrenceOrNone(in.RecurrenceType)), in.RecurrenceDetails,
		in.Priority, in.ProjectID, in.IsCompleted, nullTime(in.CompletedAt), nullDate(in.LastSuccessfulCompletionDate),
		string(in.OriginBoard), nullTime(in.LastNotifiedAt), nullTime(in.LastMovedToOverdueAt),
		nullTime(in.LastMovedToCompletedAt), nullTime(in.LastActivatedAt), in.CreatedAt.UTC(),
	)
	return err
}

func (r *SQLRepository) GetTask(ctx context.Context, id string) (model.Task, error) {
	row := r.queryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return task, nil
}

func (r *SQLRepository) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) error {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)
	if patch.OriginBoard != nil {
		sets = append(sets, "origin_board = ?")
		args = append(args, string(*patch.OriginBoard))
	}
	if patch.IsCompleted != nil {
		sets = append(sets, "is_completed = ?")
		args = append(args, *patch.IsCompleted)
	}
	if patch.LastNotifiedAt != nil {
		sets = append(sets, "last_notified_at = ?")
		args = append(args, patch.LastNotifiedAt.UTC())
	}
	if patch.LastMovedToOverdueAt != nil {
		sets = append(sets, "last_moved_to_overdue_at = ?")
		args = append(args, patch.LastMovedToOverdueAt.UTC())
	}
	if patch.LastMovedToCompletedAt != nil {
		sets = append(sets, "last_moved_to_completed_at = ?")
		args = append(args, patch.LastMovedToCompletedAt.UTC())
	}
	if patch.LastActivatedAt != nil {
		sets = append(sets, "last_activated_at = ?")
		args = append(args, patch.LastActivatedAt.UTC())
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.exec(ctx, `UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.exec(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLRepository) ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	clauses := make([]string, 0, 4)
	args := make([]any, 0, 8)
	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if len(filter.Boards) > 0 {
		marks := make([]string, 0, len(filter.Boards))
		for _, b := range filter.Boards {
			marks = append(marks, "?")
			args = append(args, string(b))
		}
		clauses = append(clauses, "origin_board IN ("+strings.Join(marks, ", ")+")")
	}
	if filter.Recurring != nil {
		if *filter.Recurring {
			clauses = append(clauses, "recurrence_type <> 'none'")
		} else {
			clauses = append(clauses, "recurrence_type = 'none'")
		}
	}
	if filter.WithTime {
		clauses = append(clauses, "time_of_day <> ''")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (r *SQLRepository) CreateUser(ctx context.Context, in User) error {
	_, err := r.exec(ctx, `
		INSERT INTO users (id, email, timezone, created_at)
		VALUES (?, ?, ?, ?)`,
		in.ID, in.Email, in.Timezone, in.CreatedAt.UTC(),
	)
	return err
}

func (r *SQLRepository) GetUser(ctx context.Context, id string) (User, error) {
	row := r.queryRow(ctx, `SELECT id, email, timezone, created_at FROM users WHERE id = ?`, id)
	var out User
	if err := row.Scan(&out.ID, &out.Email, &out.Timezone, &out.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return out, nil
}

func (r *SQLRepository) ListUsers(ctx context.Context, filter UserListFilter) ([]User, error) {
	args := make([]any, 0, 2)
	query := `SELECT id, email, timezone, created_at FROM users ORDER BY id ASC` + applyPagination(&args, filter.Limit, filter.Offset)
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Timezone, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *SQLRepository) CreateSubscription(ctx context.Context, in Subscription) error {
	_, err := r.exec(ctx, `
		INSERT INTO push_subscriptions (id, user_id, kind, endpoint, secret, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.ID, in.UserID, string(in.Kind), in.Endpoint, in.Secret, in.CreatedAt.UTC(),
	)
	return err
}

func (r *SQLRepository) ListSubscriptions(ctx context.Context, filter SubscriptionListFilter) ([]Subscription, error) {
	query := `SELECT id, user_id, kind, endpoint, secret, created_at FROM push_subscriptions`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Subscription, 0)
	for rows.Next() {
		var s Subscription
		var kind string
		if err := rows.Scan(&s.ID, &s.UserID, &kind, &s.Endpoint, &s.Secret, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Kind = SubscriptionKind(kind)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLRepository) DeleteSubscription(ctx context.Context, id string) error {
	res, err := r.exec(ctx, `DELETE FROM push_subscriptions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLRepository) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.db.ExecContext(ctx, r.rebind(query), args...)
}

func (r *SQLRepository) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.db.QueryContext(ctx, r.rebind(query), args...)
}

func (r *SQLRepository) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.db.QueryRowContext(ctx, r.rebind(query), args...)
}

func (r *SQLRepository) rebind(query string) string {
	if r.dialect != DialectPostgres {
		return query
	}
	return rebindDollar(query)
}

// rebindDollar rewrites ? placeholders to $1..$n.
func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func recurrenceOrNone(r model.RecurrenceType) model.RecurrenceType {
	if r == "" {
		return model.RecurrenceNone
	}
	return r
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC()
}

func nullDate(v *model.Date) any {
	if v == nil {
		return nil
	}
	return v.String()
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}

func parseNullableDate(v sql.NullString) (*model.Date, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	d, err := model.ParseDate(v.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	}
	if offset > 0 {
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.Task, error) {
	var out model.Task
	var due, lastSuccess sql.NullString
	var recurrence, board string
	var completedAt, notified, overdue, movedCompleted, activated sql.NullTime
	if err := s.Scan(
		&out.ID, &out.UserID, &out.Title, &due, &out.Time, &recurrence, &out.RecurrenceDetails, &out.Priority, &out.ProjectID,
		&out.IsCompleted, &completedAt, &lastSuccess, &board, &notified,
		&overdue, &movedCompleted, &activated, &out.CreatedAt,
	); err != nil {
		return model.Task{}, err
	}
	dueDate, err := parseNullableDate(due)
	if err != nil {
		return model.Task{}, err
	}
	lastSuccessDate, err := parseNullableDate(lastSuccess)
	if err != nil {
		return model.Task{}, err
	}
	out.DueDate = dueDate
	out.LastSuccessfulCompletionDate = lastSuccessDate
	out.RecurrenceType = model.RecurrenceType(recurrence)
	out.OriginBoard = model.Board(board)
	out.CompletedAt = timePtr(completedAt)
	out.LastNotifiedAt = timePtr(notified)
	out.LastMovedToOverdueAt = timePtr(overdue)
	out.LastMovedToCompletedAt = timePtr(movedCompleted)
	out.LastActivatedAt = timePtr(activated)
	out.CreatedAt = out.CreatedAt.UTC()
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
