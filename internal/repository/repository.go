// Package repository implements a uniform persistence layer. Every entity
// funnels through the same generic CRUD contract: existence-checked
// create, merge-patch update, and null-on-empty reads, with store-level
// constraint violations translated into the shared error set.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const pgUniqueViolation = "23505"

// Entity is implemented by every persisted model
type Entity interface {
	TableName() string
}

// Repository provides CRUD operations for one entity type
type Repository[T Entity] struct {
	db    *sqlx.DB
	log   *slog.Logger
	table string
	cols  []string
}

// New creates a repository bound to the entity type T
func New[T Entity](db *sqlx.DB, log *slog.Logger) *Repository[T] {
	if log == nil {
		log = slog.Default()
	}
	var zero T
	return &Repository[T]{
		db:    db,
		log:   log,
		table: zero.TableName(),
		cols:  columnsOf(reflect.TypeOf(zero)),
	}
}

// Create persists the entity and returns the stored row. When exists is a
// real condition, a matching row fails the call with ErrAlreadyExists
// before anything is written. A uniqueness violation raised by the store
// itself is translated to ErrAlreadyExists as well, never surfaced raw.
func (r *Repository[T]) Create(ctx context.Context, entity *T, exists Condition) (*T, error) {
	if !exists.IsZero() {
		found, err := r.ReadOne(ctx, exists)
		if err != nil {
			return nil, err
		}
		if found != nil {
			r.log.Warn("create rejected, entity already exists", "table", r.table)
			return nil, ErrAlreadyExists
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		r.table,
		strings.Join(r.cols, ", "),
		namedPlaceholders(r.cols),
	)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, query, entity); err != nil {
		if isUniqueViolation(err) {
			r.log.Warn("create rejected by uniqueness constraint", "table", r.table)
			return nil, ErrAlreadyExists
		}
		r.log.Error("create failed", "table", r.table, "error", err)
		return nil, fmt.Errorf("insert %s: %w", r.table, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return r.readByID(ctx, entityID(entity))
}

// Update persists an entity instance. Without a condition the instance is
// treated as tracked and written back by primary key; an instance the
// store does not recognize fails with ErrNotTracked. With a condition the
// instance is treated as detached: its non-zero fields are merged onto
// the matching row.
func (r *Repository[T]) Update(ctx context.Context, entity *T, cond Condition) (*T, error) {
	if cond.IsZero() {
		id := entityID(entity)
		if id == "" {
			return nil, ErrNotTracked
		}

		var sets []string
		for _, col := range r.cols {
			if col == "id" {
				continue
			}
			sets = append(sets, col+" = :"+col)
		}
		query := fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", r.table, strings.Join(sets, ", "))

		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback()

		res, err := tx.NamedExecContext(ctx, query, entity)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, ErrAlreadyExists
			}
			r.log.Error("update failed", "table", r.table, "error", err)
			return nil, fmt.Errorf("update %s: %w", r.table, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, ErrNotTracked
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
		return r.readByID(ctx, id)
	}

	return r.UpdateFields(ctx, patchOf(entity, r.cols), cond)
}

// UpdateFields applies a merge-patch to the row matching cond: only
// non-nil patch values are written, everything else is left untouched.
// Fails with ErrNotFound when no row matches.
func (r *Repository[T]) UpdateFields(ctx context.Context, patch map[string]any, cond Condition) (*T, error) {
	existing, err := r.ReadOne(ctx, cond)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		r.log.Warn("update rejected, entity not found", "table", r.table)
		return nil, ErrNotFound
	}

	filtered := filterPatch(patch, r.cols)
	if len(filtered) == 0 {
		return existing, nil
	}

	id := entityID(existing)
	var sets []string
	args := make([]any, 0, len(filtered)+1)
	for _, col := range r.cols {
		v, ok := filtered[col]
		if !ok {
			continue
		}
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	args = append(args, id)

	query := r.db.Rebind(fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", r.table, strings.Join(sets, ", ")))

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		r.log.Error("update failed", "table", r.table, "error", err)
		return nil, fmt.Errorf("update %s: %w", r.table, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return r.readByID(ctx, id)
}

// Delete removes the row matching cond. Returns false when nothing
// matched, true once the row is gone.
func (r *Repository[T]) Delete(ctx context.Context, cond Condition) (bool, error) {
	existing, err := r.ReadOne(ctx, cond)
	if err != nil {
		return false, err
	}
	if existing == nil {
		r.log.Warn("nothing to delete", "table", r.table)
		return false, nil
	}

	query := r.db.Rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.table))

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, entityID(existing)); err != nil {
		r.log.Error("delete failed", "table", r.table, "error", err)
		return false, fmt.Errorf("delete %s: %w", r.table, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}

	return true, nil
}

// ReadOne returns the row matching cond, or nil when absent. Absence is
// not an error.
func (r *Repository[T]) ReadOne(ctx context.Context, cond Condition) (*T, error) {
	expr, args := cond.SQL()
	query := r.db.Rebind(fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s LIMIT 1",
		strings.Join(r.cols, ", "), r.table, expr,
	))

	var out T
	err := r.db.GetContext(ctx, &out, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("read failed", "table", r.table, "error", err)
		return nil, fmt.Errorf("select %s: %w", r.table, err)
	}
	return &out, nil
}

// ReadMany returns all rows matching cond, or nil when none match.
// Callers must treat nil and empty interchangeably.
func (r *Repository[T]) ReadMany(ctx context.Context, cond Condition) ([]T, error) {
	expr, args := cond.SQL()
	query := r.db.Rebind(fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s",
		strings.Join(r.cols, ", "), r.table, expr,
	))

	var out []T
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		r.log.Error("read failed", "table", r.table, "error", err)
		return nil, fmt.Errorf("select %s: %w", r.table, err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// ReadPaginated returns one page of rows matching cond, or nil when the
// page is empty. Pages are 1-based.
func (r *Repository[T]) ReadPaginated(ctx context.Context, cond Condition, page, pageSize int) ([]T, error) {
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}

	expr, args := cond.SQL()
	args = append(args, pageSize, offset)
	query := r.db.Rebind(fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s LIMIT ? OFFSET ?",
		strings.Join(r.cols, ", "), r.table, expr,
	))

	var out []T
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		r.log.Error("read failed", "table", r.table, "error", err)
		return nil, fmt.Errorf("select %s: %w", r.table, err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (r *Repository[T]) readByID(ctx context.Context, id string) (*T, error) {
	row, err := r.ReadOne(ctx, Eq("id", id))
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return row, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// columnsOf derives column names from the db struct tags of t
func columnsOf(t reflect.Type) []string {
	var cols []string
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, tag)
	}
	return cols
}

func namedPlaceholders(cols []string) string {
	named := make([]string, len(cols))
	for i, c := range cols {
		named[i] = ":" + c
	}
	return strings.Join(named, ", ")
}

// entityID reads the id column of an entity via its db tag
func entityID(entity any) string {
	v := reflect.ValueOf(entity)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("db") == "id" {
			if id, ok := v.Field(i).Interface().(string); ok {
				return id
			}
		}
	}
	return ""
}

// patchOf converts a detached entity into a merge-patch of its non-zero
// fields. Nil pointers and zero values are treated as "not provided".
func patchOf(entity any, cols []string) map[string]any {
	allowed := make(map[string]bool, len(cols))
	for _, c := range cols {
		allowed[c] = true
	}

	patch := make(map[string]any)
	v := reflect.ValueOf(entity)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		col := t.Field(i).Tag.Get("db")
		if col == "" || col == "-" || col == "id" || !allowed[col] {
			continue
		}
		fv := v.Field(i)
		if fv.IsZero() {
			continue
		}
		patch[col] = fv.Interface()
	}
	return patch
}

// filterPatch drops unknown columns, the primary key, and nil values from
// a merge-patch. Nil means "leave the stored value untouched".
func filterPatch(patch map[string]any, cols []string) map[string]any {
	allowed := make(map[string]bool, len(cols))
	for _, c := range cols {
		allowed[c] = true
	}

	out := make(map[string]any, len(patch))
	for col, v := range patch {
		if col == "id" || !allowed[col] {
			continue
		}
		if v == nil {
			continue
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			continue
		}
		out[col] = v
	}
	return out
}
