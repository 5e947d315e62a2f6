package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/rosterapi/roster/internal/model"
)

// Store owns the database pool for the student roster. It is created once at
// startup and passed explicitly to every consumer; there is no package-level
// handle.
type Store struct {
	db     *sqlx.DB
	driver string
}

// driverName maps the configured driver to the registered database/sql driver.
func driverName(driver string) string {
	switch driver {
	case "postgres":
		return "pgx"
	default:
		return driver
	}
}

// New opens a connection pool for the given driver and DSN. Supported drivers
// are mysql, postgres, and sqlite. Pass ":memory:" as the sqlite DSN for an
// in-memory store.
func New(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driverName(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if driver == "sqlite" {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	return &Store{db: db, driver: driver}, nil
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// ListFilter selects a page of live students. Search matches name or email
// case-insensitively as a substring.
type ListFilter struct {
	Page   int
	Limit  int
	Search string
}

const studentColumns = "id, name, email, age, grade, total_points, created_at, updated_at, deleted_at"

// searchClause returns the WHERE tail and bind args shared by ListStudents
// and CountStudents so both always run over the same filter.
func searchClause(search string) (string, []interface{}) {
	where := "WHERE deleted_at IS NULL"
	var args []interface{}
	if search != "" {
		where += " AND (LOWER(name) LIKE ? OR LOWER(email) LIKE ?)"
		term := "%" + strings.ToLower(search) + "%"
		args = append(args, term, term)
	}
	return where, args
}

// ListStudents returns one page of live students ordered newest first.
func (s *Store) ListStudents(ctx context.Context, f ListFilter) ([]model.Student, error) {
	where, args := searchClause(f.Search)
	offset := (f.Page - 1) * f.Limit

	q := fmt.Sprintf("SELECT %s FROM students %s ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		studentColumns, where)
	args = append(args, f.Limit, offset)

	var students []model.Student
	if err := s.db.SelectContext(ctx, &students, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// CountStudents returns the number of live students matching the search term.
func (s *Store) CountStudents(ctx context.Context, search string) (int64, error) {
	where, args := searchClause(search)

	var total int64
	q := "SELECT COUNT(*) FROM students " + where
	if err := s.db.GetContext(ctx, &total, s.db.Rebind(q), args...); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// GetStudent returns a live student by id.
func (s *Store) GetStudent(ctx context.Context, id int64) (*model.Student, error) {
	var student model.Student
	q := fmt.Sprintf("SELECT %s FROM students WHERE id = ? AND deleted_at IS NULL", studentColumns)
	if err := s.db.GetContext(ctx, &student, s.db.Rebind(q), id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &student, nil
}

// EmailExists reports whether any student row carries the given email. Soft-
// deleted rows are included on purpose: the original duplicate check scans
// the whole table, and that behavior is preserved until a product decision
// says otherwise.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	q := "SELECT COUNT(*) FROM students WHERE email = ?"
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(q), email); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return n > 0, nil
}

// CreateStudent inserts a new student and returns its id.
func (s *Store) CreateStudent(ctx context.Context, in *model.StudentInput) (int64, error) {
	now := time.Now().UTC()

	if s.driver == "postgres" {
		var id int64
		q := s.db.Rebind(`INSERT INTO students (name, email, age, grade, total_points, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)
		err := s.db.GetContext(ctx, &id, q, in.Name, in.Email, in.Age, in.Grade, in.TotalPoints, now, now)
		if err != nil {
			return 0, fmt.Errorf("insert student: %w", err)
		}
		return id, nil
	}

	q := s.db.Rebind(`INSERT INTO students (name, email, age, grade, total_points, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	result, err := s.db.ExecContext(ctx, q, in.Name, in.Email, in.Age, in.Grade, in.TotalPoints, now, now)
	if err != nil {
		return 0, fmt.Errorf("insert student: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get student id: %w", err)
	}
	return id, nil
}

// UpdateStudent overwrites every mutable field of a live student and touches
// updated_at. Returns ErrNotFound when no live row matched.
func (s *Store) UpdateStudent(ctx context.Context, id int64, in *model.StudentInput) error {
	q := s.db.Rebind(`UPDATE students
		SET name = ?, email = ?, age = ?, grade = ?, total_points = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`)

	result, err := s.db.ExecContext(ctx, q, in.Name, in.Email, in.Age, in.Grade, in.TotalPoints, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDeleteStudent marks a live student as deleted. The row is never
// physically removed. Returns ErrNotFound when no live row matched.
func (s *Store) SoftDeleteStudent(ctx context.Context, id int64) error {
	q := s.db.Rebind("UPDATE students SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL")

	result, err := s.db.ExecContext(ctx, q, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
