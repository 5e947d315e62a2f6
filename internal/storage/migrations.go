package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/rosterapi/roster/internal/model"
)

// Migrate creates the students table and its indexes if they do not exist.
// The DDL is portable except for the id column and timestamp types, which
// differ per driver.
func (s *Store) Migrate(ctx context.Context) error {
	var idColumn, timeType string
	switch s.driver {
	case "mysql":
		idColumn = "BIGINT AUTO_INCREMENT PRIMARY KEY"
		timeType = "DATETIME"
	case "postgres":
		idColumn = "BIGSERIAL PRIMARY KEY"
		timeType = "TIMESTAMPTZ"
	default:
		idColumn = "INTEGER PRIMARY KEY AUTOINCREMENT"
		timeType = "DATETIME"
	}

	migrations := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS students (
			id %s,
			name VARCHAR(100) NOT NULL,
			email VARCHAR(100) UNIQUE NOT NULL,
			age INT NOT NULL,
			grade VARCHAR(10) NOT NULL DEFAULT 'XII',
			total_points INT NOT NULL DEFAULT 0,
			created_at %s NOT NULL,
			updated_at %s NOT NULL,
			deleted_at %s NULL
		)`, idColumn, timeType, timeType, timeType),

		`CREATE INDEX IF NOT EXISTS idx_students_email ON students (email)`,
		`CREATE INDEX IF NOT EXISTS idx_students_grade ON students (grade)`,
		`CREATE INDEX IF NOT EXISTS idx_students_deleted ON students (deleted_at)`,
	}

	for _, m := range migrations {
		if s.driver == "mysql" && strings.HasPrefix(m, "CREATE INDEX") {
			// MySQL has no CREATE INDEX IF NOT EXISTS; the UNIQUE constraint
			// already indexes email and the rest are best-effort.
			continue
		}
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migrate students table: %w", err)
		}
	}
	return nil
}

// seedStudents is the sample roster installed by Seed.
var seedStudents = []model.StudentInput{
	{Name: "Ram Sharma", Email: "ram@school.com", Age: 16, Grade: "XI", TotalPoints: 85},
	{Name: "Sita Thapa", Email: "sita@school.com", Age: 17, Grade: "XII", TotalPoints: 92},
	{Name: "Hari Gurung", Email: "hari@school.com", Age: 16, Grade: "XI", TotalPoints: 78},
	{Name: "Gita Rai", Email: "gita@school.com", Age: 17, Grade: "XII", TotalPoints: 88},
	{Name: "Shyam Limbu", Email: "shyam@school.com", Age: 18, Grade: "XII", TotalPoints: 95},
}

// Seed installs the sample roster. It is a no-op when the table already has
// rows, so it is safe to run repeatedly.
func (s *Store) Seed(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM students"); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	for i := range seedStudents {
		if _, err := s.CreateStudent(ctx, &seedStudents[i]); err != nil {
			return i, fmt.Errorf("seed student %q: %w", seedStudents[i].Email, err)
		}
	}
	return len(seedStudents), nil
}
