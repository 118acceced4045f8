package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scholarhub/scholarship-review/internal/domain/shared"
	"github.com/scholarhub/scholarship-review/internal/domain/student"
)

// StudentRepository implements student.Repository using PostgreSQL.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new PostgreSQL student repository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

var _ student.Repository = (*StudentRepository)(nil)

const studentColumns = `id, first_name, last_name, email, school_name, course, family_income, academic_score, created_at, updated_at`

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*student.Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, shared.ErrStudentNotFound
	}

	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	row := r.conn.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	s, err := scanStudent(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrStudentNotFound
		}
		return nil, wrapStoreError("student", "GetByID", err)
	}
	return s, nil
}

// Count returns the total number of students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	var count int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM students`).Scan(&count); err != nil {
		return 0, wrapStoreError("student", "Count", err)
	}
	return count, nil
}

// ListNewest returns the most recently registered students.
func (r *StudentRepository) ListNewest(ctx context.Context, limit int) ([]*student.Student, error) {
	if limit <= 0 {
		limit = 5
	}

	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	rows, err := r.conn.Query(ctx,
		`SELECT `+studentColumns+` FROM students ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, wrapStoreError("student", "ListNewest", err)
	}
	defer rows.Close()

	students := make([]*student.Student, 0, limit)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, wrapStoreError("student", "ListNewest", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError("student", "ListNewest", err)
	}
	return students, nil
}

func scanStudent(row pgx.Row) (*student.Student, error) {
	var s student.Student
	err := row.Scan(
		&s.ID, &s.FirstName, &s.LastName, &s.Email, &s.SchoolName, &s.Course,
		&s.FamilyIncome, &s.AcademicScore, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
