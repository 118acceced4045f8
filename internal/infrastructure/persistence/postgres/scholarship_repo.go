package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scholarhub/scholarship-review/internal/domain/scholarship"
	"github.com/scholarhub/scholarship-review/internal/domain/shared"
)

// ScholarshipRepository implements scholarship.Repository using PostgreSQL.
type ScholarshipRepository struct {
	conn *Connection
}

// NewScholarshipRepository creates a new PostgreSQL scholarship repository.
func NewScholarshipRepository(conn *Connection) *ScholarshipRepository {
	return &ScholarshipRepository{conn: conn}
}

var _ scholarship.Repository = (*ScholarshipRepository)(nil)

const scholarshipColumns = `id, name, sponsor, amount, status, start_date, end_date`

// GetByID retrieves a scholarship by ID.
func (r *ScholarshipRepository) GetByID(ctx context.Context, id string) (*scholarship.Scholarship, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, shared.ErrScholarshipNotFound
	}

	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	row := r.conn.QueryRow(ctx, `SELECT `+scholarshipColumns+` FROM scholarships WHERE id = $1`, id)
	s, err := scanScholarship(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrScholarshipNotFound
		}
		return nil, wrapStoreError("scholarship", "GetByID", err)
	}
	return s, nil
}

// Count returns the total number of scholarships.
func (r *ScholarshipRepository) Count(ctx context.Context) (int, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	var count int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM scholarships`).Scan(&count); err != nil {
		return 0, wrapStoreError("scholarship", "Count", err)
	}
	return count, nil
}

// ListOpen returns open scholarships in the requested order.
func (r *ScholarshipRepository) ListOpen(ctx context.Context, order scholarship.SortOrder, limit int) ([]*scholarship.Scholarship, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	orderBy := "start_date DESC, id"
	if order == scholarship.ClosingSoonFirst {
		orderBy = "end_date ASC, id"
	}

	query := fmt.Sprintf(`SELECT %s FROM scholarships WHERE status = 'Open' ORDER BY %s`, scholarshipColumns, orderBy)
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapStoreError("scholarship", "ListOpen", err)
	}
	defer rows.Close()

	items := make([]*scholarship.Scholarship, 0)
	for rows.Next() {
		s, err := scanScholarship(rows)
		if err != nil {
			return nil, wrapStoreError("scholarship", "ListOpen", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError("scholarship", "ListOpen", err)
	}
	return items, nil
}

func scanScholarship(row pgx.Row) (*scholarship.Scholarship, error) {
	var (
		s      scholarship.Scholarship
		status string
	)
	err := row.Scan(&s.ID, &s.Name, &s.Sponsor, &s.Amount, &status, &s.StartDate, &s.EndDate)
	if err != nil {
		return nil, err
	}
	s.Status = scholarship.Status(status)
	return &s, nil
}
