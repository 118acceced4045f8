package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scholarhub/scholarship-review/internal/domain/application"
	"github.com/scholarhub/scholarship-review/internal/domain/eligibility"
	"github.com/scholarhub/scholarship-review/internal/domain/shared"
)

// ApplicationRepository implements application.Store using PostgreSQL.
type ApplicationRepository struct {
	conn *Connection
}

// NewApplicationRepository creates a new PostgreSQL application repository.
func NewApplicationRepository(conn *Connection) *ApplicationRepository {
	return &ApplicationRepository{conn: conn}
}

// Compile-time interface check.
var _ application.Store = (*ApplicationRepository)(nil)

// ══════════════════════════════════════════════════════════════════════════════
// SINGLE APPLICATION
// ══════════════════════════════════════════════════════════════════════════════

// FindApplication retrieves an application with its documents.
func (r *ApplicationRepository) FindApplication(ctx context.Context, id string) (*application.Application, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, shared.ErrApplicationNotFound
	}

	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT a.id, a.student_id, a.scholarship_id, a.status, a.admin_seen, a.remarks,
			a.date_applied, a.updated_at,
			COALESCE((
				SELECT array_agg(d.path ORDER BY d.position)
				FROM application_documents d
				WHERE d.application_id = a.id
			), '{}'::text[])
		FROM applications a
		WHERE a.id = $1
	`

	var (
		app    application.Application
		status string
	)
	err := r.conn.QueryRow(ctx, query, id).Scan(
		&app.ID, &app.StudentID, &app.ScholarshipID, &status, &app.AdminSeen, &app.Remarks,
		&app.DateApplied, &app.UpdatedAt, &app.Documents,
	)
	if err != nil {
		if IsNoRows(err) || IsInvalidText(err) {
			return nil, shared.ErrApplicationNotFound
		}
		return nil, wrapStoreError("application", "FindApplication", err)
	}
	app.Status = application.Status(status)

	return &app, nil
}

// UpdateStatus changes the status of a single application.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status application.Status) (int64, error) {
	if _, err := uuid.Parse(id); err != nil {
		return 0, nil
	}

	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	tag, err := r.conn.Exec(ctx, `UPDATE applications SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return 0, wrapStoreError("application", "UpdateStatus", err)
	}
	return tag.RowsAffected(), nil
}

// UpdateStatusAndRemarks changes status and remarks in one statement.
func (r *ApplicationRepository) UpdateStatusAndRemarks(ctx context.Context, id string, status application.Status, remarks string) (int64, error) {
	if _, err := uuid.Parse(id); err != nil {
		return 0, nil
	}

	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	tag, err := r.conn.Exec(ctx,
		`UPDATE applications SET status = $2, remarks = $3 WHERE id = $1`,
		id, string(status), remarks,
	)
	if err != nil {
		return 0, wrapStoreError("application", "UpdateStatusAndRemarks", err)
	}
	return tag.RowsAffected(), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// QUALIFYING VIEWS
// ══════════════════════════════════════════════════════════════════════════════

// ListQualifyingApplications returns qualifying applications, newest first.
func (r *ApplicationRepository) ListQualifyingApplications(ctx context.Context, filter eligibility.Filter, opts application.ListOptions) ([]application.Review, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	query, args := listQualifyingSQL(filter, opts.Limit, opts.Offset)
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapStoreError("application", "ListQualifyingApplications", err)
	}
	defer rows.Close()

	reviews, err := scanReviews(rows)
	if err != nil {
		return nil, wrapStoreError("application", "ListQualifyingApplications", err)
	}
	return reviews, nil
}

// CountQualifyingApplications returns the number of qualifying applications.
func (r *ApplicationRepository) CountQualifyingApplications(ctx context.Context, filter eligibility.Filter) (int, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	query, args := countQualifyingSQL(filter)
	var count int
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, wrapStoreError("application", "CountQualifyingApplications", err)
	}
	return count, nil
}

// CountUnseenQualifyingPending returns the notification count.
func (r *ApplicationRepository) CountUnseenQualifyingPending(ctx context.Context, filter eligibility.Filter) (int, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	query, args := countUnseenSQL(filter)
	var count int
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, wrapStoreError("application", "CountUnseenQualifyingPending", err)
	}
	return count, nil
}

// MarkAllPendingSeen flips admin_seen for every qualifying pending unseen row.
func (r *ApplicationRepository) MarkAllPendingSeen(ctx context.Context, filter eligibility.Filter) (int64, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	query, args := markSeenSQL(filter)
	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, wrapStoreError("application", "MarkAllPendingSeen", err)
	}
	return tag.RowsAffected(), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSION
// ══════════════════════════════════════════════════════════════════════════════

// Submit stores the student's declared profile, the application and its
// documents in one transaction.
func (r *ApplicationRepository) Submit(ctx context.Context, sub application.Submission) error {
	app := sub.Application
	if app == nil {
		return shared.NewDomainError("application", "Submit", shared.ErrEmptyValue, "application is required")
	}
	if _, err := uuid.Parse(app.StudentID); err != nil {
		return shared.ErrStudentNotFound
	}
	if _, err := uuid.Parse(app.ScholarshipID); err != nil {
		return shared.ErrScholarshipNotFound
	}

	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE students
			SET family_income = $2, academic_score = $3, updated_at = NOW()
			WHERE id = $1`,
			app.StudentID, sub.Profile.FamilyIncome, sub.Profile.AcademicScore,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrStudentNotFound
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO applications (id, student_id, scholarship_id, status, admin_seen, remarks, date_applied, updated_at)
			VALUES ($1, $2, $3, $4, FALSE, '', $5, $5)`,
			app.ID, app.StudentID, app.ScholarshipID, string(app.Status), app.DateApplied,
		)
		if err != nil {
			return err
		}

		if len(app.Documents) == 0 {
			return nil
		}
		rows := make([][]any, len(app.Documents))
		for i, path := range app.Documents {
			rows[i] = []any{app.ID, int16(i + 1), path}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"application_documents"},
			[]string{"application_id", "position", "path"},
			pgx.CopyFromRows(rows),
		)
		return err
	})

	switch {
	case err == nil:
		return nil
	case IsUniqueViolation(err):
		return shared.ErrApplicationAlreadyExists
	case IsForeignKeyViolation(err):
		return shared.ErrScholarshipNotFound
	case shared.IsNotFound(err):
		return err
	default:
		return wrapStoreError("application", "Submit", err)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER FUNCTIONS
// ══════════════════════════════════════════════════════════════════════════════

func scanReviews(rows pgx.Rows) ([]application.Review, error) {
	reviews := make([]application.Review, 0)

	for rows.Next() {
		var (
			rv          application.Review
			status      string
			dateApplied time.Time
			updatedAt   time.Time
		)
		err := rows.Scan(
			&rv.Application.ID, &rv.Application.StudentID, &rv.Application.ScholarshipID,
			&status, &rv.Application.AdminSeen, &rv.Application.Remarks,
			&dateApplied, &updatedAt, &rv.Application.Documents,
			&rv.Student.FirstName, &rv.Student.LastName,
			&rv.Student.FamilyIncome, &rv.Student.AcademicScore,
			&rv.Scholarship.Name,
		)
		if err != nil {
			return nil, err
		}

		rv.Application.Status = application.Status(status)
		rv.Application.DateApplied = dateApplied
		rv.Application.UpdatedAt = updatedAt
		rv.Student.ID = rv.Application.StudentID
		rv.Scholarship.ID = rv.Application.ScholarshipID
		reviews = append(reviews, rv)
	}

	return reviews, rows.Err()
}
