package postgres

import (
	"fmt"

	"github.com/scholarhub/scholarship-review/internal/domain/eligibility"
)

// ══════════════════════════════════════════════════════════════════════════════
// ELIGIBILITY PREDICATE
// The only place the eligibility filter is translated to SQL. The listing,
// the aggregate count, the unseen count and the acknowledgment all embed the
// fragment produced here against the "s" (students) alias.
// ══════════════════════════════════════════════════════════════════════════════

// eligibilityPredicate returns the WHERE fragment and its arguments.
// firstArg is the placeholder number of the first argument.
func eligibilityPredicate(filter eligibility.Filter, firstArg int) (string, []any) {
	clause := fmt.Sprintf("s.family_income <= $%d AND s.academic_score <= $%d", firstArg, firstArg+1)
	return clause, []any{filter.IncomeLimit, filter.ScoreLimit}
}

const reviewColumns = `
	a.id, a.student_id, a.scholarship_id, a.status, a.admin_seen, a.remarks,
	a.date_applied, a.updated_at,
	COALESCE((
		SELECT array_agg(d.path ORDER BY d.position)
		FROM application_documents d
		WHERE d.application_id = a.id
	), '{}'::text[]) AS documents,
	s.first_name, s.last_name, s.family_income, s.academic_score,
	sc.name
`

// listQualifyingSQL builds the review listing query, newest first.
func listQualifyingSQL(filter eligibility.Filter, limit, offset int) (string, []any) {
	pred, args := eligibilityPredicate(filter, 1)
	query := fmt.Sprintf(`
		SELECT %s
		FROM applications a
		JOIN students s ON s.id = a.student_id
		JOIN scholarships sc ON sc.id = a.scholarship_id
		WHERE %s
		ORDER BY a.date_applied DESC, a.id DESC`, reviewColumns, pred)

	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf("\n\t\tLIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf("\n\t\tOFFSET $%d", len(args))
	}
	return query, args
}

// countQualifyingSQL builds the aggregate count of qualifying applications.
func countQualifyingSQL(filter eligibility.Filter) (string, []any) {
	pred, args := eligibilityPredicate(filter, 1)
	return fmt.Sprintf(`
		SELECT COUNT(*)
		FROM applications a
		JOIN students s ON s.id = a.student_id
		WHERE %s`, pred), args
}

// countUnseenSQL builds the notification count.
func countUnseenSQL(filter eligibility.Filter) (string, []any) {
	pred, args := eligibilityPredicate(filter, 1)
	return fmt.Sprintf(`
		SELECT COUNT(*)
		FROM applications a
		JOIN students s ON s.id = a.student_id
		WHERE a.status = 'Pending' AND a.admin_seen = FALSE AND %s`, pred), args
}

// markSeenSQL builds the acknowledgment update. It is a single statement, so
// rows inserted after it takes its snapshot stay unseen.
func markSeenSQL(filter eligibility.Filter) (string, []any) {
	pred, args := eligibilityPredicate(filter, 1)
	return fmt.Sprintf(`
		UPDATE applications a
		SET admin_seen = TRUE
		FROM students s
		WHERE s.id = a.student_id
			AND a.status = 'Pending' AND a.admin_seen = FALSE
			AND %s`, pred), args
}
