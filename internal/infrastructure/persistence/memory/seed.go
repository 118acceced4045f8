package memory

import (
	"time"

	"github.com/google/uuid"

	"github.com/scholarhub/scholarship-review/internal/domain/scholarship"
	"github.com/scholarhub/scholarship-review/internal/domain/student"
)

// Demo holds the identifiers created by SeedDemo.
type Demo struct {
	StudentIDs     []string
	ScholarshipIDs []string
}

// SeedDemo fills an empty store with two students and two open scholarships
// so that a STORAGE_DRIVER=memory server can be exercised by hand.
// Student profiles start at the worst score, like a fresh database row.
func SeedDemo(s *Store, now time.Time) Demo {
	now = now.UTC()
	var demo Demo

	for _, row := range [][4]string{
		{"Aigerim", "Sadykova", "Almaty State University", "BS Computer Science"},
		{"Daniyar", "Omarov", "Karaganda Technical University", "BS Civil Engineering"},
	} {
		id := uuid.NewString()
		s.PutStudent(student.Student{
			ID:            id,
			FirstName:     row[0],
			LastName:      row[1],
			Email:         id[:8] + "@students.example",
			SchoolName:    row[2],
			Course:        row[3],
			AcademicScore: student.MaxAcademicScore,
			CreatedAt:     now,
		})
		demo.StudentIDs = append(demo.StudentIDs, id)
	}

	for i, name := range []string{"Merit Grant", "Community Bursary"} {
		id := uuid.NewString()
		s.PutScholarship(scholarship.Scholarship{
			ID:        id,
			Name:      name,
			Sponsor:   "Alumni Fund",
			Amount:    float64(10000 * (i + 1)),
			Status:    scholarship.StatusOpen,
			StartDate: now.AddDate(0, 0, -7*(i+1)),
			EndDate:   now.AddDate(0, 1, i),
		})
		demo.ScholarshipIDs = append(demo.ScholarshipIDs, id)
	}

	return demo
}
