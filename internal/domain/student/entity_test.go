package student

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarhub/scholarship-review/internal/domain/shared"
)

func TestNewProfile(t *testing.T) {
	p, err := NewProfile(15000, 2.25)
	require.NoError(t, err)
	assert.Equal(t, 15000.0, p.FamilyIncome)
	assert.Equal(t, 2.25, p.AcademicScore)

	_, err = NewProfile(0, 2.00)
	assert.ErrorIs(t, err, shared.ErrInvalidIncome)

	for _, score := range []float64{0.75, 5.25, 2.10} {
		_, err = NewProfile(15000, score)
		assert.ErrorIs(t, err, shared.ErrInvalidAcademicScore, "score %v", score)
	}
}

func TestApplyProfile(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := &Student{FirstName: "Aru", LastName: "Bek", AcademicScore: MaxAcademicScore}

	p, err := NewProfile(18000, 1.75)
	require.NoError(t, err)
	s.ApplyProfile(p, now)

	assert.Equal(t, p, s.Profile())
	assert.Equal(t, now, s.UpdatedAt)
	assert.Equal(t, "Aru Bek", s.FullName())
}
