package pdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"malinoise/internal/models"
)

func TestGenerateUserReport(t *testing.T) {
	g := NewReportGenerator()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	out, err := g.GenerateUserReport(UserReportData{
		GeneratedBy: "ceo@example.com",
		GeneratedAt: now,
		Users: []*models.User{
			{ID: 1, Email: "alice@example.com", Name: "Alice", Role: "user", IsVerified: true, CreatedAt: now},
			{ID: 2, Email: "bob@example.com", Name: "Bob", Role: "user", CreatedAt: now},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestGenerateUserReportEmpty(t *testing.T) {
	g := NewReportGenerator()

	out, err := g.GenerateUserReport(UserReportData{
		GeneratedBy: "ceo@example.com",
		GeneratedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}
