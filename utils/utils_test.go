package utils

import (
	"context"
	"testing"

	"github.com/princinho/stackforum/models"
	"github.com/princinho/stackforum/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSlug(t *testing.T) {
	tests := map[string]string{
		"SQL":              "sql",
		"  Node.js ":       "node.js",
		"C++":              "c++",
		"Café Crème":       "cafe-creme",
		"react / hooks":    "react-hooks",
		"---":              "",
		"Machine Learning": "machine-learning",
	}
	for in, want := range tests {
		assert.Equal(t, want, GenerateSlug(in), in)
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{"React", "react", "", "  ", "Database", "SQL"})
	assert.Equal(t, []string{"react", "database", "sql"}, got)
	assert.Empty(t, NormalizeTags(nil))
}

func TestPage(t *testing.T) {
	tests := []struct {
		page, limit         string
		wantPage, wantLimit int
	}{
		{"", "", 1, 20},
		{"3", "50", 3, 50},
		{"0", "500", 1, 20},
		{"x", "-1", 1, 20},
	}
	for _, tt := range tests {
		p, l := Page(tt.page, tt.limit, 20, 100)
		assert.Equal(t, tt.wantPage, p)
		assert.Equal(t, tt.wantLimit, l)
	}
}

func TestParseBoolQuery(t *testing.T) {
	b, err := ParseBoolQuery("")
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = ParseBoolQuery("true")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.True(t, *b)

	_, err = ParseBoolQuery("maybe")
	assert.Error(t, err)
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.NoError(t, CheckPassword(hash, "s3cret-pass"))
	assert.Error(t, CheckPassword(hash, "wrong"))
}

func TestCheckNoAccount(t *testing.T) {
	assert.Error(t, CheckNoAccount("no-such-account"))
	assert.Error(t, CheckNoAccount("anything"))
}

func TestSeedAdminUser(t *testing.T) {
	ctx := context.Background()
	users := repositories.NewMemoryUsers()

	require.Error(t, SeedAdminUser(ctx, users, "", "pw", "Admin"))

	require.NoError(t, SeedAdminUser(ctx, users, " Admin@Example.com", "pw-123456", "Admin"))
	require.NoError(t, SeedAdminUser(ctx, users, "admin@example.com", "other", "Admin"))

	u, err := users.FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.NoError(t, CheckPassword(u.PasswordHash, "pw-123456"))
}
