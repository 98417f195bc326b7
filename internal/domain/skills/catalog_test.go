package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplements(t *testing.T) {
	list, ok := Complements("Frontend Development")
	require.True(t, ok)
	assert.Equal(t, []string{"Backend Development", "UI/UX Design"}, list)

	_, ok = Complements("Basket Weaving")
	assert.False(t, ok)
}

func TestComplements_ReturnsCopy(t *testing.T) {
	list, ok := Complements("Swift")
	require.True(t, ok)
	list[0] = "Mutated"

	again, _ := Complements("Swift")
	assert.Equal(t, "UI/UX Design", again[0])
}

// Таблица общая для подбора и рекомендаций: ключи, которые раньше были
// только у подбора, и расширенный список Project Management присутствуют.
func TestCatalog_UnifiedKeys(t *testing.T) {
	assert.True(t, IsKnown("Frontend Development"))
	assert.True(t, IsKnown("iOS Development"))
	assert.True(t, IsKnown("Swift"))
	assert.False(t, IsKnown("Cooking"))

	pm, ok := Complements("Project Management")
	require.True(t, ok)
	assert.Equal(t, []string{"Technical Writing", "Business Analysis"}, pm[:2])
	assert.Contains(t, pm, "Communication")
	assert.Contains(t, pm, "Leadership")
}

func TestComplementaryFor(t *testing.T) {
	tests := []struct {
		name      string
		reference []string
		candidate []string
		want      []string
	}{
		{
			name:      "ordered by reference skills then table order",
			reference: []string{"Swift", "UI/UX Design"},
			candidate: []string{"React", "UI/UX Design", "Backend Development", "Swift"},
			want:      []string{"UI/UX Design", "Backend Development", "Swift", "React"},
		},
		{
			name:      "duplicates collapsed",
			reference: []string{"Backend Development", "Mobile Development", "Backend Development"},
			candidate: []string{"UI/UX Design", "Frontend Development"},
			want:      []string{"Frontend Development", "UI/UX Design"},
		},
		{
			name:      "directional",
			reference: []string{"Statistics"},
			candidate: []string{"Data Science"},
			want:      []string{},
		},
		{
			name:      "empty reference",
			reference: nil,
			candidate: []string{"Python"},
			want:      []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComplementaryFor(tt.reference, tt.candidate))
		})
	}
}
