package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sandevgo/emilia/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Greater(t, c.Len(), 0)
	counts := c.CountByCategory()
	for _, cat := range []core.Category{core.CategoryMindfulness, core.CategoryAcademic, core.CategoryMotivation, core.CategoryCrisis} {
		assert.Greater(t, counts[cat], 0, "category %s", cat)
	}

	item, ok := c.Get("mind-body-scan")
	require.True(t, ok)
	assert.NotContains(t, item.Summary, "<p>")
	assert.Contains(t, item.Summary, "release tension")
}

func TestParse_JSON(t *testing.T) {
	doc := `{"items":[{"id":"a","category":"academic","title":"A","reference":"https://example.com",
	"trigger":{"valence":{"min":-0.5,"max":0.5},"arousal":{"min":0,"max":1}}}]}`

	c, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, core.CategoryAcademic, c.Items()[0].Category)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "empty",
			doc:     "",
			wantErr: "catalog is empty",
		},
		{
			name:    "unknown field",
			doc:     "items:\n  - id: a\n    colour: red\n",
			wantErr: "colour",
		},
		{
			name: "duplicate id",
			doc: `items:
  - {id: a, category: academic, title: A, trigger: {valence: {min: 0, max: 0}, arousal: {min: 0, max: 0}}}
  - {id: a, category: academic, title: B, trigger: {valence: {min: 0, max: 0}, arousal: {min: 0, max: 0}}}
`,
			wantErr: "duplicate id",
		},
		{
			name: "unknown category",
			doc: `items:
  - {id: a, category: poetry, title: A, trigger: {valence: {min: 0, max: 0}, arousal: {min: 0, max: 0}}}
`,
			wantErr: "unknown category",
		},
		{
			name: "inverted range",
			doc: `items:
  - {id: a, category: academic, title: A, trigger: {valence: {min: 0.5, max: 0}, arousal: {min: 0, max: 0}}}
`,
			wantErr: "greater than max",
		},
		{
			name: "arousal out of bounds",
			doc: `items:
  - {id: a, category: academic, title: A, trigger: {valence: {min: 0, max: 0}, arousal: {min: -0.5, max: 0}}}
`,
			wantErr: "arousal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := "items:\n  - {id: x, category: motivation, title: X, trigger: {valence: {min: 0, max: 1}, arousal: {min: 0, max: 1}}}\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	_, ok := c.Get("x")
	assert.True(t, ok)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	c, err = Load("")
	require.NoError(t, err)
	assert.Greater(t, c.Len(), 1)
}
