package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/infra/catalog"
)

const sample = `
sources:
  lemonde:
    title: Le Monde
    rss:
      - url: https://www.lemonde.fr/rss/une.xml
        category: International
  ledevoir:
    title: Le Devoir
    rss:
      - url: https://www.ledevoir.com/rss/manchettes.xml
        category: Actualités
      - url: https://www.ledevoir.com/rss/section/culture.xml
        category: Culture
    frontpage:
      - https://www.ledevoir.com/rss/manchettes.xml
`

func TestParse(t *testing.T) {
	sources, err := catalog.Parse([]byte(sample))
	require.NoError(t, err)

	require.Len(t, sources, 2)
	assert.Equal(t, entity.Source{
		Key:   "ledevoir",
		Title: "Le Devoir",
		Feeds: []entity.FeedRef{
			{URL: "https://www.ledevoir.com/rss/manchettes.xml", Category: "Actualités"},
			{URL: "https://www.ledevoir.com/rss/section/culture.xml", Category: "Culture"},
		},
		Frontpage: []string{"https://www.ledevoir.com/rss/manchettes.xml"},
	}, sources[0])
	assert.Equal(t, "lemonde", sources[1].Key)
	assert.Empty(t, sources[1].Frontpage)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{name: "empty", doc: "sources: {}", want: catalog.ErrEmpty},
		{
			name: "missing title",
			doc:  "sources:\n  x:\n    rss:\n      - url: https://x.example/rss\n        category: a\n",
			want: entity.ErrValidationFailed,
		},
		{
			name: "missing category",
			doc:  "sources:\n  x:\n    title: X\n    rss:\n      - url: https://x.example/rss\n",
			want: entity.ErrValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := catalog.Parse([]byte("sources: ["))
	assert.Error(t, err)
}

func TestCatalog_ReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	c, err := catalog.New(path)
	require.NoError(t, err)
	assert.Len(t, c.Sources(), 2)

	require.NoError(t, os.WriteFile(path, []byte("sources: {}"), 0o600))
	assert.ErrorIs(t, c.Reload(), catalog.ErrEmpty)
	assert.Len(t, c.Sources(), 2)
}

func TestCatalog_Watch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	c, err := catalog.New(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx, 20*time.Millisecond) }()

	single := "sources:\n  lapresse:\n    title: La Presse\n"
	require.Eventually(t, func() bool {
		// rewrite until the watcher is registered and picks it up
		_ = os.WriteFile(path, []byte(single), 0o600)
		return len(c.Sources()) == 1
	}, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, "lapresse", c.Sources()[0].Key)

	cancel()
	assert.NoError(t, <-done)
}

func TestStatic(t *testing.T) {
	c := catalog.Static([]entity.Source{{Key: "a"}})
	assert.Equal(t, "a", c.Sources()[0].Key)
}
