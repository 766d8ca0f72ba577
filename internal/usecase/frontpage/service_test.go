package frontpage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/usecase/frontpage"
	"lesnouvelles-feed/tests/fixtures"
)

type staticCatalog []entity.Source

func (c staticCatalog) Sources() []entity.Source { return c }

type stubFeeds struct {
	feeds map[string][]string
	errs  map[string]error
	calls []string
}

func (f *stubFeeds) Fetch(_ context.Context, url string) ([]entity.FeedItem, error) {
	f.calls = append(f.calls, url)
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	var items []entity.FeedItem
	for _, link := range f.feeds[url] {
		items = append(items, entity.FeedItem{Link: link})
	}
	return items, nil
}

type countingPacer struct{ calls int }

func (p *countingPacer) Wait(context.Context) error {
	p.calls++
	return nil
}

func TestService_Run(t *testing.T) {
	store := fixtures.NewArticleStore(
		fixtures.NewArticle("d1", fixtures.WithLink("https://ledevoir.example/1"), fixtures.WithSource("ledevoir", "x")),
		fixtures.NewArticle("d2", fixtures.WithLink("https://ledevoir.example/2"), fixtures.WithSource("ledevoir", "x")),
		fixtures.NewArticle("m1", fixtures.WithLink("https://lemonde.example/1"), fixtures.WithSource("lemonde", "x"), fixtures.WithFrontpageRank(1)),
		fixtures.NewArticle("p1", fixtures.WithLink("https://presse.example/1"), fixtures.WithSource("presse", "x")),
	)
	feeds := &stubFeeds{
		feeds: map[string][]string{
			"https://ledevoir.example/une.xml":   {"https://ledevoir.example/2"},
			"https://ledevoir.example/autre.xml": {"https://ledevoir.example/1"},
		},
		errs: map[string]error{"https://lemonde.example/une.xml": errors.New("502")},
	}
	pacer := &countingPacer{}
	svc := &frontpage.Service{
		Catalog: staticCatalog{
			{Key: "ledevoir", Frontpage: []string{"https://ledevoir.example/une.xml", "https://ledevoir.example/autre.xml"}},
			{Key: "lemonde", Frontpage: []string{"https://lemonde.example/une.xml"}},
			{Key: "presse"},
		},
		Feeds:  feeds,
		Ranker: frontpage.Ranker{Articles: store},
		Pacer:  pacer,
	}

	stats, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Sources)
	assert.EqualValues(t, 2, stats.Ranked)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2, pacer.calls)
	assert.Len(t, feeds.calls, 3)

	assert.Equal(t, 1, store.Snapshot("d2").FrontpageRank)
	assert.Equal(t, 2, store.Snapshot("d1").FrontpageRank)
	assert.Equal(t, 1, store.Snapshot("m1").FrontpageRank, "failed fetch keeps previous ranks")
	assert.Equal(t, 0, store.Snapshot("p1").FrontpageRank)
}

func TestService_Run_RankError(t *testing.T) {
	store := fixtures.NewArticleStore()
	store.ErrRank = errors.New("conn closed")
	svc := &frontpage.Service{
		Catalog: staticCatalog{{Key: "ledevoir", Frontpage: []string{"https://ledevoir.example/une.xml"}}},
		Feeds:   &stubFeeds{},
		Ranker:  frontpage.Ranker{Articles: store},
	}

	stats, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
}
