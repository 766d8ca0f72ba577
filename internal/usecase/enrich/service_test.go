package enrich_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/usecase/enrich"
	"lesnouvelles-feed/tests/fixtures"
)

/* ───────── stubs ───────── */

type stubAnalyzer struct {
	mu          sync.Mutex
	tags        []entity.Tag
	vec         []float32
	tagErr      error
	embedErr    error
	entityTexts []string
	embedTexts  []string
}

func newAnalyzer() *stubAnalyzer {
	return &stubAnalyzer{
		tags: fixtures.Tags("Montréal"),
		vec:  []float32{0.6, 0.8},
	}
}

func (a *stubAnalyzer) ExtractEntities(_ context.Context, text string) ([]entity.Tag, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entityTexts = append(a.entityTexts, text)
	return a.tags, a.tagErr
}

func (a *stubAnalyzer) Embed(_ context.Context, text string) ([]float32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.embedTexts = append(a.embedTexts, text)
	return a.vec, a.embedErr
}

type stubOGP struct {
	ogp   *entity.OGP
	err   error
	links []string
}

func (s *stubOGP) FetchOGP(_ context.Context, link string) (*entity.OGP, error) {
	s.links = append(s.links, link)
	return s.ogp, s.err
}

type stubBanner struct {
	err      error
	captions []string
}

func (s *stubBanner) Render(_ context.Context, imageURL, caption string) (string, error) {
	s.captions = append(s.captions, caption)
	if s.err != nil {
		return "", s.err
	}
	return "data:image/jpeg;base64,AAAA", nil
}

type countingPacer struct {
	calls int
	err   error
}

func (p *countingPacer) Wait(context.Context) error {
	p.calls++
	return p.err
}

type harness struct {
	prompts  *fixtures.PromptStore
	articles *fixtures.ArticleStore
	analyzer *stubAnalyzer
	ogp      *stubOGP
	banner   *stubBanner
	pacer    *countingPacer
	svc      *enrich.Service
}

func newHarness(prompts []*entity.Prompt, articles []*entity.Article) *harness {
	h := &harness{
		prompts:  fixtures.NewPromptStore(prompts...),
		articles: fixtures.NewArticleStore(articles...),
		analyzer: newAnalyzer(),
		ogp:      &stubOGP{ogp: &entity.OGP{Title: "Titre", Image: "https://cdn.example.com/a.jpg"}},
		banner:   &stubBanner{},
		pacer:    &countingPacer{},
	}
	h.svc = &enrich.Service{
		Prompts:  h.prompts,
		Articles: h.articles,
		Analyzer: h.analyzer,
		OGP:      h.ogp,
		Banner:   h.banner,
		Pacer:    h.pacer,
		MaxRetry: enrich.DefaultMaxRetry,
		Now:      func() time.Time { return fixtures.BaseTime },
	}
	return h
}

/* ───────── happy path ───────── */

func TestService_Run_EnrichesPromptsThenArticles(t *testing.T) {
	h := newHarness(
		[]*entity.Prompt{fixtures.NewPrompt("p1", "Le REM, à Montréal!")},
		[]*entity.Article{fixtures.NewArticle("a1", fixtures.WithText("Métro", "Nouvelle ligne"))},
	)

	stats, err := h.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, enrich.KindStats{Selected: 1, Enriched: 1}, stats.Prompts)
	assert.Equal(t, enrich.KindStats{Selected: 1, Enriched: 1}, stats.Articles)
	assert.Equal(t, 1, h.pacer.calls, "no wait before the first item")

	p := h.prompts.Snapshot("p1")
	assert.Equal(t, fixtures.Tags("Montréal"), p.Tags)
	assert.Equal(t, []float32{0.6, 0.8}, p.Embedding)
	assert.Equal(t, 1, p.RetryCount)

	a := h.articles.Snapshot("a1")
	assert.Equal(t, 1, a.RetryCount)
	require.NotNil(t, a.OGP)
	assert.Equal(t, "Titre", a.OGP.Title)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", a.Image)

	assert.Equal(t, []string{"Le REM à Montréal", "Métro Nouvelle ligne"}, h.analyzer.entityTexts)
	assert.Equal(t, "Le REM, à Montréal!", h.analyzer.embedTexts[0])
	assert.Contains(t, h.analyzer.embedTexts[1], `Tags: [{"text":"Montréal","label":"MISC"}]`)
	assert.Equal(t, []string{"https://news.example.com/a1"}, h.ogp.links)
	assert.Equal(t, []string{"© lemonde 2025"}, h.banner.captions)
}

func TestService_Run_Idempotent(t *testing.T) {
	h := newHarness(
		[]*entity.Prompt{fixtures.NewPrompt("p1", "REM")},
		[]*entity.Article{fixtures.NewArticle("a1")},
	)
	_, err := h.svc.Run(context.Background())
	require.NoError(t, err)

	prompt, article := h.prompts.Snapshot("p1"), h.articles.Snapshot("a1")
	promptCalls, articleCalls := h.prompts.UpdateCalls, h.articles.UpdateCalls

	stats, err := h.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.Prompts.Selected)
	assert.Zero(t, stats.Articles.Selected)
	assert.Equal(t, promptCalls, h.prompts.UpdateCalls)
	assert.Equal(t, articleCalls, h.articles.UpdateCalls)
	assert.Equal(t, prompt, h.prompts.Snapshot("p1"))
	assert.Equal(t, article, h.articles.Snapshot("a1"))
}

func TestService_Run_KeepsExistingTags(t *testing.T) {
	h := newHarness(nil, []*entity.Article{
		fixtures.NewArticle("a1", fixtures.WithTags("Québec"), fixtures.WithOGP(&entity.OGP{Title: "t"})),
	})

	_, err := h.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, h.analyzer.entityTexts)
	assert.Len(t, h.analyzer.embedTexts, 1)
	assert.Empty(t, h.ogp.links, "OGP already present")
	assert.Empty(t, h.banner.captions, "no og:image to derive from")
	assert.Equal(t, fixtures.Tags("Québec"), h.articles.Snapshot("a1").Tags)
}

/* ───────── failures ───────── */

func TestService_Run_RetryCeiling(t *testing.T) {
	h := newHarness(nil, []*entity.Article{fixtures.NewArticle("a1")})
	h.analyzer.tagErr = entity.ErrExtractionFailed

	for pass := 1; pass <= 4; pass++ {
		stats, err := h.svc.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Articles.Failed, "pass %d", pass)
		assert.Equal(t, pass, h.articles.Snapshot("a1").RetryCount)
	}

	stats, err := h.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Articles.Selected, "retry_count 4 is past the ceiling")
	assert.Equal(t, 4, h.articles.UpdateCalls)
	assert.Empty(t, h.articles.Snapshot("a1").Tags)
	assert.Len(t, h.analyzer.embedTexts, 0, "embedding waits for tags")
}

func TestService_Run_EmbeddingErrorKeepsTags(t *testing.T) {
	h := newHarness([]*entity.Prompt{fixtures.NewPrompt("p1", "Gaza")}, nil)
	h.analyzer.embedErr = errors.New("provider 503")

	stats, err := h.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Prompts.Failed)
	p := h.prompts.Snapshot("p1")
	assert.Equal(t, fixtures.Tags("Montréal"), p.Tags)
	assert.Empty(t, p.Embedding)
	assert.Equal(t, 1, p.RetryCount)
}

func TestService_Run_EmptyExtractionIsIncomplete(t *testing.T) {
	h := newHarness([]*entity.Prompt{fixtures.NewPrompt("p1", "???")}, nil)
	h.analyzer.tags = nil

	stats, err := h.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Prompts.Incomplete)
	assert.Equal(t, 1, h.prompts.Snapshot("p1").RetryCount)
}

func TestService_Run_DecorationFailuresDoNotAbort(t *testing.T) {
	t.Run("ogp fetch fails", func(t *testing.T) {
		h := newHarness(nil, []*entity.Article{fixtures.NewArticle("no-ogp")})
		h.ogp.err = errors.New("403")

		stats, err := h.svc.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Articles.Enriched)

		a := h.articles.Snapshot("no-ogp")
		assert.NotEmpty(t, a.Tags)
		assert.NotEmpty(t, a.Embedding)
		assert.Nil(t, a.OGP)
		assert.Equal(t, 1, a.RetryCount)
	})

	t.Run("banner fails", func(t *testing.T) {
		h := newHarness(nil, []*entity.Article{fixtures.NewArticle("bad-banner")})
		h.banner.err = errors.New("decode jpeg")

		stats, err := h.svc.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Articles.Enriched)
		assert.Empty(t, h.articles.Snapshot("bad-banner").Image)
		assert.NotNil(t, h.articles.Snapshot("bad-banner").OGP)
	})
}

func TestService_Run_PageWithoutOGPIsNotReselected(t *testing.T) {
	tests := []struct {
		name      string
		article   *entity.Article
		wantRetry int
	}{
		{
			name:      "already enriched",
			article:   fixtures.NewArticle("done", fixtures.WithTags("Québec"), fixtures.WithEmbedding([]float32{1, 0})),
			wantRetry: 0,
		},
		{
			name:      "fresh article",
			article:   fixtures.NewArticle("fresh"),
			wantRetry: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(nil, []*entity.Article{tt.article})
			h.ogp.ogp = &entity.OGP{}

			for pass := 1; pass <= 3; pass++ {
				_, err := h.svc.Run(context.Background())
				require.NoError(t, err, "pass %d", pass)
			}

			a := h.articles.Snapshot(tt.article.ID)
			assert.Equal(t, tt.wantRetry, a.RetryCount)
			assert.Equal(t, tt.wantRetry, h.articles.UpdateCalls)
			assert.Len(t, h.ogp.links, tt.wantRetry)
		})
	}
}

func TestService_Run_ZeroMaxRetry(t *testing.T) {
	h := newHarness([]*entity.Prompt{fixtures.NewPrompt("p1", "REM")}, nil)
	h.svc.MaxRetry = 0
	h.analyzer.tagErr = entity.ErrExtractionFailed

	for pass := 1; pass <= 4; pass++ {
		_, err := h.svc.Run(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, 1, h.prompts.Snapshot("p1").RetryCount, "a single attempt with a ceiling of 0")
	assert.Equal(t, 1, h.prompts.UpdateCalls)
}

func TestService_Run_StoreErrorContinues(t *testing.T) {
	h := newHarness(nil, []*entity.Article{
		fixtures.NewArticle("a1"),
		fixtures.NewArticle("a2", fixtures.WithPublishedAt(time.Minute)),
	})
	h.articles.ErrUpdateEnrichment = errors.New("connection reset")

	stats, err := h.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Articles.StoreErrors)
	assert.Equal(t, 2, h.articles.UpdateCalls)
	assert.Zero(t, h.articles.Snapshot("a1").RetryCount, "nothing was written")
}

func TestService_Run_SelectionErrorSkipsKind(t *testing.T) {
	h := newHarness([]*entity.Prompt{fixtures.NewPrompt("p1", "x")}, []*entity.Article{fixtures.NewArticle("a1")})
	h.prompts.ErrList = errors.New("db timeout")

	stats, err := h.svc.Run(context.Background())
	assert.ErrorIs(t, err, enrich.ErrSelection)
	assert.Equal(t, 1, stats.Articles.Enriched)
	assert.Zero(t, stats.Prompts.Selected)
}

func TestService_Run_BatchSize(t *testing.T) {
	var articles []*entity.Article
	for _, id := range []string{"a", "b", "c", "d"} {
		articles = append(articles, fixtures.NewArticle(id))
	}
	h := newHarness(nil, articles)
	h.svc.BatchSize = 3

	stats, err := h.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Articles.Selected)
	assert.Zero(t, h.articles.Snapshot("d").RetryCount)
}

func TestService_Run_PacerCancellation(t *testing.T) {
	h := newHarness(nil, []*entity.Article{
		fixtures.NewArticle("a1"),
		fixtures.NewArticle("a2", fixtures.WithPublishedAt(time.Minute)),
	})
	h.pacer.err = context.Canceled

	stats, err := h.svc.Run(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, stats.Articles.Enriched)
	assert.Zero(t, h.articles.Snapshot("a2").RetryCount)
}
