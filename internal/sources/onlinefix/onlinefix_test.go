package onlinefix_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/rockaxx/freegames/internal/fetcher"
	"github.com/rockaxx/freegames/internal/game"
	"github.com/rockaxx/freegames/internal/logger"
	"github.com/rockaxx/freegames/internal/scrape"
	"github.com/rockaxx/freegames/internal/sources"
	"github.com/rockaxx/freegames/internal/sources/mocks"
	"github.com/rockaxx/freegames/internal/sources/onlinefix"
)

func fixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(b)
}

func newAdapter(t *testing.T) (*onlinefix.Adapter, *mocks.MockPageFetcher) {
	t.Helper()
	f := mocks.NewMockPageFetcher(gomock.NewController(t))
	return onlinefix.New(f, sources.Settings{Concurrency: 3}, logger.NewNop()), f
}

func TestAdapter_SearchDecodesWindows1251(t *testing.T) {
	t.Parallel()

	a, f := newAdapter(t)
	f.EXPECT().
		Fetch(gomock.Any(),
			"https://online-fix.me/index.php?do=search&subaction=search&story=hades",
			fetcher.Options{Charset: "windows-1251"}).
		Return(fixture(t, "search.html"), nil)

	stubs, err := a.Search(context.Background(), "hades")
	require.NoError(t, err)
	require.Len(t, stubs, 2)

	assert.Equal(t, game.Stub{
		Source:    game.OnlineFix,
		Title:     "Hades II по сети",
		URL:       "https://online-fix.me/games/action/16512-hades-ii-po-seti.html",
		Thumbnail: "https://online-fix.me/uploads/posts/hades-ii.jpg",
	}, stubs[0])
	assert.Equal(t, "Hades по сети", stubs[1].Title)
	assert.Equal(t, "https://online-fix.me/games/action/9000-hades-po-seti.html", stubs[1].URL)
}

func TestAdapter_Listing(t *testing.T) {
	t.Parallel()

	a, f := newAdapter(t)
	f.EXPECT().Fetch(gomock.Any(), "https://online-fix.me/", gomock.Any()).Return(fixture(t, "search.html"), nil)

	stubs, err := a.Listing(context.Background(), a.Homepage())
	require.NoError(t, err)
	assert.Len(t, stubs, 3)
}

func TestAdapter_Detail(t *testing.T) {
	t.Parallel()

	a, f := newAdapter(t)
	stub := game.Stub{Source: game.OnlineFix, Title: "Hades II", URL: "https://online-fix.me/games/action/16512-hades-ii-po-seti.html"}
	f.EXPECT().Fetch(gomock.Any(), stub.URL, gomock.Any()).Return(fixture(t, "detail.html"), nil)

	rec, err := a.Detail(context.Background(), stub)
	require.NoError(t, err)

	assert.Equal(t, "Hades II по сети", rec.Title)
	assert.Equal(t, "https://online-fix.me/uploads/posts/hades-ii-full.jpg", rec.Poster)
	assert.Equal(t, "Продолжение культового рогалика от Supergiant Games.", rec.Description)
	assert.Equal(t, "25.09.2025", rec.ReleaseDate)
	assert.Equal(t, "1.33.0.19001", rec.Version, "the edit note is searched before the article body")
	assert.Equal(t, []string{
		"https://online-fix.me/uploads/screens/1.jpg",
		"https://online-fix.me/uploads/screens/2.jpg",
	}, rec.Screenshots)
	assert.Equal(t, "https://www.youtube.com/embed/l-iHDj3EwdI", rec.Trailer)
	assert.Empty(t, rec.DownloadLinks)
	assert.Empty(t, rec.Missing)
}

func TestExtractVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "english update note",
			html: `<div class="edit">Game updated to version 2.1.0b.</div>`,
			want: "2.1.0b",
		},
		{
			name: "version label",
			html: `<article>Version: 0.9.12-beta</article>`,
			want: "0.9.12-beta",
		},
		{
			name: "russian update note",
			html: `<div itemprop="articleBody">Игра обновлена до версии 1.4.2. Приятной игры!</div>`,
			want: "1.4.2",
		},
		{
			name: "russian label",
			html: `<div class="entry-content">Версия: 3.0</div>`,
			want: "3.0",
		},
		{
			name: "bare four part number",
			html: `<p>Сборка 1.0.5.1234 от 12 марта</p>`,
			want: "1.0.5.1234",
		},
		{
			name: "nothing",
			html: `<p>Нет данных</p>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := scrape.Parse(tt.html)
			require.NoError(t, err)
			assert.Equal(t, tt.want, onlinefix.ExtractVersion(doc, tt.html))
		})
	}
}
