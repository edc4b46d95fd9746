package aggregator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/rockaxx/freegames/internal/aggregator"
	"github.com/rockaxx/freegames/internal/game"
	"github.com/rockaxx/freegames/internal/logger"
	"github.com/rockaxx/freegames/internal/metrics"
	"github.com/rockaxx/freegames/internal/sources"
	"github.com/rockaxx/freegames/internal/sources/mocks"
)

func newAdapter(ctrl *gomock.Controller, src game.Source) *mocks.MockAdapter {
	a := mocks.NewMockAdapter(ctrl)
	a.EXPECT().Source().Return(src).AnyTimes()
	a.EXPECT().Concurrency().Return(2).AnyTimes()
	a.EXPECT().Homepage().Return("https://" + src.Key() + ".test/").AnyTimes()
	return a
}

func stub(src game.Source, slug string) game.Stub {
	return game.Stub{
		Source:    src,
		Title:     slug,
		URL:       "https://" + src.Key() + ".test/" + slug,
		Thumbnail: "https://" + src.Key() + ".test/" + slug + ".jpg",
	}
}

func record(s game.Stub) game.Record {
	rec := game.Record{Stub: s, Description: "detail of " + s.Title}
	rec.Normalize()
	return rec
}

func drain(t *testing.T, s *aggregator.Stream) []aggregator.Event {
	t.Helper()
	var events []aggregator.Event
	for ev := range s.Events() {
		events = append(events, ev)
	}
	return events
}

func types(events []aggregator.Event) []aggregator.EventType {
	out := make([]aggregator.EventType, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

func items(events []aggregator.Event) []game.Record {
	var out []game.Record
	for _, ev := range events {
		if data, ok := ev.Data.(aggregator.ItemData); ok {
			out = append(out, data.Item)
		}
	}
	return out
}

func TestSearch_NoResultsStillEndsWithDone(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	var adapters []sources.Adapter
	for _, src := range game.Sources() {
		a := newAdapter(ctrl, src)
		a.EXPECT().Search(gomock.Any(), "Half-Life").Return(nil, nil)
		adapters = append(adapters, a)
	}

	agg := aggregator.New(adapters, aggregator.Config{}, logger.NewNop())
	s := agg.Open(context.Background(), aggregator.Request{Query: "Half-Life"})
	events := drain(t, s)

	require.Equal(t, []aggregator.EventType{aggregator.EventDone}, types(events))
	assert.Equal(t, aggregator.DoneData{Items: 0}, events[0].Data)
	assert.Equal(t, aggregator.StateClosed, s.State())
}

func TestSearch_StreamsEveryRecordThenDone(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	var adapters []sources.Adapter
	var want []string
	for _, src := range []game.Source{game.AnkerGames, game.Game3RB, game.RepackGames} {
		stubs := []game.Stub{stub(src, "half-life"), stub(src, "half-life-2")}
		a := newAdapter(ctrl, src)
		a.EXPECT().Search(gomock.Any(), "Half-Life").Return(stubs, nil)
		for _, st := range stubs {
			a.EXPECT().Detail(gomock.Any(), st).Return(record(st), nil)
			want = append(want, st.URL)
		}
		adapters = append(adapters, a)
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	agg := aggregator.New(adapters, aggregator.Config{}, logger.NewNop(), aggregator.WithMetrics(m))
	events := drain(t, agg.Open(context.Background(), aggregator.Request{Query: "Half-Life"}))

	require.Len(t, events, 7)
	last := events[len(events)-1]
	assert.Equal(t, aggregator.EventDone, last.Type)
	assert.Equal(t, aggregator.DoneData{Items: 6}, last.Data)

	var got []string
	for _, rec := range items(events) {
		got = append(got, rec.URL)
		assert.Equal(t, "detail of "+rec.Title, rec.Description)
	}
	assert.ElementsMatch(t, want, got)

	assert.InDelta(t, 2, testutil.ToFloat64(m.StreamItems.WithLabelValues("Game3RB")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.StreamsActive), 0)
}

func TestSearch_DetailFailureFallsBackToStub(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	st := stub(game.Game3RB, "portal")
	a := newAdapter(ctrl, game.Game3RB)
	a.EXPECT().Search(gomock.Any(), "portal").Return([]game.Stub{st}, nil)
	a.EXPECT().Detail(gomock.Any(), st).Return(game.Record{}, errors.New("boom"))

	m := metrics.NewMetrics(prometheus.NewRegistry())
	agg := aggregator.New([]sources.Adapter{a}, aggregator.Config{}, logger.NewNop(), aggregator.WithMetrics(m))
	events := drain(t, agg.Open(context.Background(), aggregator.Request{Query: "portal"}))

	require.Equal(t, []aggregator.EventType{aggregator.EventItem, aggregator.EventDone}, types(events))
	rec := items(events)[0]
	assert.Equal(t, st.Title, rec.Title)
	assert.Equal(t, st.Thumbnail, rec.Poster)
	assert.Empty(t, rec.Description)
	assert.NotNil(t, rec.Screenshots)
	assert.NotNil(t, rec.DownloadLinks)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AdapterFailures.WithLabelValues("Game3RB", metrics.StageDetail)), 0)
}

func TestSearch_AdapterFailureDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	broken := newAdapter(ctrl, game.RepackGames)
	broken.EXPECT().Search(gomock.Any(), "doom").Return(nil, errors.New("challenge wall"))

	st := stub(game.AnkerGames, "doom")
	ok := newAdapter(ctrl, game.AnkerGames)
	ok.EXPECT().Search(gomock.Any(), "doom").Return([]game.Stub{st}, nil)
	ok.EXPECT().Detail(gomock.Any(), st).Return(record(st), nil)

	m := metrics.NewMetrics(prometheus.NewRegistry())
	agg := aggregator.New([]sources.Adapter{broken, ok}, aggregator.Config{}, logger.NewNop(), aggregator.WithMetrics(m))
	events := drain(t, agg.Open(context.Background(), aggregator.Request{Query: "doom"}))

	assert.Equal(t, []aggregator.EventType{aggregator.EventItem, aggregator.EventDone}, types(events))
	assert.InDelta(t, 1, testutil.ToFloat64(m.AdapterFailures.WithLabelValues("RepackGames", metrics.StageSearch)), 0)
}

func TestSearch_DedupesDownloadLinks(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	st := stub(game.Game3RB, "hades")
	rec := record(st)
	rec.DownloadLinks = []game.DownloadLink{
		{URL: "http://host.com/a"},
		{URL: "http://host.com/b"},
		{URL: "http://other.com/c"},
	}

	a := newAdapter(ctrl, game.Game3RB)
	a.EXPECT().Search(gomock.Any(), "hades").Return([]game.Stub{st}, nil)
	a.EXPECT().Detail(gomock.Any(), st).Return(rec, nil)

	agg := aggregator.New([]sources.Adapter{a}, aggregator.Config{}, logger.NewNop())
	got := items(drain(t, agg.Open(context.Background(), aggregator.Request{Query: "hades"})))

	require.Len(t, got, 1)
	assert.Equal(t, []game.DownloadLink{
		{Label: "host.com", URL: "http://host.com/a"},
		{Label: "other.com", URL: "http://other.com/c"},
	}, got[0].DownloadLinks)
}

func TestSearch_CorrelatesAcrossSources(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)

	fixStub := stub(game.OnlineFix, "foo")
	fixRec := record(fixStub)
	fixRec.Title = "Foo по сети"
	fixRec.Version = "1.32.0.18733"
	fix := newAdapter(ctrl, game.OnlineFix)
	fix.EXPECT().Search(gomock.Any(), "foo").Return([]game.Stub{fixStub}, nil)
	fix.EXPECT().Detail(gomock.Any(), fixStub).Return(fixRec, nil)

	rbStub := stub(game.Game3RB, "foo")
	rbRec := record(rbStub)
	rbRec.Title = "Foo (Build 18733)"
	rb := newAdapter(ctrl, game.Game3RB)
	rb.EXPECT().Search(gomock.Any(), "foo").Return([]game.Stub{rbStub}, nil)
	rb.EXPECT().Detail(gomock.Any(), rbStub).Return(rbRec, nil)

	agg := aggregator.New([]sources.Adapter{fix, rb}, aggregator.Config{}, logger.NewNop())
	records := aggregator.Collect(agg.Search(context.Background(), "foo"))

	require.Len(t, records, 2)
	for _, rec := range records {
		if rec.Source == game.OnlineFix {
			assert.Nil(t, rec.Correlation)
			continue
		}
		require.NotNil(t, rec.Correlation, "whether tagged inline or retroactively")
		assert.Equal(t, fixStub.URL, rec.Correlation.URL)
		assert.Equal(t, "Foo по сети", rec.Correlation.Title)
		assert.Equal(t, "title_build", rec.Correlation.Kind)
	}
}

func TestSearch_EmptyQueryIsDoneImmediately(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	a := newAdapter(ctrl, game.AnkerGames)

	agg := aggregator.New([]sources.Adapter{a}, aggregator.Config{}, logger.NewNop())
	s := agg.Open(context.Background(), aggregator.Request{Query: "   "})

	assert.Equal(t, []aggregator.EventType{aggregator.EventDone}, types(drain(t, s)))
	assert.Equal(t, aggregator.StateClosed, s.State())
	<-s.Settled()
}

func TestSearch_ConsumerLeavesMidStream(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	release := make(chan struct{})
	var adapters []sources.Adapter

	for _, src := range []game.Source{game.AnkerGames, game.Game3RB} {
		st := stub(src, "quake")
		a := newAdapter(ctrl, src)
		a.EXPECT().Search(gomock.Any(), "quake").Return([]game.Stub{st}, nil)
		a.EXPECT().Detail(gomock.Any(), st).Return(record(st), nil)
		adapters = append(adapters, a)
	}
	for _, src := range []game.Source{game.RepackGames, game.OnlineFix, game.SteamUnderground} {
		st := stub(src, "quake")
		a := newAdapter(ctrl, src)
		a.EXPECT().Search(gomock.Any(), "quake").DoAndReturn(func(context.Context, string) ([]game.Stub, error) {
			<-release
			return []game.Stub{st}, nil
		})
		a.EXPECT().Detail(gomock.Any(), st).Return(record(st), nil).AnyTimes()
		adapters = append(adapters, a)
	}

	agg := aggregator.New(adapters, aggregator.Config{}, logger.NewNop())
	s := agg.Open(context.Background(), aggregator.Request{Query: "quake"})

	var seen []aggregator.EventType
	for ev := range s.Events() {
		seen = append(seen, ev.Type)
		if len(seen) == 2 {
			break
		}
	}

	assert.Equal(t, []aggregator.EventType{aggregator.EventItem, aggregator.EventItem}, seen)
	assert.Equal(t, aggregator.StateDraining, s.State())

	close(release)
	select {
	case <-s.Settled():
	case <-time.After(5 * time.Second):
		t.Fatal("adapters never settled after the consumer left")
	}
	assert.Equal(t, aggregator.StateDraining, s.State())

	for range s.Events() {
		t.Fatal("a stream yields events only once")
	}
}

func TestSearch_InFlightListingSurvivesConsumerLeaving(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	fastStub := stub(game.AnkerGames, "doom")
	fast := newAdapter(ctrl, game.AnkerGames)
	fast.EXPECT().Search(gomock.Any(), "doom").Return([]game.Stub{fastStub}, nil)
	fast.EXPECT().Detail(gomock.Any(), fastStub).Return(record(fastStub), nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	searchErr := make(chan error, 1)
	slowStub := stub(game.Game3RB, "doom")
	slow := newAdapter(ctrl, game.Game3RB)
	slow.EXPECT().Search(gomock.Any(), "doom").DoAndReturn(func(ctx context.Context, _ string) ([]game.Stub, error) {
		close(entered)
		<-release
		searchErr <- ctx.Err()
		return []game.Stub{slowStub}, nil
	})
	slow.EXPECT().Detail(gomock.Any(), slowStub).Return(record(slowStub), nil).AnyTimes()

	agg := aggregator.New([]sources.Adapter{fast, slow}, aggregator.Config{}, logger.NewNop())
	s := agg.Open(context.Background(), aggregator.Request{Query: "doom"})

	for ev := range s.Events() {
		require.Equal(t, aggregator.EventItem, ev.Type)
		<-entered
		break
	}
	assert.Equal(t, aggregator.StateDraining, s.State())

	close(release)
	select {
	case <-s.Settled():
	case <-time.After(5 * time.Second):
		t.Fatal("adapters never settled after the consumer left")
	}
	assert.NoError(t, <-searchErr)
}

func TestSearch_Heartbeat(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	a := newAdapter(ctrl, game.AnkerGames)
	a.EXPECT().Search(gomock.Any(), "slow").DoAndReturn(func(context.Context, string) ([]game.Stub, error) {
		time.Sleep(80 * time.Millisecond)
		return nil, nil
	})

	now := time.Date(2025, 10, 2, 12, 0, 0, 0, time.UTC)
	agg := aggregator.New([]sources.Adapter{a},
		aggregator.Config{HeartbeatInterval: 10 * time.Millisecond},
		logger.NewNop(),
		aggregator.WithClock(func() time.Time { return now }),
	)
	events := drain(t, agg.Open(context.Background(), aggregator.Request{Query: "slow"}))

	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, aggregator.EventPing, events[0].Type)
	assert.Equal(t, aggregator.PingData{T: now.UnixMilli()}, events[0].Data)
	assert.Equal(t, aggregator.EventDone, events[len(events)-1].Type)
	for _, ev := range events[:len(events)-1] {
		assert.Equal(t, aggregator.EventPing, ev.Type)
	}
}

func TestSearch_StreamTimeoutEndsWithDone(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	release := make(chan struct{})
	a := newAdapter(ctrl, game.SteamUnderground)
	a.EXPECT().Search(gomock.Any(), "stuck").DoAndReturn(func(context.Context, string) ([]game.Stub, error) {
		<-release
		return nil, nil
	})

	agg := aggregator.New([]sources.Adapter{a}, aggregator.Config{StreamTimeout: 20 * time.Millisecond}, logger.NewNop())
	s := agg.Open(context.Background(), aggregator.Request{Query: "stuck"})

	assert.Equal(t, []aggregator.EventType{aggregator.EventDone}, types(drain(t, s)))
	assert.Equal(t, aggregator.StateClosed, s.State())

	close(release)
	<-s.Settled()
}

func TestCatalog_StreamsHomepageStubs(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	a := newAdapter(ctrl, game.RepackGames)
	stubs := []game.Stub{stub(game.RepackGames, "a"), stub(game.RepackGames, "b")}
	a.EXPECT().Listing(gomock.Any(), "https://repackgames.test/").Return(stubs, nil)

	agg := aggregator.New([]sources.Adapter{a}, aggregator.Config{}, logger.NewNop())
	records := aggregator.Collect(agg.Catalog(context.Background()))

	require.Len(t, records, 2)
	assert.Equal(t, game.FromStub(stubs[0]), records[0])
	assert.Equal(t, game.FromStub(stubs[1]), records[1])
}

func TestCollect_AppliesTags(t *testing.T) {
	t.Parallel()

	rec := record(stub(game.Game3RB, "foo"))
	of := game.Correlation{URL: "https://online-fix.me/foo.html", Title: "Foo", Kind: "version"}

	seq := func(yield func(aggregator.Event) bool) {
		events := []aggregator.Event{
			{Type: aggregator.EventItem, Data: aggregator.ItemData{Source: rec.Source, Item: rec}},
			{Type: aggregator.EventPing, Data: aggregator.PingData{T: 1}},
			{Type: aggregator.EventTag, Data: aggregator.TagData{Source: rec.Source, Href: rec.URL, Of: of}},
			{Type: aggregator.EventTag, Data: aggregator.TagData{Source: rec.Source, Href: "https://nowhere.test/", Of: of}},
			{Type: aggregator.EventDone, Data: aggregator.DoneData{Items: 1}},
		}
		for _, ev := range events {
			if !yield(ev) {
				return
			}
		}
	}

	records := aggregator.Collect(seq)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Correlation)
	assert.Equal(t, of, *records[0].Correlation)

	assert.Equal(t, []game.Record{}, aggregator.Collect(func(func(aggregator.Event) bool) {}))
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", aggregator.StateIdle.String())
	assert.Equal(t, "streaming", aggregator.StateStreaming.String())
	assert.Equal(t, "draining", aggregator.StateDraining.String())
	assert.Equal(t, "closed", aggregator.StateClosed.String())
}
