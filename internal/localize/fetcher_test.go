package localize_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/plexlocalize/internal/localize"
	"github.com/vmunix/plexlocalize/internal/localize/mocks"
	"github.com/vmunix/plexlocalize/internal/plex"
)

func newMockServer(ctrl *gomock.Controller, name string) *mocks.MockServer {
	srv := mocks.NewMockServer(ctrl)
	srv.EXPECT().Name().Return(name).AnyTimes()
	return srv
}

func container(keys ...string) *plex.Container {
	mc := &plex.Container{Size: len(keys)}
	for _, k := range keys {
		mc.Metadata = append(mc.Metadata, plex.Metadata{RatingKey: k})
	}
	return mc
}

var movies = localize.Library{ID: 1, Title: "电影", Kind: localize.KindMovie}

func TestFetcher_ListIDs(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := newMockServer(ctrl, "home")
	srv.EXPECT().Get(gomock.Any(), "/library/sections/1/all?type=1").Return(container("10", "11"), nil)

	ids, err := localize.NewFetcher(srv, testLogger()).ListIDs(context.Background(), movies, plex.TypeMovie, false, nil)
	require.NoError(t, err)
	assert.Equal(t, []localize.ItemID{"10", "11"}, ids)
}

func TestFetcher_ListIDsSince(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := newMockServer(ctrl, "home")
	since := time.Unix(1700000000, 0)
	srv.EXPECT().
		Get(gomock.Any(), "/library/sections/1/all?type=1&addedAt>=1700000000").
		Return(&plex.Container{}, nil)

	ids, err := localize.NewFetcher(srv, testLogger()).ListIDs(context.Background(), movies, plex.TypeMovie, false, &since)
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestFetcher_ListCollections(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := newMockServer(ctrl, "home")
	srv.EXPECT().Get(gomock.Any(), "/library/sections/1/collections").Return(container("99"), nil)

	since := time.Now()
	ids, err := localize.NewFetcher(srv, testLogger()).ListIDs(context.Background(), movies, plex.TypeMovie, true, &since)
	require.NoError(t, err)
	assert.Equal(t, []localize.ItemID{"99"}, ids)
}

func TestFetcher_ListIDsError(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := newMockServer(ctrl, "home")
	srv.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, plex.ErrUnavailable)

	ids, err := localize.NewFetcher(srv, testLogger()).ListIDs(context.Background(), movies, plex.TypeMovie, false, nil)
	require.Error(t, err)
	assert.NotNil(t, ids)
	assert.ErrorIs(t, err, localize.ErrFetch)
	assert.ErrorIs(t, err, plex.ErrUnavailable)

	var fe *localize.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "/library/sections/1/all?type=1", fe.Endpoint)
}

func TestFetcher_FetchMany(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := newMockServer(ctrl, "home")
	srv.EXPECT().Get(gomock.Any(), "/library/metadata/1,2,3").Return(&plex.Container{Metadata: []plex.Metadata{
		{
			RatingKey: "1", LibrarySectionID: 4, Type: "movie", Title: "阿凡达",
			Field: []plex.Field{{Name: "titleSort", Locked: true}, {Name: "genre", Locked: false}},
			Genre: []plex.Tag{{Tag: "Action"}}, Style: []plex.Tag{{Tag: ""}},
		},
		{RatingKey: "2", Type: "movie", Title: "no section"},
	}}, nil)

	items, err := localize.NewFetcher(srv, testLogger()).FetchMany(context.Background(), []localize.ItemID{"1", "2", "3"})
	require.NoError(t, err)
	require.Len(t, items, 1, "item 3 missing and item 2 incomplete")

	it := items[0]
	assert.Equal(t, localize.ItemID("1"), it.ID)
	assert.Equal(t, 4, it.LibraryID)
	assert.True(t, it.IsLocked(localize.FieldSortTitle))
	assert.False(t, it.IsLocked(localize.FieldGenre))
	assert.Equal(t, []string{"Action"}, it.Genres)
	assert.Empty(t, it.Styles)
}

func TestFetcher_FetchManyEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := newMockServer(ctrl, "home")

	items, err := localize.NewFetcher(srv, testLogger()).FetchMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFetcher_FetchOne(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := newMockServer(ctrl, "home")
	srv.EXPECT().Get(gomock.Any(), "/library/metadata/1").Return(&plex.Container{Metadata: []plex.Metadata{
		{RatingKey: "1", LibrarySectionID: 4, Type: "collection", Title: "合集"},
	}}, nil)
	srv.EXPECT().Get(gomock.Any(), "/library/metadata/2").Return(nil, fmt.Errorf("GET: %w", plex.ErrNotFound))
	srv.EXPECT().Get(gomock.Any(), "/library/metadata/3").Return(&plex.Container{}, nil)

	f := localize.NewFetcher(srv, testLogger())
	it, err := f.FetchOne(context.Background(), "1")
	require.NoError(t, err)
	require.NotNil(t, it)
	assert.True(t, it.IsCollection())

	it, err = f.FetchOne(context.Background(), "2")
	require.NoError(t, err)
	assert.Nil(t, it)

	it, err = f.FetchOne(context.Background(), "3")
	require.NoError(t, err)
	assert.Nil(t, it)
}
