package battle

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marco/cinepick/internal/catalog"
)

func catalogServer(t *testing.T, handler http.HandlerFunc) *catalog.API {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := catalog.NewClientWithConfig(catalog.ClientConfig{
		APIKey:           "k",
		BaseURL:          srv.URL,
		MaxAttempts:      1,
		InitialBackoffMs: 1,
	})
	return catalog.NewAPI(client)
}

func TestFetcher_FetchExtended(t *testing.T) {
	api := catalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie/27205":
			fmt.Fprint(w, `{"id":27205,"title":"Inception","popularity":85.5,"vote_count":36000,
				"budget":160000000,"revenue":836800000,"runtime":148,"release_date":"2010-07-15","imdb_id":"tt1375666"}`)
		case "/movie/27205/credits":
			var parts []string
			for i := 1; i <= 15; i++ {
				parts = append(parts, fmt.Sprintf(`{"id":%d,"name":"Actor %d","character":"Role"}`, i, i))
			}
			fmt.Fprintf(w, `{"id":27205,"cast":[%s],"crew":[]}`, strings.Join(parts, ","))
		case "/movie/27205/videos":
			fmt.Fprint(w, `{"id":27205,"results":[
				{"id":"1","key":"YoHD9XEInc0","name":"Trailer","site":"YouTube","type":"Trailer"},
				{"id":"2","key":"abc","name":"Teaser","site":"YouTube","type":"Teaser"},
				{"id":"3","key":"vim","name":"Trailer","site":"Vimeo","type":"Trailer"}]}`)
		default:
			http.NotFound(w, r)
		}
	})

	ext := NewFetcher(api, 0, nil).FetchExtended(context.Background(), 27205)

	assert.Equal(t, 85.5, ext.Popularity)
	assert.Equal(t, 36000, ext.VoteCount)
	assert.Equal(t, int64(160000000), ext.Budget)
	assert.Equal(t, int64(836800000), ext.Revenue)
	require.NotNil(t, ext.Runtime)
	assert.Equal(t, 148, *ext.Runtime)
	assert.Equal(t, "2010-07-15", ext.ReleaseDate)
	assert.Equal(t, "tt1375666", ext.IMDbID)
	assert.Len(t, ext.Cast, DefaultCastLimit)
	assert.Equal(t, 1, ext.Cast[0].ID)
	require.Len(t, ext.Videos, 1)
	assert.Equal(t, "YoHD9XEInc0", ext.Videos[0].Key)
}

func TestFetcher_PartialFailureKeepsRest(t *testing.T) {
	api := catalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie/7":
			fmt.Fprint(w, `{"id":7,"popularity":12,"vote_count":40,"runtime":0}`)
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	})

	ext := NewFetcher(api, 5, nil).FetchExtended(context.Background(), 7)

	assert.Equal(t, 12.0, ext.Popularity)
	assert.Equal(t, 40, ext.VoteCount)
	assert.Nil(t, ext.Runtime, "zero runtime is unknown")
	assert.NotNil(t, ext.Cast)
	assert.Empty(t, ext.Cast)
	assert.NotNil(t, ext.Videos)
	assert.Empty(t, ext.Videos)
}

func TestFetcher_TotalFailureYieldsZeroMetadata(t *testing.T) {
	api := catalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})

	ext := NewFetcher(api, 0, nil).FetchExtended(context.Background(), 1)

	assert.Zero(t, ext.Popularity)
	assert.Zero(t, ext.VoteCount)
	assert.Zero(t, ext.Revenue)
	assert.Zero(t, ext.Budget)
	assert.Nil(t, ext.Runtime)
	assert.Equal(t, []catalog.CastMember{}, ext.Cast)
	assert.Equal(t, []catalog.Video{}, ext.Videos)
}
