package marketplace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercascan/mercascan/internal/cache"
	"github.com/mercascan/mercascan/internal/config"
	"github.com/mercascan/mercascan/internal/domain"
)

func testClient(baseURL string, cacheClient cache.Client) *Client {
	cfg := config.MarketplaceConfig{
		BaseURL:        baseURL,
		Timeout:        5 * time.Second,
		MaxRetries:     2,
		BackoffFactor:  1.01, // keep test retries fast
		MaxListings:    10,
		DetailLookups:  3,
		MinQueryLength: 3,
	}
	return NewClient(cfg, cacheClient, time.Minute, zerolog.Nop())
}

func TestPrepareQuery(t *testing.T) {
	c := testClient("http://unused", nil)

	// long leading codes are dropped, short words removed
	assert.Equal(t, "Mesa%20Escritório%20120cm", c.PrepareQuery("MSA-102 Mesa de Escritório 120cm"))

	// short codes are kept
	assert.Equal(t, "AB1%20Cadeira%20Presidente", c.PrepareQuery("AB1 Cadeira Presidente"))

	// unsafe characters become separators
	assert.Equal(t, "Mesa%20Jantar", c.PrepareQuery("Mesa & Jantar!"))
}

func TestPrepareQuery_CapsLength(t *testing.T) {
	c := testClient("http://unused", nil)
	long := "Palavra"
	for i := 0; i < 30; i++ {
		long += " Palavra"
	}
	query := c.PrepareQuery(long)
	assert.LessOrEqual(t, len(query), 80*3) // %20 triples separators, words stay under 80 chars total
	assert.NotEmpty(t, query)
}

func TestSearch_ParsesFirstSuccessfulPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "as_word=")
		w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	c := testClient(srv.URL, nil)
	listings := c.Search(context.Background(), "Mesa de Escritório")
	require.Len(t, listings, 2)
	assert.Equal(t, "Mesa de Escritório 120cm Premium", listings[0].Title)
}

func TestSearch_TooShortQuery(t *testing.T) {
	c := testClient("http://unused", nil)
	assert.Nil(t, c.Search(context.Background(), "ab"))
}

func TestSearch_ServerErrorYieldsEmpty(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL, nil)
	assert.Empty(t, c.Search(context.Background(), "Mesa de Escritório"))
	assert.Equal(t, int32(2), calls.Load()) // one per configured retry
}

func TestSearch_SecondAttemptSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	c := testClient(srv.URL, nil)
	listings := c.Search(context.Background(), "Mesa de Escritório")
	assert.Len(t, listings, 2)
}

func TestSearch_CachedSecondLookupSkipsHTTP(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	c := testClient(srv.URL, cache.NewMemoryClient(10))
	first := c.Search(context.Background(), "Mesa de Escritório")
	second := c.Search(context.Background(), "Mesa de Escritório")

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first, second)
}

func TestDetail_DefaultsOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(srv.URL, nil)
	signal := c.Detail(context.Background(), srv.URL+"/item")
	assert.Equal(t, domain.UnknownSellerLevel, signal.SellerLevel)
	assert.Zero(t, signal.Sales)
	assert.Zero(t, signal.Rating)
}

func TestDetail_ParsesSellerPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(detailPage))
	}))
	defer srv.Close()

	c := testClient(srv.URL, nil)
	signal := c.Detail(context.Background(), srv.URL+"/item")
	assert.Equal(t, "MercadoLíder Platinum", signal.SellerLevel)
	assert.Equal(t, 1543, signal.Sales)
	assert.InDelta(t, 4.8, signal.Rating, 0.001)
}

func TestDetail_EmptyLink(t *testing.T) {
	c := testClient("http://unused", nil)
	signal := c.Detail(context.Background(), "")
	assert.Equal(t, domain.UnknownSellerLevel, signal.SellerLevel)
}
