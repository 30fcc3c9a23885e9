package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))

		w.Write([]byte(`{
			"display_name": "12 Marina Road, Lagos Island, Lagos, Nigeria",
			"lat": "6.45407",
			"lon": "3.39467",
			"address": {"city": "Lagos", "suburb": "Lagos Island", "neighbourhood": "Marina"}
		}`))
	}))
	defer server.Close()

	db, mock := redismock.NewClientMock()
	client := New(&Config{
		BaseURL:   server.URL,
		UserAgent: "test-agent",
		CacheTTL:  time.Hour,
	}, db)

	cacheKey := "geocode:reverse:6.45407:3.39467"
	expected := &Address{
		AddressLabel: "12 Marina Road, Lagos Island, Lagos, Nigeria",
		City:         "Lagos",
		Area:         "Lagos Island",
		Borough:      "Marina",
		Latitude:     6.45407,
		Longitude:    3.39467,
	}
	cachedPayload, err := json.Marshal(expected)
	require.NoError(t, err)

	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSet(cacheKey, cachedPayload, time.Hour).SetVal("OK")

	addr, err := client.Reverse(context.Background(), 6.454069999, 3.39467)
	require.NoError(t, err)
	assert.Equal(t, expected, addr)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReverseServesFromCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream must not be called on a cache hit")
	}))
	defer server.Close()

	db, mock := redismock.NewClientMock()
	client := New(&Config{BaseURL: server.URL}, db)

	cached := Address{AddressLabel: "cached place", City: "Abuja", Latitude: 9.08333, Longitude: 7.53333}
	payload, err := json.Marshal(&cached)
	require.NoError(t, err)
	mock.ExpectGet("geocode:reverse:9.08333:7.53333").SetVal(string(payload))

	addr, err := client.Reverse(context.Background(), 9.08333, 7.53333)
	require.NoError(t, err)
	assert.Equal(t, "cached place", addr.AddressLabel)
	assert.Equal(t, "Abuja", addr.City)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "ikeja", r.URL.Query().Get("q"))
		assert.Equal(t, "ng", r.URL.Query().Get("countrycodes"))

		w.Write([]byte(`[
			{"display_name": "Ikeja, Lagos, Nigeria", "lat": "6.6018", "lon": "3.3515", "address": {"city": "Lagos", "suburb": "Ikeja"}},
			{"display_name": "Ikeja GRA, Lagos, Nigeria", "lat": "bogus", "lon": "3.35", "address": {}}
		]`))
	}))
	defer server.Close()

	db, _ := redismock.NewClientMock()
	client := New(&Config{BaseURL: server.URL, Country: "ng"}, db)

	results, err := client.Search(context.Background(), "ikeja", 5)
	require.NoError(t, err)

	// The entry with unparseable coordinates is dropped.
	require.Len(t, results, 1)
	assert.Equal(t, "Ikeja, Lagos, Nigeria", results[0].AddressLabel)
	assert.Equal(t, "Lagos", results[0].City)
	assert.Equal(t, "Ikeja", results[0].Area)
	assert.InDelta(t, 6.6018, results[0].Latitude, 1e-9)
}

func TestSearchEmptyQuery(t *testing.T) {
	db, _ := redismock.NewClientMock()
	client := New(&Config{}, db)

	results, err := client.Search(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
