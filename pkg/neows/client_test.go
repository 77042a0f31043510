package neows

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageOne = `{
	"links": {"next": "http://example.com/page2"},
	"near_earth_objects": [
		{
			"id": "2099942",
			"name": "99942 Apophis (2004 MN4)",
			"is_potentially_hazardous_asteroid": true,
			"estimated_diameter": {"meters": {"estimated_diameter_min": 310.0, "estimated_diameter_max": 340.0}},
			"close_approach_data": [
				{"relative_velocity": {"kilometers_per_second": "7.42"}}
			]
		},
		{
			"id": "3542519",
			"name": "(2010 PK9)",
			"is_potentially_hazardous_asteroid": false,
			"estimated_diameter": {"meters": {"estimated_diameter_min": 110.0, "estimated_diameter_max": 250.0}},
			"close_approach_data": []
		}
	]
}`

const pageTwo = `{
	"links": {},
	"near_earth_objects": [
		{
			"id": "54016476",
			"name": "(2020 BX12)",
			"is_potentially_hazardous_asteroid": true,
			"estimated_diameter": {"meters": {}},
			"close_approach_data": [
				{"relative_velocity": {"kilometers_per_second": "not-a-number"}}
			]
		}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("test-key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithRateLimit(1000))
}

func pagedHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/neo/browse", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		switch r.URL.Query().Get("page") {
		case "0":
			fmt.Fprint(w, pageOne)
		case "1":
			fmt.Fprint(w, pageTwo)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}
}

func TestBrowse_Paginates(t *testing.T) {
	c := newTestClient(t, pagedHandler(t))

	objects, err := c.Browse(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, objects, 3)

	apophis := objects[0]
	assert.Equal(t, "2099942", apophis.ID)
	assert.True(t, apophis.Hazardous)
	assert.InDelta(t, 325.0, apophis.DiameterM, 1e-9)
	assert.InDelta(t, 7.42, apophis.VelocityKmS, 1e-9)

	// No close-approach data: velocity stays zero for the caller to
	// substitute.
	assert.Equal(t, 0.0, objects[1].VelocityKmS)

	// Missing diameter bounds and unparseable velocity both map to zero.
	assert.Equal(t, 0.0, objects[2].DiameterM)
	assert.Equal(t, 0.0, objects[2].VelocityKmS)
}

func TestBrowse_RespectsMaxPages(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, pageOne) // always advertises a next page
	})

	_, err := c.Browse(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestBrowse_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	})

	_, err := c.Browse(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSearchByName(t *testing.T) {
	c := newTestClient(t, pagedHandler(t))

	t.Run("found on later page", func(t *testing.T) {
		o, err := c.SearchByName(context.Background(), "2020 bx12", 5)
		require.NoError(t, err)
		require.NotNil(t, o)
		assert.Equal(t, "54016476", o.ID)
	})

	t.Run("not found", func(t *testing.T) {
		o, err := c.SearchByName(context.Background(), "bennu", 5)
		require.NoError(t, err)
		assert.Nil(t, o)
	})
}

func TestWithDefaults(t *testing.T) {
	o := Object{Name: "x"}.WithDefaults()
	assert.Equal(t, DefaultDiameterM, o.DiameterM)
	assert.Equal(t, DefaultVelocityKmS, o.VelocityKmS)

	full := Object{DiameterM: 120, VelocityKmS: 15}.WithDefaults()
	assert.Equal(t, 120.0, full.DiameterM)
	assert.Equal(t, 15.0, full.VelocityKmS)
}

func TestHazardous(t *testing.T) {
	in := []Object{{Name: "a", Hazardous: true}, {Name: "b"}, {Name: "c", Hazardous: true}}
	out := Hazardous(in)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Name)
	assert.Equal(t, "c", out[1].Name)
}
