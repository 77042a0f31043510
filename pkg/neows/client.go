// Package neows provides a client for the NASA NeoWs (Near Earth
// Object Web Service) browse and lookup API.
package neows

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Default fallbacks for catalog entries missing size or approach data,
// roughly a Chelyabinsk-class stony object at a typical encounter speed.
const (
	DefaultDiameterM   = 50.0
	DefaultVelocityKmS = 20.0
)

// Object is a near-Earth object reduced to the fields the impact
// evaluator consumes. DiameterM and VelocityKmS are zero when the
// catalog entry lacked them.
type Object struct {
	ID          string
	Name        string
	DiameterM   float64
	VelocityKmS float64
	Hazardous   bool
}

// WithDefaults substitutes the documented fallbacks for missing fields.
func (o Object) WithDefaults() Object {
	if o.DiameterM <= 0 {
		o.DiameterM = DefaultDiameterM
	}
	if o.VelocityKmS <= 0 {
		o.VelocityKmS = DefaultVelocityKmS
	}
	return o
}

// Hazardous filters for potentially hazardous asteroids.
func Hazardous(objects []Object) []Object {
	var out []Object
	for _, o := range objects {
		if o.Hazardous {
			out = append(out, o)
		}
	}
	return out
}

// Client defines the NeoWs operations.
type Client interface {
	// Browse pages through the NeoWs catalog, returning up to
	// maxPages pages of objects.
	Browse(ctx context.Context, maxPages int) ([]Object, error)
	// SearchByName browses until an object whose name contains name
	// (case-insensitive) is found. Returns nil when not found.
	SearchByName(ctx context.Context, name string, maxPages int) (*Object, error)
}

// Option configures the NeoWs client.
type Option func(*httpClient)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.client = hc }
}

// WithRateLimit sets the requests-per-second limit. NASA allows 1000
// requests/hour with a registered key and far less with DEMO_KEY.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type httpClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
}

// New creates a NeoWs Client. The API key is explicit configuration;
// the package never reads the environment.
func New(apiKey string, opts ...Option) Client {
	c := &httpClient{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: "https://api.nasa.gov/neo/rest/v1",
		apiKey:  apiKey,
		limiter: rate.NewLimiter(0.25, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// browsePage mirrors the NeoWs browse response shape.
type browsePage struct {
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
	NearEarthObjects []neoEntry `json:"near_earth_objects"`
}

type neoEntry struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Hazardous         bool   `json:"is_potentially_hazardous_asteroid"`
	EstimatedDiameter struct {
		Meters struct {
			Min float64 `json:"estimated_diameter_min"`
			Max float64 `json:"estimated_diameter_max"`
		} `json:"meters"`
	} `json:"estimated_diameter"`
	CloseApproachData []struct {
		RelativeVelocity struct {
			KmPerSecond string `json:"kilometers_per_second"`
		} `json:"relative_velocity"`
	} `json:"close_approach_data"`
}

// toObject flattens a catalog entry: mean of the diameter estimate
// bounds, velocity from the first close approach when present.
func (e neoEntry) toObject() Object {
	o := Object{
		ID:        e.ID,
		Name:      e.Name,
		Hazardous: e.Hazardous,
		DiameterM: (e.EstimatedDiameter.Meters.Min + e.EstimatedDiameter.Meters.Max) / 2,
	}
	if len(e.CloseApproachData) > 0 {
		if v, err := strconv.ParseFloat(e.CloseApproachData[0].RelativeVelocity.KmPerSecond, 64); err == nil {
			o.VelocityKmS = v
		}
	}
	return o
}

func (c *httpClient) Browse(ctx context.Context, maxPages int) ([]Object, error) {
	var objects []Object
	for page := 0; page < maxPages; page++ {
		resp, err := c.browsePage(ctx, page)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.NearEarthObjects {
			objects = append(objects, e.toObject())
		}
		if resp.Links.Next == "" {
			break
		}
	}
	return objects, nil
}

func (c *httpClient) SearchByName(ctx context.Context, name string, maxPages int) (*Object, error) {
	needle := normalizeName(name)
	for page := 0; page < maxPages; page++ {
		resp, err := c.browsePage(ctx, page)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.NearEarthObjects {
			if containsFold(e.Name, needle) {
				o := e.toObject()
				return &o, nil
			}
		}
		if resp.Links.Next == "" {
			break
		}
	}
	return nil, nil
}

func (c *httpClient) browsePage(ctx context.Context, page int) (*browsePage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "neows: rate limiter")
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", "20")
	q.Set("api_key", c.apiKey)

	reqURL := fmt.Sprintf("%s/neo/browse?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "neows: build browse request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "neows: browse page %d", page)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, eris.Errorf("neows: browse page %d: status %d: %s", page, resp.StatusCode, string(body))
	}

	var parsed browsePage
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, eris.Wrapf(err, "neows: decode browse page %d", page)
	}
	return &parsed, nil
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
