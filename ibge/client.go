// Package ibge fetches the administrative-region feeds (states and
// municipalities) used to populate selection options. The feeds are not
// part of the core pipeline's correctness: every failure degrades to an
// empty option list.
package ibge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
)

const defaultBaseURL = "https://servicodados.ibge.gov.br/api/v1"

// State is one federative unit as served by the localities API.
type State struct {
	ID   int    `json:"id"`
	Name string `json:"nome"`
	Code string `json:"sigla"`
}

// City is one municipality of a state.
type City struct {
	ID   int    `json:"id"`
	Name string `json:"nome"`
}

// Client talks to the localities API with per-request timeouts and a
// long-lived cache in front, since the divisions barely ever change.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.Cache
}

// NewClient builds a localities client. baseURL empty selects the public
// API; c may be nil to disable caching.
func NewClient(baseURL string, timeout time.Duration, c *cache.Cache) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      c,
	}
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}

// States lists every state sorted by name.
func (c *Client) States(ctx context.Context) ([]State, error) {
	const key = "ibge:states"
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			return v.([]State), nil
		}
	}

	var states []State
	if err := c.getJSON(ctx, c.baseURL+"/localidades/estados", &states); err != nil {
		return nil, err
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Name < states[j].Name })

	if c.cache != nil {
		c.cache.Set(key, states, cache.DefaultExpiration)
	}
	return states, nil
}

// Cities lists the municipalities of one state sorted by name.
func (c *Client) Cities(ctx context.Context, uf string) ([]City, error) {
	key := "ibge:cities:" + uf
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			return v.([]City), nil
		}
	}

	var cities []City
	url := fmt.Sprintf("%s/localidades/estados/%s/municipios", c.baseURL, uf)
	if err := c.getJSON(ctx, url, &cities); err != nil {
		return nil, err
	}
	sort.Slice(cities, func(i, j int) bool { return cities[i].Name < cities[j].Name })

	if c.cache != nil {
		c.cache.Set(key, cities, cache.DefaultExpiration)
	}
	return cities, nil
}

// AllCityOptions lists every municipality of the country as "Name - UF"
// strings, sorted, for the city search box. States that fail to load are
// skipped rather than failing the whole list.
func (c *Client) AllCityOptions(ctx context.Context) ([]string, error) {
	const key = "ibge:cities:all"
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			return v.([]string), nil
		}
	}

	states, err := c.States(ctx)
	if err != nil {
		return nil, err
	}

	var options []string
	for _, st := range states {
		cities, err := c.Cities(ctx, st.Code)
		if err != nil {
			continue
		}
		for _, city := range cities {
			options = append(options, city.Name+" - "+st.Code)
		}
	}
	sort.Strings(options)

	if c.cache != nil {
		c.cache.Set(key, options, cache.DefaultExpiration)
	}
	return options, nil
}
