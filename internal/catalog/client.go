package catalog

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

	"reelmates/internal/domain"
)

// Movie is a catalog title as the movies service serves it.
type Movie struct {
	ID         string   `json:"_id"`
	Title      string   `json:"title"`
	Year       int      `json:"year"`
	Type       string   `json:"imdb_type"`
	PosterURL  string   `json:"poster_url"`
	Rating     float64  `json:"rating"`
	Popularity float64  `json:"popularity"`
	MainActors []string `json:"main_actors"`
}

type Person struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url"`
}

// RecommendationQuery asks the movies service for one batch of rails. The
// service reads it from query parameters; list values go over the wire
// comma-separated.
type RecommendationQuery struct {
	Categories []string
	Type       string
	Year       int
	Limit      int
	Favorites  []string
	Actors     []string
	Exclude    []string
}

func (q RecommendationQuery) values() url.Values {
	v := url.Values{}
	if len(q.Categories) > 0 {
		v.Set("categories", strings.Join(q.Categories, ","))
	}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	if q.Year > 0 {
		v.Set("year", strconv.Itoa(q.Year))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if len(q.Favorites) > 0 {
		v.Set("favorite_ids", strings.Join(q.Favorites, ","))
	}
	if len(q.Actors) > 0 {
		v.Set("actors", strings.Join(q.Actors, ","))
	}
	if len(q.Exclude) > 0 {
		v.Set("exclude", strings.Join(q.Exclude, ","))
	}
	return v
}

// Client talks to the movies and people catalog services.
type Client struct {
	moviesBase string
	peopleBase string
	httpc      *http.Client
}

func NewClient(moviesBase, peopleBase string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		moviesBase: strings.TrimRight(moviesBase, "/"),
		peopleBase: strings.TrimRight(peopleBase, "/"),
		httpc:      httpc,
	}
}

func (c *Client) Movie(ctx context.Context, id string) (Movie, error) {
	var m Movie
	if err := c.getJSON(ctx, c.moviesBase+"/movies-series/"+url.PathEscape(id), &m); err != nil {
		return Movie{}, err
	}
	return m, nil
}

func (c *Client) Person(ctx context.Context, id string) (Person, error) {
	var p Person
	if err := c.getJSON(ctx, c.peopleBase+"/people/"+url.PathEscape(id), &p); err != nil {
		return Person{}, err
	}
	return p, nil
}

// Recommendations returns one item list per requested category. Categories
// the service does not know come back absent, not as an error.
func (c *Client) Recommendations(ctx context.Context, q RecommendationQuery) (map[string][]Movie, error) {
	reqURL := c.moviesBase + "/movies-series/recommendations"
	if params := q.values().Encode(); params != "" {
		reqURL += "?" + params
	}

	out := map[string][]Movie{}
	if err := c.getJSON(ctx, reqURL, &out); err != nil {
		return nil, fmt.Errorf("fetch recommendations: %w", err)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<16))
	_ = body.Close()
}
