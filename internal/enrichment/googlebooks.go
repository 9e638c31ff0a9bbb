package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"plexshelf/internal/seriesmatch"
)

// GoogleBooksConfidence is the fixed confidence of a Google Books answer. The
// API reports series membership but no certainty.
const GoogleBooksConfidence = 70

// GoogleBooksProvider reads series membership from the Google Books volumes API.
type GoogleBooksProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewGoogleBooksProvider builds the provider. apiKey may be empty for the
// anonymous quota.
func NewGoogleBooksProvider(baseURL, apiKey string, timeout time.Duration) *GoogleBooksProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleBooksProvider{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name implements Provider.
func (p *GoogleBooksProvider) Name() string { return "google_books" }

type volumesResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title      string `json:"title"`
			SeriesInfo *struct {
				BookDisplayNumber string `json:"bookDisplayNumber"`
				VolumeSeries      []struct {
					SeriesID    string `json:"seriesId"`
					OrderNumber int    `json:"orderNumber"`
				} `json:"volumeSeries"`
			} `json:"seriesInfo"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

type seriesResponse struct {
	Series []struct {
		SeriesID string `json:"seriesId"`
		Title    string `json:"title"`
	} `json:"series"`
}

// Query implements Provider. A volume with seriesInfo costs a second request
// to resolve the series id to its title.
func (p *GoogleBooksProvider) Query(ctx context.Context, req seriesmatch.LookupRequest) (seriesmatch.LookupResult, error) {
	params := url.Values{}
	params.Set("q", volumeQuery(req))
	params.Set("maxResults", "1")
	var volumes volumesResponse
	if err := p.get(ctx, "volumes", params, &volumes); err != nil {
		return seriesmatch.LookupResult{}, err
	}
	if volumes.TotalItems == 0 || len(volumes.Items) == 0 {
		return seriesmatch.NotFound(), nil
	}
	info := volumes.Items[0].VolumeInfo.SeriesInfo
	if info == nil || len(info.VolumeSeries) == 0 || strings.TrimSpace(info.VolumeSeries[0].SeriesID) == "" {
		return seriesmatch.NotFound(), nil
	}
	entry := info.VolumeSeries[0]

	params = url.Values{}
	params.Set("series_id", entry.SeriesID)
	var series seriesResponse
	if err := p.get(ctx, "series/get", params, &series); err != nil {
		return seriesmatch.LookupResult{}, err
	}
	if len(series.Series) == 0 || strings.TrimSpace(series.Series[0].Title) == "" {
		return seriesmatch.NotFound(), nil
	}

	position := seriesmatch.ParsePosition(info.BookDisplayNumber)
	if !position.Known && entry.OrderNumber > 0 {
		position = seriesmatch.KnownPosition(entry.OrderNumber)
	}
	res := seriesmatch.Found(series.Series[0].Title, position, GoogleBooksConfidence)
	res.SeriesID = entry.SeriesID
	return res, nil
}

func volumeQuery(req seriesmatch.LookupRequest) string {
	title := strings.TrimSpace(req.RawTitle)
	if title == "" {
		title = req.Title
	}
	query := fmt.Sprintf("intitle:%q", title)
	author := strings.TrimSpace(req.RawAuthor)
	if author == "" {
		author = req.Author
	}
	if author != "" {
		query += fmt.Sprintf(" inauthor:%q", author)
	}
	return query
}

func (p *GoogleBooksProvider) get(ctx context.Context, path string, params url.Values, target any) error {
	if p.apiKey != "" {
		params.Set("key", p.apiKey)
	}
	endpoint := p.baseURL + "/" + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return unavailable("google_books", path, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return unavailable("google_books", path, "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return unavailable("google_books", path, "", ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return unavailable("google_books", path, fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return unavailable("google_books", path, "decode response", err)
	}
	return nil
}
