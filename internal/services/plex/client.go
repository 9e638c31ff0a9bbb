package plex

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"plexshelf/internal/catalog"
	"plexshelf/internal/logging"
	"plexshelf/internal/services"
)

const (
	userAgent         = "PlexShelf/0.1.0"
	plexTypeArtist    = "8"
	plexTypeAlbum     = "9"
	defaultReqTimeout = 30 * time.Second
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Config holds the connection settings.
type Config struct {
	URL         string
	Token       string
	LibraryName string
	Timeout     time.Duration
}

// Client is a Plex HTTP client scoped to one library section.
type Client struct {
	baseURL     string
	token       string
	libraryName string
	http        HTTPDoer
	logger      *slog.Logger

	mu         sync.Mutex
	sectionKey string
}

// ServerInfo describes the server answering at the configured URL.
type ServerInfo struct {
	FriendlyName string `json:"friendly_name"`
	Version      string `json:"version"`
}

// NewClient builds a client. doer may be nil to use a default http.Client.
func NewClient(cfg Config, doer HTTPDoer, logger *slog.Logger) *Client {
	if doer == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultReqTimeout
		}
		doer = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		token:       strings.TrimSpace(cfg.Token),
		libraryName: strings.TrimSpace(cfg.LibraryName),
		http:        doer,
		logger:      logging.NewComponentLogger(logger, "plex"),
	}
}

// TestConnection fetches the server root to confirm the URL and token.
func (c *Client) TestConnection(ctx context.Context) (ServerInfo, error) {
	var root struct {
		FriendlyName string `xml:"friendlyName,attr"`
		Version      string `xml:"version,attr"`
	}
	if err := c.getXML(ctx, "/", nil, &root); err != nil {
		return ServerInfo{}, err
	}
	return ServerInfo{FriendlyName: root.FriendlyName, Version: root.Version}, nil
}

// SectionKey resolves the configured library name to its section key. The
// result is cached for the lifetime of the client.
func (c *Client) SectionKey(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sectionKey != "" {
		return c.sectionKey, nil
	}

	var container struct {
		Directories []struct {
			Key   string `xml:"key,attr"`
			Title string `xml:"title,attr"`
		} `xml:"Directory"`
	}
	if err := c.getXML(ctx, "/library/sections", nil, &container); err != nil {
		return "", err
	}
	for _, dir := range container.Directories {
		if dir.Key != "" && strings.EqualFold(strings.TrimSpace(dir.Title), c.libraryName) {
			c.sectionKey = dir.Key
			return dir.Key, nil
		}
	}
	return "", services.Wrap(services.ErrConfiguration, "plex", "resolve library",
		fmt.Sprintf("library %q not found", c.libraryName), nil)
}

// ListItems returns every audiobook in the library as raw catalog records.
func (c *Client) ListItems(ctx context.Context) ([]catalog.RawItem, error) {
	key, err := c.SectionKey(ctx)
	if err != nil {
		return nil, err
	}
	sectionPath := "/library/sections/" + key + "/all"

	var albums mediaContainer
	if err := c.getXML(ctx, sectionPath, url.Values{"type": {plexTypeAlbum}}, &albums); err != nil {
		return nil, err
	}
	found := albums.albums()
	if len(found) == 0 {
		found, err = c.albumsViaArtists(ctx, sectionPath)
		if err != nil {
			return nil, err
		}
	}

	items := make([]catalog.RawItem, 0, len(found))
	for _, album := range found {
		items = append(items, album.raw())
	}
	c.logger.Info("plex library listed",
		logging.String("library", c.libraryName),
		logging.Int("audiobooks", len(items)),
	)
	return items, nil
}

func (c *Client) albumsViaArtists(ctx context.Context, sectionPath string) ([]directory, error) {
	var artists mediaContainer
	if err := c.getXML(ctx, sectionPath, url.Values{"type": {plexTypeArtist}}, &artists); err != nil {
		return nil, err
	}
	var found []directory
	for _, artist := range artists.Directories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if artist.Key == "" {
			continue
		}
		var children mediaContainer
		if err := c.getXML(ctx, artist.Key, nil, &children); err != nil {
			logging.WarnWithContext(c.logger, "failed to list artist albums", "plex_artist_albums",
				logging.String("artist", artist.Title),
				logging.Error(err),
				logging.String(logging.FieldImpact, "this artist's audiobooks are missing from the scan"),
			)
			continue
		}
		for _, album := range children.albums() {
			if album.ParentTitle == "" {
				album.ParentTitle = artist.Title
			}
			found = append(found, album)
		}
	}
	c.logger.Debug("albums listed via artists",
		logging.Int("artists", len(artists.Directories)),
		logging.Int("albums", len(found)),
	)
	return found, nil
}

// AddToCollection tags each item with the collection, creating the collection
// on first use.
func (c *Client) AddToCollection(ctx context.Context, collection string, ratingKeys []string) error {
	key, err := c.SectionKey(ctx)
	if err != nil {
		return err
	}
	for _, id := range ratingKeys {
		params := url.Values{
			"type":                  {plexTypeAlbum},
			"id":                    {id},
			"collection[0].tag.tag": {collection},
		}
		if err := c.put(ctx, "/library/sections/"+key+"/all", params); err != nil {
			return err
		}
	}
	c.logger.Info("plex collection updated",
		logging.String("collection", collection),
		logging.Int("items", len(ratingKeys)),
	)
	return nil
}

// SetSortTitle sets and locks the sort title of one item.
func (c *Client) SetSortTitle(ctx context.Context, ratingKey, sortTitle string) error {
	params := url.Values{
		"type":             {plexTypeAlbum},
		"id":               {ratingKey},
		"titleSort.value":  {sortTitle},
		"titleSort.locked": {"1"},
	}
	return c.put(ctx, "/library/metadata/"+url.PathEscape(ratingKey), params)
}

func (c *Client) getXML(ctx context.Context, path string, params url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrExternal, "plex", "GET "+path, "decode response", err)
	}
	return nil
}

func (c *Client) put(ctx context.Context, path string, params url.Values) error {
	resp, err := c.do(ctx, http.MethodPut, path, params)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// do sends the request and returns the response only for 2xx statuses.
func (c *Client) do(ctx context.Context, method, path string, params url.Values) (*http.Response, error) {
	op := method + " " + path
	if c.baseURL == "" || c.token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "plex", op, "plex url and token are required", nil)
	}
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "plex", op, "build request", err)
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/xml")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "plex", op, "request failed", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, services.Wrap(services.ErrConfiguration, "plex", op, "invalid plex token", nil)
	}
	return nil, services.Wrap(services.ErrExternal, "plex", op,
		fmt.Sprintf("returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
}
