// Package retroachievements talks to the RetroAchievements Web API to build a
// wish list from a user's "Want to Play" games.
package retroachievements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Web API root.
const DefaultBaseURL = "https://retroachievements.org/API/"

// PageSize is the largest page the want-to-play endpoint returns.
const PageSize = 500

// ErrNoCredentials means the username or API key is missing.
var ErrNoCredentials = errors.New("retroachievements: username and API key are required")

// Client calls the Web API. Requests are limited to one per second.
type Client struct {
	http     *http.Client
	limiter  *rate.Limiter
	baseURL  string
	username string
	apiKey   string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithRate overrides the request rate.
func WithRate(perSecond float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1) }
}

// NewClient returns a client authenticating as username with apiKey.
func NewClient(username, apiKey string, opts ...Option) (*Client, error) {
	if username == "" || apiKey == "" {
		return nil, ErrNoCredentials
	}
	c := &Client{
		http:     &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
		baseURL:  DefaultBaseURL,
		username: username,
		apiKey:   apiKey,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// WantToPlayGame is one entry of the user's list.
type WantToPlayGame struct {
	ID          int    `json:"ID"`
	Title       string `json:"Title"`
	ConsoleID   int    `json:"ConsoleID"`
	ConsoleName string `json:"ConsoleName"`
}

type wantToPlayPage struct {
	Count   int              `json:"Count"`
	Total   int              `json:"Total"`
	Results []WantToPlayGame `json:"Results"`
}

// GameDetails is the subset of API_GetGame used here.
type GameDetails struct {
	Title       string `json:"Title"`
	ConsoleID   int    `json:"ConsoleID"`
	ConsoleName string `json:"ConsoleName"`
}

// GameHash is one hash known for a game. Name is nil when RetroAchievements
// has no file name for the hash.
type GameHash struct {
	MD5    string   `json:"MD5"`
	Name   *string  `json:"Name"`
	Labels []string `json:"Labels"`
}

type gameHashes struct {
	Results []GameHash `json:"Results"`
}

// WantToPlay returns the whole want-to-play list, paging until Total.
func (c *Client) WantToPlay(ctx context.Context) ([]WantToPlayGame, error) {
	var all []WantToPlayGame
	for offset := 0; ; offset += PageSize {
		var page wantToPlayPage
		err := c.call(ctx, "API_GetUserWantToPlayList.php", url.Values{
			"u": {c.username},
			"c": {strconv.Itoa(PageSize)},
			"o": {strconv.Itoa(offset)},
		}, &page)
		if err != nil {
			return nil, err
		}
		if len(page.Results) == 0 {
			break
		}
		all = append(all, page.Results...)
		log.Debug().Int("fetched", len(all)).Int("total", page.Total).Msg("want-to-play page")
		if len(all) >= page.Total {
			break
		}
	}
	return all, nil
}

// Game returns details for a game id.
func (c *Client) Game(ctx context.Context, id int) (GameDetails, error) {
	var g GameDetails
	err := c.call(ctx, "API_GetGame.php", url.Values{"i": {strconv.Itoa(id)}}, &g)
	return g, err
}

// GameHashes returns the hashes RetroAchievements recognises for a game id.
func (c *Client) GameHashes(ctx context.Context, id int) ([]GameHash, error) {
	var h gameHashes
	if err := c.call(ctx, "API_GetGameHashes.php", url.Values{"i": {strconv.Itoa(id)}}, &h); err != nil {
		return nil, err
	}
	return h.Results, nil
}

func (c *Client) call(ctx context.Context, endpoint string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	q.Set("z", c.username)
	q.Set("y", c.apiKey)
	u := c.baseURL + endpoint + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "rahash/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error would print the API key.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: HTTP %d", endpoint, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", endpoint, err)
	}
	return nil
}
