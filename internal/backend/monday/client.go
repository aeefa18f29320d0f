// Package monday reads boards and items from the monday.com GraphQL API.
package monday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/soyeahso/drivedesk/internal/domain"
	"github.com/soyeahso/drivedesk/internal/logging"
	"github.com/soyeahso/drivedesk/internal/tools"
	"github.com/soyeahso/drivedesk/internal/version"
)

const (
	DefaultAPIURL  = "https://api.monday.com/v2"
	DefaultItemCap = 50
	boardScanLimit = 200
	defaultTimeout = 30 * time.Second
)

// ErrNoAPIKey is returned by New when no key is configured.
var ErrNoAPIKey = errors.New("monday api key is not set")

// Config configures the client.
type Config struct {
	APIURL  string
	APIKey  string
	ItemCap int
	Timeout time.Duration
}

// Client implements tools.BoardBackend.
type Client struct {
	http    *resty.Client
	apiURL  string
	itemCap int
	log     *logging.Logger
}

// New creates a client.
func New(cfg Config, log *logging.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.ItemCap <= 0 {
		cfg.ItemCap = DefaultItemCap
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	hc := resty.New().
		SetHeader("Authorization", cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", version.UserAgent()).
		SetTimeout(cfg.Timeout)
	return &Client{http: hc, apiURL: cfg.APIURL, itemCap: cfg.ItemCap, log: log.Sub("monday")}, nil
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
	ErrorMessage string `json:"error_message"`
}

func (c *Client) query(ctx context.Context, q string, vars map[string]any, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(gqlRequest{Query: q, Variables: vars}).
		Post(c.apiURL)
	if err != nil {
		return fmt.Errorf("monday request: %w", err)
	}

	var gr gqlResponse
	decodeErr := json.Unmarshal(resp.Body(), &gr)

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return fmt.Errorf("monday: %s: %w", resp.Status(), tools.ErrNotAccessible)
	default:
		msg := strings.TrimSpace(resp.String())
		if decodeErr == nil && gr.ErrorMessage != "" {
			msg = gr.ErrorMessage
		}
		return fmt.Errorf("monday: status %d: %s", resp.StatusCode(), msg)
	}

	if decodeErr != nil {
		return fmt.Errorf("decode monday response: %w", decodeErr)
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, len(gr.Errors))
		for i, e := range gr.Errors {
			msgs[i] = e.Message
		}
		return fmt.Errorf("monday api: %s", strings.Join(msgs, "; "))
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("decode monday data: %w", err)
	}
	return nil
}

const boardsQuery = `query ($limit: Int) { boards (limit: $limit) { id name } }`

// SearchBoards returns boards whose name contains name, ignoring case.
func (c *Client) SearchBoards(ctx context.Context, name string) ([]domain.Board, error) {
	var data struct {
		Boards []domain.Board `json:"boards"`
	}
	if err := c.query(ctx, boardsQuery, map[string]any{"limit": boardScanLimit}, &data); err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(name))
	var out []domain.Board
	for _, b := range data.Boards {
		if strings.Contains(strings.ToLower(b.Name), needle) {
			out = append(out, b)
		}
	}
	c.log.Debug().Str("query", name).Int("scanned", len(data.Boards)).Int("matched", len(out)).Msg("board search")
	return out, nil
}

const itemsQuery = `query ($boardId: [ID!], $limit: Int) {
  boards (ids: $boardId) {
    id
    name
    items_page (limit: $limit) {
      items { id name column_values { id text } }
    }
  }
}`

type itemsData struct {
	Boards []struct {
		ID        string `json:"id"`
		ItemsPage struct {
			Items []struct {
				ID           string `json:"id"`
				Name         string `json:"name"`
				ColumnValues []struct {
					ID   string  `json:"id"`
					Text *string `json:"text"`
				} `json:"column_values"`
			} `json:"items"`
		} `json:"items_page"`
	} `json:"boards"`
}

// FetchBoardItems returns up to the configured number of items on a board.
func (c *Client) FetchBoardItems(ctx context.Context, boardID string) ([]domain.BoardItem, error) {
	var data itemsData
	vars := map[string]any{"boardId": []string{boardID}, "limit": c.itemCap}
	if err := c.query(ctx, itemsQuery, vars, &data); err != nil {
		return nil, err
	}
	if len(data.Boards) == 0 {
		return nil, fmt.Errorf("board %s: %w", boardID, tools.ErrNotAccessible)
	}

	raw := data.Boards[0].ItemsPage.Items
	items := make([]domain.BoardItem, 0, len(raw))
	for _, it := range raw {
		item := domain.BoardItem{ID: it.ID, Name: it.Name}
		for _, cv := range it.ColumnValues {
			if cv.Text == nil || *cv.Text == "" {
				continue
			}
			if item.Columns == nil {
				item.Columns = make(map[string]string)
			}
			item.Columns[cv.ID] = *cv.Text
		}
		items = append(items, item)
	}
	return items, nil
}

var _ tools.BoardBackend = (*Client)(nil)
