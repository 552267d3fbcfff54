package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dropship/backend/internal/domain/queue"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// itemResponse is the marketplace item payload
type itemResponse struct {
	ItemID string `json:"item_id"`
	Title  string `json:"title"`
	Price  struct {
		Value    decimal.Decimal `json:"value"`
		Currency string          `json:"currency"`
	} `json:"price"`
	Quantity   int `json:"quantity"`
	SoldCount  int `json:"sold_count"`
	WatchCount int `json:"watch_count"`
}

// RefreshClient implements queue.Refresher against the marketplace item API
type RefreshClient struct {
	client *httpClient
	now    func() time.Time
}

// NewRefreshClient creates a refresh client
func NewRefreshClient(cfg Config) (*RefreshClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &RefreshClient{
		client: newHTTPClient(cfg.BaseURL, cfg.APIToken, cfg),
		now:    time.Now,
	}, nil
}

// SplitSubjectKey splits "marketplace:item" into its parts
func SplitSubjectKey(subjectKey string) (string, string, error) {
	market, item, ok := strings.Cut(strings.TrimSpace(subjectKey), ":")
	if !ok || market == "" || item == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSubjectKey, subjectKey)
	}
	return strings.ToLower(market), item, nil
}

// Refresh fetches the current record of one subject
func (c *RefreshClient) Refresh(ctx context.Context, subjectKey string) (*queue.ProductSnapshot, error) {
	market, item, err := SplitSubjectKey(subjectKey)
	if err != nil {
		return nil, err
	}

	var resp itemResponse
	path := fmt.Sprintf("/v1/%s/items/%s", url.PathEscape(market), url.PathEscape(item))
	if err := c.client.doJSON(ctx, "refresh item", http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Title == "" {
		return nil, fmt.Errorf("%w: item %s has no title", ErrInvalidResponse, subjectKey)
	}

	cur, err := valueobject.ParseCurrency(resp.Price.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: item %s: %v", ErrInvalidResponse, subjectKey, err)
	}

	return &queue.ProductSnapshot{
		SubjectKey:  subjectKey,
		Title:       resp.Title,
		Price:       resp.Price.Value,
		Currency:    cur,
		Quantity:    resp.Quantity,
		SoldCount:   resp.SoldCount,
		WatchCount:  resp.WatchCount,
		RefreshedAt: c.now().UTC(),
	}, nil
}
