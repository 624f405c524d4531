package ygoprodeck

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

	domain "github.com/mohammadpnp/catalog-sync/internal/domain/catalog"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://db.ygoprodeck.com/api/v7/cardinfo.php"

type Config struct {
	BaseURL string
	// RequestsPerSecond caps outgoing calls; the public API allows 20/s.
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// Client queries the YGOProDeck card database.
type Client struct {
	baseURL string
	limiter *rate.Limiter
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL: cfg.BaseURL,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		http:    cfg.HTTPClient,
	}
}

func (c *Client) ExactName(ctx context.Context, name string) ([]domain.CanonicalCard, error) {
	return c.query(ctx, url.Values{"name": {name}})
}

func (c *Client) FuzzyName(ctx context.Context, fragment string, limit int) ([]domain.CanonicalCard, error) {
	query := url.Values{"fname": {fragment}}
	if limit > 0 {
		query.Set("num", strconv.Itoa(limit))
		query.Set("offset", "0")
	}
	return c.query(ctx, query)
}

func (c *Client) CardsUpdatedSince(ctx context.Context, since time.Time) ([]domain.CanonicalCard, error) {
	return c.query(ctx, url.Values{
		"dateregion": {"tcg_date"},
		"startdate":  {since.UTC().Format("2006-01-02")},
		"enddate":    {time.Now().UTC().Format("2006-01-02")},
	})
}

func (c *Client) AllCards(ctx context.Context) ([]domain.CanonicalCard, error) {
	return c.query(ctx, nil)
}

// query returns no cards, not an error, when the API reports no match.
func (c *Client) query(ctx context.Context, query url.Values) ([]domain.CanonicalCard, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := c.baseURL
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ygoprodeck returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var body cardInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode card info: %w", err)
	}
	if body.Error != "" {
		return nil, nil
	}

	cards := make([]domain.CanonicalCard, 0, len(body.Data))
	for _, raw := range body.Data {
		cards = append(cards, raw.toDomain())
	}
	return cards, nil
}

type cardInfoResponse struct {
	Data  []rawCard `json:"data"`
	Error string    `json:"error"`
}

type rawCard struct {
	ID         int64              `json:"id"`
	Name       string             `json:"name"`
	Type       string             `json:"type"`
	Race       string             `json:"race"`
	Attribute  string             `json:"attribute"`
	Archetype  string             `json:"archetype"`
	Desc       string             `json:"desc"`
	Atk        *int64             `json:"atk"`
	Def        *int64             `json:"def"`
	Level      *int64             `json:"level"`
	Scale      *int64             `json:"scale"`
	LinkVal    *int64             `json:"linkval"`
	CardSets   []domain.CardSet   `json:"card_sets"`
	CardPrices []domain.CardPrice `json:"card_prices"`
	CardImages []struct {
		ImageURL        string `json:"image_url"`
		ImageURLSmall   string `json:"image_url_small"`
		ImageURLCropped string `json:"image_url_cropped"`
	} `json:"card_images"`
}

func (r rawCard) toDomain() domain.CanonicalCard {
	card := domain.CanonicalCard{
		ID:          r.ID,
		Name:        r.Name,
		Type:        r.Type,
		Race:        r.Race,
		Attribute:   r.Attribute,
		Archetype:   r.Archetype,
		Atk:         r.Atk,
		Def:         r.Def,
		Level:       r.Level,
		Scale:       r.Scale,
		LinkValue:   r.LinkVal,
		Description: r.Desc,
		Sets:        r.CardSets,
		Prices:      r.CardPrices,
	}
	if len(r.CardImages) > 0 {
		card.ImageURL = r.CardImages[0].ImageURL
		card.ImageURLSmall = r.CardImages[0].ImageURLSmall
		card.ImageURLCropped = r.CardImages[0].ImageURLCropped
	}
	return card
}
