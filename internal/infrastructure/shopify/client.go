package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	domain "github.com/mohammadpnp/catalog-sync/internal/domain/catalog"
)

const (
	defaultAPIVersion = "2024-01"
	maxPageSize       = 250
)

var nextLinkPattern = regexp.MustCompile(`<([^>]+)>\s*;\s*rel="?next"?`)

type Config struct {
	APIVersion string
	// BaseURL replaces https://{shop_domain} when set.
	BaseURL    string
	HTTPClient *http.Client
}

// Client reads products from the Shopify Admin REST API.
type Client struct {
	apiVersion string
	baseURL    string
	http       *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		apiVersion: cfg.APIVersion,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		http:       cfg.HTTPClient,
	}
}

func (c *Client) CountProducts(ctx context.Context, store domain.Store) (int64, error) {
	var body struct {
		Count int64 `json:"count"`
	}
	if _, err := c.get(ctx, store, "products/count.json", nil, &body); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return body.Count, nil
}

// ListProducts fetches one page. cursor is the page_info token of the
// previous page's Link header, empty for the first page.
func (c *Client) ListProducts(ctx context.Context, store domain.Store, cursor string, limit int) (domain.ProductPage, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if cursor != "" {
		query.Set("page_info", cursor)
	}

	var body struct {
		Products []domain.UpstreamProduct `json:"products"`
	}
	header, err := c.get(ctx, store, "products.json", query, &body)
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("list products: %w", err)
	}

	return domain.ProductPage{
		Products:   body.Products,
		NextCursor: NextPageInfo(header.Get("Link")),
	}, nil
}

func (c *Client) get(ctx context.Context, store domain.Store, resource string, query url.Values, out any) (http.Header, error) {
	base := c.baseURL
	if base == "" {
		base = "https://" + store.ShopDomain
	}
	endpoint := fmt.Sprintf("%s/admin/api/%s/%s", base, c.apiVersion, resource)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Shopify-Access-Token", store.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("shopify returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return resp.Header, nil
}

// NextPageInfo extracts the page_info of the rel="next" link, or "".
func NextPageInfo(link string) string {
	for _, part := range strings.Split(link, ",") {
		m := nextLinkPattern.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		u, err := url.Parse(m[1])
		if err != nil {
			return ""
		}
		return u.Query().Get("page_info")
	}
	return ""
}
