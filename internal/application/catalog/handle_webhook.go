package catalog

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	domain "github.com/mohammadpnp/catalog-sync/internal/domain/catalog"
	"github.com/rs/zerolog"
)

const (
	TopicProductsCreate        = "products/create"
	TopicProductsUpdate        = "products/update"
	TopicProductsDelete        = "products/delete"
	TopicInventoryLevelsUpdate = "inventory_levels/update"
)

type HandleWebhookInput struct {
	Topic      string
	ShopDomain string
	Signature  string
	Body       []byte
}

type HandleWebhookOutput struct {
	Topic    string `json:"topic"`
	Affected int64  `json:"affected"`
	Ignored  bool   `json:"ignored"`
}

type HandleWebhook interface {
	Execute(ctx context.Context, in HandleWebhookInput) (HandleWebhookOutput, error)
}

type storeByDomain interface {
	GetByDomain(ctx context.Context, shopDomain string) (domain.Store, error)
}

type handleWebhook struct {
	secret  []byte
	stores  storeByDomain
	items   domain.CatalogItemRepository
	matcher titleResolver
	logger  zerolog.Logger
}

func NewHandleWebhook(secret string, stores storeByDomain, items domain.CatalogItemRepository, matcher titleResolver, logger zerolog.Logger) HandleWebhook {
	return &handleWebhook{
		secret:  []byte(secret),
		stores:  stores,
		items:   items,
		matcher: matcher,
		logger:  logger.With().Str("component", "webhook").Logger(),
	}
}

// VerifyWebhookSignature checks a base64 HMAC-SHA256 of body.
func VerifyWebhookSignature(secret []byte, body []byte, signature string) bool {
	if len(secret) == 0 || signature == "" {
		return false
	}
	given, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), given)
}

// SignWebhookBody returns the signature header value for body.
func SignWebhookBody(secret []byte, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (uc *handleWebhook) Execute(ctx context.Context, in HandleWebhookInput) (HandleWebhookOutput, error) {
	if !VerifyWebhookSignature(uc.secret, in.Body, in.Signature) {
		return HandleWebhookOutput{}, ErrInvalidSignature
	}

	out := HandleWebhookOutput{Topic: in.Topic}
	switch in.Topic {
	case TopicProductsCreate, TopicProductsUpdate, TopicProductsDelete, TopicInventoryLevelsUpdate:
	default:
		out.Ignored = true
		uc.logger.Info().Str("topic", in.Topic).Msg("ignoring webhook topic")
		return out, nil
	}

	store, err := uc.stores.GetByDomain(ctx, strings.ToLower(strings.TrimSpace(in.ShopDomain)))
	if err != nil {
		if errors.Is(err, domain.ErrStoreNotFound) {
			return HandleWebhookOutput{}, ErrStoreNotFound
		}
		return HandleWebhookOutput{}, fmt.Errorf("%w: %v", ErrLoadStore, err)
	}

	switch in.Topic {
	case TopicProductsCreate:
		out.Affected, err = uc.onCreate(ctx, store, in.Body)
	case TopicProductsUpdate:
		out.Affected, err = uc.onUpdate(ctx, store, in.Body)
	case TopicProductsDelete:
		out.Affected, err = uc.onDelete(ctx, store, in.Body)
	case TopicInventoryLevelsUpdate:
		out.Affected, err = uc.onInventory(ctx, store, in.Body)
	}
	if err != nil {
		return HandleWebhookOutput{}, err
	}

	uc.logger.Info().
		Str("topic", in.Topic).
		Str("store_id", store.ID).
		Int64("affected", out.Affected).
		Msg("webhook applied")
	return out, nil
}

func (uc *handleWebhook) onCreate(ctx context.Context, store domain.Store, body []byte) (int64, error) {
	product, err := decodeProduct(body)
	if err != nil {
		return 0, err
	}
	match := uc.matcher.NewSession().Resolve(ctx, product.Title)
	return uc.upsertProduct(ctx, store.ID, product, func(domain.UpstreamVariant) (domain.MatchResult, []domain.ProductImage) {
		return match, nil
	})
}

func (uc *handleWebhook) onUpdate(ctx context.Context, store domain.Store, body []byte) (int64, error) {
	product, err := decodeProduct(body)
	if err != nil {
		return 0, err
	}

	session := uc.matcher.NewSession()
	matches := make(map[int64]domain.MatchResult, len(product.Variants))
	fallbacks := make(map[int64][]domain.ProductImage, len(product.Variants))
	for _, variant := range product.Variants {
		found, err := uc.items.FindByVariant(ctx, store.ID, strconv.FormatInt(variant.ID, 10))
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrApplyWebhook, err)
		}
		existing, ok := found.Get()
		if ok {
			fallbacks[variant.ID] = existing.Images
		}
		switch {
		case !ok:
			matches[variant.ID] = session.Resolve(ctx, product.Title)
		case existing.IsMatched():
			matches[variant.ID] = existing.CurrentMatch()
		case existing.Title != product.Title:
			matches[variant.ID] = session.Resolve(ctx, product.Title)
		default:
			matches[variant.ID] = domain.NotFound()
		}
	}

	return uc.upsertProduct(ctx, store.ID, product, func(v domain.UpstreamVariant) (domain.MatchResult, []domain.ProductImage) {
		return matches[v.ID], fallbacks[v.ID]
	})
}

// upsertProduct writes one row per variant. resolve supplies the match and
// the images to keep when the product itself has none.
func (uc *handleWebhook) upsertProduct(ctx context.Context, storeID string, product domain.UpstreamProduct, resolve func(domain.UpstreamVariant) (domain.MatchResult, []domain.ProductImage)) (int64, error) {
	items := make([]domain.CatalogItem, 0, len(product.Variants))
	for _, variant := range product.Variants {
		match, fallback := resolve(variant)
		item, err := domain.NewCatalogItem(storeID, product, variant, match, fallback)
		if err != nil {
			uc.logger.Warn().Err(err).Int64("product_id", product.ID).Msg("skipping catalog variant")
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return 0, nil
	}
	if err := uc.items.Upsert(ctx, items); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrApplyWebhook, err)
	}
	return int64(len(items)), nil
}

func (uc *handleWebhook) onDelete(ctx context.Context, store domain.Store, body []byte) (int64, error) {
	var payload struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.ID == 0 {
		return 0, ErrInvalidWebhookPayload
	}
	deleted, err := uc.items.DeleteByProduct(ctx, store.ID, strconv.FormatInt(payload.ID, 10))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrApplyWebhook, err)
	}
	return deleted, nil
}

func (uc *handleWebhook) onInventory(ctx context.Context, store domain.Store, body []byte) (int64, error) {
	var level domain.InventoryLevel
	if err := json.Unmarshal(body, &level); err != nil || level.InventoryItemID == 0 {
		return 0, ErrInvalidWebhookPayload
	}
	updated, err := uc.items.UpdateInventory(ctx, store.ID, strconv.FormatInt(level.InventoryItemID, 10), level.Available)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrApplyWebhook, err)
	}
	return updated, nil
}

func decodeProduct(body []byte) (domain.UpstreamProduct, error) {
	var product domain.UpstreamProduct
	if err := json.Unmarshal(body, &product); err != nil {
		return domain.UpstreamProduct{}, fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
	}
	if product.ID == 0 {
		return domain.UpstreamProduct{}, fmt.Errorf("%w: missing product id", ErrInvalidWebhookPayload)
	}
	return product, nil
}
