package giftcard

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/BillixOfficial/rewards-backend/config"
	"github.com/BillixOfficial/rewards-backend/pkg/api"

	"github.com/puzpuzpuz/xsync"
)

const apiKeyHeader = "X-Api-Key"
const rfc3339 = time.RFC3339

const (
	createOrderResource  = "create_order"
	listProductsResource = "list_products"
)

type Endpoint struct {
	domain string
	apiKey string

	apiGenerator api.Generator
	rateLimits   *xsync.MapOf[string, time.Time]
}

func New(cfg config.GiftCardConfigs) *Endpoint {
	return &Endpoint{
		domain:       cfg.Endpoint,
		apiKey:       cfg.APIKey,
		apiGenerator: api.NewGenerator(),
		rateLimits:   xsync.NewMapOf[time.Time](),
	}
}

func (e *Endpoint) ListProducts(ctx context.Context) ([]Product, error) {
	if err := e.checkLimitingResource(listProductsResource); err != nil {
		return nil, err
	}

	resp, err := e.apiGenerator.New(e.domain, "/products").
		GET(ctx, api.APIKey(apiKeyHeader, e.apiKey))
	if err != nil {
		return nil, err
	}

	if err := e.checkTooManyRequest(resp, listProductsResource); err != nil {
		return nil, err
	}

	array, ok := resp.Body.(api.Array)
	if !ok {
		return nil, errors.New("invalid response")
	}

	var products []Product
	for _, obj := range array {
		product, err := parseProduct(obj)
		if err != nil {
			return nil, err
		}

		products = append(products, product)
	}

	return products, nil
}

func (e *Endpoint) CreateOrder(ctx context.Context, order OrderRequest) (Order, error) {
	if err := e.checkLimitingResource(createOrderResource); err != nil {
		return Order{}, err
	}

	resp, err := e.apiGenerator.New(e.domain, "/orders").
		Body(api.JSON{
			"external_id":     order.ExternalID,
			"sku":             order.SKU,
			"quantity":        order.Quantity,
			"recipient_email": order.RecipientEmail,
		}).
		POST(ctx, api.APIKey(apiKeyHeader, e.apiKey))
	if err != nil {
		return Order{}, err
	}

	if err := e.checkTooManyRequest(resp, createOrderResource); err != nil {
		return Order{}, err
	}

	if resp.Code != http.StatusOK && resp.Code != http.StatusCreated {
		return Order{}, errors.New("cannot create the order")
	}

	body, ok := resp.Body.(api.JSON)
	if !ok {
		return Order{}, errors.New("invalid response")
	}

	return parseOrder(body)
}

func (e *Endpoint) GetOrder(ctx context.Context, orderID string) (Order, error) {
	resp, err := e.apiGenerator.New(e.domain, "/orders/%s", orderID).
		GET(ctx, api.APIKey(apiKeyHeader, e.apiKey))
	if err != nil {
		return Order{}, err
	}

	body, ok := resp.Body.(api.JSON)
	if !ok {
		return Order{}, errors.New("invalid response")
	}

	return parseOrder(body)
}

func parseProduct(obj api.JSON) (Product, error) {
	sku, err := obj.GetString("sku")
	if err != nil {
		return Product{}, err
	}

	name, err := obj.GetString("name")
	if err != nil {
		return Product{}, err
	}

	brand, err := obj.GetString("brand")
	if err != nil {
		return Product{}, err
	}

	faceValue, err := obj.GetFloat("face_value")
	if err != nil {
		return Product{}, err
	}

	currency, err := obj.GetString("currency")
	if err != nil {
		return Product{}, err
	}

	available, err := obj.GetBool("available")
	if err != nil {
		return Product{}, err
	}

	return Product{
		SKU:       sku,
		Name:      name,
		Brand:     brand,
		FaceValue: faceValue,
		Currency:  currency,
		Available: available,
	}, nil
}

func parseOrder(body api.JSON) (Order, error) {
	id, err := body.GetString("id")
	if err != nil {
		return Order{}, err
	}

	externalID, err := body.GetString("external_id")
	if err != nil {
		return Order{}, err
	}

	status, err := body.GetString("status")
	if err != nil {
		return Order{}, err
	}

	createdAt, err := body.GetTime("created_at", rfc3339)
	if err != nil {
		return Order{}, err
	}

	// The code and claim url only appear after the order is fulfilled.
	code, _ := body.GetString("code")
	claimURL, _ := body.GetString("claim_url")

	return Order{
		ID:         id,
		ExternalID: externalID,
		Status:     status,
		Code:       code,
		ClaimURL:   claimURL,
		CreatedAt:  createdAt,
	}, nil
}

func (e *Endpoint) checkLimitingResource(resource string) error {
	if resetAt, ok := e.rateLimits.Load(resource); ok {
		if resetAt.After(time.Now()) {
			return wrapRateLimit(resetAt.Unix())
		}

		// If the rate limit is reset, delete the limit for this resource.
		e.rateLimits.Delete(resource)
	}

	return nil
}

func (e *Endpoint) checkTooManyRequest(resp *api.Response, resource string) error {
	if resp.Code == http.StatusTooManyRequests {
		resetAt, err := strconv.Atoi(resp.Header.Get("X-Ratelimit-Reset"))
		if err != nil {
			return err
		}

		e.rateLimits.Store(resource, time.Unix(int64(resetAt), 0))
		return wrapRateLimit(int64(resetAt))
	}

	return nil
}
