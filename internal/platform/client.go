// Package platform is the HTTP client for the external commerce platform,
// which owns the product catalog, checkout sessions, purchase verification,
// and asset delivery.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/rookpress/bookstall/internal/model"
)

// Config holds platform connection settings.
type Config struct {
	// BaseURL is the platform origin, e.g. https://platform.example.com.
	BaseURL string
	// WebappID scopes every API path to this storefront.
	WebappID string
	// Timeout bounds each platform call. Defaults to 15s.
	Timeout time.Duration
}

// Client talks to the platform's payments API. Calls are not retried;
// transport failures and timeouts surface as ErrNetwork.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// BaseURL returns the configured platform origin.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

func (c *Client) endpoint(name string) string {
	return fmt.Sprintf("%s/api/webapps/%s/payments/%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.WebappID, name)
}

type storefrontResponse struct {
	Products []model.Product `json:"products"`
}

// ListProducts fetches the catalog. An empty catalog is a valid result.
func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("storefront"), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch products: %s", apiMessage(resp))
	}

	var sr storefrontResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if sr.Products == nil {
		return []model.Product{}, nil
	}
	return sr.Products, nil
}

// CheckoutRequest is the body for checkout-session creation. Field names
// follow the platform's wire contract.
type CheckoutRequest struct {
	PriceID       string `json:"priceId"`
	Quantity      int64  `json:"quantity"`
	Mode          string `json:"mode"`
	SuccessURL    string `json:"successUrl"`
	CancelURL     string `json:"cancelUrl"`
	CustomerEmail string `json:"customerEmail,omitempty"`
}

// CheckoutSession is the platform's reply to a checkout-creation request.
type CheckoutSession struct {
	URL string `json:"url"`
}

// CreateCheckout asks the platform to create a checkout session.
func (c *Client) CreateCheckout(ctx context.Context, cr CheckoutRequest) (*CheckoutSession, error) {
	body, err := json.Marshal(cr)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("checkout"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &CheckoutError{Status: resp.StatusCode, Message: apiMessage(resp)}
	}

	var cs CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&cs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &cs, nil
}

// Verification is the platform's answer to a purchase check. PurchaseDate is
// the ISO timestamp reported by the platform, left as-is.
type Verification struct {
	HasPurchased bool   `json:"hasPurchased"`
	PurchaseDate string `json:"purchaseDate,omitempty"`
	Amount       int64  `json:"amount,omitempty"`
	Currency     string `json:"currency,omitempty"`
}

// VerifyPurchase checks entitlement for a product under the given proof.
func (c *Client) VerifyPurchase(ctx context.Context, productID string, proof Proof) (*Verification, error) {
	if !proof.Valid() {
		return nil, ErrMissingProof
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("verify"), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("product_id", productID)
	req.URL.RawQuery = q.Encode()
	proof.apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &VerificationError{Status: resp.StatusCode, Message: apiMessage(resp)}
	}

	var v Verification
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &v, nil
}

// Download retrieves a product's binary asset. The suggested file name comes
// from the Content-Disposition header, falling back to a name derived from
// the product id.
func (c *Client) Download(ctx context.Context, productID string, proof Proof) ([]byte, string, error) {
	if !proof.Valid() {
		return nil, "", ErrMissingProof
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("download"), nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("product_id", productID)
	req.URL.RawQuery = q.Encode()
	proof.apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &DownloadError{Status: resp.StatusCode, Message: apiMessage(resp)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	return data, suggestedFileName(resp.Header.Get("Content-Disposition"), productID), nil
}

func suggestedFileName(contentDisposition, productID string) string {
	if contentDisposition != "" {
		if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
			if name := params["filename"]; name != "" {
				return name
			}
		}
	}
	return "product-" + productID + ".pdf"
}

// apiMessage extracts the platform's error message from a non-success
// response body, falling back to the HTTP status line.
func apiMessage(resp *http.Response) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
		return e.Error
	}
	return resp.Status
}
