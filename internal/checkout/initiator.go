// Package checkout starts purchases: it resolves where the payment page
// should send the buyer back to, creates a checkout session on the platform,
// and tells the caller how to navigate there.
package checkout

import (
	"context"
	"errors"
	"strings"

	"github.com/rookpress/bookstall/internal/platform"
)

var (
	// ErrMissingPriceID means Start was called without a price id. This is a
	// required precondition; nothing is sent to the platform.
	ErrMissingPriceID = errors.New("price id is required for checkout")
	// ErrNoCheckoutURL means the platform accepted the request but returned
	// no payment page URL.
	ErrNoCheckoutURL = errors.New("no checkout URL returned")
)

const (
	// successSuffix carries the processor's session-id placeholder, filled in
	// by the payment page on redirect.
	successSuffix = "/success?session_id={CHECKOUT_SESSION_ID}"
	cancelSuffix  = "/cancel"
)

// PageContext describes where the storefront page issuing the checkout is
// running. Preview environments (sandboxes, local dev, embedded frames, or
// pages reached from the platform itself) must redirect back to the platform
// origin rather than their own.
type PageContext struct {
	Origin   string
	Referrer string
	Embedded bool
}

// Options tune a checkout request. Zero values get the defaults: quantity 1,
// one-time payment mode, and success/cancel URLs derived from the redirect
// base.
type Options struct {
	Quantity      int64
	Mode          string
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
}

// Redirect tells the caller where to send the buyer. NewTab is set when the
// page is embedded, because the payment page refuses to render inside a
// frame.
type Redirect struct {
	URL    string `json:"url"`
	NewTab bool   `json:"new_tab"`
}

// CheckoutCreator is the slice of the platform client the initiator needs.
type CheckoutCreator interface {
	CreateCheckout(ctx context.Context, cr platform.CheckoutRequest) (*platform.CheckoutSession, error)
}

type Initiator struct {
	api           CheckoutCreator
	platformURL   string
	referrerHosts []string
}

// NewInitiator builds an Initiator. platformURL is the redirect base used for
// preview environments; referrerHosts lists domains whose referrals mark a
// page as platform-hosted.
func NewInitiator(api CheckoutCreator, platformURL string, referrerHosts []string) *Initiator {
	return &Initiator{
		api:           api,
		platformURL:   strings.TrimRight(platformURL, "/"),
		referrerHosts: referrerHosts,
	}
}

// Start creates a checkout session for the given price and reports the
// payment page URL. It fails fast on a missing price id, and fails with
// ErrNoCheckoutURL if the platform reply has no URL to navigate to.
func (i *Initiator) Start(ctx context.Context, priceID string, opts Options, page PageContext) (*Redirect, error) {
	if priceID == "" {
		return nil, ErrMissingPriceID
	}

	quantity := opts.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	mode := opts.Mode
	if mode == "" {
		mode = "payment"
	}

	base := i.redirectBase(page)
	cr := platform.CheckoutRequest{
		PriceID:    priceID,
		Quantity:   quantity,
		Mode:       mode,
		SuccessURL: opts.SuccessURL,
		CancelURL:  opts.CancelURL,
	}
	if cr.SuccessURL == "" {
		cr.SuccessURL = base + successSuffix
	}
	if cr.CancelURL == "" {
		cr.CancelURL = base + cancelSuffix
	}
	// The processor needs the email to tie a subscription to an identity.
	if mode == "subscription" && opts.CustomerEmail != "" {
		cr.CustomerEmail = opts.CustomerEmail
	}

	sess, err := i.api.CreateCheckout(ctx, cr)
	if err != nil {
		return nil, err
	}
	if sess.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &Redirect{URL: sess.URL, NewTab: page.Embedded}, nil
}

// redirectBase picks where the payment page sends the buyer afterwards: the
// platform origin for preview environments, the page's own origin when the
// storefront runs deployed.
func (i *Initiator) redirectBase(page PageContext) string {
	if i.isPreview(page) {
		return i.platformURL
	}
	return strings.TrimRight(page.Origin, "/")
}

func (i *Initiator) isPreview(page PageContext) bool {
	if page.Embedded {
		return true
	}
	origin := strings.ToLower(page.Origin)
	if origin == "" ||
		strings.Contains(origin, "sandbox") ||
		strings.Contains(origin, "codesandbox") ||
		strings.Contains(origin, "localhost") ||
		strings.Contains(origin, "127.0.0.1") {
		return true
	}
	referrer := strings.ToLower(page.Referrer)
	for _, host := range i.referrerHosts {
		if host != "" && strings.Contains(referrer, strings.ToLower(host)) {
			return true
		}
	}
	return false
}
