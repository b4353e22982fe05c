package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rookpress/bookstall/internal/checkout"
	"github.com/rookpress/bookstall/internal/platform"
)

type CheckoutHandler struct {
	initiator *checkout.Initiator
	baseURL   string
	logger    *slog.Logger
}

func NewCheckoutHandler(i *checkout.Initiator, baseURL string, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{initiator: i, baseURL: baseURL, logger: logger}
}

type startCheckoutRequest struct {
	PriceID       string `json:"price_id"`
	Quantity      int64  `json:"quantity"`
	Mode          string `json:"mode"`
	SuccessURL    string `json:"success_url"`
	CancelURL     string `json:"cancel_url"`
	CustomerEmail string `json:"customer_email"`

	// Page context reported by the storefront UI; falls back to request
	// headers when absent.
	Origin   string `json:"origin"`
	Referrer string `json:"referrer"`
	Embedded bool   `json:"embedded"`
}

// Start creates a checkout session and returns the payment page URL plus
// whether the UI should open it in a new browsing context.
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	page := checkout.PageContext{
		Origin:   req.Origin,
		Referrer: req.Referrer,
		Embedded: req.Embedded,
	}
	if page.Origin == "" {
		page.Origin = r.Header.Get("Origin")
	}
	if page.Origin == "" {
		// Same-origin requests may omit the Origin header; the deployed
		// public URL is the page origin in that case.
		page.Origin = h.baseURL
	}
	if page.Referrer == "" {
		page.Referrer = r.Referer()
	}
	if !page.Embedded && r.Header.Get("Sec-Fetch-Dest") == "iframe" {
		page.Embedded = true
	}

	opts := checkout.Options{
		Quantity:      req.Quantity,
		Mode:          req.Mode,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		CustomerEmail: req.CustomerEmail,
	}
	// A signed-in user's email backs subscriptions when the UI sent none.
	if opts.CustomerEmail == "" {
		if user := UserFromContext(r.Context()); user != nil {
			opts.CustomerEmail = user.Email
		}
	}

	red, err := h.initiator.Start(r.Context(), req.PriceID, opts, page)
	if err != nil {
		h.startError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, red)
}

func (h *CheckoutHandler) startError(w http.ResponseWriter, err error) {
	var cerr *platform.CheckoutError
	switch {
	case errors.Is(err, checkout.ErrMissingPriceID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &cerr):
		writeError(w, http.StatusBadGateway, cerr.Message)
	case errors.Is(err, checkout.ErrNoCheckoutURL):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, platform.ErrNetwork):
		writeError(w, http.StatusGatewayTimeout, "platform unreachable")
	default:
		h.logger.Error("start checkout", "error", err)
		writeError(w, http.StatusInternalServerError, "unable to start checkout")
	}
}
