package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rookpress/bookstall/internal/platform"
	"github.com/rookpress/bookstall/internal/purchase"
)

type PurchaseHandler struct {
	purchases *purchase.Service
	tokens    TokenSource
	logger    *slog.Logger
}

func NewPurchaseHandler(p *purchase.Service, tokens TokenSource, logger *slog.Logger) *PurchaseHandler {
	return &PurchaseHandler{purchases: p, tokens: tokens, logger: logger}
}

// Products returns the catalog. An empty store is a valid, non-error answer.
func (h *PurchaseHandler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.purchases.Products(r.Context())
	if err != nil {
		h.logger.Error("list products", "error", err)
		writeError(w, http.StatusBadGateway, "unable to load products")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

// proofFor picks exactly one proof mechanism for the request: a checkout
// session id from the query when present (guest flow from the success page),
// otherwise the stored bearer token. An invalid proof means the caller must
// sign in or supply a session id.
func (h *PurchaseHandler) proofFor(r *http.Request) platform.Proof {
	if sid := r.URL.Query().Get("session_id"); sid != "" {
		return platform.CheckoutSessionProof(sid)
	}
	if token := h.tokens.Token(r); token != "" {
		return platform.BearerProof(token)
	}
	return platform.Proof{}
}

// Verify checks entitlement for a product under the request's proof.
func (h *PurchaseHandler) Verify(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	proof := h.proofFor(r)
	if !proof.Valid() {
		writeError(w, http.StatusUnauthorized, "sign in or provide a checkout session id")
		return
	}

	v, err := h.purchases.VerifyEntitlement(r.Context(), productID, proof)
	if err != nil {
		h.platformError(w, "verify purchase", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"hasPurchased": v.HasPurchased,
		"purchaseDate": v.PurchaseDate,
		"amount":       v.Amount,
		"currency":     v.Currency,
		"guest":        proof.Guest(),
	})
}

// List returns every catalog product the signed-in user owns.
func (h *PurchaseHandler) List(w http.ResponseWriter, r *http.Request) {
	token := h.tokens.Token(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	purchases, err := h.purchases.ListMyPurchases(r.Context(), token)
	if err != nil {
		h.logger.Error("list purchases", "error", err)
		writeError(w, http.StatusBadGateway, "unable to load purchases")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"purchases": purchases})
}

// Download verifies entitlement and streams the asset with a file name hint.
func (h *PurchaseHandler) Download(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	proof := h.proofFor(r)
	if !proof.Valid() {
		writeError(w, http.StatusUnauthorized, "sign in or provide a checkout session id")
		return
	}

	data, name, err := h.purchases.FetchAsset(r.Context(), productID, proof)
	if errors.Is(err, purchase.ErrNotEntitled) {
		writeError(w, http.StatusForbidden, "you have not purchased this product")
		return
	}
	if err != nil {
		h.platformError(w, "download asset", err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(data)
}

// platformError maps platform client failures onto responses, keeping the
// platform's reported message visible to the UI.
func (h *PurchaseHandler) platformError(w http.ResponseWriter, op string, err error) {
	var verr *platform.VerificationError
	var derr *platform.DownloadError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadGateway, verr.Message)
	case errors.As(err, &derr):
		writeError(w, http.StatusBadGateway, derr.Message)
	case errors.Is(err, platform.ErrNetwork):
		writeError(w, http.StatusGatewayTimeout, "platform unreachable")
	default:
		h.logger.Error(op, "error", err)
		writeError(w, http.StatusBadGateway, "platform request failed")
	}
}
