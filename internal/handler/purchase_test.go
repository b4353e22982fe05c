package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rookpress/bookstall/internal/model"
	"github.com/rookpress/bookstall/internal/platform"
	"github.com/rookpress/bookstall/internal/purchase"
)

// proofRecorder captures which proof reached the platform boundary.
type proofRecorder struct {
	lastProof     platform.Proof
	verification  *platform.Verification
	downloadCalls int
}

func (p *proofRecorder) ListProducts(ctx context.Context) ([]model.Product, error) {
	return nil, nil
}

func (p *proofRecorder) VerifyPurchase(ctx context.Context, productID string, proof platform.Proof) (*platform.Verification, error) {
	p.lastProof = proof
	if p.verification != nil {
		return p.verification, nil
	}
	return &platform.Verification{HasPurchased: false}, nil
}

func (p *proofRecorder) Download(ctx context.Context, productID string, proof platform.Proof) ([]byte, string, error) {
	p.downloadCalls++
	return []byte("bytes"), "book.pdf", nil
}

func newPurchaseHandler(api purchase.PlatformAPI) *PurchaseHandler {
	svc := purchase.NewService(api, purchase.Config{}, slog.New(slog.DiscardHandler))
	return NewPurchaseHandler(svc, NewCookieTokenSource(false), slog.New(slog.DiscardHandler))
}

func TestVerifyPrefersCheckoutSessionOverCookie(t *testing.T) {
	api := &proofRecorder{verification: &platform.Verification{HasPurchased: true, Amount: 999, Currency: "usd"}}
	h := newPurchaseHandler(api)

	req := httptest.NewRequest("GET", "/api/purchases/verify?product_id=p1&session_id=cs_test_1", nil)
	req.AddCookie(&http.Cookie{Name: DefaultSessionCookie, Value: "tok"})
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if !api.lastProof.Guest() {
		t.Error("expected the checkout-session proof to win when both are present")
	}

	var v struct {
		Guest bool `json:"guest"`
	}
	json.Unmarshal(rec.Body.Bytes(), &v)
	if !v.Guest {
		t.Error("response should flag guest access")
	}
}

func TestVerifyFallsBackToBearerCookie(t *testing.T) {
	api := &proofRecorder{verification: &platform.Verification{HasPurchased: true}}
	h := newPurchaseHandler(api)

	req := httptest.NewRequest("GET", "/api/purchases/verify?product_id=p1", nil)
	req.AddCookie(&http.Cookie{Name: DefaultSessionCookie, Value: "tok"})
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if api.lastProof.Guest() {
		t.Error("expected the bearer proof without a session id")
	}
}

func TestVerifyMissingProductID(t *testing.T) {
	h := newPurchaseHandler(&proofRecorder{})

	rec := httptest.NewRecorder()
	h.Verify(rec, httptest.NewRequest("GET", "/api/purchases/verify?session_id=cs", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDownloadUnentitled(t *testing.T) {
	api := &proofRecorder{} // verifies as not purchased
	h := newPurchaseHandler(api)

	req := httptest.NewRequest("GET", "/api/download?product_id=p1&session_id=cs", nil)
	rec := httptest.NewRecorder()
	h.Download(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if api.downloadCalls != 0 {
		t.Errorf("download calls = %d, want 0", api.downloadCalls)
	}
}

func TestDownloadStreamsAssetWithFileName(t *testing.T) {
	api := &proofRecorder{verification: &platform.Verification{HasPurchased: true}}
	h := newPurchaseHandler(api)

	req := httptest.NewRequest("GET", "/api/download?product_id=p1&session_id=cs", nil)
	rec := httptest.NewRecorder()
	h.Download(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="book.pdf"` {
		t.Errorf("content-disposition = %q", cd)
	}
}
