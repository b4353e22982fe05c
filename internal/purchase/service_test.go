package purchase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/rookpress/bookstall/internal/model"
	"github.com/rookpress/bookstall/internal/platform"
)

type fakePlatform struct {
	mu            sync.Mutex
	products      []model.Product
	verifications map[string]*platform.Verification
	verifyErrs    map[string]error
	downloadCalls int
	downloadData  []byte
	downloadName  string
}

func (f *fakePlatform) ListProducts(ctx context.Context) ([]model.Product, error) {
	return f.products, nil
}

func (f *fakePlatform) VerifyPurchase(ctx context.Context, productID string, proof platform.Proof) (*platform.Verification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.verifyErrs[productID]; err != nil {
		return nil, err
	}
	if v := f.verifications[productID]; v != nil {
		return v, nil
	}
	return &platform.Verification{HasPurchased: false}, nil
}

func (f *fakePlatform) Download(ctx context.Context, productID string, proof platform.Proof) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloadCalls++
	return f.downloadData, f.downloadName, nil
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func product(id, name string) model.Product {
	return model.Product{ID: id, Name: name, Price: model.Price{Amount: 999, Currency: "usd"}, PriceID: "price_" + id}
}

func TestListMyPurchasesCollectsEntitledInCatalogOrder(t *testing.T) {
	api := &fakePlatform{
		products: []model.Product{product("p1", "One"), product("p2", "Two"), product("p3", "Three")},
		verifications: map[string]*platform.Verification{
			"p1": {HasPurchased: true, PurchaseDate: "2026-08-01T00:00:00Z", Amount: 999, Currency: "usd"},
			"p3": {HasPurchased: true, PurchaseDate: "2026-08-02T00:00:00Z", Amount: 1299, Currency: "eur"},
		},
	}
	svc := NewService(api, Config{}, discard())

	got, err := svc.ListMyPurchases(context.Background(), "tok")
	if err != nil {
		t.Fatalf("list purchases: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ProductID != "p1" || got[1].ProductID != "p3" {
		t.Errorf("order = [%s %s], want catalog order [p1 p3]", got[0].ProductID, got[1].ProductID)
	}
	if got[1].Amount != 1299 || got[1].Currency != "eur" {
		t.Errorf("unexpected entitlement: %+v", got[1])
	}
}

func TestListMyPurchasesSwallowsPerProductFailures(t *testing.T) {
	api := &fakePlatform{
		products: []model.Product{product("p1", "One"), product("p2", "Two")},
		verifications: map[string]*platform.Verification{
			"p2": {HasPurchased: true, Amount: 999},
		},
		verifyErrs: map[string]error{
			"p1": &platform.VerificationError{Status: 500, Message: "boom"},
		},
	}
	svc := NewService(api, Config{Concurrency: 1}, discard())

	got, err := svc.ListMyPurchases(context.Background(), "tok")
	if err != nil {
		t.Fatalf("a single bad product must not abort the listing: %v", err)
	}
	if len(got) != 1 || got[0].ProductID != "p2" {
		t.Errorf("got %+v, want just p2", got)
	}
}

func TestListMyPurchasesDefaultsCurrency(t *testing.T) {
	api := &fakePlatform{
		products: []model.Product{product("p1", "One")},
		verifications: map[string]*platform.Verification{
			"p1": {HasPurchased: true},
		},
	}
	svc := NewService(api, Config{}, discard())

	got, err := svc.ListMyPurchases(context.Background(), "tok")
	if err != nil {
		t.Fatalf("list purchases: %v", err)
	}
	if got[0].Currency != "usd" {
		t.Errorf("currency = %q, want usd fallback", got[0].Currency)
	}
	if got[0].Amount != 0 {
		t.Errorf("amount = %d, want 0 fallback", got[0].Amount)
	}
}

func TestFetchAssetNotEntitled(t *testing.T) {
	api := &fakePlatform{
		products: []model.Product{product("p1", "One")},
	}
	svc := NewService(api, Config{}, discard())

	_, _, err := svc.FetchAsset(context.Background(), "p1", platform.BearerProof("tok"))
	if !errors.Is(err, ErrNotEntitled) {
		t.Fatalf("err = %v, want ErrNotEntitled", err)
	}
	if api.downloadCalls != 0 {
		t.Errorf("download calls = %d, want 0 when unentitled", api.downloadCalls)
	}
}

func TestFetchAssetEntitled(t *testing.T) {
	api := &fakePlatform{
		verifications: map[string]*platform.Verification{
			"p1": {HasPurchased: true, Amount: 999, Currency: "usd"},
		},
		downloadData: []byte("file-bytes"),
		downloadName: "book.pdf",
	}
	svc := NewService(api, Config{}, discard())

	data, name, err := svc.FetchAsset(context.Background(), "p1", platform.CheckoutSessionProof("cs_test_1"))
	if err != nil {
		t.Fatalf("fetch asset: %v", err)
	}
	if string(data) != "file-bytes" || name != "book.pdf" {
		t.Errorf("got (%q, %q)", data, name)
	}
	if api.downloadCalls != 1 {
		t.Errorf("download calls = %d, want 1", api.downloadCalls)
	}
}

func TestFetchAssetPropagatesVerificationFailure(t *testing.T) {
	api := &fakePlatform{
		verifyErrs: map[string]error{
			"p1": &platform.VerificationError{Status: 403, Message: "expired"},
		},
	}
	svc := NewService(api, Config{}, discard())

	_, _, err := svc.FetchAsset(context.Background(), "p1", platform.BearerProof("tok"))
	var verr *platform.VerificationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *VerificationError", err)
	}
	if api.downloadCalls != 0 {
		t.Errorf("download calls = %d, want 0", api.downloadCalls)
	}
}
