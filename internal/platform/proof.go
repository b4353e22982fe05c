package platform

import "net/http"

type proofKind int

const (
	proofNone proofKind = iota
	proofBearer
	proofCheckoutSession
)

// Proof is evidence of purchase for exactly one of the two supported
// mechanisms: a bearer session token for signed-in users, or a checkout
// session id for guest buyers. The zero value is invalid; verification is
// never attempted without a proof.
type Proof struct {
	kind  proofKind
	value string
}

// BearerProof proves access via an authenticated session token.
func BearerProof(token string) Proof {
	return Proof{kind: proofBearer, value: token}
}

// CheckoutSessionProof proves access via the checkout session id issued by
// the payment processor after a completed guest purchase.
func CheckoutSessionProof(id string) Proof {
	return Proof{kind: proofCheckoutSession, value: id}
}

// Valid reports whether the proof carries a usable credential.
func (p Proof) Valid() bool {
	return p.kind != proofNone && p.value != ""
}

// Guest reports whether the proof is a checkout-session id. Guest access is
// time-boxed by the platform.
func (p Proof) Guest() bool {
	return p.kind == proofCheckoutSession
}

// apply attaches the proof to an outgoing platform request: bearer tokens go
// in the Authorization header, checkout session ids in a query parameter.
func (p Proof) apply(req *http.Request) {
	switch p.kind {
	case proofBearer:
		req.Header.Set("Authorization", "Bearer "+p.value)
	case proofCheckoutSession:
		q := req.URL.Query()
		q.Set("checkout_session_id", p.value)
		req.URL.RawQuery = q.Encode()
	}
}
