package platform

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork covers transport failures and timeouts reaching the platform.
	ErrNetwork = errors.New("platform unreachable")
	// ErrMalformedResponse means the platform replied with an unexpected payload.
	ErrMalformedResponse = errors.New("malformed platform response")
	// ErrMissingProof means a call requiring proof of purchase got none.
	ErrMissingProof = errors.New("no purchase proof provided")
)

// VerificationError is a non-success reply from the verification endpoint,
// carrying the platform's reported message.
type VerificationError struct {
	Status  int
	Message string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("purchase verification failed: %s", e.Message)
}

// CheckoutError is a rejected checkout-session creation request.
type CheckoutError struct {
	Status  int
	Message string
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("checkout creation failed: %s", e.Message)
}

// DownloadError is a non-success reply from the download endpoint.
type DownloadError struct {
	Status  int
	Message string
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed: %s", e.Message)
}
