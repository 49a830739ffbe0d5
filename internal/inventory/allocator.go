package inventory

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

const (
	// SKULength is the fixed width of every allocated product code.
	SKULength = 10

	// MaxAllocationAttempts bounds how many random codes are tried before giving up.
	MaxAllocationAttempts = 5
)

var ErrAllocationExhausted = errors.New("failed to generate unique SKU")

// CodeLookup reports whether a product already uses code.
type CodeLookup interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// CodeLookupFunc adapts a plain function to CodeLookup.
type CodeLookupFunc func(ctx context.Context, code string) (bool, error)

func (f CodeLookupFunc) CodeExists(ctx context.Context, code string) (bool, error) {
	return f(ctx, code)
}

// DigitSource produces candidate codes of n decimal digits.
type DigitSource interface {
	Digits(n int) string
}

type randomDigits struct{}

func (randomDigits) Digits(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(byte('0' + rand.IntN(10)))
	}
	return b.String()
}

// Allocator hands out product codes that are not yet present in the store.
// The check is advisory: two concurrent callers can receive the same code, so
// the insert must still be guarded by a unique index.
type Allocator struct {
	lookup CodeLookup
	source DigitSource
}

// NewAllocator returns an Allocator drawing uniformly random digits.
func NewAllocator(lookup CodeLookup) *Allocator {
	return &Allocator{lookup: lookup, source: randomDigits{}}
}

// WithSource replaces the digit source, mostly for tests.
func (a *Allocator) WithSource(src DigitSource) *Allocator {
	a.source = src
	return a
}

// Allocate returns a code of SKULength digits unused at the time of the check.
// A failed lookup counts as a spent attempt.
func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxAllocationAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		code := a.source.Digits(SKULength)
		if !IsValidSKU(code) {
			lastErr = fmt.Errorf("digit source returned malformed code %q", code)
			continue
		}

		exists, err := a.lookup.CodeExists(ctx, code)
		if err != nil {
			lastErr = err
			continue
		}
		if !exists {
			return code, nil
		}
	}

	if lastErr != nil {
		return "", fmt.Errorf("%w after %d attempts: %w", ErrAllocationExhausted, MaxAllocationAttempts, lastErr)
	}
	return "", fmt.Errorf("%w after %d attempts", ErrAllocationExhausted, MaxAllocationAttempts)
}

// IsValidSKU reports whether code is exactly SKULength ASCII digits.
func IsValidSKU(code string) bool {
	if len(code) != SKULength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
