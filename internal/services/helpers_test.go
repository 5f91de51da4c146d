package services_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/localnerve/myway-api/internal/services"
	"github.com/localnerve/myway-api/internal/types"
)

// fakeGeocoder resolves every point to city, or fails with err
type fakeGeocoder struct {
	mu    sync.Mutex
	city  string
	err   error
	calls int
}

func (g *fakeGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (*services.GeocodeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &services.GeocodeResult{
		City:    g.city,
		Address: map[string]any{"city": g.city, "country": "Testland"},
	}, nil
}

func (g *fakeGeocoder) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// expectError fails unless err is a *types.CustomError with the given code and message
func expectError(t *testing.T, err error, code int, message string) *types.CustomError {
	t.Helper()

	if err == nil {
		t.Fatalf("Expected error %d %q, got nil", code, message)
	}
	var customErr *types.CustomError
	if !errors.As(err, &customErr) {
		t.Fatalf("Expected *types.CustomError, got %T: %v", err, err)
	}
	if customErr.Code != code {
		t.Errorf("Expected code %d, got %d (%v)", code, customErr.Code, customErr)
	}
	if message != "" && customErr.Message != message {
		t.Errorf("Expected message %q, got %q", message, customErr.Message)
	}
	return customErr
}

func floatPtr(f float64) *float64 {
	return &f
}

func strPtr(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}

func itoa(id uint64) string {
	return strconv.FormatUint(id, 10)
}
