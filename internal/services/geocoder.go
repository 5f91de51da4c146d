package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Geocoder resolves coordinates to a city
type Geocoder interface {
	ReverseGeocode(ctx context.Context, latitude, longitude float64) (*GeocodeResult, error)
}

// GeocodeResult carries the resolved city and the raw address document
type GeocodeResult struct {
	City    string
	Address map[string]any
}

// ErrNoCity is returned when the geocoder answers without a settlement name
var ErrNoCity = errors.New("no city in geocoder response")

// NominatimGeocoder queries a Nominatim compatible /reverse endpoint
type NominatimGeocoder struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

func NewNominatimGeocoder(baseURL, userAgent string, timeout time.Duration) *NominatimGeocoder {
	return &NominatimGeocoder{
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
		UserAgent: userAgent,
		Timeout:   timeout,
	}
}

type nominatimResponse struct {
	Address map[string]any `json:"address"`
	Error   string         `json:"error"`
}

func (g *NominatimGeocoder) ReverseGeocode(ctx context.Context, latitude, longitude float64) (*GeocodeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("format", "json")
	query.Set("lat", strconv.FormatFloat(latitude, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(longitude, 'f', -1, 64))

	timeout := g.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, context.DeadlineExceeded
		}
		if timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Get(g.BaseURL + "/reverse?" + query.Encode())
	agent.UserAgent(g.UserAgent)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if timeout > 0 {
		agent.Timeout(timeout)
	}

	// The agent has no context; a cancelled caller stops waiting and the request
	// runs out on its own timeout
	type reply struct {
		code int
		body []byte
		errs []error
	}
	done := make(chan reply, 1)
	go func() {
		code, body, errs := agent.Bytes()
		done <- reply{code: code, body: body, errs: errs}
	}()

	var r reply
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r = <-done:
	}

	if len(r.errs) > 0 {
		return nil, fmt.Errorf("reverse geocode request failed: %w", errors.Join(r.errs...))
	}
	if r.code < 200 || r.code >= 300 {
		return nil, fmt.Errorf("reverse geocode returned status %d", r.code)
	}

	var resp nominatimResponse
	if err := json.Unmarshal(r.body, &resp); err != nil {
		return nil, fmt.Errorf("reverse geocode decode failed: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("reverse geocode error: %s", resp.Error)
	}

	city := cityFromAddress(resp.Address)
	if city == "" {
		return nil, ErrNoCity
	}

	return &GeocodeResult{City: city, Address: resp.Address}, nil
}

// cityFromAddress picks the most specific settlement name
func cityFromAddress(address map[string]any) string {
	for _, key := range []string{"city", "town", "village", "municipality"} {
		if value, ok := address[key].(string); ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
