package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/myway-api/internal/models"
	"github.com/localnerve/myway-api/internal/types"
)

// DefaultTimeout bounds each API call
const DefaultTimeout = 10 * time.Second

// APIClient is the Sender that posts samples to the check-in endpoint
type APIClient struct {
	Session Session
	Timeout time.Duration
}

func NewAPIClient(session Session) *APIClient {
	return &APIClient{Session: session, Timeout: DefaultTimeout}
}

type locationPayload struct {
	Latitude  float64          `json:"latitude"`
	Longitude float64          `json:"longitude"`
	UserID    types.FlexUint64 `json:"userId"`
	TripID    types.FlexUint64 `json:"tripId"`
	Timestamp string           `json:"timestamp"`
}

// CheckInReply is the server's answer to a check-in
type CheckInReply struct {
	Message string `json:"message"`
	City    string `json:"city,omitempty"`
}

// SendLocation posts one sample; any non-2xx answer is an error
func (c *APIClient) SendLocation(ctx context.Context, pos Position, at time.Time) error {
	_, err := c.CheckIn(ctx, pos, at)
	return err
}

// CheckIn posts one sample and returns the decoded reply
func (c *APIClient) CheckIn(ctx context.Context, pos Position, at time.Time) (*CheckInReply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agent := fiber.Post(c.url("/location"))
	agent.Set(fiber.HeaderAuthorization, "Bearer "+c.Session.Token)
	agent.JSON(locationPayload{
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		UserID:    types.FlexUint64(c.Session.UserID),
		TripID:    types.FlexUint64(c.Session.TripID),
		Timestamp: at.UTC().Format(time.RFC3339),
	})
	agent.Timeout(c.timeout())

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("post location: %w", errors.Join(errs...))
	}
	if code < 200 || code >= 300 {
		return nil, fmt.Errorf("post location: status %d: %s", code, apiMessage(body))
	}

	var reply CheckInReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("post location: decode reply: %w", err)
	}
	return &reply, nil
}

// FetchTrip loads the session's trip, for its tracking window
func (c *APIClient) FetchTrip(ctx context.Context) (*models.Trip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agent := fiber.Get(c.url("/trips/" + types.FlexUint64(c.Session.TripID).String()))
	agent.Set(fiber.HeaderAuthorization, "Bearer "+c.Session.Token)
	agent.Timeout(c.timeout())

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("get trip: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return nil, fmt.Errorf("get trip: status %d: %s", code, apiMessage(body))
	}

	var trip models.Trip
	if err := json.Unmarshal(body, &trip); err != nil {
		return nil, fmt.Errorf("get trip: decode reply: %w", err)
	}
	return &trip, nil
}

// Login exchanges credentials for a token and fills in the session's user
func Login(ctx context.Context, baseURL, email, password string) (Session, error) {
	session := Session{BaseURL: strings.TrimSuffix(baseURL, "/")}
	if err := ctx.Err(); err != nil {
		return session, err
	}

	client := &APIClient{Session: session, Timeout: DefaultTimeout}
	agent := fiber.Post(client.url("/users/auth"))
	agent.JSON(fiber.Map{"email": email, "password": password})
	agent.Timeout(client.timeout())

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return session, fmt.Errorf("login: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return session, fmt.Errorf("login: status %d: %s", code, apiMessage(body))
	}

	var reply struct {
		Token string           `json:"token"`
		ID    types.FlexUint64 `json:"id"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		return session, fmt.Errorf("login: decode reply: %w", err)
	}
	session.Token = reply.Token
	session.UserID = reply.ID.Uint64()
	return session, nil
}

func (c *APIClient) url(path string) string {
	return strings.TrimSuffix(c.Session.BaseURL, "/") + path
}

func (c *APIClient) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// apiMessage extracts the message field of an error body, falling back to the raw text
func apiMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(body))
}
