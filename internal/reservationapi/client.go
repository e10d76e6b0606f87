// Package reservationapi is an HTTP client for a remote reservation service,
// for deployments where the reservation store runs as its own process. It
// implements service.ReservationStore.
//
// A failing or unreachable backend is always surfaced as an *APIError. In
// particular ListForSlot never turns an outage into an empty list: admission
// decisions read through this client, and "no reservations" must only ever
// mean the backend said so.
package reservationapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"sarc/internal/booking"
	"sarc/internal/models"
)

// APIError describes a failed call to the reservation service.
type APIError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reservation api %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("reservation api %s: unexpected status %d", e.Endpoint, e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Err }

// Client calls the reservation service over HTTP with basic auth.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	limiter    *rate.Limiter

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client. requestsPerSecond bounds outbound calls;
// zero or negative disables the limit.
func NewClient(baseURL, username, password string, requestsPerSecond float64) *Client {
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), int(requestsPerSecond)+1)
	}
	return &Client{
		baseURL:    baseURL,
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    limiter,
	}
}

// UseRedisCache configures optional Redis caching. Only resource metadata is
// cached; slot reservation lists feed capacity decisions and are always read
// fresh.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

type reservationDTO struct {
	ID         uuid.UUID `json:"id"`
	ResourceID uuid.UUID `json:"resource_id"`
	ClassID    uuid.UUID `json:"class_id"`
	Quantity   int       `json:"quantity"`
	StartsAt   time.Time `json:"starts_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func (d reservationDTO) toModel() models.Reservation {
	return models.Reservation{
		ID:         d.ID,
		ResourceID: d.ResourceID,
		ClassID:    d.ClassID,
		Quantity:   d.Quantity,
		StartsAt:   d.StartsAt.UTC(),
		CreatedAt:  d.CreatedAt.UTC(),
	}
}

// ListForSlot fetches the reservations committed for one resource and slot.
func (c *Client) ListForSlot(ctx context.Context, resourceID uuid.UUID, startsAt time.Time) ([]models.Reservation, error) {
	endpoint := fmt.Sprintf("%s/api/reservations?resource_id=%s&starts_at=%s",
		c.baseURL, resourceID, url.QueryEscape(startsAt.UTC().Format(time.RFC3339)))
	return c.getReservations(ctx, endpoint)
}

// Save submits an admitted reservation for persistence.
func (c *Client) Save(ctx context.Context, r *models.Reservation) error {
	endpoint := c.baseURL + "/api/reservations"
	body := reservationDTO{
		ID:         r.ID,
		ResourceID: r.ResourceID,
		ClassID:    r.ClassID,
		Quantity:   r.Quantity,
		StartsAt:   r.StartsAt.UTC(),
		CreatedAt:  r.CreatedAt.UTC(),
	}
	var saved reservationDTO
	if err := c.do(ctx, http.MethodPost, endpoint, body, &saved); err != nil {
		return err
	}
	return nil
}

// ListByClass fetches every reservation held by a class.
func (c *Client) ListByClass(ctx context.Context, classID uuid.UUID) ([]models.Reservation, error) {
	endpoint := fmt.Sprintf("%s/api/reservations/class/%s", c.baseURL, classID)
	return c.getReservations(ctx, endpoint)
}

// ListByClassAtSlot fetches a class's reservations at one slot timestamp.
func (c *Client) ListByClassAtSlot(ctx context.Context, classID uuid.UUID, startsAt time.Time) ([]models.Reservation, error) {
	endpoint := fmt.Sprintf("%s/api/reservations/class/%s/slot?starts_at=%s",
		c.baseURL, classID, url.QueryEscape(startsAt.UTC().Format(time.RFC3339)))
	return c.getReservations(ctx, endpoint)
}

type resourceDTO struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Quantity int       `json:"quantity"`
	Active   bool      `json:"active"`
}

// GetResource fetches resource metadata, served from Redis when cached.
// Metadata changes through slow administrative flows, so a short TTL is
// safe here in a way it would not be for reservation lists.
func (c *Client) GetResource(ctx context.Context, id uuid.UUID) (*models.Resource, error) {
	endpoint := fmt.Sprintf("%s/api/resources/%s", c.baseURL, id)
	cacheKey := "resource:" + id.String()

	var dto resourceDTO
	if c.readCache(ctx, cacheKey, &dto) {
		res := resourceFromDTO(dto)
		return &res, nil
	}

	if err := c.do(ctx, http.MethodGet, endpoint, nil, &dto); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, booking.ErrResourceNotFound
		}
		return nil, err
	}
	c.writeCache(ctx, cacheKey, dto)
	res := resourceFromDTO(dto)
	return &res, nil
}

func resourceFromDTO(d resourceDTO) models.Resource {
	return models.Resource{
		ID:       d.ID,
		Name:     d.Name,
		Type:     d.Type,
		Quantity: d.Quantity,
		Active:   d.Active,
	}
}

func (c *Client) getReservations(ctx context.Context, endpoint string) ([]models.Reservation, error) {
	var dtos []reservationDTO
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]models.Reservation, len(dtos))
	for i, d := range dtos {
		out[i] = d.toModel()
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &APIError{Endpoint: endpoint, Err: err}
		}
	}

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &APIError{Endpoint: endpoint, Err: err}
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return &APIError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &APIError{Endpoint: endpoint, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), out) == nil
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	c.redis.Set(ctx, key, data, c.cacheTTL)
}
