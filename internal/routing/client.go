package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"pattibytes-backend/internal/apperrors"
)

// Provider yields the road distance between two coordinates. Failures surface
// as typed external-service errors, never as a silent zero distance.
type Provider interface {
	RoadDistanceKm(ctx context.Context, originLat, originLng, destLat, destLng float64) (float64, error)
}

// Client talks to a LocationIQ-style directions API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type directionsResponse struct {
	Routes []struct {
		Distance float64 `json:"distance"` // meters
	} `json:"routes"`
}

func (c *Client) RoadDistanceKm(ctx context.Context, originLat, originLng, destLat, destLng float64) (float64, error) {
	if c.apiKey == "" {
		return 0, apperrors.NewExternalService("routing", errors.New("no api key configured"))
	}

	url := fmt.Sprintf("%s/directions/driving/%f,%f;%f,%f?key=%s&overview=false",
		c.baseURL, originLng, originLat, destLng, destLat, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, apperrors.NewExternalService("routing", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, apperrors.NewExternalService("routing", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, apperrors.NewExternalService("routing", fmt.Errorf("directions api returned %d", resp.StatusCode))
	}

	var body directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, apperrors.NewExternalService("routing", err)
	}
	if len(body.Routes) == 0 || body.Routes[0].Distance <= 0 {
		return 0, apperrors.NewExternalService("routing", errors.New("no route between points"))
	}

	return body.Routes[0].Distance / 1000.0, nil
}
