package places

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/metrics"
	"github.com/tidwall/gjson"
)

// MinQueryLength is the shortest input worth asking the places API about.
const MinQueryLength = 3

const detailFields = "formatted_address,address_components"

type Prediction struct {
	PlaceID     string `json:"placeId"`
	Description string `json:"description"`
}

// Place is the part of a place the location fields need.
type Place struct {
	PlaceID          string `json:"placeId"`
	FormattedAddress string `json:"formattedAddress"`
	Country          string `json:"country"`
	State            string `json:"state"`
}

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := cfg.BaseURL
	if base == "" {
		base = internal.DefaultPlacesBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(base, "/"),
		apiKey:     cfg.APIKey,
		logger:     logger,
	}
}

func placesError(message string, cause error) *internal.AppError {
	return &internal.AppError{
		Type:       internal.ErrorTypeExternal,
		Code:       internal.ErrCodePlacesFailed,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// Autocomplete returns predictions for input. Inputs shorter than MinQueryLength
// yield no predictions without a call.
func (c *Client) Autocomplete(ctx context.Context, input string) ([]Prediction, error) {
	input = strings.TrimSpace(input)
	if len([]rune(input)) < MinQueryLength {
		return []Prediction{}, nil
	}

	body, err := c.get(ctx, "autocomplete", "/autocomplete/json", url.Values{"input": {input}})
	if err != nil {
		return nil, err
	}

	predictions := []Prediction{}
	for _, p := range gjson.GetBytes(body, "predictions").Array() {
		predictions = append(predictions, Prediction{
			PlaceID:     p.Get("place_id").String(),
			Description: p.Get("description").String(),
		})
	}
	return predictions, nil
}

// Details resolves a place id into its address, country and first-level administrative area.
func (c *Client) Details(ctx context.Context, placeID string) (*Place, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, internal.NewValidationFieldError("placeId", "Place id is required", internal.ErrCodeRequired)
	}

	body, err := c.get(ctx, "details", "/details/json", url.Values{"place_id": {placeID}, "fields": {detailFields}})
	if err != nil {
		return nil, err
	}

	result := gjson.GetBytes(body, "result")
	place := &Place{
		PlaceID:          placeID,
		FormattedAddress: result.Get("formatted_address").String(),
	}
	for _, component := range result.Get("address_components").Array() {
		types := component.Get("types").Array()
		for _, t := range types {
			switch t.String() {
			case "country":
				place.Country = component.Get("long_name").String()
			case "administrative_area_level_1":
				place.State = component.Get("long_name").String()
			}
		}
	}
	return place, nil
}

// get performs the call and checks the API-level status; ZERO_RESULTS counts as success.
func (c *Client) get(ctx context.Context, op, path string, q url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, placesError("Places lookup is not configured", nil)
	}
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, placesError("Failed to build places request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.PlacesRequestsTotal.WithLabelValues(op, "error").Inc()
		c.logger.Error("places request failed", "operation", op, "error", err)
		return nil, placesError("Places lookup failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.PlacesRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, placesError("Places lookup failed", err)
	}

	status := gjson.GetBytes(body, "status").String()
	if resp.StatusCode != http.StatusOK || (status != "OK" && status != "ZERO_RESULTS") {
		metrics.PlacesRequestsTotal.WithLabelValues(op, strings.ToLower(status)).Inc()
		c.logger.Warn("places API refused request",
			"operation", op,
			"http_status", resp.StatusCode,
			"status", status,
			"error_message", gjson.GetBytes(body, "error_message").String())
		return nil, placesError("Places lookup failed", fmt.Errorf("places %s: %d %s", op, resp.StatusCode, status))
	}

	metrics.PlacesRequestsTotal.WithLabelValues(op, strings.ToLower(status)).Inc()
	return body, nil
}
