package kakao

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ljjun8453/BLEP-Contest/internal/domain"
)

// DefaultBaseURL is the Kakao Local address search endpoint.
const DefaultBaseURL = "https://dapi.kakao.com/v2/local/search/address.json"

// Client implements domain.Geocoder using the Kakao Local API.
type Client struct {
	restKey    string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Kakao Local geocoding client. An empty baseURL uses
// DefaultBaseURL.
func NewClient(restKey, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		restKey: restKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// ForwardGeocode converts an administrative address to coordinates.
func (c *Client) ForwardGeocode(ctx context.Context, address string) (domain.GeocodingResult, error) {
	params := url.Values{
		"query": {address},
		"size":  {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+c.restKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.GeocodingResult{}, fmt.Errorf("kakao API error: status %d: %s", resp.StatusCode, body)
	}

	var kakaoResp response
	if err := json.NewDecoder(resp.Body).Decode(&kakaoResp); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("decode response: %w", err)
	}

	if len(kakaoResp.Documents) == 0 {
		c.logger.Debug("address not found", "address", address)
		return domain.GeocodingResult{}, nil
	}

	// Kakao returns coordinates as decimal strings.
	d := kakaoResp.Documents[0]
	lon, err := strconv.ParseFloat(d.X, 64)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("parse x %q: %w", d.X, err)
	}
	lat, err := strconv.ParseFloat(d.Y, 64)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("parse y %q: %w", d.Y, err)
	}
	return domain.GeocodingResult{Address: d.AddressName, Lon: lon, Lat: lat}, nil
}

// Kakao Local API response types.

type response struct {
	Documents []document `json:"documents"`
}

type document struct {
	AddressName string `json:"address_name"`
	X           string `json:"x"` // longitude
	Y           string `json:"y"` // latitude
}
