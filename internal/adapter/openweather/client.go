package openweather

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
	"github.com/ljjun8453/BLEP-Contest/internal/observability"
)

// DefaultBaseURL is the OpenWeather current weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Client implements domain.WeatherProvider using the OpenWeather current
// weather API. Requests are never retried.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenWeather client. An empty baseURL uses DefaultBaseURL.
func NewClient(apiKey, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// CurrentWeather returns the condition label and temperature (°C) at lat/lon.
func (c *Client) CurrentWeather(ctx context.Context, lat, lon float64) (domain.WeatherReading, error) {
	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', -1, 64)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}

	start := time.Now()
	reading, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.WeatherAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return domain.WeatherReading{}, err
	}
	c.metrics.WeatherRequests.WithLabelValues("success").Inc()
	c.logger.Debug("weather fetched", "lat", lat, "lon", lon, "label", reading.Label, "temp_c", reading.TemperatureC)
	return reading, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.WeatherReading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.WeatherReading{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WeatherReading{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.WeatherReading{}, fmt.Errorf("openweather API error: status %d: %s", resp.StatusCode, body)
	}

	var owResp response
	if err := json.NewDecoder(resp.Body).Decode(&owResp); err != nil {
		return domain.WeatherReading{}, fmt.Errorf("decode response: %w", err)
	}

	reading := domain.WeatherReading{TemperatureC: domain.DefaultTemperatureC}
	if len(owResp.Weather) > 0 {
		reading.Label = owResp.Weather[0].Main
	}
	if owResp.Main.Temp != nil {
		reading.TemperatureC = *owResp.Main.Temp
	}
	return reading, nil
}

// OpenWeather API response types.

type response struct {
	Weather []condition `json:"weather"`
	Main    mainBlock   `json:"main"`
}

type condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type mainBlock struct {
	Temp *float64 `json:"temp"`
}
