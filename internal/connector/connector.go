// Package connector provides the health data sources that feed wearable and
// environment signals into the daily score.
package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"heartscore/internal/domain"
	"heartscore/internal/scoring"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Stub returns the same signals for every user and day. It stands in for a
// wearable integration during development and demos.
type Stub struct {
	Signals domain.DailySignals
}

// NewStub returns a Stub with typical values: 5000 steps, 7.5 hours of
// sleep and AQI 42.
func NewStub() *Stub {
	steps, sleep, aqi := 5000, 7.5, 42
	return &Stub{Signals: domain.DailySignals{Steps: &steps, SleepHours: &sleep, AQI: &aqi}}
}

// DailySignals implements domain.HealthDataSource.
func (s *Stub) DailySignals(context.Context, int64, string) (*domain.DailySignals, error) {
	out := s.Signals
	return &out, nil
}

// Live fetches signals from a connector service at
// GET {base}/users/{id}/daily/{date}.
type Live struct {
	base   *url.URL
	client *http.Client
}

// NewLive creates a Live source. The client is traced with otelhttp.
func NewLive(baseURL string, timeout time.Duration) (*Live, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("connector: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("connector: base url %q must be http or https", baseURL)
	}
	return &Live{
		base: u,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

type dailyResponse struct {
	Steps      *int     `json:"steps"`
	SleepHours *float64 `json:"sleepHours"`
	AQI        *int     `json:"aqi"`
}

// DailySignals implements domain.HealthDataSource. A 404 means the service
// has nothing for that day and yields (nil, nil).
func (l *Live) DailySignals(ctx context.Context, userID int64, day string) (*domain.DailySignals, error) {
	endpoint := l.base.JoinPath("users", strconv.FormatInt(userID, 10), "daily", day)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("connector: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connector: fetch daily signals: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("connector: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var body dailyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return nil, fmt.Errorf("connector: decode daily signals: %w", err)
	}

	// Drop values the scorer would reject rather than failing the whole day.
	sig := &domain.DailySignals{}
	if body.Steps != nil && scoring.ValidateSteps(*body.Steps) == nil {
		sig.Steps = body.Steps
	}
	if body.SleepHours != nil && scoring.ValidateSleep(*body.SleepHours) == nil {
		sig.SleepHours = body.SleepHours
	}
	if body.AQI != nil && scoring.ValidateAQI(*body.AQI) == nil {
		sig.AQI = body.AQI
	}
	return sig, nil
}

var (
	_ domain.HealthDataSource = (*Stub)(nil)
	_ domain.HealthDataSource = (*Live)(nil)
)
