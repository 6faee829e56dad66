package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/medsupply/backend/internal/domain"
)

const defaultWeatherBaseURL = "https://api.openweathermap.org"

// simulatedSignals are the contextual feeds used per incident type when no
// live source is configured
var simulatedSignals = map[domain.IncidentType]domain.ExternalSignals{
	domain.IncidentGeneral: {
		Weather:           "Seasonal Humidity High (85%)",
		Events:            []string{"Annual School Reopening Week"},
		HistoricalContext: "Historically, 5% uptick in pediatric respiratory cases this week.",
	},
	domain.IncidentEmergency: {
		Weather:           "Heatwave Alert (42°C+)",
		Events:            []string{"Global Sporting Finals (High density)"},
		HistoricalContext: "High correlation between heatwaves and hydration pack depletion.",
	},
	domain.IncidentDisaster: {
		Weather:           "Monsoon Depression / Flash Flood Warning",
		Events:            []string{"Evacuation Center Activation"},
		HistoricalContext: "Flood events typically lead to 300% surge in water-borne disease meds.",
	},
	domain.IncidentPandemic: {
		Weather:           "Dry Cold Air (Optimal for transmission)",
		Events:            []string{"Public Gathering Restrictions"},
		HistoricalContext: "Viral peaks consistent with current temperature drops.",
	},
}

// SignalService provides the external signals an analysis runs against
type SignalService struct {
	apiKey     string
	city       string
	baseURL    string
	httpClient *http.Client
	log        logrus.FieldLogger
}

// NewSignalService creates a signal service. With an OpenWeather API key the
// weather line is fetched live for city; otherwise it is simulated.
func NewSignalService(apiKey, city string, log logrus.FieldLogger) *SignalService {
	return &SignalService{
		apiKey:  apiKey,
		city:    city,
		baseURL: defaultWeatherBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// openWeatherResponse is the subset of the OpenWeatherMap current weather payload we read
type openWeatherResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Name string `json:"name"`
}

// Signals returns the signals for an incident type. It never fails: a live
// weather error falls back to the simulated line.
func (s *SignalService) Signals(ctx context.Context, incident domain.IncidentType) domain.ExternalSignals {
	sig, ok := simulatedSignals[incident]
	if !ok {
		sig = simulatedSignals[domain.IncidentGeneral]
	}
	sig.Events = append([]string(nil), sig.Events...)

	if s.apiKey == "" || s.city == "" {
		return sig
	}

	weather, err := s.currentWeather(ctx)
	if err != nil {
		s.log.WithError(err).Warn("live weather unavailable, using simulated signal")
		return sig
	}
	sig.Weather = weather
	return sig
}

func (s *SignalService) currentWeather(ctx context.Context) (string, error) {
	q := url.Values{}
	q.Set("q", s.city)
	q.Set("appid", s.apiKey)
	q.Set("units", "metric")
	endpoint := fmt.Sprintf("%s/data/2.5/weather?%s", s.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("weather: failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("weather: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("weather: unexpected status %d", resp.StatusCode)
	}

	var ow openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&ow); err != nil {
		return "", fmt.Errorf("weather: failed to decode response: %w", err)
	}

	description := "Current conditions"
	if len(ow.Weather) > 0 && ow.Weather[0].Description != "" {
		description = ow.Weather[0].Description
	}
	return fmt.Sprintf("%s in %s (%.0f°C, %d%% humidity)", description, ow.Name, ow.Main.Temp, ow.Main.Humidity), nil
}
