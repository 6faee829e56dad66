package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/medsupply/backend/internal/domain"
	"github.com/medsupply/backend/internal/logging"
)

func TestSignalService_SimulatedPerIncident(t *testing.T) {
	svc := NewSignalService("", "", logging.Discard())

	tests := []struct {
		incident domain.IncidentType
		weather  string
	}{
		{domain.IncidentGeneral, "Seasonal Humidity High (85%)"},
		{domain.IncidentEmergency, "Heatwave Alert (42°C+)"},
		{domain.IncidentDisaster, "Monsoon Depression / Flash Flood Warning"},
		{domain.IncidentPandemic, "Dry Cold Air (Optimal for transmission)"},
		{domain.IncidentType("UNKNOWN"), "Seasonal Humidity High (85%)"},
	}

	for _, tt := range tests {
		t.Run(string(tt.incident), func(t *testing.T) {
			sig := svc.Signals(context.Background(), tt.incident)
			if sig.Weather != tt.weather {
				t.Errorf("Expected %q, got %q", tt.weather, sig.Weather)
			}
			if len(sig.Events) == 0 || sig.HistoricalContext == "" {
				t.Errorf("Expected events and historical context, got %+v", sig)
			}
		})
	}
}

func TestSignalService_EventsAreCopied(t *testing.T) {
	svc := NewSignalService("", "", logging.Discard())

	sig := svc.Signals(context.Background(), domain.IncidentGeneral)
	sig.Events[0] = "mutated"

	again := svc.Signals(context.Background(), domain.IncidentGeneral)
	if again.Events[0] != "Annual School Reopening Week" {
		t.Errorf("Expected simulated table untouched, got %q", again.Events[0])
	}
}

func TestSignalService_LiveWeather(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appid") != "owm-key" || r.URL.Query().Get("q") != "Metro City" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"main":{"temp":31.4,"humidity":70},"weather":[{"description":"scattered clouds"}],"name":"Metro City"}`)
	}))
	defer server.Close()

	svc := NewSignalService("owm-key", "Metro City", logging.Discard())
	svc.baseURL = server.URL

	sig := svc.Signals(context.Background(), domain.IncidentEmergency)
	if !strings.Contains(sig.Weather, "scattered clouds") || !strings.Contains(sig.Weather, "31°C") {
		t.Errorf("Expected live weather line, got %q", sig.Weather)
	}
	if sig.Events[0] != "Global Sporting Finals (High density)" {
		t.Errorf("Expected simulated events kept, got %v", sig.Events)
	}
}

func TestSignalService_LiveWeatherFailureFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewSignalService("owm-key", "Metro City", logging.Discard())
	svc.baseURL = server.URL

	sig := svc.Signals(context.Background(), domain.IncidentDisaster)
	if sig.Weather != "Monsoon Depression / Flash Flood Warning" {
		t.Errorf("Expected simulated weather after failure, got %q", sig.Weather)
	}
}
