package domain

import (
	"math"
	"time"
)

// ExpiryLayout is the calendar date layout used for medicine expiry dates
const ExpiryLayout = "2006-01-02"

// ExpiringSoonDays is the window in which a medicine counts as expiring soon
const ExpiringSoonDays = 30

// Medicine represents a stocked medicine line
type Medicine struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Category          string    `json:"category"`
	Stock             int       `json:"stock"`
	CriticalThreshold int       `json:"criticalThreshold"`
	Expiry            string    `json:"expiry"`
	ForecastedDemand  *int      `json:"forecastedDemand,omitempty"`
	LastStockUpdate   time.Time `json:"lastStockUpdate"`
}

// IsCritical reports whether stock is strictly below the critical threshold.
// A medicine sitting exactly at its threshold is not critical.
func (m Medicine) IsCritical() bool {
	return m.Stock < m.CriticalThreshold
}

// StockStatus classifies a medicine's stock position for the warehouse view
type StockStatus string

const (
	StockCritical StockStatus = "CRITICAL"
	StockMonitor  StockStatus = "MONITOR"
	StockSecure   StockStatus = "SECURE"
)

// StockStatus returns CRITICAL below threshold (or below the forecasted demand),
// MONITOR below twice the threshold and SECURE otherwise
func (m Medicine) StockStatus() StockStatus {
	atRiskOfForecast := m.ForecastedDemand != nil && m.Stock < *m.ForecastedDemand
	switch {
	case m.IsCritical() || atRiskOfForecast:
		return StockCritical
	case m.Stock < m.CriticalThreshold*2:
		return StockMonitor
	default:
		return StockSecure
	}
}

// ExpiryStatus classifies a medicine by its expiry date
type ExpiryStatus string

const (
	ExpiryExpired ExpiryStatus = "EXPIRED"
	ExpiringSoon  ExpiryStatus = "EXPIRING_SOON"
	ExpiryValid   ExpiryStatus = "VALID"
	ExpiryUnknown ExpiryStatus = "UNKNOWN"
)

// ExpiryStatusAt evaluates the expiry date relative to now
func (m Medicine) ExpiryStatusAt(now time.Time) ExpiryStatus {
	expiry, err := time.ParseInLocation(ExpiryLayout, m.Expiry, now.Location())
	if err != nil {
		return ExpiryUnknown
	}

	days := math.Ceil(expiry.Sub(now).Hours() / 24)
	switch {
	case days < 0:
		return ExpiryExpired
	case days <= ExpiringSoonDays:
		return ExpiringSoon
	default:
		return ExpiryValid
	}
}

// InventorySummary counts medicines per stock and expiry status
type InventorySummary struct {
	Total        int `json:"total"`
	Critical     int `json:"critical"`
	Monitor      int `json:"monitor"`
	Secure       int `json:"secure"`
	Expired      int `json:"expired"`
	ExpiringSoon int `json:"expiringSoon"`
}
