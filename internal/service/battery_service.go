package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"evcharging/internal/entities"
)

// ErrBatteryNotConfigured is returned when no realtime database URL is set.
var ErrBatteryNotConfigured = errors.New("battery database URL is not configured")

type BatteryService struct {
	Client *http.Client
}

func NewBatteryService() *BatteryService {
	return &BatteryService{Client: &http.Client{Timeout: 10 * time.Second}}
}

// FetchStatus reads the latest battery sample from the configured realtime
// database and normalizes the loosely typed payload the hardware writes.
func (s *BatteryService) FetchStatus() (*entities.BatteryStatusResponse, error) {
	base := os.Getenv("BATTERY_DATABASE_URL")
	if base == "" {
		return nil, ErrBatteryNotConfigured
	}
	path := os.Getenv("BATTERY_DATABASE_PATH")
	if path == "" {
		path = "/car-battery-now"
	}

	endpoint := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/") + ".json"
	if auth := os.Getenv("BATTERY_DATABASE_AUTH"); auth != "" {
		endpoint += "?auth=" + url.QueryEscape(auth)
	}

	resp, err := s.Client.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch battery status: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("battery database returned status %d", resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode battery status: %w", err)
	}

	status := &entities.BatteryStatusResponse{
		Percent:   pickFloat(payload, "percent", "soc", "level"),
		Voltage:   pickFloat(payload, "voltage", "volt"),
		Timestamp: pickTimestamp(payload, "timestamp", "time", "updated_at"),
	}
	return status, nil
}

func pickFloat(payload map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		switch v := payload[key].(type) {
		case float64:
			return &v
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

func pickTimestamp(payload map[string]any, keys ...string) *time.Time {
	for _, key := range keys {
		switch v := payload[key].(type) {
		case float64:
			divisor := 1.0
			if v > 1_000_000_000_000 {
				divisor = 1000.0
			}
			t := time.Unix(int64(v/divisor), 0).UTC()
			return &t
		case string:
			trimmed := strings.TrimSpace(v)
			if trimmed == "" {
				continue
			}
			if epoch, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
				return pickTimestamp(map[string]any{key: float64(epoch)}, key)
			}
			if t, err := time.Parse(time.RFC3339, trimmed); err == nil {
				utc := t.UTC()
				return &utc
			}
		}
	}
	return nil
}
