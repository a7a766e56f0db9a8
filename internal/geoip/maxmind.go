// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package geoip

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/beacon/internal/collector"
	"github.com/tomtom215/beacon/internal/metrics"
)

// DefaultMaxMindBaseURL is the GeoLite2 City web service.
const DefaultMaxMindBaseURL = "https://geolite.info/geoip/v2.1/city"

// MaxMindProvider implements Provider using MaxMind's GeoLite2 web service.
// It needs a free account id and license key.
type MaxMindProvider struct {
	client     *http.Client
	accountID  string
	licenseKey string
	baseURL    string
}

type maxMindResponse struct {
	City struct {
		Names map[string]string `json:"names"`
	} `json:"city"`
	Country struct {
		Names map[string]string `json:"names"`
	} `json:"country"`
	Location struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	Postal struct {
		Code string `json:"code"`
	} `json:"postal"`
	Subdivisions []struct {
		Names map[string]string `json:"names"`
	} `json:"subdivisions"`
	Traits struct {
		ISP                          string `json:"isp"`
		AutonomousSystemOrganization string `json:"autonomous_system_organization"`
		IsAnonymousProxy             bool   `json:"is_anonymous_proxy"`
		IsHostingProvider            bool   `json:"is_hosting_provider"`
		ConnectionType               string `json:"connection_type"`
	} `json:"traits"`
}

type maxMindErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// NewMaxMindProvider creates a GeoLite2 provider. An empty baseURL selects
// the public endpoint.
func NewMaxMindProvider(accountID, licenseKey, baseURL string, timeout time.Duration) *MaxMindProvider {
	if baseURL == "" {
		baseURL = DefaultMaxMindBaseURL
	}
	return &MaxMindProvider{
		client:     &http.Client{Timeout: timeout},
		accountID:  accountID,
		licenseKey: licenseKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the provider name.
func (p *MaxMindProvider) Name() string {
	return "maxmind"
}

// IsAvailable returns true if account ID and license key are configured.
func (p *MaxMindProvider) IsAvailable() bool {
	return p.accountID != "" && p.licenseKey != ""
}

// Lookup queries the GeoLite2 web service for ip.
func (p *MaxMindProvider) Lookup(ctx context.Context, ip string) (*collector.GeoInfo, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("MaxMind credentials not configured")
	}
	if err := validAddress(ip); err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := p.query(ctx, ip)
	metrics.RecordGeoLookup(p.Name(), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	geo := &collector.GeoInfo{
		Latitude:  result.Location.Latitude,
		Longitude: result.Location.Longitude,
		Country:   result.Country.Names["en"],
		City:      result.City.Names["en"],
		Zip:       result.Postal.Code,
		ISP:       result.Traits.ISP,
		ASName:    result.Traits.AutonomousSystemOrganization,
		Proxy:     result.Traits.IsAnonymousProxy,
		Mobile:    result.Traits.ConnectionType == "Cellular",
		Hosting:   result.Traits.IsHostingProvider,
		Source:    p.Name(),
	}
	if len(result.Subdivisions) > 0 {
		geo.Region = result.Subdivisions[0].Names["en"]
	}
	return geo, nil
}

func (p *MaxMindProvider) query(ctx context.Context, ip string) (*maxMindResponse, error) {
	endpoint := fmt.Sprintf("%s/%s", p.baseURL, url.PathEscape(ip))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(p.accountID, p.licenseKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query MaxMind: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, maxMindError(resp)
	}

	var result maxMindResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode MaxMind response: %w", err)
	}
	return &result, nil
}

func maxMindError(resp *http.Response) error {
	var errResp maxMindErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		switch errResp.Code {
		case "IP_ADDRESS_NOT_FOUND", "IP_ADDRESS_RESERVED":
			return fmt.Errorf("MaxMind: %s: %w", errResp.Error, ErrNoRecord)
		}
		return fmt.Errorf("MaxMind error (%s): %s", errResp.Code, errResp.Error)
	}
	return fmt.Errorf("MaxMind returned status %d", resp.StatusCode)
}
