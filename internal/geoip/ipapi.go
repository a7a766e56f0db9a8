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
	"golang.org/x/time/rate"

	"github.com/tomtom215/beacon/internal/collector"
	"github.com/tomtom215/beacon/internal/metrics"
)

const (
	ipAPIFields = "status,message,country,regionName,city,zip,isp,as,lat,lon,proxy,mobile,hosting"

	// DefaultIPAPIBaseURL is the free-tier endpoint. It is HTTP only.
	DefaultIPAPIBaseURL = "http://ip-api.com/json"
)

// IPAPIProvider implements Provider using ip-api.com. The free tier allows
// 45 requests per minute without a key.
type IPAPIProvider struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

type ipAPIResponse struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Country    string  `json:"country"`
	RegionName string  `json:"regionName"`
	City       string  `json:"city"`
	Zip        string  `json:"zip"`
	ISP        string  `json:"isp"`
	AS         string  `json:"as"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Proxy      bool    `json:"proxy"`
	Mobile     bool    `json:"mobile"`
	Hosting    bool    `json:"hosting"`
}

// NewIPAPIProvider creates an ip-api.com provider allowing perMinute lookups.
func NewIPAPIProvider(baseURL string, perMinute int, timeout time.Duration) *IPAPIProvider {
	if baseURL == "" {
		baseURL = DefaultIPAPIBaseURL
	}
	if perMinute <= 0 {
		perMinute = 45
	}
	return &IPAPIProvider{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the provider name.
func (p *IPAPIProvider) Name() string {
	return "ip-api"
}

// IsAvailable returns true; ip-api.com needs no credentials.
func (p *IPAPIProvider) IsAvailable() bool {
	return true
}

// Lookup queries ip-api.com for ip.
func (p *IPAPIProvider) Lookup(ctx context.Context, ip string) (*collector.GeoInfo, error) {
	if err := validAddress(ip); err != nil {
		return nil, err
	}
	if !p.limiter.Allow() {
		metrics.GeolocationRateLimited.Inc()
		return nil, ErrRateLimited
	}

	start := time.Now()
	result, err := p.query(ctx, ip)
	metrics.RecordGeoLookup(p.Name(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &collector.GeoInfo{
		Latitude:  result.Lat,
		Longitude: result.Lon,
		Country:   result.Country,
		Region:    result.RegionName,
		City:      result.City,
		Zip:       result.Zip,
		ISP:       result.ISP,
		ASName:    result.AS,
		Proxy:     result.Proxy,
		Mobile:    result.Mobile,
		Hosting:   result.Hosting,
		Source:    p.Name(),
	}, nil
}

func (p *IPAPIProvider) query(ctx context.Context, ip string) (*ipAPIResponse, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=%s", p.baseURL, url.PathEscape(ip), ipAPIFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query ip-api.com: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ip-api.com returned status %d", resp.StatusCode)
	}

	var result ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode ip-api.com response: %w", err)
	}

	if result.Status != "success" {
		// "private range", "reserved range" and "invalid query" are answers,
		// not outages.
		return nil, fmt.Errorf("ip-api.com: %s: %w", result.Message, ErrNoRecord)
	}
	return &result, nil
}
