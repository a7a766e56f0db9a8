// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

type projectBody struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

type domainBody struct {
	Domain string `json:"domain" validate:"required,max=255,domainvalue"`
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     interface{}
		wantErr   bool
		wantField string
		wantMsg   string
	}{
		{"valid name", &projectBody{Name: "Blog"}, false, "", ""},
		{"missing name", &projectBody{}, true, "name", "name is required"},
		{"long name", &projectBody{Name: strings.Repeat("x", 121)}, true, "name", "name must be at most 120 characters"},
		{"valid domain", &domainBody{Domain: "example.com"}, false, "", ""},
		{"wildcard domain", &domainBody{Domain: "*.example.com"}, false, "", ""},
		{"bad domain", &domainBody{Domain: "not a domain"}, true, "domain", "domain has an invalid domain format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateStruct(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			fe := err.Errors()[0]
			if fe.Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", fe.Field(), tt.wantField)
			}
			if fe.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", fe.Error(), tt.wantMsg)
			}
			apiErr := err.ToAPIError()
			if apiErr.Code != "VALIDATION_ERROR" || apiErr.Details["field"] != tt.wantField {
				t.Errorf("ToAPIError() = %+v", apiErr)
			}
		})
	}
}

func TestIsDomainValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  bool
	}{
		{"example.com", true},
		{"Shop.Example.CO.UK", true},
		{"  example.com ", true},
		{"*.example.com", true},
		{"localhost", true},
		{"127.0.0.1", true},
		{"xn--bcher-kva.example", true},
		{"example", false},
		{"example.c", false},
		{"-bad.example.com", false},
		{"bad-.example.com", false},
		{"*example.com", false},
		{"*.*.example.com", false},
		{"https://example.com", false},
		{"example.com/path", false},
		{"10.0.0.1", false},
		{"", false},
		{strings.Repeat("a", 64) + ".com", false},
		{strings.Repeat("abcdefghi.", 26) + "com", false},
	}

	for _, tt := range tests {
		if got := IsDomainValue(tt.value); got != tt.want {
			t.Errorf("IsDomainValue(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestRequestValidationError_MultipleFields(t *testing.T) {
	t.Parallel()

	type both struct {
		Name   string `json:"name" validate:"required"`
		Domain string `json:"domain" validate:"required"`
	}
	err := ValidateStruct(&both{})
	if err == nil || len(err.Errors()) != 2 {
		t.Fatalf("ValidateStruct() = %v", err)
	}
	apiErr := err.ToAPIError()
	if apiErr.Message != "name is required; domain is required" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if fields, ok := apiErr.Details["fields"].([]map[string]interface{}); !ok || len(fields) != 2 {
		t.Errorf("Details = %+v", apiErr.Details)
	}
}
