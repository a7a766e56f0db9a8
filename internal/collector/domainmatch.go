// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package collector

import "strings"

// DomainRule is one allow-list entry of a project. Hostname never carries the
// "*." prefix in storage; Wildcard is the authoritative flag.
type DomainRule struct {
	Hostname string `json:"hostname"`
	Wildcard bool   `json:"wildcard"`
}

// Matches reports whether hostname satisfies rule. Both sides are trimmed and
// lower-cased. A wildcard rule matches the base domain itself and any name
// below it on a label boundary, so "notexample.com" does not match a
// wildcard rule for "example.com".
func Matches(hostname string, rule DomainRule) bool {
	host := normalizeHost(hostname)
	base := strings.TrimPrefix(normalizeHost(rule.Hostname), "*.")
	if host == "" || base == "" {
		return false
	}
	if host == base {
		return true
	}
	return rule.Wildcard && strings.HasSuffix(host, "."+base)
}

// MatchesAny reports whether any rule admits hostname.
func MatchesAny(hostname string, rules []DomainRule) bool {
	for _, rule := range rules {
		if Matches(hostname, rule) {
			return true
		}
	}
	return false
}

func normalizeHost(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
