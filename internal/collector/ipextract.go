// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package collector

import (
	"net/http"
	"net/netip"
	"regexp"
	"strings"
)

// Header names consulted by ExtractClientIP.
const (
	HeaderCFConnectingIPv4 = "CF-Connecting-IPV4"
	HeaderCFConnectingIPv6 = "CF-Connecting-IPV6"
	HeaderCFConnectingIP   = "CF-Connecting-IP"
	HeaderXForwardedFor    = "X-Forwarded-For"
)

const ipv4MappedPrefix = "::ffff:"

// ipv4Pattern accepts four dot-separated groups in 0-255. Compiled regexps are
// immutable and safe for concurrent use.
var ipv4Pattern = regexp.MustCompile(`^(?:25[0-5]|2[0-4]\d|1?\d?\d)(?:\.(?:25[0-5]|2[0-4]\d|1?\d?\d)){3}$`)

// IsValidIPv4 reports whether s is a dotted-quad IPv4 literal.
func IsValidIPv4(s string) bool {
	return ipv4Pattern.MatchString(s)
}

// IsValidIPv6 reports whether s is an IPv6 literal in any RFC 4291 textual
// form. Zoned addresses are rejected.
func IsValidIPv6(s string) bool {
	if !strings.Contains(s, ":") {
		return false
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	return addr.Is6() && addr.Zone() == ""
}

// ipCandidate yields a validated address from the headers, or "" to pass.
type ipCandidate func(h http.Header) string

// ipCandidates is evaluated in order; the first non-empty result wins.
// Connector-injected headers come before the generic forwarding headers
// because clients can set X-Forwarded-For themselves.
var ipCandidates = []ipCandidate{
	fromDedicatedHeader(HeaderCFConnectingIPv4, IsValidIPv4),
	fromDedicatedHeader(HeaderCFConnectingIPv6, IsValidIPv6),
	fromForwardedHeader,
}

// ExtractClientIP returns the client address derived from h, or "" when no
// header yields a syntactically valid address.
func ExtractClientIP(h http.Header) string {
	for _, candidate := range ipCandidates {
		if ip := candidate(h); ip != "" {
			return ip
		}
	}
	return ""
}

func fromDedicatedHeader(name string, valid func(string) bool) ipCandidate {
	return func(h http.Header) string {
		v := h.Get(name)
		if v != "" && valid(v) {
			return v
		}
		return ""
	}
}

// fromForwardedHeader reads CF-Connecting-IP when the header is present at
// all, otherwise X-Forwarded-For. Only the first comma-separated token is
// considered so appended entries cannot smuggle in an address.
func fromForwardedHeader(h http.Header) string {
	values := h.Values(HeaderCFConnectingIP)
	if len(values) == 0 {
		values = h.Values(HeaderXForwardedFor)
	}
	if len(values) == 0 {
		return ""
	}

	token, _, _ := strings.Cut(values[0], ",")
	token = strings.TrimSpace(token)

	if len(token) > len(ipv4MappedPrefix) && strings.EqualFold(token[:len(ipv4MappedPrefix)], ipv4MappedPrefix) {
		if v4 := token[len(ipv4MappedPrefix):]; IsValidIPv4(v4) {
			return v4
		}
		// Hex-form tails such as ::ffff:c000:201 are still valid IPv6.
	}

	if IsValidIPv4(token) || IsValidIPv6(token) {
		return token
	}
	return ""
}
