// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package endpoint turns a Supabase project address into the REST and auth
// service roots. It accepts a full URL, a bare project ref, or "local".
package endpoint

import (
	"net/url"
	"regexp"
	"strings"
)

// LocalBase is where `supabase start` exposes the API gateway.
const LocalBase = "http://127.0.0.1:54321"

const hostedDomain = ".supabase.co"

var reProjectRef = regexp.MustCompile(`^[a-z0-9]{20}$`)

// DetectKind classifies an address without validating it fully.
func DetectKind(raw string) Kind {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "local" || s == "localhost":
		return KindLocal
	case reProjectRef.MatchString(s):
		return KindHosted
	case strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://"):
		u, err := url.Parse(s)
		if err != nil {
			return KindUnknown
		}
		host := u.Hostname()
		if strings.HasSuffix(host, hostedDomain) {
			return KindHosted
		}
		if host == "127.0.0.1" || host == "localhost" || host == "::1" {
			return KindLocal
		}
		return KindCustom
	}
	return KindUnknown
}

// Resolve derives the service roots for raw.
func Resolve(raw string) (Endpoints, error) {
	in := strings.TrimSpace(raw)
	if in == "" {
		return Endpoints{}, newParseError(raw, "empty address", "pass a project URL, a 20 character project ref, or \"local\"")
	}

	var base string
	switch DetectKind(in) {
	case KindLocal:
		if !strings.Contains(in, "://") {
			base = LocalBase
		} else {
			b, err := normalizeURL(in)
			if err != nil {
				return Endpoints{}, err
			}
			base = b
		}
	case KindHosted:
		if reProjectRef.MatchString(strings.ToLower(in)) {
			base = "https://" + strings.ToLower(in) + hostedDomain
		} else {
			b, err := normalizeURL(in)
			if err != nil {
				return Endpoints{}, err
			}
			base = b
		}
	case KindCustom:
		b, err := normalizeURL(in)
		if err != nil {
			return Endpoints{}, err
		}
		base = b
	default:
		return Endpoints{}, newParseError(raw, "unrecognized address", "use https://<ref>.supabase.co, http://127.0.0.1:54321, or \"local\"")
	}

	return Endpoints{
		Kind:     DetectKind(in),
		Base:     base,
		RestURL:  base + "/rest/v1",
		AuthURL:  base + "/auth/v1",
		Original: raw,
	}, nil
}

// normalizeURL keeps scheme and host only; a service path such as /rest/v1
// pasted by mistake is dropped.
func normalizeURL(in string) (string, error) {
	u, err := url.Parse(in)
	if err != nil {
		return "", newParseError(in, err.Error(), "check the URL for typos")
	}
	if u.Host == "" {
		return "", newParseError(in, "missing host", "")
	}
	if u.User != nil {
		return "", newParseError(in, "credentials in URL", "put the anon key in api_key instead")
	}
	return strings.ToLower(u.Scheme) + "://" + u.Host, nil
}
