// Package parser normalizes raw catalog URLs into their canonical form.
package parser

import (
	"fmt"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// QueryPolicy controls what happens to query strings during normalization.
// Deployments differ: feeds referenced from an index page keep tracking
// parameters, feeds for crawl discovery strip them. There is no default;
// callers must pick one.
type QueryPolicy string

const (
	// QueryKeep retains query strings unchanged.
	QueryKeep QueryPolicy = "keep"
	// QueryDrop removes query strings entirely.
	QueryDrop QueryPolicy = "drop"
)

// ParsePolicy converts a configuration string into a QueryPolicy.
func ParsePolicy(s string) (QueryPolicy, error) {
	switch QueryPolicy(s) {
	case QueryKeep, QueryDrop:
		return QueryPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown query policy %q", s)
	}
}

// hostCacheSize bounds the memoized host decisions. Catalog exports carry
// millions of rows but only a handful of distinct hosts.
const hostCacheSize = 1024

// Normalizer rewrites same-site URLs onto the canonical https://www host,
// drops fragments, and applies the configured query policy.
type Normalizer struct {
	canonicalHost string // lowercase www-prefixed host; empty disables rewriting
	registrable   string // canonicalHost without the www prefix
	policy        QueryPolicy
	hosts         *lru.Cache[string, string] // raw host -> rewrite target ("" = leave alone)
}

// NewNormalizer builds a Normalizer. canonicalHost is the www-prefixed host
// all same-site URLs are rewritten to (e.g. "www.leeladiamond.com"); empty
// disables host and scheme rewriting while keeping fragment and query
// handling.
func NewNormalizer(canonicalHost string, policy QueryPolicy) (*Normalizer, error) {
	if policy != QueryKeep && policy != QueryDrop {
		return nil, fmt.Errorf("unknown query policy %q", policy)
	}

	hosts, err := lru.New[string, string](hostCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create host cache: %w", err)
	}

	canonical := strings.ToLower(canonicalHost)
	return &Normalizer{
		canonicalHost: canonical,
		registrable:   strings.TrimPrefix(canonical, "www."),
		policy:        policy,
		hosts:         hosts,
	}, nil
}

// Normalize returns the canonical form of raw. Values that do not parse as
// URLs are returned unchanged: rejecting them would silently shrink the
// catalog, and the sitemap consumer tolerates odd entries better than
// missing ones.
func (n *Normalizer) Normalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Fragment = ""
	u.RawFragment = ""

	if n.policy == QueryDrop {
		u.RawQuery = ""
		u.ForceQuery = false
	}

	if target := n.rewriteTarget(u.Host); target != "" {
		u.Scheme = "https"
		u.Host = target
	}

	return u.String()
}

// Policy reports the query policy the normalizer was built with.
func (n *Normalizer) Policy() QueryPolicy {
	return n.policy
}

func (n *Normalizer) rewriteTarget(host string) string {
	if n.canonicalHost == "" || host == "" {
		return ""
	}
	if target, ok := n.hosts.Get(host); ok {
		return target
	}

	target := ""
	if n.matchesSite(host) {
		target = n.canonicalHost
	}
	n.hosts.Add(host, target)
	return target
}

// matchesSite reports whether host is the canonical site itself or any
// subdomain of its registrable domain. Ports are ignored for matching and
// dropped by the rewrite.
func (n *Normalizer) matchesSite(host string) bool {
	h := strings.ToLower(host)
	if i := strings.LastIndex(h, ":"); i >= 0 && !strings.Contains(h[i:], "]") {
		h = h[:i]
	}
	return h == n.registrable || h == n.canonicalHost || strings.HasSuffix(h, "."+n.registrable)
}
