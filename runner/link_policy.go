package runner

import (
	"path/filepath"
	"strings"
	"sync"

	linkgraph "github.com/will-x86/linkgraph"
)

// LinkPolicy decides whether a discovered link is queued for fetching.
// Edges are recorded regardless of the decision.
type LinkPolicy interface {
	ShouldFollow(sourceURL, targetURL string) bool
}

// PolicyFactory builds the policy instance for one crawl, so stateful policies
// never leak between sessions.
type PolicyFactory func(seed string) LinkPolicy

type allowAllPolicy struct{}

func (allowAllPolicy) ShouldFollow(sourceURL, targetURL string) bool {
	return true
}

type allowNonePolicy struct{}

func (allowNonePolicy) ShouldFollow(sourceURL, targetURL string) bool {
	return false
}

type sameDomainPolicy struct {
	host string
}

func (p *sameDomainPolicy) ShouldFollow(sourceURL, targetURL string) bool {
	return linkgraph.Host(targetURL) == p.host
}

type globPolicy struct {
	patterns []string
}

func (p *globPolicy) ShouldFollow(sourceURL, targetURL string) bool {
	targetHost := linkgraph.Host(targetURL)
	if targetHost == "" {
		return false
	}

	allowed := false
	for _, pattern := range p.patterns {
		if negPattern, found := strings.CutPrefix(pattern, "!"); found {
			if matchHost(targetHost, negPattern) {
				return false
			}
		} else if matchHost(targetHost, pattern) {
			allowed = true
		}
	}

	return allowed
}

func matchHost(host, pattern string) bool {
	matched, err := filepath.Match(strings.ToLower(pattern), host)
	if err != nil {
		return false
	}
	return matched
}

type maxPerDomainPolicy struct {
	maxPerDomain int
	domainCounts map[string]int
	mu           sync.Mutex
}

func (p *maxPerDomainPolicy) ShouldFollow(sourceURL, targetURL string) bool {
	host := linkgraph.Host(targetURL)
	if host == "" {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.domainCounts[host] >= p.maxPerDomain {
		return false
	}

	p.domainCounts[host]++
	return true
}

var (
	PolicyAllowAll   PolicyFactory = func(string) LinkPolicy { return allowAllPolicy{} }
	PolicyAllowNone  PolicyFactory = func(string) LinkPolicy { return allowNonePolicy{} }
	PolicySameDomain PolicyFactory = func(seed string) LinkPolicy {
		return &sameDomainPolicy{host: linkgraph.Host(seed)}
	}
)

// NewGlobPolicy matches target hosts against patterns; a leading "!" excludes.
func NewGlobPolicy(patterns ...string) PolicyFactory {
	return func(string) LinkPolicy {
		return &globPolicy{patterns: patterns}
	}
}

func NewMaxPerDomainPolicy(maxPerDomain int) PolicyFactory {
	return func(string) LinkPolicy {
		return &maxPerDomainPolicy{
			maxPerDomain: maxPerDomain,
			domainCounts: make(map[string]int),
		}
	}
}

// PolicyByName resolves the names accepted in configuration.
func PolicyByName(name string, globs []string) (PolicyFactory, bool) {
	switch strings.ToLower(name) {
	case "", "all":
		return PolicyAllowAll, true
	case "none":
		return PolicyAllowNone, true
	case "same-domain":
		return PolicySameDomain, true
	case "glob":
		return NewGlobPolicy(globs...), true
	default:
		return nil, false
	}
}
