package runner

import (
	"testing"
)

func TestPolicyAllowAll(t *testing.T) {
	policy := PolicyAllowAll("https://example.com/")

	tests := []string{
		"https://example.com/other",
		"https://different.com/page",
		"http://insecure.com",
		"https://subdomain.example.com/path",
	}

	for _, targetURL := range tests {
		if !policy.ShouldFollow("https://example.com/page", targetURL) {
			t.Errorf("PolicyAllowAll should allow %q", targetURL)
		}
	}
}

func TestPolicyAllowNone(t *testing.T) {
	policy := PolicyAllowNone("https://example.com/")

	tests := []string{
		"https://example.com/other",
		"https://different.com/page",
	}

	for _, targetURL := range tests {
		if policy.ShouldFollow("https://example.com/page", targetURL) {
			t.Errorf("PolicyAllowNone should reject %q", targetURL)
		}
	}
}

func TestPolicySameDomain(t *testing.T) {
	policy := PolicySameDomain("https://example.com/seed")

	tests := []struct {
		sourceURL string
		targetURL string
		want      bool
	}{
		{"https://example.com/page1", "https://example.com/page2", true},
		{"https://example.com/page1", "https://different.com/page", false},
		{"https://different.com/page1", "https://example.com/page", true},
		{"https://different.com/page1", "https://different.com/page2", false},
		{"https://example.com/page", "https://subdomain.example.com/page", false},
		{"https://example.com/page", "http://EXAMPLE.com/upper", true},
	}

	for _, tt := range tests {
		got := policy.ShouldFollow(tt.sourceURL, tt.targetURL)
		if got != tt.want {
			t.Errorf("ShouldFollow(%q, %q) = %v, want %v", tt.sourceURL, tt.targetURL, got, tt.want)
		}
	}
}

func TestGlobPolicy(t *testing.T) {
	tests := []struct {
		name      string
		patterns  []string
		targetURL string
		want      bool
	}{
		{
			name:      "single pattern match",
			patterns:  []string{"example.com"},
			targetURL: "https://example.com/page2",
			want:      true,
		},
		{
			name:      "single pattern no match",
			patterns:  []string{"example.com"},
			targetURL: "https://different.com/page",
			want:      false,
		},
		{
			name:      "wildcard pattern",
			patterns:  []string{"*.example.com"},
			targetURL: "https://sub.example.com/page",
			want:      true,
		},
		{
			name:      "negation pattern",
			patterns:  []string{"*.com", "!bad.com"},
			targetURL: "https://bad.com/page",
			want:      false,
		},
		{
			name:      "negation doesn't match",
			patterns:  []string{"*.com", "!bad.com"},
			targetURL: "https://good.com/other",
			want:      true,
		},
		{
			name:      "multiple patterns",
			patterns:  []string{"example.com", "test.com"},
			targetURL: "https://test.com/page",
			want:      true,
		},
		{
			name:      "no patterns match",
			patterns:  []string{"example.com", "test.com"},
			targetURL: "https://other.com/page",
			want:      false,
		},
		{
			name:      "uppercase pattern",
			patterns:  []string{"EXAMPLE.com"},
			targetURL: "https://example.com/",
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := NewGlobPolicy(tt.patterns...)("https://example.com/")
			got := policy.ShouldFollow("https://example.com/page1", tt.targetURL)
			if got != tt.want {
				t.Errorf("ShouldFollow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMaxPerDomainPolicy(t *testing.T) {
	factory := NewMaxPerDomainPolicy(2)
	policy := factory("https://example.com/")

	tests := []struct {
		targetURL string
		want      bool
	}{
		{"https://example.com/page2", true},
		{"https://example.com/page3", true},
		{"https://example.com/page4", false},
		{"https://different.com/page1", true},
		{"https://different.com/page2", true},
		{"https://different.com/page3", false},
	}

	for i, tt := range tests {
		got := policy.ShouldFollow("https://example.com/page1", tt.targetURL)
		if got != tt.want {
			t.Errorf("test %d: ShouldFollow(%q) = %v, want %v", i, tt.targetURL, got, tt.want)
		}
	}

	fresh := factory("https://example.com/")
	if !fresh.ShouldFollow("https://example.com/page1", "https://example.com/page4") {
		t.Error("each crawl should get its own counters")
	}
}

func TestLinkPolicy_InvalidURLs(t *testing.T) {
	policies := []struct {
		name   string
		policy LinkPolicy
	}{
		{"AllowNone", PolicyAllowNone("https://example.com/")},
		{"SameDomain", PolicySameDomain("https://example.com/")},
		{"Glob", NewGlobPolicy("*.com")("https://example.com/")},
		{"MaxPerDomain", NewMaxPerDomainPolicy(10)("https://example.com/")},
	}

	invalidURLs := []string{
		"://invalid",
		"not-a-url",
		"",
	}

	for _, p := range policies {
		t.Run(p.name, func(t *testing.T) {
			for _, invalidURL := range invalidURLs {
				if p.policy.ShouldFollow("https://example.com/page", invalidURL) {
					t.Errorf("%s should reject invalid URL %q", p.name, invalidURL)
				}
			}
		})
	}
}

func TestPolicyByName(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   bool
		ok     bool
	}{
		{"", "https://other.com/", true, true},
		{"all", "https://other.com/", true, true},
		{"none", "https://example.com/a", false, true},
		{"same-domain", "https://other.com/", false, true},
		{"Same-Domain", "https://example.com/a", true, true},
		{"glob", "https://docs.example.com/", true, true},
		{"bogus", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory, ok := PolicyByName(tt.name, []string{"*.example.com"})
			if ok != tt.ok {
				t.Fatalf("PolicyByName(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			}
			if !ok {
				return
			}
			got := factory("https://example.com/").ShouldFollow("https://example.com/", tt.target)
			if got != tt.want {
				t.Errorf("ShouldFollow(%q) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}
}
