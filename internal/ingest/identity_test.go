package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveNewsletterName(t *testing.T) {
	tests := []struct {
		name string
		from string
		want string
	}{
		{
			name: "display name on newsletter domain",
			from: "Morning Brew <crew@morningbrew.substack.com>",
			want: "Morning Brew",
		},
		{
			name: "no display name falls back to subdomain",
			from: "<news@daily-digest.substack.com>",
			want: "Daily Digest",
		},
		{
			name: "underscore subdomain",
			from: "<hello@tech_radar.substack.com>",
			want: "Tech Radar",
		},
		{
			name: "quoted display name",
			from: `"The Pragmatic Engineer" <gergely@pragmaticengineer.substack.com>`,
			want: "The Pragmatic Engineer",
		},
		{
			name: "foreign domain keeps display name",
			from: "Acme Corp <noreply@acme.example.com>",
			want: "Acme Corp",
		},
		{
			name: "bare sender string without address",
			from: "Acme Corp",
			want: "Acme Corp",
		},
		{
			name: "apex domain with no display name",
			from: "<no-reply@substack.com>",
			want: "Unknown Newsletter",
		},
		{
			name: "empty sender",
			from: "",
			want: "Unknown Newsletter",
		},
		{
			name: "whitespace only sender",
			from: "   ",
			want: "Unknown Newsletter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveNewsletterName(tt.from, "substack.com"))
		})
	}
}

func TestDeriveNewsletterNameCustomDomain(t *testing.T) {
	got := DeriveNewsletterName("<updates@weekly.beehiiv.com>", "beehiiv.com")
	assert.Equal(t, "Weekly", got)
}
