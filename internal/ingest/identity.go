package ingest

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const unknownNewsletter = "Unknown Newsletter"

// angleAddrPattern matches `Display Name <addr@host>` sender headers
var angleAddrPattern = regexp.MustCompile(`^\s*(.*?)\s*<\s*([^<>\s]+@[^<>\s]+)\s*>\s*$`)

var titleCaser = cases.Title(language.English)

// DeriveNewsletterName extracts a newsletter identity from a From header
// using ordered heuristics:
//  1. display name, when the address is hosted under domain
//  2. the subdomain segment, separators replaced and title-cased
//  3. the raw pre-angle-bracket portion of the sender string
//  4. "Unknown Newsletter"
func DeriveNewsletterName(from, domain string) string {
	display := from
	host := ""

	if m := angleAddrPattern.FindStringSubmatch(from); m != nil {
		display = m[1]
		addr := m[2]
		host = addr[strings.LastIndex(addr, "@")+1:]
	}

	display = strings.Trim(strings.TrimSpace(display), `"`)

	if host == domain || strings.HasSuffix(host, "."+domain) {
		if display != "" {
			return display
		}
		if sub := strings.TrimSuffix(host, "."+domain); sub != host && sub != "" {
			return titleCaser.String(separatorsToSpaces(sub))
		}
	}

	if display != "" {
		return display
	}

	return unknownNewsletter
}

func separatorsToSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', '.':
			return ' '
		}
		return r
	}, s)
}
