package categorizer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailPattern  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	numberPattern = regexp.MustCompile(`\d{6,}`)
	spacePattern  = regexp.MustCompile(`\s+`)
)

var vendorPrefixes = []string{"Google ", "Microsoft ", "Mozilla ", "Apple "}

// BaseApp returns the application part of a label: "Google Chrome: Docs" and
// "Google Chrome - Inbox - Gmail" both yield "Google Chrome".
func BaseApp(label string) string {
	base := label
	if i := strings.Index(base, ": "); i > 0 {
		base = base[:i]
	}
	for _, sep := range []string{" - ", " — ", " – "} {
		if i := strings.Index(base, sep); i > 0 {
			base = base[:i]
		}
	}
	return strings.TrimSpace(base)
}

var segmentSeparators = []string{": ", " - ", " | ", " — ", " – "}

// Segments splits label on the separators window titles use, trimming each
// part and dropping empty ones: "Firefox: Cats - YouTube" yields
// ["Firefox", "Cats", "YouTube"].
func Segments(label string) []string {
	parts := []string{label}
	for _, sep := range segmentSeparators {
		var next []string
		for _, p := range parts {
			next = append(next, strings.Split(p, sep)...)
		}
		parts = next
	}

	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Title returns what follows the base application in label, or "".
func Title(label, base string) string {
	if base == "" || !strings.HasPrefix(label, base) {
		return ""
	}
	rest := strings.TrimSpace(label[len(base):])
	for _, sep := range []string{":", "-", "—", "–"} {
		rest = strings.TrimSpace(strings.TrimPrefix(rest, sep))
	}
	return rest
}

// ShortApp drops a vendor prefix: "Google Chrome" becomes "Chrome".
func ShortApp(base string) string {
	for _, p := range vendorPrefixes {
		if strings.HasPrefix(base, p) && len(base) > len(p) {
			return base[len(p):]
		}
	}
	return base
}

// DisplayTitle renders a compact "Chrome — Title" form of label.
func DisplayTitle(label, base string) string {
	if base == "" {
		base = BaseApp(label)
	}
	title := Title(label, base)
	if title == "" {
		return ShortApp(base)
	}
	return ShortApp(base) + " — " + title
}

// Sanitize masks email addresses and long digit runs, collapses whitespace
// and truncates to at most max runes, ending with "..." when cut.
func Sanitize(text string, max int) string {
	s := emailPattern.ReplaceAllString(text, "[redacted email]")
	s = numberPattern.ReplaceAllString(s, "[redacted number]")
	s = strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))

	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 3 {
		return string([]rune(s)[:max])
	}
	return strings.TrimSpace(string([]rune(s)[:max-3])) + "..."
}
