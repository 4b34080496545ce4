package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NoiseRule pairs a compiled pattern with the noise category it removes.
// Rules apply in order; the label keeps each category independently
// testable and lets callers extend the tables without touching control
// flow.
type NoiseRule struct {
	Label   string
	Pattern *regexp.Regexp
	Replace string
}

// noiseRules is the ordered noise table applied by Normalize. Promotional
// text and links go first so later word-boundary rules see clean input;
// technical tokens go last because stripping them can expose trailing
// release-group suffixes.
var noiseRules = []NoiseRule{
	{Label: "promo", Pattern: regexp.MustCompile(`(?i)\b(?:free\s+download|download\s+now|click\s+here|join\s+(?:now|us)|watch\s+online|full\s+video|visit\s+us)\b`)},
	{Label: "link", Pattern: regexp.MustCompile(`(?i)https?://\S+`)},
	{Label: "link", Pattern: regexp.MustCompile(`(?i)\bwww\.\S+`)},
	{Label: "link", Pattern: regexp.MustCompile(`(?i)\b[a-z0-9][a-z0-9-]*\.(?:com|net|org|info|biz|xxx|to|cc|tv|me|vip)\b`)},
	{Label: "handle", Pattern: regexp.MustCompile(`(?i)(?:\b(?:telegram|discord|t\.me)\b[\s:@-]*)?@[a-z0-9_]+`)},
	{Label: "platform", Pattern: regexp.MustCompile(`(?i)^[\s._-]*(?:onlyfans|fansly|manyvids|clips4sale|chaturbate|camsoda|myfreecams)\b[\s._-]*`)},
	{Label: "hype", Pattern: regexp.MustCompile(`(?i)\b(?:exclusive|brand\s+new|must\s+see|amazing|incredible|hottest|sexiest)\b`)},
	{Label: "date", Pattern: regexp.MustCompile(`\b\d{4}[-. ]\d{1,2}[-. ]\d{1,2}\b`)},
	{Label: "date", Pattern: regexp.MustCompile(`\b\d{1,2}[-. ]\d{1,2}[-. ]\d{2,4}\b`)},
	{Label: "year", Pattern: regexp.MustCompile(`\b(?:19|20)\d{2}\b`)},
	{Label: "episode", Pattern: regexp.MustCompile(`(?i)\b(?:s\d{1,2}e\d{1,4}|e\d{2,4}|ep[ .]?\d{1,4})\b`)},
	{Label: "resolution", Pattern: regexp.MustCompile(`(?i)\b(?:2160p|1080p|720p|480p|4k|uhd)\b`)},
	{Label: "codec", Pattern: regexp.MustCompile(`(?i)\b(?:x26[45]|h[ .]?26[45]|hevc|avc|av1|xvid|divx|10bit|hdr10|hdr)\b`)},
	{Label: "audio", Pattern: regexp.MustCompile(`(?i)\b(?:aac|ac3|dts|mp3|flac|truehd|atmos|dd[p+]?\d(?:[.]\d)?|[257][.][01])\b`)},
	{Label: "container", Pattern: regexp.MustCompile(`(?i)[. ](?:mp4|mkv|avi|wmv|mov|webm|m4v)\b`)},
	{Label: "source", Pattern: regexp.MustCompile(`(?i)\b(?:web[-. ]?dl|webrip|bluray|blu-ray|bdrip|hdtv|dvdrip|remux|proper|repack|internal)\b`)},
	{Label: "group", Pattern: regexp.MustCompile(`\[[^\[\]]*\]|\([^()]*\)|\{[^{}]*\}`)},
	{Label: "group", Pattern: regexp.MustCompile(`-[A-Z0-9]{2,}$`)},
	{Label: "separator", Pattern: regexp.MustCompile(`[._]+`), Replace: " "},
	{Label: "punctuation", Pattern: regexp.MustCompile(`(?:\s*-\s*){2,}`), Replace: " "},
	{Label: "whitespace", Pattern: regexp.MustCompile(`\s{2,}`), Replace: " "},
}

// edgeTrimCutset holds the punctuation trimmed from both ends of a title.
const edgeTrimCutset = " \t-_.!,:;|~&+*"

var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldDiacritics returns the string with combining marks removed, so
// "Chloé" compares equal to "Chloe". Returns the input unchanged when the
// transform fails.
func FoldDiacritics(s string) string {
	folded, _, err := transform.String(diacriticFolder, s)
	if err != nil {
		return s
	}
	return folded
}

// Normalize reduces a raw release title to its canonical content title:
// noise removed, punctuation collapsed, edges trimmed. Case is preserved.
// The rule table runs to a fixed point, which makes Normalize idempotent.
// An empty result falls back to the trimmed raw title so the caller never
// receives an unusable key.
func Normalize(title string) string {
	original := strings.TrimSpace(title)
	s := FoldDiacritics(original)
	// Run the rule table to a true fixed point so nested bracket groups
	// strip completely. Every productive pass shrinks the string, which
	// bounds the loop by the input length.
	for limit := len(s) + 1; limit > 0; limit-- {
		next := normalizeOnce(s)
		if next == s {
			break
		}
		s = next
	}
	if s == "" {
		return original
	}
	return s
}

func normalizeOnce(s string) string {
	for _, rule := range noiseRules {
		s = rule.Pattern.ReplaceAllString(s, rule.Replace)
	}
	return strings.Trim(s, edgeTrimCutset)
}
