package release

import "strings"

// UnknownLabel is assigned when no keyword table entry matches a title.
const UnknownLabel = "Unknown"

// Keyword pairs a lowercase title substring with the label it implies.
// Tables are ordered: the first matching entry wins, so more specific
// tokens must precede the generic ones.
type Keyword struct {
	Token string
	Label string
}

// QualityKeywords maps resolution tokens to quality labels.
var QualityKeywords = []Keyword{
	{Token: "2160p", Label: "2160p"},
	{Token: "4k", Label: "2160p"},
	{Token: "uhd", Label: "2160p"},
	{Token: "1080p", Label: "1080p"},
	{Token: "720p", Label: "720p"},
	{Token: "480p", Label: "480p"},
	{Token: "sd", Label: "480p"},
}

// SourceKeywords maps distribution tokens to source labels. "web-dl" must
// precede the bare "web" token and "webrip" must precede "rip".
var SourceKeywords = []Keyword{
	{Token: "web-dl", Label: "WEB-DL"},
	{Token: "webdl", Label: "WEB-DL"},
	{Token: "webrip", Label: "WEBRip"},
	{Token: "web", Label: "WEB-DL"},
	{Token: "bluray", Label: "BluRay"},
	{Token: "blu-ray", Label: "BluRay"},
	{Token: "bdrip", Label: "BluRay"},
	{Token: "hdtv", Label: "HDTV"},
	{Token: "dvdrip", Label: "DVD"},
	{Token: "dvd", Label: "DVD"},
}

// Scan returns the label of the first keyword whose token occurs in the
// title, or UnknownLabel when none match. Matching is case-insensitive.
func Scan(title string, table []Keyword) string {
	lowered := strings.ToLower(title)
	for _, kw := range table {
		if strings.Contains(lowered, kw.Token) {
			return kw.Label
		}
	}
	return UnknownLabel
}

// Infer derives quality and source labels from a raw release title.
func Infer(title string) (quality, source string) {
	return Scan(title, QualityKeywords), Scan(title, SourceKeywords)
}
