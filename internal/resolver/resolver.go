// Package resolver turns raw catalog paths into absolute mirror URLs.
//
// A path is classified by an ordered rule table: the first rule whose
// predicate matches decides the bucket, how much of the path's leading
// folder structure is dropped, and which mirror root the remainder is
// appended to. The last rule matches everything, so resolution never fails.
package resolver

import (
	"strings"
)

// Resolution is the outcome of resolving one raw path.
type Resolution struct {
	Bucket Bucket `json:"bucket"`
	// Path is the normalized, stripped and unescaped path relative to the mirror root.
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Rule is one row of the classification table.
type Rule struct {
	Name  string
	Match func(path string) bool
	strip func(path string) string
	route func(rel string) Bucket
}

const (
	markerSNES = "SNES-Super Famicom"
	markerNES  = "NES-Famicom"
	markerPSP  = "PlayStation Portable"
	markerPS2  = "PlayStation 2"
	markerPS1  = "PlayStation"
)

var segaMarkers = []string{"Genesis-Mega Drive", "Sega CD"}

// rules is evaluated top to bottom. PSP and PS2 precede PS1 because the PS1
// marker is a substring of both.
var rules = []Rule{
	{
		Name:  "SNES",
		Match: contains(markerSNES),
		strip: stripThroughMarker(markerSNES),
		route: fixed(BucketSNES),
	},
	{
		Name:  "NES",
		Match: contains(markerNES),
		strip: stripThroughMarker(markerNES),
		route: fixed(BucketNES),
	},
	{
		Name:  "PSP",
		Match: contains(markerPSP),
		strip: stripThroughMarker(markerPSP),
		route: fixed(BucketPSP),
	},
	{
		Name:  "PS2",
		Match: contains(markerPS2),
		strip: stripThroughMarker(markerPS2),
		route: routePS2,
	},
	{
		Name: "PS1",
		Match: func(p string) bool {
			return strings.Contains(p, markerPS1) &&
				!strings.Contains(p, markerPS2) &&
				!strings.Contains(p, markerPSP)
		},
		strip: stripThroughMarker(markerPS1),
		route: fixed(BucketPS1),
	},
	{
		Name: "SEGA",
		Match: func(p string) bool {
			for _, m := range segaMarkers {
				if strings.Contains(p, m) {
					return true
				}
			}
			return false
		},
		strip: keep,
		route: fixed(BucketSega),
	},
	{
		Name:  "ARCADE",
		Match: hasFolder(isArcadeFolder),
		strip: func(p string) string { return stripThrough(p, isArcadeFolder) },
		route: fixed(BucketArcade),
	},
	{
		Name:  "DEFAULT",
		Match: func(string) bool { return true },
		strip: keep,
		route: fixed(BucketDefault),
	},
}

// Rules returns a copy of the classification table in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Resolver maps raw paths to URLs under a fixed set of mirror roots.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	mirrors map[Bucket]string
}

// New returns a Resolver using DefaultMirrors with the given roots replaced.
func New(overrides map[Bucket]string) *Resolver {
	mirrors := DefaultMirrors()
	for b, root := range overrides {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		if !strings.HasSuffix(root, "/") {
			root += "/"
		}
		mirrors[b] = root
	}
	return &Resolver{mirrors: mirrors}
}

var std = New(nil)

// Resolve resolves raw against the default mirror table.
func Resolve(raw string) Resolution {
	return std.Resolve(raw)
}

// Mirror returns the root URL for bucket b.
func (r *Resolver) Mirror(b Bucket) string {
	return r.mirrors[b]
}

// Resolve classifies raw and builds its absolute URL.
func (r *Resolver) Resolve(raw string) Resolution {
	p := Normalize(raw)
	for _, rule := range rules {
		if !rule.Match(p) {
			continue
		}
		rel := rule.strip(p)
		b := rule.route(rel)
		return Resolution{
			Bucket: b,
			Path:   rel,
			URL:    r.mirrors[b] + EscapePath(rel),
		}
	}
	// Unreachable: the DEFAULT rule accepts everything.
	return Resolution{Bucket: BucketDefault, Path: p, URL: r.mirrors[BucketDefault] + EscapePath(p)}
}

// Normalize converts backslashes to forward slashes and drops leading slashes.
func Normalize(raw string) string {
	p := strings.ReplaceAll(raw, `\`, "/")
	return strings.TrimLeft(p, "/")
}

func contains(marker string) func(string) bool {
	return func(p string) bool { return strings.Contains(p, marker) }
}

func hasFolder(pred func(string) bool) func(string) bool {
	return func(p string) bool {
		segs := strings.Split(p, "/")
		for _, seg := range segs[:len(segs)-1] {
			if pred(seg) {
				return true
			}
		}
		return false
	}
}

func isArcadeFolder(seg string) bool {
	return strings.EqualFold(seg, "arcade")
}

func fixed(b Bucket) func(string) Bucket {
	return func(string) Bucket { return b }
}

func keep(p string) string { return p }

// routePS2 splits the PS2 collection across its two mirrors by the first
// letter of the file name.
func routePS2(rel string) Bucket {
	file := rel
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		file = rel[i+1:]
	}
	if file == "" {
		return BucketPS2NZ
	}
	c := file[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	if c >= 'A' && c <= 'M' {
		return BucketPS2AM
	}
	return BucketPS2NZ
}

func stripThroughMarker(marker string) func(string) string {
	return func(p string) string {
		return stripThrough(p, func(seg string) bool { return strings.Contains(seg, marker) })
	}
}

// stripThrough drops everything up to and including the first folder segment
// matching pred, plus any directly following repeats of that same folder.
// The file segment is never dropped, so single-segment paths are unchanged.
func stripThrough(p string, pred func(string) bool) string {
	segs := strings.Split(p, "/")
	last := len(segs) - 1
	for i := 0; i < last; i++ {
		if !pred(segs[i]) {
			continue
		}
		j := i
		for j+1 < last && strings.EqualFold(segs[j+1], segs[i]) {
			j++
		}
		return strings.Join(segs[j+1:], "/")
	}
	return p
}
