// Package extractor salvages typed content — code, CSS, JS, HTML — from
// noisy model output: reasoning preambles, fenced blocks, filename-comment
// prefixes, and a conversational tail. It never touches the filesystem.
package extractor

import (
	"regexp"
	"strings"
)

// Kind is the expected shape of the extracted content, used to pick a
// fence's language tag and to validate what comes out.
type Kind string

const (
	KindPython Kind = "py"
	KindJS     Kind = "js"
	KindTS     Kind = "ts"
	KindCSS    Kind = "css"
	KindHTML   Kind = "html"
	KindJSON   Kind = "json"
	KindMD     Kind = "md"
	KindOther  Kind = "other"
)

// Result is the outcome of Extract: the salvaged text and a confidence that
// it is actually what expectedKind asked for.
type Result struct {
	Content    string
	Confidence float64
}

var fenceTag = map[Kind][]string{
	KindPython: {"python", "py"},
	KindJS:     {"javascript", "js"},
	KindTS:     {"typescript", "ts"},
	KindCSS:    {"css"},
	KindHTML:   {"html"},
	KindJSON:   {"json"},
	KindMD:     {"markdown", "md"},
}

var fenceBlockRe = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)\\n(.*?)```")

// filenamePrefixRe matches a leading filename-comment line the model
// sometimes prepends before the actual content: "# file: x", "// file: x",
// "file: x", or a bare path-looking first line.
var filenamePrefixRe = regexp.MustCompile(`(?i)^\s*(#|//)?\s*(file|path)\s*:\s*\S.*$`)
var barePathRe = regexp.MustCompile(`^[\w./-]+\.(py|js|ts|css|html|json|md)$`)

// trailingNoiseRe matches lines of pure conversational or structural tail:
// stray fences, "File:" markers, step markers, horizontal rules.
var trailingNoiseRe = regexp.MustCompile(`(?i)^\s*(file\s*:|step\s+\d+\s*:?|-{3,}|\*{3,}|={3,})\s*$`)

// trailingFragmentRe matches leftover word fragments from a truncated tail
// like "...this task is now comp" + "leted" split across a stream boundary.
var trailingFragmentRe = regexp.MustCompile(`(?i)^(leted|eted|pleted)\.?\s*$`)

// Extract pulls expectedKind-shaped content out of rawText.
func Extract(rawText string, expectedKind Kind) Result {
	text := StripThinkBlocks(rawText)

	content, fenceConfidence := stripFences(text, expectedKind)
	content = stripFilenamePrefix(content)
	content = trimTrailingNoise(content)

	if validates(content, expectedKind) {
		return Result{Content: content, Confidence: fenceConfidence}
	}

	if salvaged, ok := salvage(content, expectedKind); ok {
		return Result{Content: salvaged, Confidence: fenceConfidence * 0.5}
	}

	return Result{Content: content, Confidence: 0.2}
}

// StripThinkBlocks removes <think>...</think> reasoning blocks some models
// emit ahead of or between their actual answer.
func StripThinkBlocks(s string) string {
	for {
		start := strings.Index(s, "<think>")
		if start == -1 {
			break
		}
		end := strings.Index(s[start:], "</think>")
		if end == -1 {
			s = s[:start]
			break
		}
		s = s[:start] + s[start+end+len("</think>"):]
	}
	return strings.TrimSpace(s)
}

// stripFences finds fenced code blocks in s and returns the one whose
// language tag matches expectedKind, falling back to the first block, and
// finally to s itself when there are no fences at all. The returned
// confidence reflects how strong that match was.
func stripFences(s string, expectedKind Kind) (string, float64) {
	matches := fenceBlockRe.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(s), 0.5
	}

	wantTags := fenceTag[expectedKind]
	for _, m := range matches {
		tag := strings.ToLower(strings.TrimSpace(m[1]))
		for _, want := range wantTags {
			if tag == want {
				return strings.TrimSpace(m[2]), 0.9
			}
		}
	}
	return strings.TrimSpace(matches[0][2]), 0.7
}

func stripFilenamePrefix(s string) string {
	lines := strings.Split(s, "\n")
	for len(lines) > 0 {
		first := strings.TrimSpace(lines[0])
		if first == "" {
			lines = lines[1:]
			continue
		}
		if filenamePrefixRe.MatchString(first) || barePathRe.MatchString(first) {
			lines = lines[1:]
			continue
		}
		break
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func trimTrailingNoise(s string) string {
	lines := strings.Split(s, "\n")
	for len(lines) > 0 {
		last := strings.TrimSpace(lines[len(lines)-1])
		if last == "" {
			lines = lines[:len(lines)-1]
			continue
		}
		if last == "```" || trailingNoiseRe.MatchString(last) || trailingFragmentRe.MatchString(last) {
			lines = lines[:len(lines)-1]
			continue
		}
		break
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

var (
	cssSelectorRe = regexp.MustCompile(`[^{}\n]+\{[^{}]*\}`)
	jsStatementRe = regexp.MustCompile(`\b(function|const|let|var|class|import|export)\b`)
	htmlTagRe     = regexp.MustCompile(`<[a-zA-Z][a-zA-Z0-9]*[^>]*>`)
)

// validates applies a shallow per-kind heuristic. Kinds with no distinctive
// surface syntax (py, json, md, other) always pass — there's nothing cheap
// to check that beats false positives.
func validates(content string, kind Kind) bool {
	switch kind {
	case KindCSS:
		return cssSelectorRe.MatchString(content)
	case KindJS, KindTS:
		return jsStatementRe.MatchString(content)
	case KindHTML:
		return htmlTagRe.MatchString(content)
	default:
		return true
	}
}

// salvage scans content for the longest substring that passes kind's
// heuristic, for the kinds where validation can fail (CSS, JS/TS, HTML).
func salvage(content string, kind Kind) (string, bool) {
	var re *regexp.Regexp
	switch kind {
	case KindCSS:
		re = cssSelectorRe
	case KindJS, KindTS:
		re = jsStatementRe
	case KindHTML:
		re = htmlTagRe
	default:
		return "", false
	}

	locs := re.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return "", false
	}
	// Widen to the full line span of the first match to the last match, so
	// a multi-declaration block salvages as one unit rather than one token.
	start, end := locs[0][0], locs[len(locs)-1][1]
	for start > 0 && content[start-1] != '\n' {
		start--
	}
	for end < len(content) && content[end] != '\n' {
		end++
	}
	salvaged := strings.TrimSpace(content[start:end])
	if salvaged == "" {
		return "", false
	}
	return salvaged, true
}
