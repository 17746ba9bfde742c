package extractor

import (
	"strings"
	"testing"
)

func TestExtractPrefersMatchingLanguageTag(t *testing.T) {
	raw := "<think>let me think about this</think>\nHere you go:\n```python\ndef add(a, b):\n    return a + b\n```\nLet me know if you need anything else."
	res := Extract(raw, KindPython)
	if !strings.Contains(res.Content, "def add(a, b):") {
		t.Fatalf("expected python function, got %q", res.Content)
	}
	if res.Confidence < 0.8 {
		t.Fatalf("expected high confidence for matching tag, got %v", res.Confidence)
	}
}

func TestExtractStripsFilenamePrefixAndNoise(t *testing.T) {
	raw := "```js\n// file: app.js\nconst x = 1;\nexport default x;\n---\nStep 1: done\n```"
	res := Extract(raw, KindJS)
	if strings.Contains(res.Content, "file:") {
		t.Fatalf("expected filename prefix stripped, got %q", res.Content)
	}
	if !strings.Contains(res.Content, "const x = 1;") {
		t.Fatalf("expected body retained, got %q", res.Content)
	}
}

func TestExtractFallsBackToFirstFenceWithoutMatchingTag(t *testing.T) {
	raw := "```txt\nconst x = 1;\nexport default x;\n```"
	res := Extract(raw, KindJS)
	if !strings.Contains(res.Content, "const x = 1;") {
		t.Fatalf("expected fallback to the only fence, got %q", res.Content)
	}
	if res.Confidence != 0.7 {
		t.Fatalf("expected 0.7 confidence for non-matching tag, got %v", res.Confidence)
	}
}

func TestExtractCSSValidationAndSalvage(t *testing.T) {
	raw := "Sure, here's the stylesheet:\n.button { color: red; }\nHope that pleted"
	res := Extract(raw, KindCSS)
	if !strings.Contains(res.Content, ".button { color: red; }") {
		t.Fatalf("expected css block salvaged, got %q", res.Content)
	}
}

func TestExtractNoFenceUsesWholeText(t *testing.T) {
	raw := "def add(a, b):\n    return a + b"
	res := Extract(raw, KindPython)
	if res.Content != raw {
		t.Fatalf("expected unfenced text returned verbatim, got %q", res.Content)
	}
	if res.Confidence != 0.5 {
		t.Fatalf("expected 0.5 confidence with no fence, got %v", res.Confidence)
	}
}

func TestExtractHTMLRequiresTag(t *testing.T) {
	raw := "```html\n<div class=\"card\">hi</div>\n```"
	res := Extract(raw, KindHTML)
	if !strings.Contains(res.Content, "<div") {
		t.Fatalf("expected html tag retained, got %q", res.Content)
	}
	if res.Confidence < 0.8 {
		t.Fatalf("expected high confidence, got %v", res.Confidence)
	}
}
