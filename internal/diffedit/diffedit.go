// Package diffedit is the Diff Editor: it builds the edit-block prompt for
// the Coder engine, parses the model's reply into line-anchored EditBlocks,
// validates them against a file's current content, and applies them
// bottom-up so earlier edits in the list see unshifted line numbers.
package diffedit

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/localcoder/nanocore/internal/types"
)

// BuildEditPrompt returns a prompt instructing the engine to reply with
// numbered "EDIT i:" blocks carrying Lines/Old/New/Description fields.
func BuildEditPrompt(path string, existing string, instructions string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n\n", path)
	fmt.Fprintln(&b, "Current content (line-numbered):")
	for i, line := range strings.Split(existing, "\n") {
		fmt.Fprintf(&b, "%d: %s\n", i+1, line)
	}
	fmt.Fprintf(&b, "\nInstructions: %s\n\n", instructions)
	b.WriteString("Reply with one or more edit blocks in exactly this shape, nothing else:\n")
	b.WriteString("EDIT 1:\n")
	b.WriteString("Lines: <start>-<end>\n")
	b.WriteString("Old: <exact current text of those lines, or empty for a pure insertion>\n")
	b.WriteString("New: <replacement text>\n")
	b.WriteString("Description: <one line, what this edit does>\n")
	b.WriteString("EDIT 2:\n...\n")
	return b.String()
}

var editHeaderRe = regexp.MustCompile(`(?i)^EDIT\s+\d+\s*:\s*$`)
var linesRe = regexp.MustCompile(`(?i)^Lines:\s*(\d+)\s*-\s*(\d+)\s*$`)
var oldRe = regexp.MustCompile(`(?i)^Old:\s?(.*)$`)
var newRe = regexp.MustCompile(`(?i)^New:\s?(.*)$`)
var descRe = regexp.MustCompile(`(?i)^Description:\s?(.*)$`)

// ParseEditBlocks tolerates ordering and surrounding whitespace/prose; a
// block missing Lines, New, or Description is discarded rather than
// propagated with zero values.
func ParseEditBlocks(modelOutput string) []types.EditBlock {
	lines := strings.Split(modelOutput, "\n")

	var blocks []types.EditBlock
	var cur *types.EditBlock
	var curOldLines, curNewLines []string
	var inOld, inNew, sawNew bool

	flush := func() {
		if cur == nil {
			return
		}
		cur.OldContent = strings.TrimRight(strings.Join(curOldLines, "\n"), "\n")
		cur.NewContent = strings.TrimRight(strings.Join(curNewLines, "\n"), "\n")
		if cur.EndLine > 0 && sawNew && cur.Description != "" {
			blocks = append(blocks, *cur)
		}
		cur = nil
		curOldLines, curNewLines = nil, nil
		inOld, inNew, sawNew = false, false, false
	}

	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)

		if editHeaderRe.MatchString(trimmed) {
			flush()
			cur = &types.EditBlock{}
			continue
		}
		if cur == nil {
			continue
		}
		if m := linesRe.FindStringSubmatch(trimmed); m != nil {
			start, _ := strconv.Atoi(m[1])
			end, _ := strconv.Atoi(m[2])
			cur.StartLine, cur.EndLine = start, end
			inOld, inNew = false, false
			continue
		}
		if m := oldRe.FindStringSubmatch(line); m != nil {
			inOld, inNew = true, false
			if m[1] != "" {
				curOldLines = append(curOldLines, m[1])
			}
			continue
		}
		if m := newRe.FindStringSubmatch(line); m != nil {
			inOld, inNew, sawNew = false, true, true
			if m[1] != "" {
				curNewLines = append(curNewLines, m[1])
			}
			continue
		}
		if m := descRe.FindStringSubmatch(line); m != nil {
			inOld, inNew = false, false
			cur.Description = strings.TrimSpace(m[1])
			continue
		}
		switch {
		case inOld:
			curOldLines = append(curOldLines, line)
		case inNew:
			curNewLines = append(curNewLines, line)
		}
	}
	flush()
	return blocks
}

// Render renders blocks back into the same EDIT-block text ParseEditBlocks
// consumes, so ParseEditBlocks(Render(blocks)) == blocks for any valid list
// (§8's round-trip law).
func Render(blocks []types.EditBlock) string {
	var b strings.Builder
	for i, blk := range blocks {
		fmt.Fprintf(&b, "EDIT %d:\n", i+1)
		fmt.Fprintf(&b, "Lines: %d-%d\n", blk.StartLine, blk.EndLine)
		fmt.Fprintf(&b, "Old: %s\n", blk.OldContent)
		fmt.Fprintf(&b, "New: %s\n", blk.NewContent)
		fmt.Fprintf(&b, "Description: %s\n", blk.Description)
	}
	return b.String()
}

// ValidateEdits checks ranges are in bounds, no two blocks overlap by line
// range, and a non-empty OldContent matches the file's current content at
// that range. It returns every violation found, not just the first.
func ValidateEdits(existing string, blocks []types.EditBlock) []error {
	var fileLines []string
	if existing != "" {
		fileLines = strings.Split(existing, "\n")
	}
	lineCount := len(fileLines)

	var errs []error
	for _, blk := range blocks {
		if blk.StartLine < 1 || blk.EndLine < blk.StartLine || blk.EndLine > lineCount {
			errs = append(errs, types.NewError(types.ErrValidationFailed,
				"edit %q: range %d-%d out of bounds for %d-line file", blk.Description, blk.StartLine, blk.EndLine, lineCount))
			continue
		}
		if blk.OldContent != "" {
			actual := strings.Join(fileLines[blk.StartLine-1:blk.EndLine], "\n")
			if actual != blk.OldContent {
				errs = append(errs, types.NewError(types.ErrValidationFailed,
					"edit %q: OldContent does not match current lines %d-%d", blk.Description, blk.StartLine, blk.EndLine))
			}
		}
	}

	sorted := append([]types.EditBlock(nil), blocks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartLine < sorted[j].StartLine })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].StartLine <= sorted[i-1].EndLine {
			errs = append(errs, types.NewError(types.ErrValidationFailed,
				"edits %q and %q overlap", sorted[i-1].Description, sorted[i].Description))
		}
	}
	return errs
}

// ApplyEdits splices blocks into existing from the bottom up (sorted by
// StartLine descending) so earlier edits in the list always see unshifted
// line numbers, per §4.5.
func ApplyEdits(existing string, blocks []types.EditBlock) (string, error) {
	if len(blocks) == 0 {
		return existing, nil
	}
	if errs := ValidateEdits(existing, blocks); len(errs) > 0 {
		return "", errs[0]
	}

	lines := strings.Split(existing, "\n")
	sorted := append([]types.EditBlock(nil), blocks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartLine > sorted[j].StartLine })

	for _, blk := range sorted {
		var newLines []string
		if blk.NewContent != "" {
			newLines = strings.Split(blk.NewContent, "\n")
		}
		before := lines[:blk.StartLine-1]
		after := lines[blk.EndLine:]
		merged := make([]string, 0, len(before)+len(newLines)+len(after))
		merged = append(merged, before...)
		merged = append(merged, newLines...)
		merged = append(merged, after...)
		lines = merged
	}
	return strings.Join(lines, "\n"), nil
}

// Savings is estimateSavings' informational result: a 4-characters-per-token
// heuristic comparing a full-file rewrite to a diff-mode edit, backed by a
// real LCS-based diff size via diffmatchpatch rather than a naive byte
// count, so savingsPct reflects the edit's actual overlap with the original.
type Savings struct {
	FullTokens   int
	DiffTokens   int
	SavingsPct   float64
}

const charsPerToken = 4

// EstimateSavings reports how much smaller a diff-mode edit is than
// resending the whole file. DiffTokens is derived from diffmatchpatch's
// character-level diff of existing against the edited result, counting
// only inserted/deleted runs (the parts a diff-mode reply actually has to
// carry) rather than the whole edited file.
func EstimateSavings(existing string, blocks []types.EditBlock) Savings {
	edited, err := ApplyEdits(existing, blocks)
	if err != nil {
		edited = existing
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(existing, edited, false)

	var changedChars int
	for _, d := range diffs {
		if d.Type != diffmatchpatch.DiffEqual {
			changedChars += len(d.Text)
		}
	}

	fullTokens := len(existing) / charsPerToken
	diffTokens := changedChars / charsPerToken
	if fullTokens == 0 {
		return Savings{FullTokens: 0, DiffTokens: diffTokens, SavingsPct: 0}
	}
	pct := (1 - float64(diffTokens)/float64(fullTokens)) * 100
	if pct < 0 {
		pct = 0
	}
	return Savings{FullTokens: fullTokens, DiffTokens: diffTokens, SavingsPct: pct}
}
