// Package router is the Intent Router: a cheap, always-resident classifier
// that turns one utterance into a types.IntentResult. Tier A asks the
// router engine for a structured classification; Tier B is the frozen,
// ordered deterministic fallback table this file implements. Tier B never
// touches an engine, so the Task Planner re-runs it directly against each
// clause of a multi-step utterance (§4.6) without needing a model call.
package router

import (
	"regexp"
	"strings"

	"github.com/localcoder/nanocore/internal/types"
)

// toolVerbs are the bare aliases and tool-shaped words that fix intent to
// ToolCall at 0.95 confidence. Order matters only in that the first family
// whose pattern matches wins; within a family any match suffices.
var toolVerbs = []string{
	"git", "ls", "pwd", "mkdir", "rm", "run", "execute", "install",
	"clone", "commit", "push", "pull", "status",
}

var simpleAnswerPrefixes = []string{"what", "why", "how", "explain"}

var codingVerbs = []string{
	"create", "write", "generate", "implement", "edit", "modify",
	"refactor", "fix", "add", "remove",
}

// algorithmicKeywords drive both the AlgorithmTask fallback rule and the
// Coder-vs-Algorithm escalation target for CodingTask results (§4.2).
var algorithmicKeywords = []string{
	"binary search", "sort", "graph", "tree", "heap", "hash",
	"dynamic programming", "complexity", "parser", "state machine", "optimize",
}

var (
	wordBoundaryCache = map[string]*regexp.Regexp{}
)

func containsAny(text string, words []string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		re, ok := wordBoundaryCache[w]
		if !ok {
			re = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
			wordBoundaryCache[w] = re
		}
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

func hasPrefix(text string, prefixes []string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(text))
	for _, p := range prefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

// firstWord returns the lowercase leading token of text, stripped of
// leading punctuation, for matching bare tool aliases like "ls" or "status".
func firstWord(text string) string {
	trimmed := strings.ToLower(strings.TrimSpace(text))
	for i, r := range trimmed {
		if r == ' ' || r == '\t' || r == '\n' {
			return trimmed[:i]
		}
	}
	return trimmed
}

// ClassifyFallback is the Tier B deterministic fallback: a frozen, ordered
// pattern table over tool verbs, simple-answer prefixes, coding verbs, and
// algorithmic keywords. The first matching family fixes the intent; its
// rule-specific constant becomes the confidence. FallbackUsed is always
// true. An utterance matching no rule classifies Unknown at low confidence.
func ClassifyFallback(utterance string) types.IntentResult {
	switch {
	case containsAny(utterance, toolVerbs) || isBareToolAlias(utterance):
		tool, action := inferTool(utterance)
		return types.IntentResult{
			Intent:       types.IntentToolCall,
			Confidence:   0.95,
			Tool:         tool,
			Action:       action,
			Params:       buildToolParams(tool, action, utterance),
			FallbackUsed: true,
		}

	case hasPrefix(utterance, simpleAnswerPrefixes):
		return types.IntentResult{
			Intent:       types.IntentSimpleAnswer,
			Confidence:   0.85,
			Params:       types.Params{"question": utterance},
			FallbackUsed: true,
		}

	case containsAny(utterance, algorithmicKeywords):
		return types.IntentResult{
			Intent:       types.IntentAlgorithmTask,
			Confidence:   0.80,
			EscalateTo:   types.RoleAlgorithm,
			Params:       types.Params{"instructions": utterance},
			FallbackUsed: true,
		}

	case containsAny(utterance, codingVerbs):
		escalate := types.RoleCoder
		return types.IntentResult{
			Intent:       types.IntentCodingTask,
			Confidence:   0.75,
			EscalateTo:   escalate,
			Params:       types.Params{"instructions": utterance},
			FallbackUsed: true,
		}

	default:
		return types.IntentResult{
			Intent:       types.IntentUnknown,
			Confidence:   0.3,
			FallbackUsed: true,
		}
	}
}

// MatchesAlgorithmicKeywords reports whether text matches the same frozen
// algorithmic-keyword table Tier B and Tier A's escalation rule use. The
// Orchestrator calls this on a coding task's instructions to set a
// CodeResult's NeedsAlgorithmSpecialist, so the escalation target is
// decided against one shared table rather than a second copy of it.
func MatchesAlgorithmicKeywords(text string) bool {
	return containsAny(text, algorithmicKeywords)
}

func isBareToolAlias(utterance string) bool {
	_, _, ok := normalizeFirstWord(utterance)
	return ok
}

// normalizeFirstWord looks up just the utterance's leading token against
// the same alias vocabulary Tool Executor normalization recognizes, so
// leading aliases that toolVerbs does not list ("read", "write", "delete",
// "terminal") still classify ToolCall.
func normalizeFirstWord(utterance string) (types.Tool, string, bool) {
	word := firstWord(utterance)
	switch word {
	case "git", "status", "commit", "push", "pull", "clone":
		if word == "git" {
			return types.ToolGit, resolveGitAction(utterance), true
		}
		return types.ToolGit, word, true
	case "ls", "read", "write", "delete":
		return types.ToolFile, resolveFileAction(word), true
	case "pwd", "run", "execute", "install", "rm", "terminal":
		return types.ToolShell, "run", true
	case "mkdir":
		return types.ToolShell, "mkdir", true
	}
	return types.ToolNone, "", false
}

// resolveGitAction inspects the token following the first "git" occurrence
// in utterance (not just the literal leading word) so "git commit -m ..."
// and "git push origin main" classify as git.commit/git.push instead of
// always falling back to git.status.
func resolveGitAction(utterance string) string {
	fields := tokens(utterance)
	for i, f := range fields {
		if !strings.EqualFold(f, "git") {
			continue
		}
		if i+1 < len(fields) {
			switch strings.ToLower(fields[i+1]) {
			case "status", "commit", "push", "pull", "clone":
				return strings.ToLower(fields[i+1])
			}
		}
		break
	}
	return "status"
}

func resolveFileAction(word string) string {
	switch word {
	case "ls":
		return "list"
	default:
		return word
	}
}

// inferTool derives a best-guess (Tool, action) pair for a ToolCall
// fallback match. It prefers the leading-token alias and falls back to
// scanning for any recognized verb in the utterance.
func inferTool(utterance string) (types.Tool, string) {
	if tool, action, ok := normalizeFirstWord(utterance); ok {
		return tool, action
	}
	for _, w := range toolVerbs {
		if !containsAny(utterance, []string{w}) {
			continue
		}
		if w == "git" {
			return types.ToolGit, resolveGitAction(utterance)
		}
		if tool, action, ok := normalizeFirstWord(w); ok {
			return tool, action
		}
	}
	return types.ToolShell, "run"
}

// tokens splits utterance on whitespace; used by the param builders below
// to pick out the literal arguments following a recognized verb.
func tokens(utterance string) []string {
	return strings.Fields(utterance)
}

// leadingVerbWords are every literal token normalizeFirstWord recognizes as
// a tool trigger. buildToolParams strips a run of these from the front of
// an utterance to isolate the arguments that follow (a path, a commit
// message, a push target) — everywhere except shell.run, where most of
// these words (rm, pwd, install) are themselves part of the literal command
// and must not be stripped.
var leadingVerbWords = map[string]bool{
	"git": true, "status": true, "commit": true, "push": true, "pull": true, "clone": true,
	"ls": true, "read": true, "write": true, "delete": true,
	"pwd": true, "run": true, "execute": true, "install": true, "rm": true, "terminal": true,
	"mkdir": true,
}

// shellRunFillerWords are the subset of leadingVerbWords that are purely
// orchestration phrasing ("run the tests") rather than part of the literal
// command ("rm", "pwd", "install" are plausible command words themselves).
var shellRunFillerWords = map[string]bool{"run": true, "execute": true, "terminal": true}

func stripLeadingVerbs(utterance string) []string {
	fields := tokens(utterance)
	i := 0
	for i < len(fields) && leadingVerbWords[strings.ToLower(fields[i])] {
		i++
	}
	return fields[i:]
}

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

var commitFlagRe = regexp.MustCompile(`(?i)-m\s+`)

// buildToolParams fills the per-action params the Tool Executor's declared
// schema (§6) requires for each (tool, action) pair a Tier B rule can
// produce. Bare `git status`/`file.list` with no further arguments legally
// resolve to an empty Params — the executor defaults those to the
// workspace root — every other action needs a real key populated here.
func buildToolParams(tool types.Tool, action string, utterance string) types.Params {
	switch tool {
	case types.ToolGit:
		return gitParams(action, utterance)
	case types.ToolShell:
		return shellParams(action, utterance)
	case types.ToolFile:
		return fileParams(action, utterance)
	default:
		return types.Params{}
	}
}

func gitParams(action, utterance string) types.Params {
	switch action {
	case "commit":
		return types.Params{"message": extractCommitMessage(utterance)}
	case "push":
		rest := stripLeadingVerbs(utterance)
		p := types.Params{}
		if len(rest) > 0 {
			p["remote"] = rest[0]
		}
		if len(rest) > 1 {
			p["branch"] = rest[1]
		}
		return p
	default:
		return types.Params{}
	}
}

func extractCommitMessage(utterance string) string {
	if loc := commitFlagRe.FindStringIndex(utterance); loc != nil {
		return stripQuotes(utterance[loc[1]:])
	}
	rest := stripLeadingVerbs(utterance)
	return stripQuotes(strings.Join(rest, " "))
}

func shellParams(action, utterance string) types.Params {
	switch action {
	case "mkdir":
		paths, parents := extractMkdirArgs(utterance)
		p := types.Params{"paths": paths}
		if parents {
			p["parents"] = true
		}
		return p
	default: // "run", "pty"
		return types.Params{"command": shellCommand(utterance)}
	}
}

func extractMkdirArgs(utterance string) (paths []string, parents bool) {
	for _, f := range stripLeadingVerbs(utterance) {
		if f == "-p" || strings.EqualFold(f, "--parents") {
			parents = true
			continue
		}
		paths = append(paths, f)
	}
	return paths, parents
}

// shellCommand isolates the literal command for shell.run: it only strips
// pure orchestration filler ("run", "execute", "terminal"), never the
// leading word of an actual command like "rm" or "pwd" or "install".
func shellCommand(utterance string) string {
	fields := tokens(utterance)
	if len(fields) > 0 && shellRunFillerWords[strings.ToLower(fields[0])] {
		return strings.TrimSpace(strings.Join(fields[1:], " "))
	}
	return strings.TrimSpace(utterance)
}

func fileParams(action, utterance string) types.Params {
	rest := stripLeadingVerbs(utterance)
	if action == "list" {
		if len(rest) == 0 {
			return types.Params{}
		}
		return types.Params{"path": rest[0]}
	}
	p := types.Params{}
	if len(rest) > 0 {
		p["path"] = rest[0]
	}
	return p
}
