package tools

import "regexp"

// forbiddenShellPatterns are the recursive-delete-at-root, fork-bomb, and
// device-write shapes shell.run refuses outright. A match is fatal: Execute
// returns Forbidden and runs nothing, whatever Decision it was given. The
// check happens only inside Execute, so a caller that asks the Permission
// Gate first (as the Orchestrator does) still prompts for such a command.
var forbiddenShellPatterns = []*regexp.Regexp{
	regexp.MustCompile(`rm\s+(-[a-zA-Z]*r[a-zA-Z]*f[a-zA-Z]*|-[a-zA-Z]*f[a-zA-Z]*r[a-zA-Z]*)\s+/(\s|$|\*)`),
	regexp.MustCompile(`rm\s+(-[a-zA-Z]*r[a-zA-Z]*f[a-zA-Z]*|-[a-zA-Z]*f[a-zA-Z]*r[a-zA-Z]*)\s+~(\s|$|/\s*$)`),
	regexp.MustCompile(`:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;\s*:`), // classic fork bomb
	regexp.MustCompile(`>\s*/dev/(sd|nvme|hd|disk)`),
	regexp.MustCompile(`dd\s+.*of=/dev/(sd|nvme|hd|disk)`),
	regexp.MustCompile(`mkfs(\.\w+)?\s+/dev/`),
}

// isForbiddenShellCommand reports whether cmd matches a forbidden pattern.
func isForbiddenShellCommand(cmd string) bool {
	for _, p := range forbiddenShellPatterns {
		if p.MatchString(cmd) {
			return true
		}
	}
	return false
}
