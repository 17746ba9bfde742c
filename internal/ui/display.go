package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/localcoder/nanocore/internal/types"
)

// ANSI codes
const (
	ansiReset   = "\033[0m"
	ansiBold    = "\033[1m"
	ansiDim     = "\033[2m"
	ansiCyan    = "\033[36m"
	ansiYellow  = "\033[33m"
	ansiGreen   = "\033[32m"
	ansiRed     = "\033[31m"
	ansiMagenta = "\033[35m"
	ansiBlue    = "\033[34m"
)

var roleEmoji = map[types.Role]string{
	types.RoleRouter:    "🧭",
	types.RoleCoder:     "⌨️ ",
	types.RoleAlgorithm: "🧮",
}

var eventColor = map[types.EventType]string{
	types.EventStepBegin:   ansiCyan,
	types.EventStepEnd:     ansiGreen,
	types.EventToolCall:    ansiYellow,
	types.EventPermission:  ansiMagenta,
	types.EventEngineLoad:  ansiBlue,
	types.EventEngineEvict: ansiDim + ansiBlue,
	types.EventToken:       ansiDim,
}

var eventStatus = map[types.EventType]string{
	types.EventStepBegin:   "running step...",
	types.EventStepEnd:     "step done",
	types.EventToolCall:    "running tool...",
	types.EventPermission:  "awaiting permission...",
	types.EventEngineLoad:  "loading model...",
	types.EventEngineEvict: "evicting model...",
	types.EventToken:       "generating...",
}

// dynamicStatus returns a spinner label for evt, enriched with payload
// detail for event types where the static label alone is not informative.
func dynamicStatus(evt types.Event) string {
	switch evt.Type {
	case types.EventToolCall:
		if p, ok := evt.Payload.(map[string]any); ok {
			tool, _ := p["tool"].(string)
			action, _ := p["action"].(string)
			if tool != "" {
				return fmt.Sprintf("running %s.%s...", tool, action)
			}
		}
	case types.EventEngineLoad:
		if p, ok := evt.Payload.(map[string]any); ok {
			if role, _ := p["role"].(string); role != "" {
				return fmt.Sprintf("loading %s model...", role)
			}
		}
	case types.EventPermission:
		if p, ok := evt.Payload.(map[string]any); ok {
			if cat, _ := p["category"].(string); cat != "" {
				return fmt.Sprintf("awaiting permission for %s...", cat)
			}
		}
	}
	if s := eventStatus[evt.Type]; s != "" {
		return s
	}
	return ""
}

var spinRunes = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

// Display renders a live pipeline visualization of one utterance's
// processing to stdout. It reads from a bus tap channel and animates the
// current step while it runs, then prints one flow line per event.
type Display struct {
	tap        <-chan types.Event
	abortCh    chan struct{}
	resumeCh   chan struct{}
	mu         sync.Mutex
	status     string
	started    time.Time
	inTask     bool
	spinIdx    int
	suppressed bool          // true after Abort(); blocks new pipeline boxes until Resume()
	taskDone   chan struct{} // closed by endTask; nil between tasks
}

// New creates a Display reading from tap.
func New(tap <-chan types.Event) *Display {
	return &Display{tap: tap, abortCh: make(chan struct{}, 1), resumeCh: make(chan struct{}, 1)}
}

// Abort signals the display to immediately close the current pipeline box
// and suppress any subsequent stale events until Resume() is called.
// Safe to call from any goroutine.
func (d *Display) Abort() {
	select {
	case d.abortCh <- struct{}{}:
	default:
	}
}

// Resume lifts the post-abort suppression so the next utterance can open a
// pipeline box. Call this right before starting to process a new utterance.
// Safe to call from any goroutine.
func (d *Display) Resume() {
	select {
	case d.resumeCh <- struct{}{}:
	default:
	}
}

// Run is the main goroutine. It renders flow lines and animates the spinner.
func (d *Display) Run(ctx context.Context) {
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Print("\r\033[K")
			return

		case <-d.abortCh:
			if d.inTask {
				fmt.Print("\r\033[K")
				d.endTask(false)
			}
			d.mu.Lock()
			d.suppressed = true
			d.mu.Unlock()

		case <-d.resumeCh:
			d.mu.Lock()
			d.suppressed = false
			d.mu.Unlock()

		case evt, ok := <-d.tap:
			if !ok {
				return
			}
			if !d.inTask {
				d.mu.Lock()
				sup := d.suppressed
				d.mu.Unlock()
				if sup {
					continue
				}
				d.startTask()
			}
			fmt.Print("\r\033[K")
			d.printFlow(evt)
			d.setStatus(dynamicStatus(evt))
			if evt.Type == types.EventStepEnd && isFinalStep(evt) {
				d.endTask(true)
			}

		case <-ticker.C:
			if !d.inTask {
				continue
			}
			frame := spinRunes[d.spinIdx%len(spinRunes)]
			d.spinIdx++
			d.mu.Lock()
			status := d.status
			d.mu.Unlock()
			fmt.Printf("\r\033[K%s%s%s %s", ansiCyan, string(frame), ansiReset, status)
		}
	}
}

// isFinalStep reports whether evt's payload marks the last step of a plan
// (or the only step of a single-intent utterance) completing.
func isFinalStep(evt types.Event) bool {
	p, ok := evt.Payload.(map[string]any)
	if !ok {
		return false
	}
	final, _ := p["final"].(bool)
	return final
}

// WaitTaskClose blocks until the current pipeline box is closed by endTask,
// or until timeout elapses. Call this after receiving the final result but
// before printing output or returning control to the REPL, to ensure the
// pipeline footer is printed first.
func (d *Display) WaitTaskClose(timeout time.Duration) {
	d.mu.Lock()
	ch := d.taskDone
	d.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case <-ch:
	case <-time.After(timeout):
	}
}

func (d *Display) startTask() {
	d.mu.Lock()
	d.taskDone = make(chan struct{})
	d.mu.Unlock()
	d.started = time.Now()
	d.inTask = true
	d.setStatus("initializing...")
	fmt.Printf("\n%s┌─── ⚡ nanocore %s%s\n", ansiDim, strings.Repeat("─", 40), ansiReset)
}

func (d *Display) endTask(success bool) {
	d.inTask = false
	elapsed := time.Since(d.started).Round(time.Millisecond)
	icon := "✅"
	if !success {
		icon = "❌"
	}
	fmt.Printf("\r\033[K%s└─── %s  %v %s%s\n", ansiDim, icon, elapsed, strings.Repeat("─", 35), ansiReset)
	d.mu.Lock()
	ch := d.taskDone
	d.taskDone = nil
	d.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

func (d *Display) setStatus(s string) {
	d.mu.Lock()
	d.status = s
	d.mu.Unlock()
}

func (d *Display) printFlow(evt types.Event) {
	label := string(evt.Type)
	if det := eventDetail(evt); det != "" {
		label += ": " + det
	}

	color := eventColor[evt.Type]
	if color == "" {
		color = ansiDim
	}

	isDim := evt.Type == types.EventEngineLoad || evt.Type == types.EventEngineEvict || evt.Type == types.EventToken

	var line string
	if isDim {
		line = fmt.Sprintf("%s  %s%s", ansiDim, label, ansiReset)
	} else {
		line = fmt.Sprintf("  %s%s%s", color, label, ansiReset)
	}
	fmt.Println(line)
}

// eventDetail returns a short inline detail string for a pipeline flow
// line, pulled out of evt's untyped payload map.
//
// Expectations:
//   - EventStepBegin/EventStepEnd: returns the step description or status
//   - EventToolCall: returns "tool.action"
//   - EventPermission: returns "category — decision" once decided
//   - EventEngineLoad/EventEngineEvict: returns the role name
//   - Returns "" for unknown or unparseable payloads
func eventDetail(evt types.Event) string {
	p, ok := evt.Payload.(map[string]any)
	if !ok {
		return ""
	}
	switch evt.Type {
	case types.EventStepBegin:
		if desc, _ := p["description"].(string); desc != "" {
			return clipCols(desc, 55)
		}
	case types.EventStepEnd:
		if status, _ := p["status"].(string); status != "" {
			return status
		}
	case types.EventToolCall:
		tool, _ := p["tool"].(string)
		action, _ := p["action"].(string)
		if tool != "" {
			return fmt.Sprintf("%s.%s", tool, action)
		}
	case types.EventPermission:
		cat, _ := p["category"].(string)
		decision, _ := p["decision"].(string)
		if decision != "" {
			return fmt.Sprintf("%s — %s", cat, decision)
		}
		return cat
	case types.EventEngineLoad, types.EventEngineEvict:
		if role, _ := p["role"].(string); role != "" {
			return role
		}
	}
	return ""
}

// clip truncates s to at most n characters, appending "…" if trimmed.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

// runeWidth returns the terminal column width of r: 2 for wide East Asian
// characters, 1 otherwise. Status lines mix step/tool descriptions that may
// come from model output, so width (not rune count) determines whether a
// clipped line still fits an 80-column terminal.
func runeWidth(r rune) int {
	return runewidth.RuneWidth(r)
}

// clipCols truncates s to at most cols terminal columns (as measured by
// runeWidth), appending "…" only when truncation actually occurs.
func clipCols(s string, cols int) string {
	width := 0
	for _, r := range s {
		width += runeWidth(r)
	}
	if width <= cols {
		return s
	}
	var b strings.Builder
	used := 0
	for _, r := range s {
		w := runeWidth(r)
		if used+w > cols-1 {
			break
		}
		b.WriteRune(r)
		used += w
	}
	b.WriteRune('…')
	return b.String()
}

// Unused — satisfies Go's "declared and not used" check for ansiBold and roleEmoji.
var (
	_ = ansiBold
	_ = roleEmoji
)
