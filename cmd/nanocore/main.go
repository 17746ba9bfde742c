// Command nanocore is the CLI surface of §6: a single `process` entry point
// taking one utterance, with interactive mode as a loop over that entry.
// No flags alter semantics beyond a verbose toggle. Bootstrap order mirrors
// the teacher's cmd/agsh/main.go: env/log setup, bus first, then every
// collaborator the Orchestrator needs, wired bottom-up.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/localcoder/nanocore/internal/bus"
	"github.com/localcoder/nanocore/internal/config"
	"github.com/localcoder/nanocore/internal/engine"
	"github.com/localcoder/nanocore/internal/lifecycle"
	"github.com/localcoder/nanocore/internal/orchestrator"
	"github.com/localcoder/nanocore/internal/permission"
	"github.com/localcoder/nanocore/internal/router"
	"github.com/localcoder/nanocore/internal/tasklog"
	"github.com/localcoder/nanocore/internal/tools"
	"github.com/localcoder/nanocore/internal/types"
	"github.com/localcoder/nanocore/internal/ui"
)

func main() {
	_ = godotenv.Load(".env")

	homeDir, _ := os.UserHomeDir()
	cacheDir := filepath.Join(homeDir, ".cache", "nanocore")
	_ = os.MkdirAll(cacheDir, 0755)

	// Debug log rotates so a long-running REPL session doesn't grow an
	// unbounded file the way the teacher's single os.OpenFile did.
	log.SetOutput(&lumberjack.Logger{
		Filename:   filepath.Join(cacheDir, "debug.log"),
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
	})

	cfg := config.Load()
	if cfg.WorkspaceDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		cfg.WorkspaceDir = wd
	}

	b := bus.New()

	adapter, err := newAdapter()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: engine adapter: %v\n", err)
		os.Exit(1)
	}

	lc := lifecycle.NewManager(adapter, cfg.Policies(), cfg.ModelPaths(), cfg.MemoryBudgetMB)
	rtr := router.New(lc, adapter, router.DefaultThresholds())
	execu := tools.NewExecutor(cfg.WorkspaceDir, cfg.AllowShell)
	logReg := tasklog.NewRegistry(filepath.Join(cacheDir, "tasks"))

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "\033[36m>\033[0m ",
		HistoryFile:       filepath.Join(cacheDir, "history"),
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline init error: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	gate := permission.NewGate(&replPrompter{rl: rl})

	orch := orchestrator.New(cfg, lc, adapter, rtr, execu, gate, b, logReg)

	disp := ui.New(b.NewTap())

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, os.Interrupt)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	go disp.Run(ctx)

	if len(os.Args) > 1 && os.Args[1] != "" {
		input := strings.Join(os.Args[1:], " ")
		out, err := orch.Process(ctx, input)
		cancel()
		lc.Shutdown(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(out)
		return
	}

	runREPL(ctx, orch, rl, disp)
	cancel()
	lc.Shutdown(context.Background())
}

// newAdapter picks the Ollama-backed Engine Adapter, falling back to the
// in-memory fake when NANOCORE_FAKE_ENGINE=1 or when no Ollama client can be
// built from the environment. It does not contact the daemon, so a daemon
// that is not running is not detected here.
func newAdapter() (engine.Adapter, error) {
	if os.Getenv("NANOCORE_FAKE_ENGINE") == "1" {
		return engine.NewFakeAdapter(), nil
	}
	a, err := engine.NewOllamaAdapter()
	if err != nil {
		log.Printf("[MAIN] ollama adapter unavailable (%v), using fake adapter", err)
		return engine.NewFakeAdapter(), nil
	}
	return a, nil
}

func runREPL(ctx context.Context, orch *orchestrator.Orchestrator, rl *readline.Instance, disp *ui.Display) {
	fmt.Println("\033[1m\033[36m⚡ nanocore\033[0m — local coding assistant  \033[2m(exit/Ctrl-D to quit)\033[0m")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			return
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			return
		}

		disp.Resume()
		out, err := orch.Process(ctx, input)
		disp.WaitTaskClose(300 * time.Millisecond)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println(out)

		if ctx.Err() != nil {
			return
		}
	}
}

// replPrompter is the Permission Gate's human-facing half: a readline-backed
// yes/no/batch prompt. It never touches the filesystem or a subprocess.
type replPrompter struct {
	rl *readline.Instance
}

func (p *replPrompter) Confirm(ctx context.Context, req types.PermissionRequest) (types.Decision, error) {
	warn := ""
	if req.Destructive {
		warn = "\033[31m⚠ destructive\033[0m  "
	}
	fmt.Printf("\n%s%s\n", warn, req.Description)
	if req.Preview != "" {
		fmt.Println(req.Preview)
	}
	fmt.Print("allow once (y) / allow all in this batch (a) / deny (n)? ")

	answerCh := make(chan string, 1)
	go func() {
		line, err := p.rl.Readline()
		if err != nil {
			answerCh <- "n"
			return
		}
		answerCh <- strings.ToLower(strings.TrimSpace(line))
	}()

	select {
	case <-ctx.Done():
		return types.DecisionDeny, ctx.Err()
	case ans := <-answerCh:
		switch ans {
		case "a":
			return types.DecisionAllowBatch, nil
		case "y":
			return types.DecisionAllowOnce, nil
		default:
			return types.DecisionDeny, nil
		}
	}
}
