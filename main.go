// pattern: Imperative Shell
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"gwa/internal/cli"
	"gwa/internal/config"
	"gwa/internal/events"
	"gwa/internal/executor"
	"gwa/internal/git"
	"gwa/internal/instance"
	"gwa/internal/logging"
	"gwa/internal/tui"
	"gwa/internal/watcher"
	"gwa/internal/worktree"
)

var version = "dev"

// hookShutdownTimeout bounds how long quitting waits for cancelled hooks.
const hookShutdownTimeout = 5 * time.Second

type options struct {
	path       string
	debug      bool
	showConfig bool
	init       bool
	setOpts    cli.InitOptions
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses the command line and dispatches to a subcommand, a one-shot
// config flag, or the TUI. It returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gwa", flag.ContinueOnError)
	fs.SetOutput(stderr)
	// Stop at the first non-flag argument so subcommands parse their own flags.
	fs.SetInterspersed(false)

	var opts options
	fs.StringVarP(&opts.path, "path", "p", ".", "repository to watch")
	fs.BoolVarP(&opts.debug, "debug", "d", false, "log at debug level")
	fs.BoolVar(&opts.showConfig, "show-config", false, "print the config and exit")
	fs.BoolVar(&opts.init, "init", false, "write the config interactively and exit")
	command := fs.String("set-command", "", "set the post-create command and exit")
	interval := fs.Uint("set-poll-interval", 0, "set the poll interval in seconds and exit")
	autoCreate := fs.Bool("auto-create", false, "turn on auto-create and exit")

	env := cli.Env{Stdout: stdout, Stderr: stderr}
	fs.Usage = func() {
		cli.BuildApp(version, env).PrintHelp(stderr)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	env.RepoPath = opts.path

	if fs.Changed("set-command") {
		opts.setOpts.Command = command
	}
	if fs.Changed("set-poll-interval") {
		if *interval == 0 {
			fmt.Fprintln(stderr, "Error: --set-poll-interval must be at least 1")
			return 1
		}
		opts.setOpts.PollInterval = interval
	}
	if fs.Changed("auto-create") {
		opts.setOpts.AutoCreate = autoCreate
	}

	app := cli.BuildApp(version, env)
	if rest := fs.Args(); len(rest) > 0 {
		if !app.Handles(rest) {
			fmt.Fprintf(stderr, "unknown command %q\n", rest[0])
			app.PrintHelp(stderr)
			return 1
		}
		return app.Execute(rest)
	}

	switch {
	case opts.showConfig:
		return report(stderr, cli.ShowConfig(env, false))
	case !opts.setOpts.Empty():
		return report(stderr, cli.Init(env, opts.setOpts, false))
	case opts.init:
		return report(stderr, cli.Init(env, cli.InitOptions{}, true))
	}
	return runTUI(opts, stderr)
}

func report(stderr io.Writer, err error) int {
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// runTUI launches the interactive TUI.
func runTUI(opts options, stderr io.Writer) int {
	level := "info"
	if opts.debug {
		level = "debug"
	}
	logManager, err := logging.NewManager(logging.Config{
		FilePath:       logging.DefaultFilePath(),
		MaxSizeMB:      10,
		MaxBackups:     3,
		MaxAgeDays:     7,
		ChannelBufSize: 1000,
		Level:          level,
		UILevel:        "warn",
	})
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logging: %v\n", err)
		return 1
	}
	defer func() { _ = logManager.Close() }()

	appLogger := logManager.For(logging.ScopeApp)
	appLogger.Info("application starting", "version", version)

	repo, err := git.Discover(opts.path, logManager.For(logging.ScopeGit))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	root := repo.Root()

	lock, err := instance.Acquire(instance.DefaultStateDir(), root)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer lock.Release()

	configLogger := logManager.For(logging.ScopeConfig)
	store := config.NewStore(root)
	cfg, err := store.Load()
	if err != nil {
		configLogger.Warn("config could not be loaded, using defaults", "error", err)
		fmt.Fprintf(stderr, "warning: %v\n", err)
	}
	if err := store.CheckWritable(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ignore, err := config.CompilePatterns(cfg.IgnorePatterns)
	if err != nil {
		configLogger.Warn("ignoring invalid patterns", "error", err)
	}
	if !repo.RemoteExists(cfg.RemoteName) {
		appLogger.Warn("remote not found, fetches will fail until it is added", "remote", cfg.RemoteName)
	}
	if cfg.BaseBranch == nil {
		if branch, ok := repo.DefaultBranch(cfg.RemoteName); ok {
			cfg.BaseBranch = &branch
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := worktree.NewManager(repo, root, logManager.For(logging.ScopeWorktree))
	reconciled, external, err := manager.Reconcile(ctx, cfg)
	if err != nil {
		appLogger.Warn("worktree reconciliation failed", "error", err)
	} else {
		cfg = reconciled
	}
	if err := store.Save(cfg); err != nil {
		configLogger.Error("config save failed", "error", err)
	}

	inbox := events.NewInbox(256)
	w := watcher.New(repo, inbox, logManager.For(logging.ScopeWatcher), watcher.PolicyFrom(cfg, ignore))
	exe := executor.New(inbox, logManager.For(logging.ScopeExecutor))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Run(ctx)
	}()

	var configChanges <-chan struct{}
	if fw, err := config.NewFileWatcher(store.Path()); err != nil {
		appLogger.Warn("config file watching disabled", "error", err)
	} else {
		configChanges = fw.Changes()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = fw.Run(ctx)
		}()
	}

	model := tui.NewModel(tui.Deps{
		Ctx:           ctx,
		Config:        cfg,
		Ignore:        ignore,
		Store:         store,
		Worktrees:     manager,
		Hooks:         exe,
		Poller:        w,
		Logger:        appLogger,
		Inbox:         inbox.Events(),
		ConfigChanges: configChanges,
		LogEntries:    logManager.Entries(),
		RepoRoot:      root,
		Version:       version,
		RingCapacity:  executor.DefaultRingCapacity,
		External:      external,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	final, runErr := p.Run()

	cancel()
	if !exe.Shutdown(hookShutdownTimeout) {
		appLogger.Warn("hooks still running after shutdown timeout")
	}
	wg.Wait()

	if m, ok := final.(tui.Model); ok {
		if err := store.Save(m.Config()); err != nil {
			appLogger.Error("final config save failed", "error", err)
			fmt.Fprintf(stderr, "Error: saving config: %v\n", err)
		}
	}

	if runErr != nil {
		appLogger.Error("application exited with error", "error", runErr)
		fmt.Fprintf(stderr, "Error running program: %v\n", runErr)
		return 1
	}
	appLogger.Info("application stopped")
	return 0
}
