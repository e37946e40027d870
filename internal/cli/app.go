// pattern: Functional Core

// Package cli holds the non-interactive command surface of gwa: commands
// that inspect or edit the repository's config and exit without starting
// the TUI.
package cli

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
)

// ErrUsage marks errors caused by bad arguments. Execute prints the
// command's usage for them.
var ErrUsage = errors.New("invalid usage")

// Command represents a single CLI command with its metadata and handler.
type Command struct {
	Name    string
	Summary string
	Usage   string
	Run     func(args []string) error
}

// Group represents a group of related commands.
type Group struct {
	Name     string
	Summary  string
	Commands map[string]*Command
}

// App represents the top-level CLI application with groups and ungrouped commands.
type App struct {
	groups   map[string]*Group
	commands map[string]*Command
	version  string
	stderr   io.Writer
}

// NewApp creates a new CLI application. Help and errors go to stderr.
func NewApp(version string, stderr io.Writer) *App {
	return &App{
		groups:   make(map[string]*Group),
		commands: make(map[string]*Command),
		version:  version,
		stderr:   stderr,
	}
}

// AddGroup creates and registers a new command group.
func (a *App) AddGroup(name, summary string) *Group {
	g := &Group{
		Name:     name,
		Summary:  summary,
		Commands: make(map[string]*Command),
	}
	a.groups[name] = g
	return g
}

// AddCommand registers an ungrouped (top-level) command.
func (a *App) AddCommand(cmd *Command) {
	a.commands[cmd.Name] = cmd
}

// AddCommand registers a command in the group.
func (g *Group) AddCommand(cmd *Command) {
	g.Commands[cmd.Name] = cmd
}

// Handles reports whether args name a registered command or group.
func (a *App) Handles(args []string) bool {
	if len(args) == 0 {
		return false
	}
	_, isCmd := a.commands[args[0]]
	_, isGroup := a.groups[args[0]]
	return isCmd || isGroup || args[0] == "help"
}

// Execute dispatches args to a command and returns the process exit code.
func (a *App) Execute(args []string) int {
	if len(args) == 0 || args[0] == "help" {
		a.PrintHelp(a.stderr)
		return 0
	}

	if cmd, ok := a.commands[args[0]]; ok {
		return a.run(cmd, args[1:])
	}

	group, ok := a.groups[args[0]]
	if !ok {
		fmt.Fprintf(a.stderr, "unknown command %q\n\n", args[0])
		a.PrintHelp(a.stderr)
		return 1
	}

	if len(args) < 2 || args[1] == "help" || args[1] == "--help" || args[1] == "-h" {
		group.PrintHelp(a.stderr)
		return 0
	}
	cmd, ok := group.Commands[args[1]]
	if !ok {
		group.PrintHelp(a.stderr)
		return 1
	}
	return a.run(cmd, args[2:])
}

func (a *App) run(cmd *Command, args []string) int {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			fmt.Fprintf(a.stderr, "%s\n", cmd.Usage)
			return 0
		}
	}
	if err := cmd.Run(args); err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		if errors.Is(err, ErrUsage) {
			fmt.Fprintf(a.stderr, "%s\n", cmd.Usage)
		}
		return 1
	}
	return 0
}

// PrintHelp prints the top-level help text.
func (a *App) PrintHelp(w io.Writer) {
	fmt.Fprintf(w, "Usage: gwa [options] [command]\n\n")
	fmt.Fprintf(w, "Commands:\n")

	for _, name := range slices.Sorted(maps.Keys(a.commands)) {
		cmd := a.commands[name]
		fmt.Fprintf(w, "  %-10s %s\n", cmd.Name, cmd.Summary)
	}
	for _, name := range slices.Sorted(maps.Keys(a.groups)) {
		group := a.groups[name]
		fmt.Fprintf(w, "  %-10s %s\n", group.Name, group.Summary)
	}
	fmt.Fprintf(w, "  %-10s %s\n", "(none)", "Launch interactive TUI")

	fmt.Fprintf(w, "\nUse \"gwa <command> --help\" for command details.\n")
}

// PrintHelp prints help for a specific group.
func (g *Group) PrintHelp(w io.Writer) {
	fmt.Fprintf(w, "Usage: gwa %s <command>\n\n", g.Name)
	fmt.Fprintf(w, "Commands:\n")
	names := slices.Sorted(maps.Keys(g.Commands))
	for _, name := range names {
		cmd := g.Commands[name]
		fmt.Fprintf(w, "  %-10s %s\n", cmd.Name, cmd.Summary)
	}
	fmt.Fprintf(w, "\nUse \"gwa %s <command> --help\" for command details.\n", g.Name)
}
