// pattern: Imperative Shell

package cli

import (
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"gwa/internal/config"
	"gwa/internal/git"
	"gwa/internal/logging"
)

// Repo is the part of a repository the commands need.
type Repo interface {
	Root() string
	Remotes() ([]string, error)
}

// Env carries what commands read from the process: where to look for the
// repository and where to write.
type Env struct {
	RepoPath string
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *logging.ScopedLogger

	// Open resolves RepoPath to a repository. Nil means git discovery.
	Open func(path string) (Repo, error)
}

func (e Env) logger() *logging.ScopedLogger {
	if e.Logger == nil {
		return logging.NopLogger()
	}
	return e.Logger
}

func (e Env) open() (Repo, error) {
	if e.Open != nil {
		return e.Open(e.RepoPath)
	}
	repo, err := git.Discover(e.RepoPath, e.logger())
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// load opens the repository and its config store. A config that could not
// be parsed is reported on stderr and replaced by defaults.
func (e Env) load() (Repo, *config.Store, config.Config, error) {
	repo, err := e.open()
	if err != nil {
		return nil, nil, config.Config{}, err
	}
	store := config.NewStore(repo.Root())
	cfg, err := store.Load()
	if err != nil {
		fmt.Fprintf(e.Stderr, "warning: %v\n", err)
	}
	return repo, store, cfg, nil
}

// BuildApp creates and configures the CLI application with all commands and groups.
func BuildApp(version string, env Env) *App {
	app := NewApp(version, env.Stderr)

	app.AddCommand(&Command{
		Name:    "version",
		Summary: "Print version and exit",
		Usage:   "Usage: gwa version",
		Run: func(args []string) error {
			fmt.Fprintln(env.Stdout, version)
			return nil
		},
	})

	app.AddCommand(&Command{
		Name:    "init",
		Summary: "Write the repository config, from flags or a form",
		Usage:   "Usage: gwa init [--interactive] [--command CMD] [--poll-interval N] [--auto-create] [--remote NAME] [--base-dir DIR]",
		Run: func(args []string) error {
			fs := flag.NewFlagSet("init", flag.ContinueOnError)
			fs.SetOutput(env.Stderr)
			interactive := fs.BoolP("interactive", "i", false, "ask for each setting")
			command := fs.String("command", "", "post-create command")
			interval := fs.Uint("poll-interval", 0, "poll interval in seconds")
			autoCreate := fs.Bool("auto-create", false, "create worktrees for new branches automatically")
			remote := fs.String("remote", "", "remote to watch")
			baseDir := fs.String("base-dir", "", "directory new worktrees are created in")
			if err := fs.Parse(args); err != nil {
				return fmt.Errorf("%w: %v", ErrUsage, err)
			}

			var opts InitOptions
			if fs.Changed("command") {
				opts.Command = command
			}
			if fs.Changed("poll-interval") {
				if *interval == 0 {
					return fmt.Errorf("%w: --poll-interval must be at least 1", ErrUsage)
				}
				opts.PollInterval = interval
			}
			if fs.Changed("auto-create") {
				opts.AutoCreate = autoCreate
			}
			if fs.Changed("remote") {
				opts.Remote = remote
			}
			if fs.Changed("base-dir") {
				opts.BaseDir = baseDir
			}
			return Init(env, opts, *interactive)
		},
	})

	group := app.AddGroup("config", "Show or change the repository config")
	group.AddCommand(&Command{
		Name:    "show",
		Summary: "Print the config as YAML (or JSON with --json)",
		Usage:   "Usage: gwa config show [--json]",
		Run: func(args []string) error {
			fs := flag.NewFlagSet("config show", flag.ContinueOnError)
			fs.SetOutput(env.Stderr)
			asJSON := fs.Bool("json", false, "print the on-disk JSON form")
			if err := fs.Parse(args); err != nil {
				return fmt.Errorf("%w: %v", ErrUsage, err)
			}
			return ShowConfig(env, *asJSON)
		},
	})
	group.AddCommand(&Command{
		Name:    "set",
		Summary: "Change one setting",
		Usage:   "Usage: gwa config set <key> <value>\n\nKeys: " + fmt.Sprint(SettingKeys),
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("%w: expected <key> <value>", ErrUsage)
			}
			return SetValue(env, args[0], args[1])
		},
	})
	group.AddCommand(&Command{
		Name:    "path",
		Summary: "Print the config file path",
		Usage:   "Usage: gwa config path",
		Run: func(args []string) error {
			repo, err := env.open()
			if err != nil {
				return err
			}
			fmt.Fprintln(env.Stdout, config.NewStore(repo.Root()).Path())
			return nil
		},
	})

	return app
}

// ShowConfig prints the repository config.
func ShowConfig(env Env, asJSON bool) error {
	_, store, cfg, err := env.load()
	if err != nil {
		return err
	}

	var out string
	if asJSON {
		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		out = string(data)
	} else {
		out, err = RenderYAML(cfg)
		if err != nil {
			return err
		}
	}
	fmt.Fprintf(env.Stdout, "# %s\n%s", store.Path(), out)
	return nil
}

// SetValue changes one setting and saves the config.
func SetValue(env Env, key, value string) error {
	_, store, cfg, err := env.load()
	if err != nil {
		return err
	}
	next, err := SetConfigValue(cfg, key, value)
	if err != nil {
		return err
	}
	if err := store.Save(next); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "%s = %q\n", key, value)
	return nil
}

// Init applies opts, optionally after asking through the init form, and
// saves the config.
func Init(env Env, opts InitOptions, interactive bool) error {
	repo, store, cfg, err := env.load()
	if err != nil {
		return err
	}

	next := ApplyInit(cfg, opts)
	if interactive {
		remotes, err := repo.Remotes()
		if err != nil {
			env.logger().Warn("listing remotes failed", "error", err)
		}
		next, err = RunInitForm(next, remotes)
		if err != nil {
			return err
		}
	}

	if err := store.Save(next); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "wrote %s\n", store.Path())
	return nil
}
