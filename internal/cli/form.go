// pattern: Imperative Shell

package cli

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"gwa/internal/config"
)

const (
	initRemoteKey     = "init_remote"
	initIntervalKey   = "init_interval"
	initBaseDirKey    = "init_base_dir"
	initCommandKey    = "init_command"
	initAutoCreateKey = "init_auto_create"
)

// initValues backs the interactive init form.
type initValues struct {
	Remote     string
	Interval   string
	BaseDir    string
	Command    string
	AutoCreate bool
}

func initValuesFrom(cfg config.Config) initValues {
	return initValues{
		Remote:     cfg.RemoteName,
		Interval:   strconv.FormatUint(uint64(cfg.PollIntervalSecs), 10),
		BaseDir:    cfg.WorktreeBaseDir,
		Command:    cfg.Command(),
		AutoCreate: cfg.AutoCreateWorktrees,
	}
}

// options converts form values into InitOptions. The interval has already
// been validated by the form.
func (v initValues) options() InitOptions {
	opts := InitOptions{
		Command:    &v.Command,
		AutoCreate: &v.AutoCreate,
		Remote:     &v.Remote,
		BaseDir:    &v.BaseDir,
	}
	if n, err := ParsePollInterval(v.Interval); err == nil {
		opts.PollInterval = &n
	}
	return opts
}

func newInitForm(v *initValues, remotes []string) *huh.Form {
	var remoteField huh.Field
	if len(remotes) > 1 {
		remoteField = huh.NewSelect[string]().
			Key(initRemoteKey).
			Title("Remote to watch").
			Options(huh.NewOptions(remotes...)...).
			Value(&v.Remote)
	} else {
		remoteField = huh.NewInput().
			Key(initRemoteKey).
			Title("Remote to watch").
			Value(&v.Remote).
			Validate(required("remote name"))
	}

	interval := huh.NewInput().
		Key(initIntervalKey).
		Title("Poll interval (seconds)").
		Value(&v.Interval).
		Validate(func(s string) error {
			_, err := ParsePollInterval(s)
			if err != nil {
				return errors.New("enter a whole number of seconds, at least 1")
			}
			return nil
		})

	baseDir := huh.NewInput().
		Key(initBaseDirKey).
		Title("Worktree directory").
		Description("Relative paths are resolved against the repository root.").
		Value(&v.BaseDir).
		Validate(required("worktree directory"))

	command := huh.NewInput().
		Key(initCommandKey).
		Title("Post-create command").
		Description("Runs in every new worktree. Leave empty for none.").
		Placeholder("npm install").
		Value(&v.Command)

	autoCreate := huh.NewConfirm().
		Key(initAutoCreateKey).
		Title("Create worktrees for new branches automatically?").
		Affirmative("Yes").
		Negative("No").
		Value(&v.AutoCreate)

	return huh.NewForm(
		huh.NewGroup(remoteField, interval, baseDir),
		huh.NewGroup(command, autoCreate),
	).
		WithTheme(huh.ThemeCatppuccin()).
		WithShowHelp(true)
}

// RunInitForm asks for the main settings interactively and returns cfg with
// the answers applied.
func RunInitForm(cfg config.Config, remotes []string) (config.Config, error) {
	v := initValuesFrom(cfg)
	if err := newInitForm(&v, remotes).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return cfg, errors.New("init cancelled")
		}
		return cfg, err
	}
	return ApplyInit(cfg, v.options()), nil
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(what + " is required")
		}
		return nil
	}
}
