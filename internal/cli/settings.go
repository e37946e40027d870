// pattern: Functional Core

package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"gwa/internal/config"
)

// SettingKeys lists the keys accepted by SetConfigValue, in display order.
var SettingKeys = []string{
	"poll_interval_secs",
	"post_create_command",
	"command_working_dir",
	"ignore_patterns",
	"auto_create_worktrees",
	"worktree_base_dir",
	"remote_name",
	"base_branch",
	"theme",
}

// SetConfigValue returns a copy of cfg with key set from its string form.
// An empty value clears optional settings.
func SetConfigValue(cfg config.Config, key, value string) (config.Config, error) {
	out := cfg.Clone()
	value = strings.TrimSpace(value)

	switch key {
	case "poll_interval_secs":
		n, err := ParsePollInterval(value)
		if err != nil {
			return cfg, err
		}
		out.PollIntervalSecs = n
	case "post_create_command":
		out.PostCreateCommand = optional(value)
	case "command_working_dir":
		out.CommandWorkingDir = optional(value)
	case "ignore_patterns":
		patterns := splitList(value)
		if _, err := config.CompilePatterns(patterns); err != nil {
			return cfg, err
		}
		out.IgnorePatterns = patterns
	case "auto_create_worktrees":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return cfg, fmt.Errorf("%w: auto_create_worktrees wants true or false, got %q", ErrUsage, value)
		}
		out.AutoCreateWorktrees = b
	case "worktree_base_dir":
		if value == "" {
			return cfg, fmt.Errorf("%w: worktree_base_dir cannot be empty", ErrUsage)
		}
		out.WorktreeBaseDir = value
	case "remote_name":
		if value == "" {
			return cfg, fmt.Errorf("%w: remote_name cannot be empty", ErrUsage)
		}
		out.RemoteName = value
	case "base_branch":
		out.BaseBranch = optional(value)
	case "theme":
		if !slices.Contains(config.Themes, value) {
			return cfg, fmt.Errorf("%w: theme must be one of %s", ErrUsage, strings.Join(config.Themes, ", "))
		}
		out.Theme = value
	default:
		return cfg, fmt.Errorf("%w: unknown key %q (known: %s)", ErrUsage, key, strings.Join(SettingKeys, ", "))
	}
	return out, nil
}

// ParsePollInterval parses a poll interval in whole seconds.
func ParsePollInterval(value string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: poll interval must be a positive number of seconds, got %q", ErrUsage, value)
	}
	return uint(n), nil
}

// RenderYAML renders cfg for display.
func RenderYAML(cfg config.Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("render config: %w", err)
	}
	return string(data), nil
}

// InitOptions are the settings that `gwa init` and the legacy --set-*
// flags may change. Nil fields are left alone.
type InitOptions struct {
	Command      *string
	PollInterval *uint
	AutoCreate   *bool
	Remote       *string
	BaseDir      *string
}

// Empty reports whether no option is set.
func (o InitOptions) Empty() bool {
	return o.Command == nil && o.PollInterval == nil && o.AutoCreate == nil && o.Remote == nil && o.BaseDir == nil
}

// ApplyInit returns a copy of cfg with the set options applied.
func ApplyInit(cfg config.Config, opts InitOptions) config.Config {
	out := cfg.Clone()
	if opts.Command != nil {
		out.PostCreateCommand = optional(strings.TrimSpace(*opts.Command))
	}
	if opts.PollInterval != nil && *opts.PollInterval > 0 {
		out.PollIntervalSecs = *opts.PollInterval
	}
	if opts.AutoCreate != nil {
		out.AutoCreateWorktrees = *opts.AutoCreate
	}
	if opts.Remote != nil && strings.TrimSpace(*opts.Remote) != "" {
		out.RemoteName = strings.TrimSpace(*opts.Remote)
	}
	if opts.BaseDir != nil && strings.TrimSpace(*opts.BaseDir) != "" {
		out.WorktreeBaseDir = strings.TrimSpace(*opts.BaseDir)
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
