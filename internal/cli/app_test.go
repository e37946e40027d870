// pattern: Functional Core
package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func newTestApp() (*App, *bytes.Buffer) {
	stderr := &bytes.Buffer{}
	return NewApp("1.0.0", stderr), stderr
}

func TestApp_PrintHelp_ListsCommandsAndGroups(t *testing.T) {
	app, _ := newTestApp()
	app.AddCommand(&Command{Name: "version", Summary: "Print version"})
	app.AddGroup("config", "Show or change the repository config")

	buf := &bytes.Buffer{}
	app.PrintHelp(buf)
	output := buf.String()

	for _, want := range []string{"Usage: gwa", "version", "config", "Launch interactive TUI"} {
		if !strings.Contains(output, want) {
			t.Errorf("help missing %q:\n%s", want, output)
		}
	}
}

func TestApp_Handles(t *testing.T) {
	app, _ := newTestApp()
	app.AddCommand(&Command{Name: "version"})
	app.AddGroup("config", "")

	tests := []struct {
		args []string
		want bool
	}{
		{nil, false},
		{[]string{"version"}, true},
		{[]string{"config", "show"}, true},
		{[]string{"help"}, true},
		{[]string{"feature/x"}, false},
	}
	for _, tt := range tests {
		if got := app.Handles(tt.args); got != tt.want {
			t.Errorf("Handles(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}

func TestApp_Execute_UngroupedCommand_Dispatches(t *testing.T) {
	app, _ := newTestApp()
	called := false
	app.AddCommand(&Command{
		Name: "version",
		Run: func(args []string) error {
			called = true
			return nil
		},
	})

	if code := app.Execute([]string{"version"}); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !called {
		t.Error("Command Run was not called")
	}
}

func TestApp_Execute_GroupCommand_Dispatches(t *testing.T) {
	app, _ := newTestApp()
	group := app.AddGroup("config", "Config")

	var passedArgs []string
	group.AddCommand(&Command{
		Name: "set",
		Run: func(args []string) error {
			passedArgs = args
			return nil
		},
	})

	if code := app.Execute([]string{"config", "set", "theme", "latte"}); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if len(passedArgs) != 2 || passedArgs[0] != "theme" || passedArgs[1] != "latte" {
		t.Errorf("Command received args %v", passedArgs)
	}
}

func TestApp_Execute_GroupHelp_PrintsGroupCommands(t *testing.T) {
	for _, arg := range []string{"help", "--help", "-h"} {
		t.Run(arg, func(t *testing.T) {
			app, stderr := newTestApp()
			group := app.AddGroup("config", "Config")
			group.AddCommand(&Command{Name: "show", Summary: "Print the config"})

			if code := app.Execute([]string{"config", arg}); code != 0 {
				t.Errorf("exit code = %d, want 0", code)
			}
			if !strings.Contains(stderr.String(), "show") {
				t.Errorf("group help missing 'show':\n%s", stderr.String())
			}
		})
	}
}

func TestApp_Execute_CommandHelp_PrintsUsage(t *testing.T) {
	app, stderr := newTestApp()
	runCalled := false
	app.AddCommand(&Command{
		Name:  "init",
		Usage: "Usage: gwa init [--interactive]",
		Run: func(args []string) error {
			runCalled = true
			return nil
		},
	})

	if code := app.Execute([]string{"init", "--help"}); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if runCalled {
		t.Error("Run was called, should have printed usage instead")
	}
	if !strings.Contains(stderr.String(), "Usage: gwa init") {
		t.Errorf("usage missing, got: %s", stderr.String())
	}
}

func TestApp_Execute_Errors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantUsage bool
	}{
		{"plain error", errors.New("boom"), false},
		{"usage error", ErrUsage, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, stderr := newTestApp()
			app.AddCommand(&Command{
				Name:  "fail",
				Usage: "Usage: gwa fail",
				Run:   func(args []string) error { return tt.err },
			})

			if code := app.Execute([]string{"fail"}); code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
			if got := strings.Contains(stderr.String(), "Usage: gwa fail"); got != tt.wantUsage {
				t.Errorf("usage printed = %v, want %v", got, tt.wantUsage)
			}
		})
	}
}

func TestApp_Execute_UnknownCommand(t *testing.T) {
	app, stderr := newTestApp()
	app.AddGroup("config", "Config")

	if code := app.Execute([]string{"bogus"}); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), `unknown command "bogus"`) {
		t.Errorf("stderr = %s", stderr.String())
	}
	if code := app.Execute([]string{"config", "bogus"}); code != 1 {
		t.Errorf("unknown group command exit code = %d, want 1", code)
	}
}
