// Package cli handles command-line parsing and dispatch for gemkit.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/NielsdaWheelz/gemkit/internal/commands"
	"github.com/NielsdaWheelz/gemkit/internal/errors"
	"github.com/NielsdaWheelz/gemkit/internal/exec"
	"github.com/NielsdaWheelz/gemkit/internal/fetch"
	"github.com/NielsdaWheelz/gemkit/internal/fs"
	"github.com/NielsdaWheelz/gemkit/internal/logging"
	"github.com/NielsdaWheelz/gemkit/internal/pathenv"
	"github.com/NielsdaWheelz/gemkit/internal/privilege"
	"github.com/NielsdaWheelz/gemkit/internal/secret"
	"github.com/NielsdaWheelz/gemkit/internal/version"
)

const usageText = `gemkit - set up a machine and a project for the Gemini CLI

usage: gemkit <command> [options]

commands:
  install     install or upgrade Node.js, npm and the Gemini CLI (run elevated)
  init        create the Python environment and project files in a directory
  doctor      check the tools and a workspace created by init

options:
  -h, --help      show this help
  -v, --version   show version

run 'gemkit <command> --help' for command-specific help.
`

const installUsageText = `usage: gemkit install [options]

ensure Node.js meets the minimum version, update npm, and install the
Gemini CLI globally. requires administrator privileges.

options:
  --min-version <v>   minimum Node.js version (default: config runtime_min_version)
  --config <file>     extra config file layered over the global config
  --verbose           log every step and subprocess
  -h, --help          show this help
`

const initUsageText = `usage: gemkit init [dir] [options]

create (if absent) the Python environment, requirements.yaml, .gitignore,
.env, GEMINI.md, README.md, LICENSE, memory/, opinions/ and
.gemini/commands in dir (default: current directory). safe to re-run;
only requirements.yaml is rewritten.

options:
  --env-name <name>   environment directory name (default: .venv)
  --package <spec>    extra package to install; repeatable
  --prompt-secret     prompt for GEMINI_API_KEY and store it in .env
  --config <file>     extra config file layered over gemkit.yaml
  --verbose           log every step and subprocess
  -h, --help          show this help

examples:
  gemkit init demo
  gemkit init --package rich --package httpx
  gemkit init --prompt-secret
`

const doctorUsageText = `usage: gemkit doctor [dir] [options]

check node, npm, the Gemini CLI and python, then the workspace in dir
(default: current directory). never writes.

options:
  --verify-key        check GEMINI_API_KEY against the Gemini API
  --json              output as JSON (schema_version 1.0)
  --config <file>     extra config file layered over gemkit.yaml
  --verbose           log every step and subprocess
  -h, --help          show this help
`

// Run parses arguments and dispatches to the appropriate subcommand.
// Returns an error if the command fails; the caller should print the error and exit.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usageText)
		return errors.New(errors.EUsage, "no command specified")
	}

	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "-h", "--help":
		fmt.Fprint(stdout, usageText)
		return nil
	case "-v", "--version":
		fmt.Fprintf(stdout, "gemkit %s\n", version.Version)
		return nil
	case "install":
		return runInstall(ctx, cmdArgs, stdout, stderr)
	case "init":
		return runInit(ctx, cmdArgs, stdout, stderr)
	case "doctor":
		return runDoctor(ctx, cmdArgs, stdout, stderr)
	default:
		fmt.Fprint(stdout, usageText)
		return errors.New(errors.EUsage, fmt.Sprintf("unknown command: %s", cmd))
	}
}

// parsed is the result of parsing one subcommand's flags.
type parsed struct {
	help    bool
	verbose bool
	dir     string
}

// parseFlags parses args and takes at most one positional directory.
func parseFlags(flagSet *pflag.FlagSet, args []string) (parsed, error) {
	var p parsed
	flagSet.SetOutput(io.Discard)
	flagSet.BoolVarP(&p.help, "help", "h", false, "show this help")
	flagSet.BoolVar(&p.verbose, "verbose", false, "log every step and subprocess")

	if err := flagSet.Parse(args); err != nil {
		return p, errors.Wrap(errors.EUsage, "invalid flags: "+err.Error(), err)
	}
	if p.help {
		return p, nil
	}

	rest := flagSet.Args()
	switch len(rest) {
	case 0:
		p.dir = "."
	case 1:
		p.dir = rest[0]
	default:
		return p, errors.New(errors.EUsage, "unexpected arguments: "+strings.Join(rest[1:], " "))
	}
	return p, nil
}

func commandLogger(stderr io.Writer, name string, verbose bool) *slog.Logger {
	return logging.NewCommandLogger(stderr, verbose).With("command", name)
}

func runInstall(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flagSet := pflag.NewFlagSet("install", pflag.ContinueOnError)
	var opts commands.InstallOpts
	flagSet.StringVar(&opts.MinVersion, "min-version", "", "minimum Node.js version")
	flagSet.StringVar(&opts.ConfigFile, "config", "", "extra config file")

	p, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}
	if p.help {
		fmt.Fprint(stdout, installUsageText)
		return nil
	}
	if len(flagSet.Args()) > 0 {
		return errors.New(errors.EUsage, "install takes no arguments")
	}

	dirs, err := commands.ResolveDirs()
	if err != nil {
		return err
	}
	fsys := fs.NewRealFS()
	deps := commands.InstallDeps{
		Runner:         exec.NewRealRunner(),
		FS:             fsys,
		Dirs:           dirs,
		Downloader:     fetch.New(0),
		CheckPrivilege: privilege.Check,
		RefreshPath:    pathenv.Refresh,
		Logger:         commandLogger(stderr, "install", p.verbose),
	}
	return commands.Install(ctx, deps, opts, stdout)
}

func runInit(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flagSet := pflag.NewFlagSet("init", pflag.ContinueOnError)
	var opts commands.InitOpts
	flagSet.StringVar(&opts.EnvironmentName, "env-name", "", "environment directory name")
	flagSet.StringArrayVar(&opts.Packages, "package", nil, "extra package to install")
	flagSet.BoolVar(&opts.PromptSecret, "prompt-secret", false, "prompt for the API key")
	flagSet.StringVar(&opts.ConfigFile, "config", "", "extra config file")

	p, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}
	if p.help {
		fmt.Fprint(stdout, initUsageText)
		return nil
	}

	dirs, err := commands.ResolveDirs()
	if err != nil {
		return err
	}
	logger := commandLogger(stderr, "init", p.verbose).With("dir", p.dir)

	deps := commands.InitDeps{
		Runner: exec.NewRealRunner(),
		FS:     fs.NewRealFS(),
		Dirs:   dirs,
		Logger: logger,
	}
	if opts.PromptSecret {
		deps.Prompter = &secret.TerminalPrompter{In: os.Stdin, Out: stderr}
	}
	return commands.Init(ctx, deps, p.dir, opts, stdout)
}

func runDoctor(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flagSet := pflag.NewFlagSet("doctor", pflag.ContinueOnError)
	var opts commands.DoctorOpts
	flagSet.BoolVar(&opts.VerifyKey, "verify-key", false, "check the API key")
	flagSet.StringVar(&opts.ConfigFile, "config", "", "extra config file")
	flagSet.BoolVar(&opts.JSON, "json", false, "output as JSON")

	p, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}
	if p.help {
		fmt.Fprint(stdout, doctorUsageText)
		return nil
	}

	dirs, err := commands.ResolveDirs()
	if err != nil {
		return err
	}
	deps := commands.DoctorDeps{
		Runner: exec.NewRealRunner(),
		FS:     fs.NewRealFS(),
		Dirs:   dirs,
		Logger: commandLogger(stderr, "doctor", p.verbose).With("dir", p.dir),
	}
	return commands.Doctor(ctx, deps, p.dir, opts, stdout)
}
