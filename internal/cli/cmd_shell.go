package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
)

// shellCommand builds the "shell" command: an interactive loop that
// dispatches the same subcommands with readline editing, history, and
// command completion.
func (a *app) shellCommand() *Command {
	return &Command{
		Flags: flag.NewFlagSet("shell", flag.ContinueOnError),
		Usage: "shell",
		Short: "Interactive shell for the other commands",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 0 {
				return &usageError{err: errUnexpectedArg(args[0])}
			}

			return a.runShell(ctx, o)
		},
	}
}

// historyFile returns the path to the shell history file.
func (a *app) historyFile() string {
	home := a.env["HOME"]
	if home == "" {
		return ""
	}

	return filepath.Join(home, ".pwcli_history")
}

func (a *app) runShell(ctx context.Context, o *IO) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(a.completeCommand)

	if path := a.historyFile(); path != "" {
		if f, err := os.Open(path); err == nil {
			_, _ = line.ReadHistory(f)
			_ = f.Close()
		}
	}

	o.Println("pwcli shell - project:", a.project)
	o.Println("Type 'help' for commands, 'exit' to leave.")
	o.Println()

	for {
		input, err := line.Prompt("pwcli> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				break
			}

			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		parts := strings.Fields(input)
		name := strings.ToLower(parts[0])

		switch name {
		case "exit", "quit", "q":
			a.saveHistory(line)

			return nil
		case "help", "?":
			printUsage(o)
		case "shell":
			o.ErrPrintln("error: already in a shell")
		default:
			// Fresh IO per line so warnings reset between commands;
			// exit codes are ignored inside the shell.
			_ = a.dispatch(ctx, NewIO(o.Out(), o.ErrOut()), name, parts[1:])
		}

		if ctx.Err() != nil {
			break
		}
	}

	a.saveHistory(line)

	return nil
}

func (a *app) saveHistory(line *liner.State) {
	path := a.historyFile()
	if path == "" {
		return
	}

	f, err := os.Create(path)
	if err != nil {
		return
	}

	_, _ = line.WriteHistory(f)
	_ = f.Close()
}

// completeCommand offers command-name completion for the first word.
func (a *app) completeCommand(prefix string) []string {
	var out []string

	if strings.Contains(prefix, " ") {
		return out
	}

	for _, cmd := range a.commands() {
		if name := cmd.Name(); strings.HasPrefix(name, strings.ToLower(prefix)) && name != "shell" {
			out = append(out, name)
		}
	}

	return out
}
