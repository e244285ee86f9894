package cli

import (
	"context"
	"os/exec"
	"strings"

	flag "github.com/spf13/pflag"
)

// viewCommand builds the "view" command: show one or more patch
// mboxes through the user's pager.
func (a *app) viewCommand() *Command {
	return &Command{
		Flags: flag.NewFlagSet("view", flag.ContinueOnError),
		Usage: "view <id>...",
		Short: "View patch contents through the pager",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return &usageError{err: errPatchIDRequired}
			}

			var mboxes []string

			for _, arg := range args {
				id, err := parsePatchID([]string{arg})
				if err != nil {
					return err
				}

				mbox, err := a.client.GetMbox(ctx, id)
				if err != nil {
					return err
				}

				if mbox != "" {
					mboxes = append(mboxes, mbox)
				}
			}

			if len(mboxes) == 0 {
				return nil
			}

			return a.echoViaPager(ctx, o, strings.Join(mboxes, "\n"))
		},
	}
}

// echoViaPager writes content through the user's pager, mimicking
// git's pager selection: $GIT_PAGER, then core.pager from git config,
// then $PAGER, then less. Falls back to plain output when no pager
// can be run.
func (a *app) echoViaPager(ctx context.Context, o *IO, content string) error {
	pager := a.env["GIT_PAGER"]

	if pager == "" {
		pager = gitConfig(ctx, "core.pager")
	}

	if pager == "" {
		pager = a.env["PAGER"]
	}

	if pager == "" {
		pager = "less"
	}

	argv := strings.Fields(pager)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = o.Out()
	cmd.Stderr = o.ErrOut()

	// Match git: when LESS is unset, page like git does.
	if a.env["LESS"] == "" {
		cmd.Env = append(cmd.Environ(), "LESS=FRX")
	}

	if err := cmd.Run(); err != nil {
		o.Printf("%s", content)
	}

	return nil
}

// gitConfig reads one value from git config, empty on any failure.
func gitConfig(ctx context.Context, key string) string {
	out, err := exec.CommandContext(ctx, "git", "config", key).Output()
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(out))
}
