package cli

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	flag "github.com/spf13/pflag"

	"pwcli/internal/patchwork"
)

var errNoPatchContent = errors.New("no patch content found")

// applyCommand builds the "apply" command: pipe a patch mbox into a
// local apply command against the working tree.
func (a *app) applyCommand() *Command {
	flags := flag.NewFlagSet("apply", flag.ContinueOnError)

	applyCmd := flags.String("cmd", "patch -p1", "command the mbox is piped into")

	return &Command{
		Flags: flags,
		Usage: "apply <id> [flags]",
		Short: "Apply a patch to the current directory",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			id, err := parsePatchID(args)
			if err != nil {
				return err
			}

			raw, err := a.client.GetPatch(ctx, id)
			if err != nil {
				return err
			}

			p, err := patchwork.DecodeRecord(raw)
			if err != nil {
				return err
			}

			mbox, err := a.client.GetMbox(ctx, id)
			if err != nil {
				return err
			}

			if mbox == "" {
				return errNoPatchContent
			}

			argv := strings.Fields(*applyCmd)
			if len(argv) == 0 {
				return &usageError{err: errors.New("--cmd cannot be empty")}
			}

			o.Printf("Applying patch #%d using %q\n", id, *applyCmd)
			o.Println("Description:", p.Name)

			cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
			cmd.Stdin = strings.NewReader(mbox)
			cmd.Stdout = o.Out()
			cmd.Stderr = o.ErrOut()

			if err := cmd.Run(); err != nil {
				return fmt.Errorf("apply command failed: %w", err)
			}

			return nil
		},
	}
}
