package cli

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"pwcli/internal/filter"
	"pwcli/internal/patchwork"
)

var errNothingToUpdate = errors.New("nothing to update (pass --state, --archived, or --commit-ref)")

// updateCommand builds the "update" command: mutate state, archived
// flag, or commit reference of a patch through the remote client.
func (a *app) updateCommand() *Command {
	flags := flag.NewFlagSet("update", flag.ContinueOnError)

	state := flags.String("state", "", "new state")
	archived := flags.String("archived", "", "new archived flag: yes or no")
	commitRef := flags.String("commit-ref", "", "new commit reference")

	return &Command{
		Flags: flags,
		Usage: "update <id> [flags]",
		Short: "Update state, archived flag, or commit ref of a patch",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			id, err := parsePatchID(args)
			if err != nil {
				return err
			}

			var fields patchwork.UpdateFields

			if flags.Changed("state") {
				normalized, err := patchwork.NormalizeState(*state)
				if err != nil {
					return err
				}

				fields.State = &normalized
			}

			if flags.Changed("archived") {
				switch *archived {
				case filter.ArchivedYes:
					val := true
					fields.Archived = &val
				case filter.ArchivedNo:
					val := false
					fields.Archived = &val
				default:
					return &usageError{err: fmt.Errorf("--archived must be yes or no, got %q", *archived)}
				}
			}

			if flags.Changed("commit-ref") {
				fields.CommitRef = commitRef
			}

			if fields.State == nil && fields.Archived == nil && fields.CommitRef == nil {
				return &usageError{err: errNothingToUpdate}
			}

			// Confirm the patch exists so a bad id reads as "not
			// found" rather than an opaque update failure.
			if _, err := a.client.GetPatch(ctx, id); err != nil {
				return err
			}

			if err := a.client.UpdatePatch(ctx, id, fields); err != nil {
				return err
			}

			o.Println("Updated patch", id)

			return nil
		},
	}
}
