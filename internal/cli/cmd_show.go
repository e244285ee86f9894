package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	"pwcli/internal/format"
	"pwcli/internal/patchwork"
)

var errPatchIDRequired = errors.New("patch id is required")

// parsePatchID validates a positional patch id argument.
func parsePatchID(args []string) (int, error) {
	if len(args) == 0 {
		return 0, &usageError{err: errPatchIDRequired}
	}

	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return 0, &usageError{err: fmt.Errorf("invalid patch id: %q", args[0])}
	}

	return id, nil
}

// showCommand builds the "show" command: every field of one patch.
func (a *app) showCommand() *Command {
	return &Command{
		Flags: flag.NewFlagSet("show", flag.ContinueOnError),
		Usage: "show <id>",
		Short: "Show all fields of a single patch",
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

			heading := fmt.Sprintf("Information for patch id %d", id)
			o.Println(heading)
			o.Println(strings.Repeat("-", len(heading)))

			for _, field := range patchwork.FieldNames() {
				val, _ := p.Field(field)
				if val == "" {
					val = format.NAMarker
				}

				o.Printf("- %-11s: %s\n", field, val)
			}

			return nil
		},
	}
}
