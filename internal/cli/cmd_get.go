package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"pwcli/internal/patchwork"
)

// getCommand builds the "get" command: save a patch mbox to a file in
// the working directory, never overwriting an existing one.
func (a *app) getCommand() *Command {
	return &Command{
		Flags: flag.NewFlagSet("get", flag.ContinueOnError),
		Usage: "get <id>",
		Short: "Save a patch to a file in the current directory",
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

			fname := availableFilename(slugify(p.Name))

			if err := atomic.WriteFile(fname, strings.NewReader(mbox)); err != nil {
				return fmt.Errorf("writing %s: %w", fname, err)
			}

			o.Println("Saved patch to", fname)

			return nil
		},
	}
}

// slugify reduces a patch name to a safe filename base.
func slugify(name string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '/', r == '_', r == '-', r == '.':
			b.WriteRune('-')
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "patch"
	}

	return slug
}

// availableFilename returns base.patch, or base.N.patch for the first
// N that does not collide with an existing file.
func availableFilename(base string) string {
	fname := base + ".patch"

	for i := 0; ; i++ {
		if _, err := os.Stat(fname); os.IsNotExist(err) {
			return fname
		}

		fname = fmt.Sprintf("%s.%d.patch", base, i)
	}
}
