package cli

import (
	"context"

	flag "github.com/spf13/pflag"
)

// projectsCommand builds the "projects" command: list the projects
// the server knows about.
func (a *app) projectsCommand() *Command {
	return &Command{
		Flags: flag.NewFlagSet("projects", flag.ContinueOnError),
		Usage: "projects",
		Short: "List projects available on the server",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 0 {
				return &usageError{err: errUnexpectedArg(args[0])}
			}

			projects, err := a.client.ListProjects(ctx)
			if err != nil {
				return err
			}

			o.Printf("%-6s %-24s %s\n", "ID", "Name", "Description")
			o.Printf("%-6s %-24s %s\n", "--", "----", "-----------")

			for _, p := range projects {
				o.Printf("%-6d %-24s %s\n", p.ID, p.LinkName, p.Name)
			}

			return nil
		},
	}
}
