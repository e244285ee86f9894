package cli

import (
	"context"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"pwcli/internal/collect"
	"pwcli/internal/filter"
	"pwcli/internal/format"
	"pwcli/internal/query"
)

// listCommand builds the "list" command: the full filter -> plan ->
// collect -> render pipeline.
func (a *app) listCommand() *Command {
	flags := flag.NewFlagSet("list", flag.ContinueOnError)

	submitter := flags.String("submitter", "", "filter by submitter (substring)")
	delegate := flags.String("delegate", "", "filter by delegate")
	state := flags.String("state", "", "filter by state (comma-separated for several)")
	archived := flags.String("archived", "", "filter by archived: yes, no, or either")
	since := flags.String("since", "", "patches dated on or after (YYYY-MM-DD)")
	before := flags.String("before", "", "patches dated before (YYYY-MM-DD)")
	msgid := flags.String("msgid", "", "filter by message id")
	name := flags.String("name", "", "filter by name (substring)")
	text := flags.String("text", "", "free-text filter across all fields")
	formatName := flags.String("format", "text", "output format: text or csv")
	fields := flags.String("fields", "", "comma-separated field order for output")
	sortBy := flags.String("sort", "id", "sort by: id, date, name, submitter, or state")
	maxPages := flags.Int("max-pages", 0, "page fetch cap (0 = config or built-in default)")

	return &Command{
		Flags: flags,
		Usage: "list [flags]",
		Short: "List patches matching the given filters",
		Long: "List patches matching the given filters.\n" +
			"Criteria the server cannot filter on (msgid, name, free text)\n" +
			"are applied client-side after fetching. Results are sorted by\n" +
			"id ascending unless --sort overrides it.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 0 {
				return &usageError{err: errUnexpectedArg(args[0])}
			}

			criteria := make(map[string]string)

			set := func(criterion string, flagName string, value string) {
				if flags.Changed(flagName) {
					criteria[criterion] = value
				}
			}

			set(filter.CriterionSubmitter, "submitter", *submitter)
			set(filter.CriterionDelegate, "delegate", *delegate)
			set(filter.CriterionState, "state", *state)
			set(filter.CriterionArchived, "archived", *archived)
			set(filter.CriterionSince, "since", *since)
			set(filter.CriterionBefore, "before", *before)
			set(filter.CriterionMsgID, "msgid", *msgid)
			set(filter.CriterionName, "name", *name)
			set(filter.CriterionText, "text", *text)

			// The profile scopes every listing to its project.
			criteria[filter.CriterionProject] = a.project

			spec, err := filter.Build(criteria)
			if err != nil {
				return err
			}

			outputSpec, err := parseOutputSpec(*formatName, *fields)
			if err != nil {
				return err
			}

			plan := query.Build(spec)

			plan.SortBy, err = parseSortField(*sortBy)
			if err != nil {
				return err
			}

			pageCap := *maxPages
			if pageCap == 0 {
				pageCap = a.cfg.MaxPages
			}

			result, err := collect.Collect(ctx, a.client.ListPatches, plan, collect.Options{MaxPages: pageCap})
			if err != nil {
				return err
			}

			for _, w := range result.Warnings {
				o.Warn(w)
			}

			return format.Render(o.Out(), result.Patches, outputSpec)
		},
	}
}

// parseOutputSpec validates the --format and --fields flags into an
// OutputSpec. Field validation itself happens in format.Render, ahead
// of any output.
func parseOutputSpec(formatName, fieldsFlag string) (format.OutputSpec, error) {
	encoding, err := format.ParseEncoding(formatName)
	if err != nil {
		return format.OutputSpec{}, err
	}

	var fields []string

	if fieldsFlag != "" {
		for part := range strings.SplitSeq(fieldsFlag, ",") {
			fields = append(fields, strings.ToLower(strings.TrimSpace(part)))
		}
	}

	return format.OutputSpec{Fields: fields, Encoding: encoding}, nil
}

func parseSortField(name string) (query.SortField, error) {
	switch query.SortField(strings.ToLower(name)) {
	case query.SortID, query.SortDate, query.SortName, query.SortSubmitter, query.SortState:
		return query.SortField(strings.ToLower(name)), nil
	default:
		return "", &usageError{err: fmt.Errorf("invalid sort field: %q", name)}
	}
}
