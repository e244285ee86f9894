package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"pwcli/internal/config"
	"pwcli/internal/filter"
	"pwcli/internal/format"
	"pwcli/internal/patchwork"
)

// Exit codes. Validation and remote failures are distinguishable, and
// partial success (results delivered with warnings) has its own code.
const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
	exitRemote     = 3
	exitPartial    = 4
)

// app holds the per-invocation state every command works against.
// Built once in Run; nothing is shared across invocations.
type app struct {
	cfg     config.Config
	project string
	profile config.Profile
	client  patchwork.Client
	log     zerolog.Logger
	env     map[string]string
	stdin   io.Reader
}

// Run is the main entry point. Returns the process exit code.
// sig aborts in-flight pagination when the operator interrupts.
func Run(stdin io.Reader, out, errOut io.Writer, args []string, env map[string]string, sig <-chan os.Signal) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
	}()

	o := NewIO(out, errOut)

	flags, rest, err := parseGlobalFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(o)

			return exitOK
		}

		o.ErrPrintln("error:", err)

		return exitValidation
	}

	if len(rest) == 0 || rest[0] == "help" {
		printUsage(o)

		return exitOK
	}

	a, err := buildApp(flags, env, stdin, errOut)
	if err != nil {
		o.ErrPrintln("error:", err)

		return exitCodeFor(err)
	}

	return a.dispatch(ctx, o, rest[0], rest[1:])
}

// globalFlags are the flags accepted before the command name.
type globalFlags struct {
	configPath string
	project    string
	debug      bool
}

func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	var flags globalFlags

	fs := flag.NewFlagSet("pwcli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(false)

	fs.StringVarP(&flags.configPath, "config", "c", "", "config file path")
	fs.StringVarP(&flags.project, "project", "p", "", "project to operate on")
	fs.BoolVar(&flags.debug, "debug", false, "log remote calls to stderr")

	if err := fs.Parse(args[1:]); err != nil {
		return globalFlags{}, nil, err
	}

	return flags, fs.Args(), nil
}

// buildApp loads config, selects the profile, and constructs the
// remote client with explicit connection parameters.
func buildApp(flags globalFlags, env map[string]string, stdin io.Reader, errOut io.Writer) (*app, error) {
	cfg, err := config.Load(config.LoadInput{ConfigPath: flags.configPath, Env: env})
	if err != nil {
		return nil, err
	}

	project, profile, err := cfg.Profile(flags.project)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if flags.debug {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: errOut}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
	}

	client, err := patchwork.NewHTTPClient(patchwork.ClientConfig{
		BaseURL: profile.URL,
		Token:   profile.Token,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		project: project,
		profile: profile,
		client:  client,
		log:     logger,
		env:     env,
		stdin:   stdin,
	}, nil
}

// commands returns the command registry. Order is the help order.
func (a *app) commands() []*Command {
	return []*Command{
		a.listCommand(),
		a.showCommand(),
		a.updateCommand(),
		a.getCommand(),
		a.applyCommand(),
		a.viewCommand(),
		a.projectsCommand(),
		a.shellCommand(),
	}
}

// dispatch finds and runs the named command, then maps its outcome to
// an exit code.
func (a *app) dispatch(ctx context.Context, o *IO, name string, args []string) int {
	for _, cmd := range a.commands() {
		if cmd.Name() != name {
			continue
		}

		if err := cmd.Run(ctx, o, args); err != nil {
			o.ErrPrintln("error:", err)

			var usage *usageError
			if errors.As(err, &usage) {
				o.ErrPrintln()
				cmd.PrintHelp(o)
			}

			return exitCodeFor(err)
		}

		return o.Finish()
	}

	o.ErrPrintln("error: unknown command:", name)
	printUsage(o)

	return exitValidation
}

// exitCodeFor maps an error to its exit code: bad input (filter,
// output spec, usage, config) is distinct from remote failure.
func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}

	var (
		validation *filter.ValidationError
		badFormat  *format.FormatError
		usage      *usageError
		remote     *patchwork.RemoteError
	)

	switch {
	case errors.As(err, &validation),
		errors.As(err, &badFormat),
		errors.As(err, &usage),
		errors.Is(err, patchwork.ErrUnknownState),
		errors.Is(err, config.ErrNoConfig),
		errors.Is(err, config.ErrConfigInvalid),
		errors.Is(err, config.ErrConfigFileNotFound),
		errors.Is(err, config.ErrUnknownProject),
		errors.Is(err, config.ErrNoProject):
		return exitValidation
	case errors.As(err, &remote):
		return exitRemote
	default:
		return exitFailure
	}
}

func printUsage(o *IO) {
	o.Println("Usage: pwcli [global flags] <command> [args]")
	o.Println()
	o.Println("Query and mutate patch records on a patch-tracking server.")
	o.Println()
	o.Println("Commands:")

	for _, cmd := range (&app{}).commands() {
		o.Println(cmd.HelpLine())
	}

	o.Println()
	o.Println("Global flags:")
	o.Println("  -c, --config <path>      Config file (default: ~/.pwclientrc)")
	o.Println("  -p, --project <name>     Project profile to use")
	o.Println("      --debug              Log remote calls to stderr")
	o.Println()
	o.Println("Exit codes: 0 success, 1 failure, 2 invalid input, 3 remote error,")
	o.Println("4 success with warnings (partial data).")
}
