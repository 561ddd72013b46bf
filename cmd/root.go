package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cea-hpc/milkcheck/internal/config"
	"github.com/cea-hpc/milkcheck/internal/engine"
	"github.com/cea-hpc/milkcheck/internal/logging"
	"github.com/cea-hpc/milkcheck/internal/runtime"
)

// Exit codes. 0/3/4/128+SIGINT are fixed; the remaining nonzero codes
// are the engine's own terminal statuses, each mapped to its own code
// so a caller can tell a plain failure from a timeout or an
// error-budget exhaustion without parsing output.
const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1 // terminal ERROR status
	ExitCodeWarning = 2 // terminal WARNING status

	ExitCodeKnownException   = 3 // RC_EXCEPTION: config-time or run-time, not the engine's fault
	ExitCodeUnknownException = 4 // RC_UNKNOWN_EXCEPTION: anything uncategorized

	ExitCodeTooManyErrors = 5 // terminal TOO_MANY_ERRORS status
	ExitCodeTimedOut      = 6 // terminal TIMED_OUT status
)

func sigintExitCode() int { return 128 + int(syscall.SIGINT) }

var (
	configDir   string
	verboseFlag int
	simulate    bool
	fanoutFlag  int
	debugFlag   bool

	reg *engine.Registry
	mgr *engine.ActionManager
)

// rootCmd is the base command for the milkcheck application.
var rootCmd = &cobra.Command{
	Use:   "milkcheck",
	Short: "Run dependency-ordered commands across a cluster",
	Long: `milkcheck executes administration commands (start, stop, status, ...)
across services declared in a YAML configuration, respecting the
dependencies declared between them and fanning command dispatch out
across target nodes.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadEngine,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "c", defaultConfigDir(), "configuration directory")
	rootCmd.PersistentFlags().CountVarP(&verboseFlag, "verbose", "v", "increase log verbosity (-v, -vv, -vvv)")
	rootCmd.PersistentFlags().BoolVarP(&simulate, "dry-run", "n", false, "simulate actions instead of running them")
	rootCmd.PersistentFlags().IntVarP(&fanoutFlag, "fanout", "f", 64, "initial concurrent node dispatch cap, replaced by the running actions' own fanout once dispatch starts")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "log at debug level and re-raise unexpected exceptions instead of swallowing them")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newGraphCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVerbCmd("start"))
	rootCmd.AddCommand(newVerbCmd("stop"))
	rootCmd.AddCommand(newVerbCmd("restart"))
}

func defaultConfigDir() string {
	if d := os.Getenv("MILKCHECK_CONFIG_DIR"); d != "" {
		return d
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/milkcheck/conf"
	}
	return home + "/.config/milkcheck"
}

// loadEngine builds the registry and dispatcher shared by every
// subcommand except self-update and version, which need neither.
func loadEngine(cmd *cobra.Command, args []string) error {
	level := logging.LevelWarn
	switch {
	case debugFlag, verboseFlag >= 2:
		level = logging.LevelDebug
	case verboseFlag == 1:
		level = logging.LevelInfo
	}
	logging.Init(level, os.Stderr)

	f, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("loading configuration from %s: %w", configDir, err)
	}

	rt := runtime.New(fanoutFlag)
	mgr = engine.NewActionManager(rt)

	reg, err = config.Build(f, mgr)
	if err != nil {
		logging.Audit(logging.AuditEvent{Action: "config_load", Outcome: "failure", Target: configDir, Error: err.Error()})
		return fmt.Errorf("building service graph: %w", err)
	}
	if simulate {
		reg.ForceSimulate(true)
	}
	logging.Audit(logging.AuditEvent{Action: "config_load", Outcome: "success", Target: configDir})
	return nil
}

// SetVersion sets the version reported by `milkcheck version` and
// `--version`, injected at build time.
func SetVersion(v string) { rootCmd.Version = v }

// Execute runs the root command; it is the single entry point called
// from main(). A SIGINT or SIGTERM cancels the context passed down to
// every subcommand, which the dispatcher surfaces as context.Canceled
// from Resume(); Execute turns that into the documented 128+SIGINT
// instead of a generic failure code.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "milkcheck version %s\n" .Version}}`)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return
	}

	if errors.Is(err, context.Canceled) {
		logging.Error("cli", nil, "Keyboard Interrupt")
		os.Exit(sigintExitCode())
	}

	code := getExitCode(err)
	if code == ExitCodeUnknownException {
		if debugFlag {
			fmt.Fprintf(os.Stderr, "unexpected error: %+v\n", err)
		} else {
			logging.Error("cli", err, "unexpected error")
		}
	}
	os.Exit(code)
}

// getExitCode determines the appropriate exit code for a failed run,
// per milkcheck's exit-code table: call_services failures map to their
// own terminal status, config-time/run-time exceptions recognized by
// the engine and loader map to RC_EXCEPTION, and everything else is
// RC_UNKNOWN_EXCEPTION.
func getExitCode(err error) int {
	var runErr *RunFailureError
	if errors.As(err, &runErr) {
		switch runErr.Status {
		case engine.Warning:
			return ExitCodeWarning
		case engine.TooManyErrors:
			return ExitCodeTooManyErrors
		case engine.TimedOut:
			return ExitCodeTimedOut
		default:
			return ExitCodeError
		}
	}

	if isKnownException(err) {
		return ExitCodeKnownException
	}
	return ExitCodeUnknownException
}

// isKnownException reports whether err is one of the engine's or
// loader's own named error types: config-time or run-time problems the
// user caused, as opposed to an unclassified failure.
func isKnownException(err error) bool {
	var parseErr *config.ParseError
	if errors.As(err, &parseErr) {
		return true
	}
	var dupErr *config.DuplicateServiceError
	if errors.As(err, &dupErr) {
		return true
	}
	var unknownMemberErr *config.UnknownGroupMemberError
	if errors.As(err, &unknownMemberErr) {
		return true
	}
	var dupDepErr *engine.DependencyAlreadyReferencedError
	if errors.As(err, &dupDepErr) {
		return true
	}
	var illegalDepErr *engine.IllegalDependencyTypeError
	if errors.As(err, &illegalDepErr) {
		return true
	}
	var actionNotFoundErr *engine.ActionNotFoundError
	if errors.As(err, &actionNotFoundErr) {
		return true
	}
	var serviceNotFoundErr *engine.ServiceNotFoundError
	if errors.As(err, &serviceNotFoundErr) {
		return true
	}
	var undefinedVarErr *engine.UndefinedVariableError
	if errors.As(err, &undefinedVarErr) {
		return true
	}
	var dupVarErr *engine.VariableAlreadyReferencedError
	if errors.As(err, &dupVarErr) {
		return true
	}
	var invalidVarErr *engine.InvalidVariableError
	if errors.As(err, &invalidVarErr) {
		return true
	}
	var cycleErr *engine.CycleError
	if errors.As(err, &cycleErr) {
		return true
	}
	return false
}
