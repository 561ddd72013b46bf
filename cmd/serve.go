package cmd

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/cea-hpc/milkcheck/internal/config"
	"github.com/cea-hpc/milkcheck/internal/engine"
	"github.com/cea-hpc/milkcheck/internal/logging"
	"github.com/cea-hpc/milkcheck/internal/runtime"
)

var watchFlag bool

// newServeCmd runs milkcheck as a long-lived process that idles until
// SIGINT/SIGTERM instead of exiting after a single call_services run.
// With --watch it also rebuilds the service graph whenever the
// configuration directory changes, swapping it in atomically so any
// verb dispatched afterward (by a future subcommand invocation sharing
// this process, or a future RPC front end) sees the new graph.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run as a long-lived process, optionally reloading on config changes",
		RunE:  runServe,
	}
	cmd.Flags().BoolVar(&watchFlag, "watch", false, "rebuild the service graph whenever the configuration directory changes")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if !watchFlag {
		logging.Info("cli", "serving %s with a static configuration; pass --watch to reload on change", configDir)
		<-ctx.Done()
		return nil
	}

	var mu sync.Mutex
	w, err := config.Watch(configDir, func(f *config.File, loadErr error) {
		mu.Lock()
		defer mu.Unlock()
		if loadErr != nil {
			logging.Error("cli", loadErr, "config reload failed, keeping previous graph")
			return
		}

		rt := runtime.New(fanoutFlag)
		newMgr := engine.NewActionManager(rt)
		newReg, buildErr := config.Build(f, newMgr)
		if buildErr != nil {
			logging.Error("cli", buildErr, "config reload failed, keeping previous graph")
			return
		}
		if simulate {
			newReg.ForceSimulate(true)
		}

		reg, mgr = newReg, newMgr
		logging.Audit(logging.AuditEvent{Action: "config_reload", Outcome: "success", Target: configDir})
	})
	if err != nil {
		return fmt.Errorf("watching %s: %w", configDir, err)
	}
	defer w.Close()

	logging.Info("cli", "watching %s for configuration changes", configDir)
	<-ctx.Done()
	return nil
}
