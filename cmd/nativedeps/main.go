// Command nativedeps builds the native C dependencies of the storage
// stack for one platform and lays them out for downstream FFI builds.
//
// Exit codes: 0 success, 1 usage or configuration error, 2 checksum
// verification failure; a failing native build tool's exit code is
// propagated unchanged.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	nativedeps "github.com/crossforge/native-deps-go"
)

var (
	flagRoot    string
	flagVerbose bool
	flagDryRun  bool
	flagStrict  bool
	flagJobs    int
	flagPins    string
)

func main() {
	root := &cobra.Command{
		Use:           "nativedeps",
		Short:         "Build native C dependencies for desktop, Android and iOS",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagRoot, "root", ".", "working root for downloads, build trees and dist output")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "log native build commands instead of running them")
	root.PersistentFlags().BoolVar(&flagStrict, "strict-cache", false, "require completion markers, not just dist directories")
	root.PersistentFlags().IntVarP(&flagJobs, "jobs", "j", 0, "parallelism for delegated build tools (default: CPU count)")
	root.PersistentFlags().StringVar(&flagPins, "pins", "", "override the embedded source pin file")

	root.AddCommand(buildAllCmd(), buildCmd(), targetsCmd(), cleanCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var integrity *nativedeps.IntegrityError
	if errors.As(err, &integrity) {
		return nativedeps.ExitIntegrity
	}
	var tool *nativedeps.BuildToolError
	if errors.As(err, &tool) && tool.ExitCode != 0 {
		return tool.ExitCode
	}
	return nativedeps.ExitUsage
}

func newOrchestrator(interactive bool) (*nativedeps.Orchestrator, *nativedeps.BuildContext, error) {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).Level(level).With().Timestamp().Logger()

	bctx, err := nativedeps.NewBuildContext(flagRoot, logger)
	if err != nil {
		return nil, nil, err
	}
	bctx.DryRun = flagDryRun
	if flagJobs > 0 {
		bctx.Parallel = flagJobs
	}
	if interactive && !flagVerbose {
		bctx.Ticker = nativedeps.NewStepTicker(0)
	}

	orch, err := nativedeps.NewOrchestrator(bctx)
	if err != nil {
		return nil, nil, err
	}
	orch.SetStrictCache(flagStrict)
	if flagPins != "" {
		if err := orch.LoadPins(flagPins); err != nil {
			return nil, nil, err
		}
	}
	return orch, bctx, nil
}

func buildAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build-all <desktop|android|ios>",
		Short: "Build every library for every target of one platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, err := nativedeps.ParsePlatform(args[0])
			if err != nil {
				return err
			}
			orch, bctx, err := newOrchestrator(true)
			if err != nil {
				return err
			}
			if bctx.Ticker != nil {
				defer bctx.Ticker.Stop()
			}
			return orch.BuildAll(platform)
		},
	}
}

func buildCmd() *cobra.Command {
	var archFlag string
	cmd := &cobra.Command{
		Use:   "build <library> <desktop|android|ios>",
		Short: "Build one library for one platform target",
		Long: "Builds a single (library, target) pair. The pair's dependencies must\n" +
			"already be in the dist tree for the same target. Idempotent: an\n" +
			"existing dist directory makes this a no-op.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, err := nativedeps.ParsePlatform(args[1])
			if err != nil {
				return err
			}
			orch, _, err := newOrchestrator(false)
			if err != nil {
				return err
			}

			targets, err := orch.PlatformTargets(platform)
			if err != nil {
				return err
			}
			if archFlag != "" {
				target, err := orch.Catalog().Lookup(platform, nativedeps.Arch(archFlag))
				if err != nil {
					return err
				}
				targets = []nativedeps.Target{target}
			}
			for _, target := range targets {
				if err := orch.BuildOne(args[0], target); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&archFlag, "arch", "", "restrict to one architecture (default: all for the platform)")
	return cmd
}

func targetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets <desktop|android|ios>",
		Short: "List the supported targets for a platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, err := nativedeps.ParsePlatform(args[0])
			if err != nil {
				return err
			}
			orch, _, err := newOrchestrator(false)
			if err != nil {
				return err
			}
			for _, target := range orch.Catalog().Targets(platform) {
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s dist=%s triple=%s\n",
					target.Name(), target.DistAlias, target.HostTriple)
			}
			return nil
		},
	}
}

func cleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the dist tree and work directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, bctx, err := newOrchestrator(false)
			if err != nil {
				return err
			}
			for _, dir := range []string{bctx.DistRoot, bctx.WorkDir()} {
				if err := os.RemoveAll(dir); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
