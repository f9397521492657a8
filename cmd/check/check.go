package check

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/schemagate/schemagate/cmd/util"
	"github.com/schemagate/schemagate/internal/compare"
	"github.com/schemagate/schemagate/internal/inspect"
	"github.com/schemagate/schemagate/internal/logger"
	"github.com/schemagate/schemagate/internal/report"
	"github.com/schemagate/schemagate/internal/snapshot"
)

var (
	checkNoColor bool
	checkTimeout time.Duration
)

var CheckCmd = &cobra.Command{
	Use:   "check <left-identity> <right-identity>",
	Short: "Compare an expected schema against an actual one",
	Long: `Compare the left (expected) schema against the right (actual) schema and
report every structural discrepancy. Objects missing or changed on the
right are errors; objects the right side has gained are warnings, except
a gained primary key, which is an error.

An identity is a postgres:// or mysql:// connection URL, or a path to a
.sql DDL file holding the expected state. The identities may also be set
via the SCHEMAGATE_LEFT and SCHEMAGATE_RIGHT environment variables.

The exit status is nonzero only when errors are found; warnings alone
never fail the gate.`,
	Args:    validateArgs,
	RunE:    runCheck,
	Example: `  schemagate check postgres://app@staging/app postgres://app@prod/app
  schemagate check schema/expected.sql postgres://app@prod/app`,
}

func init() {
	CheckCmd.Flags().BoolVar(&checkNoColor, "no-color", false, "Disable colored output")
	CheckCmd.Flags().DurationVar(&checkTimeout, "timeout", 30*time.Second, "Timeout for schema acquisition")
}

// validateArgs accepts the two identities as positional arguments, with
// environment variables as a fallback for either side.
func validateArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 2 {
		return fmt.Errorf("accepts at most 2 args, received %d", len(args))
	}
	if len(args) < 2 {
		left := util.GetEnvWithDefault("SCHEMAGATE_LEFT", "")
		right := util.GetEnvWithDefault("SCHEMAGATE_RIGHT", "")
		if len(args) == 1 && right != "" {
			return nil
		}
		if len(args) == 0 && left != "" && right != "" {
			return nil
		}
		return fmt.Errorf("requires a left and a right connection identity")
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	leftIdentity := util.GetEnvWithDefault("SCHEMAGATE_LEFT", "")
	rightIdentity := util.GetEnvWithDefault("SCHEMAGATE_RIGHT", "")
	if len(args) >= 1 {
		leftIdentity = args[0]
	}
	if len(args) == 2 {
		rightIdentity = args[1]
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	left, right, err := acquire(ctx, leftIdentity, rightIdentity)
	if err != nil {
		return err
	}

	result := compare.Compare(left, right)

	reporter := report.New(cmd.OutOrStdout(), !checkNoColor)
	if err := reporter.Write(result); err != nil {
		return err
	}

	if code := report.ExitCode(result); code != 0 {
		os.Exit(code)
	}
	return nil
}

// acquire materializes both snapshots, concurrently since the two sides
// are independent sources.
func acquire(ctx context.Context, leftIdentity, rightIdentity string) (*snapshot.Schema, *snapshot.Schema, error) {
	leftProvider, err := inspect.NewProvider(leftIdentity)
	if err != nil {
		return nil, nil, err
	}
	rightProvider, err := inspect.NewProvider(rightIdentity)
	if err != nil {
		return nil, nil, err
	}

	log := logger.Get()
	var left, right *snapshot.Schema

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		if left, err = leftProvider.Snapshot(ctx); err != nil {
			return fmt.Errorf("left schema %s: %w", leftIdentity, err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		if right, err = rightProvider.Snapshot(ctx); err != nil {
			return fmt.Errorf("right schema %s: %w", rightIdentity, err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	log.Debug("snapshots acquired",
		"left_tables", len(left.Tables),
		"right_tables", len(right.Tables),
	)
	return left, right, nil
}
