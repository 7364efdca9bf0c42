package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitgym/nutrition-app/internal/domain"
)

// liveCmd groups the operator side of the live plan lifecycle.
var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Manage the live plan lifecycle",
	Long:  `Pause, resume, finish, or archive a live plan, and sweep up expired ones.`,
}

var livePauseCmd = &cobra.Command{
	Use:   "pause <plan-id>",
	Short: "Turn a live plan's operator flag off",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLifecycle(args[0], "paused", func(ctx context.Context, a *app, caller domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error) {
			return a.planService.PauseLivePlan(ctx, caller, planID)
		})
	},
}

var liveResumeCmd = &cobra.Command{
	Use:   "resume <plan-id>",
	Short: "Turn a paused live plan back on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLifecycle(args[0], "resumed", func(ctx context.Context, a *app, caller domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error) {
			return a.planService.ResumeLivePlan(ctx, caller, planID)
		})
	},
}

var liveFinishCmd = &cobra.Command{
	Use:   "finish <plan-id>",
	Short: "Finish a live plan, stamping its end date if open ended",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLifecycle(args[0], "finished", func(ctx context.Context, a *app, caller domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error) {
			return a.planService.FinishLivePlan(ctx, caller, planID)
		})
	},
}

var liveArchiveCmd = &cobra.Command{
	Use:   "archive <plan-id>",
	Short: "Copy a finished live plan into a reusable archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLifecycle(args[0], "archived", func(ctx context.Context, a *app, caller domain.CallerContext, planID primitive.ObjectID) (*domain.Plan, error) {
			return a.planService.ArchiveLivePlan(ctx, caller, planID)
		})
	},
}

// sweepCmd forces the expired live plan sweep the server runs on a timer.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Finish live plans whose end date has passed",
	Long: `Find live plans whose end date passed with the operator flag still on
and finish them. The server runs the same sweep hourly; this command forces
one immediately.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		swept, err := a.planService.SweepExpiredLivePlans(context.Background(), time.Now().UTC())
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(swept)
		}
		if len(swept) == 0 {
			PrintInfo("No expired live plans found")
			return nil
		}
		PrintSuccess(fmt.Sprintf("Finished %d expired live plan(s)", len(swept)))
		for _, p := range swept {
			PrintInfo(fmt.Sprintf("  %s  %s", p.ID.Hex(), p.Title))
		}
		return nil
	},
}

func init() {
	liveCmd.AddCommand(livePauseCmd)
	liveCmd.AddCommand(liveResumeCmd)
	liveCmd.AddCommand(liveFinishCmd)
	liveCmd.AddCommand(liveArchiveCmd)
	liveCmd.AddCommand(sweepCmd)
}

// runLifecycle loads the plan, acts as its creator, and applies one lifecycle
// operation.
func runLifecycle(planIDArg, verb string, op func(context.Context, *app, domain.CallerContext, primitive.ObjectID) (*domain.Plan, error)) error {
	planID, err := parseObjectID(planIDArg, "plan id")
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()

	plan, err := a.planRepo.GetByID(ctx, planID)
	if err != nil {
		return fmt.Errorf("load plan %s: %w", planIDArg, err)
	}

	updated, err := op(ctx, a, operatorCaller(plan), planID)
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(updated)
	}
	PrintSuccess(fmt.Sprintf("Plan %q %s (%s)", updated.Title, verb, describeState(updated)))
	return nil
}
