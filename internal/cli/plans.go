package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"fitgym/nutrition-app/internal/domain"
)

var plansGymID string

// plansCmd lists every active plan of a gym, including private ones. It reads
// through the repository rather than the catalog so operators see the full
// picture, not one caller's view.
var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List a gym's active plans with their live states",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gymID, err := parseObjectID(plansGymID, "gym id")
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()

		plans, err := a.planRepo.ListActiveByGym(ctx, gymID)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(plans)
		}
		if len(plans) == 0 {
			PrintEmptyState("No active plans in this gym")
			return nil
		}

		rows := make([][]string, 0, len(plans))
		for i := range plans {
			p := &plans[i]
			visibility := "private"
			if p.IsPublic {
				visibility = "public"
			}
			followers, err := a.followRepo.CountActiveByPlan(ctx, p.ID)
			if err != nil {
				return err
			}
			rows = append(rows, []string{
				p.ID.Hex(),
				p.Title,
				string(p.PlanType),
				visibility,
				describeState(p),
				fmt.Sprintf("%d", followers),
			})
		}
		PrintTable([]string{"ID", "TITLE", "TYPE", "VISIBILITY", "STATE", "FOLLOWERS"}, rows)
		return nil
	},
}

func init() {
	plansCmd.Flags().StringVar(&plansGymID, "gym", "", "Gym id to list plans for (hex, required)")
	_ = plansCmd.MarkFlagRequired("gym")
}

// describeState renders a plan's state for table and success output. Live
// plans get their derived status, everything else just shows its type.
func describeState(p *domain.Plan) string {
	if !p.IsLive() {
		return string(p.PlanType)
	}
	state := domain.DeriveLiveState(p, todayUTC())
	if state.Status == domain.LiveStatusRunning {
		return fmt.Sprintf("%s, day %d", state.Status, state.CurrentDay)
	}
	return string(state.Status)
}
