package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"fitgym/nutrition-app/internal/domain"
	"fitgym/nutrition-app/internal/service"
)

// seedFile is the YAML fixture format consumed by planctl seed.
type seedFile struct {
	Gym     string     `yaml:"gym"`
	Creator string     `yaml:"creator"`
	Plans   []seedPlan `yaml:"plans"`
}

type seedPlan struct {
	Title        string    `yaml:"title"`
	Description  string    `yaml:"description"`
	Type         string    `yaml:"type"`
	Public       bool      `yaml:"public"`
	StartDate    string    `yaml:"startDate"`
	EndDate      string    `yaml:"endDate"`
	DurationDays int       `yaml:"durationDays"`
	Goal         string    `yaml:"goal"`
	Difficulty   string    `yaml:"difficulty"`
	Budget       string    `yaml:"budget"`
	Dietary      []string  `yaml:"dietary"`
	Days         []seedDay `yaml:"days"`
}

type seedDay struct {
	Day       int      `yaml:"day"`
	Breakfast string   `yaml:"breakfast"`
	Lunch     string   `yaml:"lunch"`
	Dinner    string   `yaml:"dinner"`
	Snacks    []string `yaml:"snacks"`
	Notes     string   `yaml:"notes"`
}

// seedCmd loads plan fixtures from a YAML file. Plans go through the regular
// create and upsert paths, so fixtures obey the same rules as API writes.
var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Seed plans and meal days from a YAML fixture file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		var fixture seedFile
		if err := yaml.Unmarshal(data, &fixture); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if len(fixture.Plans) == 0 {
			return fmt.Errorf("%s contains no plans", path)
		}

		gymID, err := parseObjectID(fixture.Gym, "gym id")
		if err != nil {
			return err
		}
		creatorID, err := parseObjectID(fixture.Creator, "creator id")
		if err != nil {
			return err
		}
		caller := domain.CallerContext{
			GymID:  gymID,
			UserID: &creatorID,
			Today:  todayUTC(),
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()

		created := make([]domain.Plan, 0, len(fixture.Plans))
		for _, p := range fixture.Plans {
			startDate, err := parseSeedDate(p.StartDate, "startDate", p.Title)
			if err != nil {
				return err
			}
			endDate, err := parseSeedDate(p.EndDate, "endDate", p.Title)
			if err != nil {
				return err
			}

			plan, err := a.planService.CreatePlan(ctx, caller, service.CreatePlanInput{
				Title:               p.Title,
				Description:         p.Description,
				IsPublic:            p.Public,
				PlanType:            domain.PlanType(p.Type),
				LiveStartDate:       startDate,
				LiveEndDate:         endDate,
				DurationDays:        p.DurationDays,
				Goal:                p.Goal,
				DifficultyLevel:     p.Difficulty,
				BudgetLevel:         p.Budget,
				DietaryRestrictions: p.Dietary,
			})
			if err != nil {
				return fmt.Errorf("create plan %q: %w", p.Title, err)
			}

			for _, d := range p.Days {
				_, err := a.contentService.UpsertMealDay(ctx, caller, plan.ID, service.MealDayInput{
					DayNumber: d.Day,
					Breakfast: d.Breakfast,
					Lunch:     d.Lunch,
					Dinner:    d.Dinner,
					Snacks:    d.Snacks,
					Notes:     d.Notes,
				})
				if err != nil {
					return fmt.Errorf("plan %q day %d: %w", p.Title, d.Day, err)
				}
			}

			created = append(created, *plan)
			PrintSuccess(fmt.Sprintf("Seeded plan %q with %d day(s) of content", plan.Title, len(p.Days)))
		}

		if jsonOutput {
			return outputJSON(created)
		}
		PrintInfo(fmt.Sprintf("Seeded %d plan(s) from %s", len(created), path))
		return nil
	},
}

func parseSeedDate(value, field, plan string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("plan %q: %s must be formatted YYYY-MM-DD, got %q", plan, field, value)
	}
	return &t, nil
}
