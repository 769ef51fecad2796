package cmd

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/kfreiman/interviewcoach/internal/mcp"
	"github.com/kfreiman/interviewcoach/internal/store"
)

var (
	analyticsUserVacancyID int64
	analyticsUserID        int64
)

type analyticsOutput struct {
	UserVacancyID int64 `json:"user_vacancy_id"`
	store.Analytics
	Population *store.Population `json:"population,omitempty"`
}

// analyticsCmd prints the analytics of one persisted interview
var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Print interview analytics as JSON",
	Long: `Print the summary and timeline of a persisted interview. With --user-id
the user's average correctness and percentile among all users are added.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if analyticsUserVacancyID <= 0 {
			return errors.New("--user-vacancy-id must be a positive id")
		}
		ctx := cmd.Context()
		logger := setupLogger()

		cfg, err := mcp.LoadConfig()
		if err != nil {
			return err
		}
		storeCfg := cfg.Store()
		storeCfg.Logger = logger
		db, err := store.Open(ctx, storeCfg)
		if err != nil {
			return err
		}
		defer db.Close()

		out := analyticsOutput{UserVacancyID: analyticsUserVacancyID}
		out.Analytics, err = db.SessionAnalytics(ctx, analyticsUserVacancyID)
		if err != nil {
			return err
		}
		if analyticsUserID > 0 {
			population, err := db.PopulationCorrectness(ctx, analyticsUserID)
			if err != nil {
				return err
			}
			out.Population = &population
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	analyticsCmd.Flags().Int64Var(&analyticsUserVacancyID, "user-vacancy-id", 0, "persisted interview id")
	analyticsCmd.Flags().Int64Var(&analyticsUserID, "user-id", 0, "also report the user's correctness percentile")
	_ = analyticsCmd.MarkFlagRequired("user-vacancy-id")
	rootCmd.AddCommand(analyticsCmd)
}
