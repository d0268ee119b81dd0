package cli

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	planStart string
	planEnd   string
	planBooks []string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Reading plan commands",
	Long:  `Create, inspect, and finish your reading plan.`,
}

var planShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current plan and daily quota",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, body, err := apiRequest(http.MethodGet, "/api/plans", nil, true)
		if err != nil {
			printError(err.Error())
			return err
		}
		if status == http.StatusNotFound {
			fmt.Println("No plan yet. Create one with: readingctl plan create")
			return nil
		}
		if status != http.StatusOK {
			printError("Failed to fetch plan: " + apiErrorMessage(body))
			return fmt.Errorf("fetch plan failed")
		}

		var plan struct {
			StartDate   string     `json:"startDate"`
			EndDate     string     `json:"endDate"`
			Status      string     `json:"status"`
			PagesPerDay int        `json:"pagesPerDay"`
			Books       []bookItem `json:"books"`
		}
		if err := json.Unmarshal(body, &plan); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}

		fmt.Printf("Plan: %s → %s [%s]\n", plan.StartDate, plan.EndDate, plan.Status)
		fmt.Printf("Daily quota: %d pages\n\n", plan.PagesPerDay)
		for _, b := range plan.Books {
			fmt.Printf("  [%s] %s — %d/%d pages\n", b.ID, b.Title, b.PagesFinished, b.PagesTotal)
		}
		return nil
	},
}

var planCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a reading plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		if planStart == "" || planEnd == "" {
			return fmt.Errorf("start and end dates are required (--start, --end, format YYYY-MM-DD)")
		}
		if len(planBooks) == 0 {
			return fmt.Errorf("at least one book id is required (--book)")
		}

		reqBody := map[string]any{
			"startDate": planStart,
			"endDate":   planEnd,
			"books":     planBooks,
		}

		status, body, err := apiRequest(http.MethodPost, "/api/plans", reqBody, true)
		if err != nil {
			printError(err.Error())
			return err
		}
		if status != http.StatusCreated {
			printError("Failed to create plan: " + apiErrorMessage(body))
			return fmt.Errorf("create plan failed")
		}

		var plan struct {
			Status      string `json:"status"`
			PagesPerDay int    `json:"pagesPerDay"`
		}
		json.Unmarshal(body, &plan)
		printSuccess(fmt.Sprintf("Plan created [%s], daily quota: %d pages", plan.Status, plan.PagesPerDay))
		return nil
	},
}

var planFinishCmd = &cobra.Command{
	Use:   "finish",
	Short: "Finish the current plan and archive it",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, body, err := apiRequest(http.MethodDelete, "/api/plans", nil, true)
		if err != nil {
			printError(err.Error())
			return err
		}
		if status != http.StatusNoContent {
			printError("Failed to finish plan: " + apiErrorMessage(body))
			return fmt.Errorf("finish plan failed")
		}

		printSuccess("Plan finished")
		return nil
	},
}

var progressPages int

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Progress logging commands",
}

var progressLogCmd = &cobra.Command{
	Use:   "log [book-id]",
	Short: "Log pages read today against the active plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if progressPages <= 0 {
			return fmt.Errorf("pages read is required (--pages)")
		}

		reqBody := map[string]any{
			"pagesRead": progressPages,
			"book":      args[0],
		}

		status, body, err := apiRequest(http.MethodPost, "/api/plans/statistics", reqBody, true)
		if err != nil {
			printError(err.Error())
			return err
		}
		if status != http.StatusOK {
			printError("Failed to log progress: " + apiErrorMessage(body))
			return fmt.Errorf("log progress failed")
		}

		var resp struct {
			Book       bookItem `json:"book"`
			PlanStatus string   `json:"planStatus"`
			Statistics struct {
				PagesPerDay int `json:"pagesPerDay"`
			} `json:"statistics"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}

		printSuccess(fmt.Sprintf("Logged %d pages on %q (%d/%d), plan status: %s",
			progressPages, resp.Book.Title, resp.Book.PagesFinished, resp.Book.PagesTotal, resp.PlanStatus))
		return nil
	},
}

func init() {
	planCreateCmd.Flags().StringVar(&planStart, "start", "", "start date (YYYY-MM-DD)")
	planCreateCmd.Flags().StringVar(&planEnd, "end", "", "end date (YYYY-MM-DD)")
	planCreateCmd.Flags().StringSliceVar(&planBooks, "book", nil, "book id (repeatable)")

	progressLogCmd.Flags().IntVar(&progressPages, "pages", 0, "pages read")

	planCmd.AddCommand(planShowCmd)
	planCmd.AddCommand(planCreateCmd)
	planCmd.AddCommand(planFinishCmd)
	progressCmd.AddCommand(progressLogCmd)
}
