package cli

import (
	"fmt"

	"github.com/felixgeelhaar/steamrec/internal/store"
	"github.com/spf13/cobra"
)

var (
	historyLimit   int
	historySteamID string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent calls to the recommendation service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}
		defer s.Close()

		var calls []*store.Call
		if historySteamID != "" {
			calls, err = s.ListCallsFor(historySteamID, historyLimit)
		} else {
			calls, err = s.ListCalls(historyLimit)
		}
		if err != nil {
			return fmt.Errorf("failed to read history: %w", err)
		}

		out := cmd.OutOrStdout()
		if ciMode {
			return writeJSON(out, calls)
		}
		if len(calls) == 0 {
			fmt.Fprintln(out, "No calls recorded yet.")
			return nil
		}
		for _, c := range calls {
			fmt.Fprintf(out, "%s  %-20s %-9s %-17s %s\n",
				c.RecordedAt.Local().Format("2006-01-02 15:04:05"), c.Kind, c.Outcome, c.SteamID, c.Message)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", store.DefaultHistoryLimit, "Maximum number of calls to show")
	historyCmd.Flags().StringVar(&historySteamID, "steamid", "", "Only show calls for this account")
}
