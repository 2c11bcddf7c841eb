package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	recommendPicks []string
	recommendNiche float64
)

var recommendCmd = &cobra.Command{
	Use:     "recommend [steamid]",
	Short:   "Recommend games based on picks from a library",
	Example: `  steamrec recommend 76561198000000001 --pick 620 --pick 220:150:opposite --niche 0.3`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(recommendPicks) == 0 {
			return fmt.Errorf("at least one --pick is required")
		}
		picks := make([]Pick, 0, len(recommendPicks))
		for _, raw := range recommendPicks {
			p, err := ParsePick(raw)
			if err != nil {
				return err
			}
			picks = append(picks, p)
		}

		r, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		niche := r.Config.NicheFactor
		if cmd.Flags().Changed("niche") {
			niche = recommendNiche
		}

		results, err := r.Recommend(cmd.Context(), args[0], picks, niche)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if ciMode {
			return writeJSON(out, results)
		}
		for i, res := range results {
			fmt.Fprintf(out, "%2d. %s\n", i+1, res.Name)
			if res.ShortDescription != "" {
				fmt.Fprintf(out, "    %s\n", res.ShortDescription)
			}
		}
		if len(results) == 0 {
			fmt.Fprintln(out, "No recommendations.")
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(recommendCmd)
	recommendCmd.Flags().StringArrayVarP(&recommendPicks, "pick", "p", nil, "Game to base recommendations on: id[:percent[:like|opposite]]")
	recommendCmd.Flags().Float64VarP(&recommendNiche, "niche", "n", 0, "Niche factor between 0 and 1 (default from config)")
}
