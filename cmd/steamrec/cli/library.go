package cli

import (
	"fmt"

	"github.com/felixgeelhaar/steamrec/internal/catalog"
	"github.com/spf13/cobra"
)

// libraryItem is the --ci shape of a game, keyed like the service's own
// game records.
type libraryItem struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	ShortDescription string `json:"short_description,omitempty"`
	IconRef          string `json:"img_icon_url,omitempty"`
}

func toLibraryItems(items []catalog.Item) []libraryItem {
	out := make([]libraryItem, 0, len(items))
	for _, it := range items {
		out = append(out, libraryItem{
			ID:               it.ID,
			Name:             it.Name,
			ShortDescription: it.ShortDescription,
			IconRef:          it.IconRef,
		})
	}
	return out
}

var (
	libraryFilter string
	libraryGlob   string
)

var libraryCmd = &cobra.Command{
	Use:   "library [steamid]",
	Short: "List the games a Steam account owns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		items, err := r.Library(cmd.Context(), args[0], libraryFilter, libraryGlob)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if ciMode {
			return writeJSON(out, toLibraryItems(items))
		}
		for _, it := range items {
			fmt.Fprintf(out, "%10d  %s\n", it.ID, it.Name)
		}
		fmt.Fprintf(out, "%d of %d games\n", len(items), r.Orch.Session().Catalog().Len())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(libraryCmd)
	libraryCmd.Flags().StringVarP(&libraryFilter, "filter", "f", "", "Only show games whose name contains this text")
	libraryCmd.Flags().StringVarP(&libraryGlob, "glob", "g", "", "Only show games whose name matches this pattern, e.g. 'half-life*'")
}
