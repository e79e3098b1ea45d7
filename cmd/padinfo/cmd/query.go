package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrWong99/padinfo/internal/discord/commands"
	"github.com/MrWong99/padinfo/internal/lookup"
)

var queryDebug bool

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Resolve one query and print the monster",
	Long:  "Builds the index once from the configured data and prints what /id would answer for the query.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryDebug, "debug", false, "Also print how the query matched")
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := buildOnce(ctx)
	if err != nil {
		return err
	}
	defer a.Shutdown(ctx)

	query := strings.Join(args, " ")
	res, g, err := a.Resolver().Resolve(ctx, query)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !res.Found() {
		fmt.Fprintln(out, commands.FailureMessage(res.Reason))
		if sugg := lookup.Suggest(g.Index, query, 5); len(sugg) > 0 {
			fmt.Fprintln(out, "Did you mean: "+strings.Join(sugg, ", ")+"?")
		}
		return nil
	}

	m := g.DB.Monster(res.Monster.ID)
	if m == nil {
		return fmt.Errorf("monster %d is indexed but missing from the dataset", res.Monster.ID)
	}
	info, link := commands.InfoText(g.DB, m)
	fmt.Fprintln(out, info)
	fmt.Fprintln(out, link)
	if queryDebug {
		fmt.Fprintln(out)
		fmt.Fprintln(out, commands.DebugText(res.Method, res.Monster))
	}
	return nil
}
