package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrWong99/padinfo/internal/discord/commands"
)

var (
	dumpMonster int
	dumpPrefix  string
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the nickname index",
	Long:  "Builds the index once and prints every nickname with the monster it resolves to, or the full record of one monster.",
	Args:  cobra.NoArgs,
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().IntVarP(&dumpMonster, "monster", "m", 0, "Print the indexed record of this NA id instead")
	dumpCmd.Flags().StringVarP(&dumpPrefix, "prefix", "p", "", "Only print nicknames starting with this prefix")
}

func runDump(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := buildOnce(ctx)
	if err != nil {
		return err
	}
	defer a.Shutdown(ctx)

	g := a.Current()
	out := cmd.OutOrStdout()
	if dumpMonster != 0 {
		nm, ok := g.Index.ByNA[dumpMonster]
		if !ok {
			return fmt.Errorf("no indexed monster with id %d", dumpMonster)
		}
		text, err := commands.DumpText(nm)
		if err != nil {
			return err
		}
		fmt.Fprint(out, text)
		return nil
	}

	prefix := strings.ToLower(dumpPrefix)
	for _, nick := range g.Index.Nicknames() {
		if !strings.HasPrefix(nick, prefix) {
			continue
		}
		nm := g.Index.Entries[nick]
		fmt.Fprintf(out, "%s\tNo. %d %s\n", nick, nm.NAID, nm.NameNA)
	}
	return nil
}
