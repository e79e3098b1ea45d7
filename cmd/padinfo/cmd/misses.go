package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrWong99/padinfo/internal/feedback"
)

var missesCount int

var missesCmd = &cobra.Command{
	Use:   "misses",
	Short: "List the most frequent unmatched queries",
	Long:  "Reads data.miss_log and prints the queries that found nothing, most frequent first.",
	Args:  cobra.NoArgs,
	RunE:  runMisses,
}

func init() {
	missesCmd.Flags().IntVarP(&missesCount, "count", "n", 20, "Number of queries to print; 0 prints all")
}

func runMisses(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Data.MissLog == "" {
		return errors.New("data.miss_log is not set in the config")
	}

	top, err := feedback.NewFileStore(cfg.Data.MissLog).Top(missesCount)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, m := range top {
		fmt.Fprintf(out, "%d\t%s\t%s\n", m.Count, m.LastSeen.Format(time.DateOnly), m.Query)
	}
	return nil
}
