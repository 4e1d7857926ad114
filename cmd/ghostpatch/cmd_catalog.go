package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ghostpatch/internal/anomaly"
	"ghostpatch/internal/store"
)

// catalogCmd lists the loaded anomaly content.
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the anomalies in the content catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := anomaly.LoadCatalog(cfg.CatalogPath, logger)
		if err != nil {
			return err
		}
		for _, a := range catalog.All() {
			req := ""
			if a.Required {
				req = " [required]"
			}
			fmt.Printf("%-16s sev %2d  %-10s %s%s\n", a.ID, a.Severity, a.Smell, a.Name, req)
		}
		return nil
	},
}

var replayRunID string

// replayCmd prints the stored event chains of a past run.
var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Show the stored event chains of a run",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayRunID == "" {
			return fmt.Errorf("--run is required")
		}
		db, err := store.Open(cfg.DatabasePath, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		if outcome, over, err := db.Outcome(replayRunID); err != nil {
			return err
		} else if over {
			fmt.Printf("Run %s ended: %s\n", replayRunID, outcome)
		}

		chains, err := db.RecentChains(replayRunID, 50)
		if err != nil {
			return err
		}
		if len(chains) == 0 {
			fmt.Println("no chains recorded for this run")
			return nil
		}
		for _, c := range chains {
			fmt.Printf("chain %s  events=%d cascades=%d  total %+d/%+d\n",
				c.ID, len(c.Events), c.CascadeDepth, c.TotalEffects.Stability, c.TotalEffects.Insight)
			for _, ev := range c.Events {
				fmt.Printf("    %-20s %+4d/%+4d  %s\n", ev.Type, ev.Effects.Stability, ev.Effects.Insight, ev.Description)
			}
		}
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayRunID, "run", "", "run id to replay")
}
