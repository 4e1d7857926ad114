package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ghostpatch/internal/anomaly"
	"ghostpatch/internal/config"
	"ghostpatch/internal/encounter"
	"ghostpatch/internal/game"
	"ghostpatch/internal/services"
	"ghostpatch/internal/store"
)

var (
	simAnomalyID string
	simIntent    string
	simAction    string
	simSeed      int64
	simRoom      string
)

// simulateCmd runs one scripted encounter end to end and prints the report.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one anomaly encounter with a scripted intent and action",
	Long: `Runs the full pipeline against one anomaly: intent classification,
risk scoring, change generation, event simulation and gauge update.
With --seed the whole run is reproducible.`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simAnomalyID, "anomaly", "", "anomaly id (default: first in catalog)")
	simulateCmd.Flags().StringVar(&simIntent, "intent", "carefully refactor and clean up the tangled logic", "repair intent text")
	simulateCmd.Flags().StringVar(&simAction, "action", "apply", "player action: apply|refactor|question|reject")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "RNG seed (0 = from clock)")
	simulateCmd.Flags().StringVar(&simRoom, "room", "", "move to this room before resolving")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	action, err := encounter.ParseAction(simAction)
	if err != nil {
		return err
	}

	catalog, err := anomaly.LoadCatalog(cfg.CatalogPath, logger)
	if err != nil {
		return err
	}

	stopWatch, err := watchCatalog(ctx, catalog)
	if err != nil {
		return err
	}
	defer stopWatch()

	target, err := pickAnomaly(catalog, simAnomalyID)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	seed := cfg.Run.Seed
	if simSeed != 0 {
		seed = simSeed
	}
	run := game.NewRun(game.RunConfig{
		Seed:              seed,
		InitialStability:  cfg.Run.InitialStability,
		InitialInsight:    cfg.Run.InitialInsight,
		SkillLevel:        cfg.Run.SkillLevel,
		StartRoom:         cfg.Run.StartRoom,
		TerminalRoom:      cfg.Run.TerminalRoom,
		RequiredAnomalies: catalog.RequiredIDs(),
		HistoryLimit:      cfg.Run.HistoryLimit,
	}, logger)

	cues := services.NewCueQueue(64, logger)
	machine := encounter.NewMachine(run, encounter.Config{
		Catalog:  catalog,
		Engine:   cfg.Engine,
		Narrator: buildNarrator(cfg.Narrator),
		Cues:     cues,
		Store:    db,
		Logger:   logger,
	})

	session, err := machine.StartEncounter(target.ID)
	if err != nil {
		return err
	}

	change, err := machine.SubmitIntent(ctx, session.ID, simIntent)
	if err != nil {
		return err
	}

	fmt.Printf("== %s (%s, severity %d)\n", target.Name, target.Smell, target.Severity)
	fmt.Printf("%s\n\n", session.Narration.Content)
	fmt.Printf("Proposed: %s\n", change.Description)
	fmt.Printf("Risk %.2f | impact %s | expected %+d stability / %+d insight\n",
		change.RiskScore, change.Impact, change.Expected.Stability, change.Expected.Insight)

	preview, err := machine.Preview(session.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Preview: stability -> %d (%s band)\n\n", preview.After.Stability, preview.RiskBand)

	if simRoom != "" {
		run.MoveTo(simRoom)
	}

	res, err := machine.ResolveAction(ctx, session.ID, action)
	if err != nil {
		return err
	}

	printResolution(res)
	fmt.Printf("\nRun %s | seed %d\n", run.ID, run.RNG.Seed())
	return nil
}

// watchCatalog starts catalog hot reload when watch_catalog is enabled. The
// returned stop function is always safe to call.
func watchCatalog(ctx context.Context, catalog *anomaly.Catalog) (func(), error) {
	if !cfg.WatchCatalog {
		return func() {}, nil
	}
	w, err := anomaly.NewWatcher(catalog, logger)
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return func() {
		if err := w.Stop(); err != nil && logger != nil {
			logger.Warn("Catalog watcher shutdown failed", zap.Error(err))
		}
	}, nil
}

func pickAnomaly(catalog *anomaly.Catalog, id string) (*anomaly.Anomaly, error) {
	if id != "" {
		a, ok := catalog.Get(id)
		if !ok {
			return nil, fmt.Errorf("anomaly %q not in catalog", id)
		}
		return a, nil
	}
	all := catalog.All()
	return all[0], nil
}

func buildNarrator(nc config.NarratorConfig) services.Narrator {
	if nc.APIKey == "" {
		return services.FallbackNarrator{}
	}
	gcfg := services.DefaultGeminiNarratorConfig(nc.APIKey)
	if nc.Model != "" {
		gcfg.Model = nc.Model
	}
	if nc.BaseURL != "" {
		gcfg.BaseURL = nc.BaseURL
	}
	if nc.Timeout != "" {
		if d, err := time.ParseDuration(nc.Timeout); err == nil {
			gcfg.Timeout = d
		}
	}
	return services.NewGeminiNarrator(gcfg, logger)
}

func printResolution(res *encounter.Resolution) {
	label := string(res.Action)
	if res.Failed {
		label += " (BACKFIRED)"
	} else if res.Partial {
		label += " (partial)"
	}
	fmt.Printf("Action: %s\n", label)

	fmt.Printf("Events (%d, %d cascade):\n", len(res.Chain.Events), res.Chain.CascadeDepth)
	for _, ev := range res.Chain.Events {
		tag := " "
		if ev.Cascade {
			tag = "!"
		}
		fmt.Printf("  %s %-20s %+4d stability %+4d insight  %s\n",
			tag, ev.Type, ev.Effects.Stability, ev.Effects.Insight, ev.Description)
	}

	fmt.Printf("Applied: %+d stability / %+d insight -> stability %d, insight %d\n",
		res.Applied.Stability, res.Applied.Insight, res.Gauges.Stability, res.Gauges.Insight)

	if res.GameOver {
		fmt.Printf("RUN OVER: %s\n", strings.ToUpper(string(res.Outcome)))
	}
}
