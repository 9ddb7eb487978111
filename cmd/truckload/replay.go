package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/piwi3910/TruckLoad/internal/engine"
	"github.com/piwi3910/TruckLoad/internal/storage"
)

var flagDryRun bool

var replayCmd = &cobra.Command{
	Use:   "replay <script.json>",
	Short: "Apply scripted edits to the stored load",
	Long: `Replay runs a JSON array of steps against the stored load and saves
the resulting changes. Steps are commands (move, rotate, delete, restore,
select), pointer_down/pointer_move/pointer_up drags at floor coordinates,
undo, redo, transfer between pallets, and zoom.

Example:
  truckload replay edits.json
  truckload replay --dry-run edits.json`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "report the changes without saving them")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	steps, err := engine.ParseScript(f)
	f.Close()
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	s, err := loadSession(ctx, st)
	if err != nil {
		return err
	}

	results, replayErr := s.Replay(steps)
	summary := engine.ChangeSummary(s.UnitChanges(), s.PalletChanges())
	if flagJSON {
		if err := printJSON(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			mark := "ok"
			if !r.Applied {
				mark = "--"
			}
			fmt.Printf("%3d %-13s %s %s\n", r.Index, r.Kind, mark, r.Message)
		}
		fmt.Println(summary)
	}
	if replayErr != nil {
		return replayErr
	}
	if flagDryRun || !s.Dirty() {
		return nil
	}

	sink := storage.NewAsyncSink(st, logger, 0)
	sub, err := s.Submit(ctx, sink)
	if err != nil {
		_ = sink.Close(ctx)
		return err
	}
	if err := sink.Close(ctx); err != nil {
		return err
	}
	if rec, ok := sink.Record(sub.Seq); ok && rec.Status == storage.WriteFailed {
		return fmt.Errorf("save version %d: %w", sub.Version, rec.Err)
	}
	rememberFile(args[0])
	return nil
}
