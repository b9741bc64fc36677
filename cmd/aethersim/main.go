package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/san-kum/aethersim/internal/config"
	"github.com/san-kum/aethersim/internal/rules"
	"github.com/san-kum/aethersim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string

	dim           int
	initial       int64
	background    int64
	enclosedSide  int
	steps         uint64
	untilStable   bool
	trackToppling bool
	backupEvery   uint64
	logEvery      uint64
	pageBacking   string
	pageBudget    int64
	pageDir       string

	watch       bool
	watchRadius int
	watchTheme  string

	// list filters
	filterRule   string
	filterDim    int
	filterStable bool

	// plot
	plotField  string
	plotWidth  int
	plotHeight int
	plotSVG    string

	// export
	exportFormat string
	exportOut    string
	exportAxis   int
	exportAt     int
	exportDiag   []int
	exportRadius int
	exportScale  float64

	// bench
	benchDims []int
	benchJobs int
)

func newLogger(prefix string) *log.Logger {
	return log.New(os.Stderr, prefix, log.LstdFlags|log.Lmicroseconds)
}

func backupRoot() string { return filepath.Join(dataDir, "backups") }

func indexPath() string { return filepath.Join(dataDir, "index.sqlite") }

func addLatticeFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&dim, "dim", config.DefaultDim, "lattice dimension (1-4)")
	cmd.Flags().Int64Var(&initial, "initial", config.DefaultInitial, "value at the origin")
	cmd.Flags().Int64Var(&background, "background", 0, "value of unstored points (SpreadIntegerValue)")
	cmd.Flags().IntVar(&enclosedSide, "enclosed", 0, "odd side of an enclosed (toroidal) lattice")
	cmd.Flags().BoolVar(&trackToppling, "track", false, "record toppled points and check alternation")
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64Var(&steps, "steps", 0, "maximum number of steps (0 = no bound)")
	cmd.Flags().BoolVar(&untilStable, "until-stable", true, "stop at the first step that changes nothing")
	cmd.Flags().Uint64Var(&backupEvery, "backup-every", config.DefaultBackupEvery, "backup interval in steps (0 = final only)")
	cmd.Flags().Uint64Var(&logEvery, "log-every", config.DefaultLogEvery, "progress log interval in steps")
	cmd.Flags().StringVar(&pageBacking, "page-backing", "", "spill shells to disk: file or sqlite")
	cmd.Flags().Int64Var(&pageBudget, "page-budget", config.DefaultPageBudget, "resident bytes before spilling")
	cmd.Flags().StringVar(&pageDir, "page-dir", "", "directory for spilled shells")
	cmd.Flags().BoolVar(&watch, "watch", false, "follow the run in a terminal view")
	cmd.Flags().IntVar(&watchRadius, "radius", 12, "half width of the watched section")
	cmd.Flags().StringVar(&watchTheme, "theme", viz.ThemeNames()[0], fmt.Sprintf("watch theme %v", viz.ThemeNames()))
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [rule]",
		Short: "run an automaton from a single source",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addLatticeFlags(cmd)
	addRunFlags(cmd)
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	return cmd
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "aethersim",
		Short: "symmetric cellular automata on 1-4 dimensional lattices",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".aethersim", "data directory")

	runCmd := newRunCmd()

	resumeCmd := &cobra.Command{
		Use:   "resume [run_id]",
		Short: "continue a run from its latest backup",
		Args:  cobra.ExactArgs(1),
		RunE:  resumeRun,
	}
	addRunFlags(resumeCmd)
	resumeCmd.Flags().BoolVar(&trackToppling, "track", false, "record toppled points and check alternation")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}
	listCmd.Flags().StringVar(&filterRule, "rule", "", "only runs of this rule")
	listCmd.Flags().IntVar(&filterDim, "dim", 0, "only runs of this dimension")
	listCmd.Flags().BoolVar(&filterStable, "stable", false, "only runs that settled")

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata and final statistics",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot per-step statistics",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotField, "field", "toppled", fmt.Sprintf("statistic to plot %v", viz.Fields()))
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 12, "plot height")
	plotCmd.Flags().StringVar(&plotSVG, "svg", "", "also write the chart as svg to this file")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export the final lattice or statistics of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "json, csv, svg or stats")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	exportCmd.Flags().IntVar(&exportAxis, "axis", -1, "cross-section axis")
	exportCmd.Flags().IntVar(&exportAt, "at", 0, "cross-section coordinate")
	exportCmd.Flags().IntSliceVar(&exportDiag, "diagonal", nil, "diagonal section as a,b,offset")
	exportCmd.Flags().IntVar(&exportRadius, "radius", 0, "clip to [-radius, radius] (0 = whole lattice)")
	exportCmd.Flags().Float64Var(&exportScale, "scale", 4, "svg cell size")

	benchCmd := &cobra.Command{
		Use:   "bench [rule]",
		Short: "time a rule across dimensions in parallel",
		Args:  cobra.ExactArgs(1),
		RunE:  benchRule,
	}
	benchCmd.Flags().IntSliceVar(&benchDims, "dims", []int{1, 2, 3, 4}, "dimensions to run")
	benchCmd.Flags().Int64Var(&initial, "initial", 10000, "value at the origin")
	benchCmd.Flags().Uint64Var(&steps, "steps", 200, "steps per run")
	benchCmd.Flags().IntVar(&benchJobs, "jobs", 0, "concurrent runs (0 = one per dimension)")

	presetsCmd := &cobra.Command{
		Use:   "presets [rule]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := rules.Names()
			if len(args) == 1 {
				rule, err := rules.Lookup(args[0])
				if err != nil {
					return err
				}
				names = []string{rule.Name()}
			}
			for _, name := range names {
				presets := config.ListPresets(name)
				if len(presets) == 0 {
					fmt.Printf("no presets for rule: %s\n", name)
					continue
				}
				fmt.Printf("presets for %s:\n", name)
				for _, p := range presets {
					fmt.Printf("  %-12s %s\n", p, config.GetPreset(name, p))
				}
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, resumeCmd, listCmd, showCmd, plotCmd, exportCmd, benchCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
