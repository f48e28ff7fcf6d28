package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sarchlab/korfield/cluster"
	"github.com/sarchlab/korfield/config"
	"github.com/sarchlab/korfield/datarecording"
	"github.com/sarchlab/korfield/id"
	"github.com/sarchlab/korfield/monitoring"
	"github.com/sarchlab/korfield/tracing"
)

// progressSteps is the number of slices a run is cut into to report
// progress.
const progressSteps = 100

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a cluster simulation.",
	Long: "Run a cluster simulation. Settings come from the defaults, the " +
		"config file, KORFIELD_* environment variables (also read from the " +
		".env file) and finally the flags, later sources winning.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd, runFlagKeys)
		if err != nil {
			return err
		}

		verbose, _ := cmd.Flags().GetBool("verbose")

		logger, err := newLogger(cfg.LogLevel, verbose)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return runSimulation(ctx, cfg, logger, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.String("config", "", "YAML configuration file")
	flags.String("env-file", ".env", "dotenv file to load")
	flags.Int("modules", 0, "number of modules")
	flags.Int("grid-width", 0, "modules per grid row")
	flags.Uint64("duration", 0, "virtual duration in microseconds")
	flags.Float64("freq", 0, "module tick frequency in Hz")
	flags.Int64("seed", 0, "workload seed")
	flags.Bool("parallel", false, "tick modules in parallel")
	flags.Bool("record", false, "record the run into SQLite")
	flags.String("record-path", "", "recording database path, without suffix")
	flags.Bool("monitor", false, "serve the monitoring page")
	flags.Int("port", 0, "monitoring port")
	flags.Bool("open", false, "open the monitoring page in a browser")
	flags.Bool("verbose", false, "log ticks and task runs")
}

// runFlagKeys maps run flags to the settings they override.
var runFlagKeys = map[string]string{
	"modules":     "modules",
	"grid-width":  "grid_width",
	"duration":    "duration_us",
	"freq":        "tick_hz",
	"seed":        "seed",
	"parallel":    "parallel",
	"record":      "record.enabled",
	"record-path": "record.path",
	"monitor":     "monitor.enabled",
	"port":        "monitor.port",
	"open":        "monitor.open_browser",
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if verbose {
		zc = zap.NewDevelopmentConfig()
		level = zapcore.DebugLevel.String()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}

	return zc.Build()
}

func runSimulation(
	ctx context.Context,
	cfg config.Cluster,
	logger *zap.Logger,
	out io.Writer,
) error {
	if cfg.Parallel {
		id.UseParallel()
	}

	c, err := cluster.MakeBuilder().WithConfig(cfg).Build("Cluster")
	if err != nil {
		return err
	}

	counter := tracing.NewCountTracer()
	tracing.CollectCluster(c, counter)
	tracing.CollectCluster(c, tracing.NewLogTracer(logger))

	if cfg.Record.Enabled {
		recorder := datarecording.New(cfg.Record.Path)
		defer func() { _ = recorder.Close() }()

		tracing.CollectCluster(c, tracing.NewRecordTracer(recorder))
	}

	var bar *monitoring.ProgressBar
	if cfg.Monitor.Enabled {
		monitor := monitoring.NewMonitor().
			WithPortNumber(cfg.Monitor.Port).
			WithBrowser(cfg.Monitor.OpenBrowser)
		monitor.RegisterCluster(c)
		monitor.StartServer()
		defer func() { _ = monitor.Shutdown(context.Background()) }()

		bar = monitor.CreateProgressBar("Simulation", cfg.DurationUs)
		defer monitor.CompleteProgressBar(bar)
	}

	logger.Info("simulation started",
		zap.Int("modules", cfg.Modules),
		zap.Uint64("duration_us", cfg.DurationUs),
		zap.Float64("tick_hz", cfg.TickHz),
		zap.Bool("parallel", cfg.Parallel),
	)

	start := time.Now()
	if err := drive(ctx, c, cfg.DurationUs, bar); err != nil {
		return err
	}

	sweeps, cleared := counter.GCSweeps()
	logger.Info("simulation finished",
		zap.Uint64("now_us", c.Now()),
		zap.Duration("wall", time.Since(start)),
		zap.Uint64("ticks", counter.Ticks()),
		zap.Uint64("neighbors_lost", counter.NeighborsLost()),
		zap.Uint64("gc_sweeps", sweeps),
		zap.Uint64("gc_cleared", cleared),
		zap.Float64("delivered", c.Dispatcher().Delivered()),
		zap.Float64("diverted", c.Dispatcher().Diverted()),
		zap.Float64("dropped", c.Dispatcher().Dropped()),
	)

	return printStatus(out, c)
}

func drive(
	ctx context.Context,
	c *cluster.Cluster,
	duration uint64,
	bar *monitoring.ProgressBar,
) error {
	step := max(duration/progressSteps, 1)

	for remaining := duration; remaining > 0; {
		slice := min(step, remaining)

		if err := c.Run(ctx, slice); err != nil {
			return err
		}

		remaining -= slice
		if bar != nil {
			bar.IncrementFinished(slice)
		}
	}

	return nil
}

func printStatus(out io.Writer, c *cluster.Cluster) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintln(tw, "ID\tName\tState\tNeighbors\tLoad grad\tThermal grad\t"+
		"Ticks\tBallots\t")

	for i, s := range c.Status() {
		n := c.Nodes()[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%.3f\t%.3f\t%d\t%d\t\n",
			s.ID, s.Name, s.State, s.NeighborCount,
			s.LoadGradient.Float(), s.ThermalGradient.Float(),
			s.TicksTotal, len(n.Consensus().Ballots()))
	}

	return tw.Flush()
}
