package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X StockSheet/internal/cli.Version=...".
var Version = "dev"

// ErrSymbolsFailed is returned when the run finished but some symbols failed.
var ErrSymbolsFailed = errors.New("one or more symbols failed")

type runFlags struct {
	configPath string
	symbols    string
	start      string
	end        string
	interval   string
	dryRun     bool
}

// NewRootCmd creates the root command. Running it without a subcommand runs the batch.
func NewRootCmd() *cobra.Command {
	flags := &runFlags{}

	rootCmd := &cobra.Command{
		Use:   "stocksheet",
		Short: "StockSheet - technical indicators into a spreadsheet",
		Long: `StockSheet fetches OHLCV bars for a list of symbols, computes the daily
percentage change, two EMAs and RSI, and writes one worksheet per symbol.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), flags, cmd.OutOrStdout())
		},
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Configuration file path (default $CONFIG_PATH or configs/config.yaml)")

	bindRunFlags(rootCmd, flags)
	rootCmd.AddCommand(newRunCmd(flags))
	rootCmd.AddCommand(newComputeCmd(flags))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func bindRunFlags(cmd *cobra.Command, flags *runFlags) {
	cmd.Flags().StringVar(&flags.symbols, "symbols", "", "Comma-separated symbols, overrides the config")
	cmd.Flags().StringVar(&flags.start, "start", "", "Start date YYYY-MM-DD")
	cmd.Flags().StringVar(&flags.end, "end", "", "End date YYYY-MM-DD (exclusive)")
	cmd.Flags().StringVar(&flags.interval, "interval", "", "Bar interval: 1d, 5m or 1m")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print tables to stdout instead of writing the spreadsheet")
}

func newRunCmd(flags *runFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, compute and write indicators for every configured symbol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), flags, cmd.OutOrStdout())
		},
	}
	bindRunFlags(cmd, flags)
	return cmd
}

func newComputeCmd(flags *runFlags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute indicators for bars read from a CSV file or stdin",
		Long: `Reads Date,Open,High,Low,Close,Volume CSV and prints the indicator table as CSV.
Example: stocksheet compute --file bars.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open %s: %w", file, err)
				}
				defer f.Close()
				in = f
			}
			return runCompute(flags.configPath, in, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file with bars (default stdin)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stocksheet %s\n", Version)
		},
	}
}
