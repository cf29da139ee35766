package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/notargets/gceed/backends"
	"github.com/notargets/gceed/envconfig"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewCLI builds the command tree
func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ceedbench",
		Short:         "Benchmark finite element operators on ceed backends",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: envconfig.LogLevel()})))
		},
	}
	rootCmd.AddCommand(newBackendsCmd(), newRunCmd(), newEnvCmd())
	return rootCmd
}

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List registered backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var data [][]string
			for _, e := range backends.NewRegistry().Entries() {
				data = append(data, []string{e.Prefix, strconv.Itoa(e.Priority)})
			}
			renderTable(cmd.OutOrStdout(), []string{"PREFIX", "PRIORITY"}, data)
			return nil
		},
	}
}

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Show the CEED_* environment variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var data [][]string
			for _, v := range envconfig.AsMap() {
				data = append(data, []string{v.Name, fmt.Sprint(v.Value), v.Description})
			}
			sortRows(data)
			renderTable(cmd.OutOrStdout(), []string{"NAME", "VALUE", "DESCRIPTION"}, data)
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	var cfg benchConfig
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply a mass or Poisson operator and report timing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runBench(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			renderTable(cmd.OutOrStdout(), resultHeader, [][]string{res.row()})
			if !res.Pass {
				return fmt.Errorf("%s check failed: got %.6e, want %.6e", res.Problem, res.Check, res.Want)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&cfg.Resource, "resource", "r", envconfig.Resource(), "backend resource")
	flags.StringVarP(&cfg.Problem, "problem", "p", "mass", "problem: mass or poisson")
	flags.IntVarP(&cfg.Dim, "dim", "d", 3, "box dimension")
	flags.IntVar(&cfg.Order, "order", 2, "polynomial order")
	flags.IntVarP(&cfg.NElem, "nelem", "n", 4, "elements per direction of the box")
	flags.IntVar(&cfg.Iters, "iters", 10, "operator applications to time")
	flags.StringVar(&cfg.Mesh, "mesh", "", "tetrahedral mesh file used instead of the box")
	return cmd
}

func renderTable(w io.Writer, header []string, data [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}
