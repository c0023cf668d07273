package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	mdwerror "github.com/msto63/laplace/foundation/core/error"
	"github.com/msto63/laplace/internal/store"
	"github.com/msto63/laplace/pkg/minimax"
)

var (
	seedOrder  int
	seedLimit  int
	exportFile string
	pruneAll   bool
)

var seedsCmd = &cobra.Command{
	Use:   "seeds",
	Short: "Inspect the seed database",
	Long: `Converged solutions are stored per order, norm and interval ratio and
serve as starting points for later computations. The database lives at
store.path in the configuration.`,
}

var seedsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored seeds",
	Args:  cobra.NoArgs,
	RunE:  runSeedsList,
}

var seedsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored seeds as YAML (or JSON with -o json)",
	Args:  cobra.NoArgs,
	RunE:  runSeedsExport,
}

var seedsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete stored seeds",
	Example: `  laplace seeds prune --k 7
  laplace seeds prune --all`,
	Args: cobra.NoArgs,
	RunE: runSeedsPrune,
}

func init() {
	rootCmd.AddCommand(seedsCmd)
	seedsCmd.AddCommand(seedsListCmd, seedsExportCmd, seedsPruneCmd)

	seedsCmd.PersistentFlags().IntVar(&seedOrder, "k", 0, "only seeds of this order")
	seedsListCmd.Flags().IntVar(&seedLimit, "limit", 0, "maximum number of seeds")
	seedsExportCmd.Flags().StringVarP(&exportFile, "file", "f", "", "write to file instead of stdout")
	seedsPruneCmd.Flags().BoolVar(&pruneAll, "all", false, "delete every seed matching the filters")
}

func seedStore() (*store.SQLiteSeedStore, error) {
	if noStore || !appConfig.Store.Enabled {
		return nil, mdwerror.New("seed store is disabled").
			WithCode(mdwerror.CodeServiceUnavailable)
	}
	return openStore()
}

func seedFilter() (store.Filter, error) {
	f := store.Filter{K: seedOrder, Limit: seedLimit}
	if normFlag != "" {
		n, err := minimax.ParseNorm(normFlag)
		if err != nil {
			return f, err
		}
		f.Norm = &n
	}
	return f, nil
}

func runSeedsList(cmd *cobra.Command, _ []string) error {
	s, err := seedStore()
	if err != nil {
		return err
	}
	defer s.Close()

	f, err := seedFilter()
	if err != nil {
		return err
	}
	records, err := s.List(cmd.Context(), f)
	if err != nil {
		return err
	}
	if records == nil {
		records = []*store.Record{}
	}
	return render(cmd, records, func(w io.Writer) { writeSeeds(w, records) })
}

func runSeedsExport(cmd *cobra.Command, _ []string) error {
	s, err := seedStore()
	if err != nil {
		return err
	}
	defer s.Close()

	f, err := seedFilter()
	if err != nil {
		return err
	}
	f.Limit = 0
	records, err := s.List(cmd.Context(), f)
	if err != nil {
		return err
	}
	if records == nil {
		records = []*store.Record{}
	}

	format := outputFormat
	if format == "text" {
		format = "yaml"
	}
	if exportFile == "" {
		return encode(cmd.OutOrStdout(), format, records, nil)
	}

	file, err := os.Create(exportFile)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := encode(file, format, records, nil); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "exported %d seeds to %s\n", len(records), exportFile)
	return nil
}

func runSeedsPrune(cmd *cobra.Command, _ []string) error {
	if seedOrder == 0 && normFlag == "" && !pruneAll {
		return mdwerror.New("refusing to delete every seed without --all").
			WithCode(mdwerror.CodeInvalidInput)
	}
	s, err := seedStore()
	if err != nil {
		return err
	}
	defer s.Close()

	f, err := seedFilter()
	if err != nil {
		return err
	}
	n, err := s.Prune(cmd.Context(), f)
	if err != nil {
		return err
	}
	result := map[string]int64{"removed": n}
	return render(cmd, result, func(w io.Writer) {
		fmt.Fprintln(w, statusLine("removed", strconv.FormatInt(n, 10)))
	})
}

func writeSeeds(w io.Writer, records []*store.Record) {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.ID[:8],
			strconv.Itoa(r.K),
			r.Norm.String(),
			num(r.Ratio),
			short(r.Error),
			r.CreatedAt.Local().Format(time.DateTime),
		}
	}
	fmt.Fprintln(w, renderTable([]string{"id", "k", "norm", "ratio", "error", "stored"}, rows))
	fmt.Fprintln(w, statusLine("seeds", strconv.Itoa(len(records))))
}
