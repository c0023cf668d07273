package cmd

import (
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	mdwerror "github.com/msto63/laplace/foundation/core/error"
	"github.com/msto63/laplace/internal/service"
)

var (
	showExtrema bool
	tableOrders string
)

var computeCmd = &cobra.Command{
	Use:   "compute K YMIN YMAX",
	Short: "Compute the k-term approximation on [ymin, ymax]",
	Example: `  laplace compute 3 4 8
  laplace compute 8 1 1e4 --extrema -o json`,
	Args: cobra.ExactArgs(3),
	RunE: runCompute,
}

var energiesCmd = &cobra.Command{
	Use:   "energies K EMIN EHOMO ELUMO EMAX",
	Short: "Compute from orbital energies",
	Long: `Compute the approximation for the orbital-energy denominators of a
system with occupied range [EMIN, EHOMO] and virtual range [ELUMO, EMAX]:

  ymin = 2·(ELUMO - EHOMO),  ymax = 2·(EMAX - EMIN)

Negative energies follow "--" so they are not read as flags.`,
	Example: `  laplace energies 6 -- -20.5 -0.35 0.12 4.2`,
	Args:    cobra.ExactArgs(5),
	RunE:    runEnergies,
}

var tableCmd = &cobra.Command{
	Use:     "table YMIN YMAX",
	Short:   "Compute several orders and compare their errors",
	Example: `  laplace table 1 100 --orders 1-8`,
	Args:    cobra.ExactArgs(2),
	RunE:    runTable,
}

func init() {
	rootCmd.AddCommand(computeCmd, energiesCmd, tableCmd)
	computeCmd.Flags().BoolVar(&showExtrema, "extrema", false, "print the alternation points of the error curve")
	energiesCmd.Flags().BoolVar(&showExtrema, "extrema", false, "print the alternation points of the error curve")
	tableCmd.Flags().StringVar(&tableOrders, "orders", "1-8", "orders to compute, e.g. 1-6 or 2,4,8")
}

func runCompute(cmd *cobra.Command, args []string) error {
	k, err := parseOrder(args[0])
	if err != nil {
		return err
	}
	bounds, err := parseNumbers([]string{"ymin", "ymax"}, args[1:])
	if err != nil {
		return err
	}

	svc, closeSvc, err := openService()
	if err != nil {
		return err
	}
	defer closeSvc()

	resp, err := svc.Compute(cmd.Context(), service.Request{
		K: k, Ymin: bounds[0], Ymax: bounds[1], Norm: normFlag, Extrema: showExtrema,
	})
	if err != nil {
		return err
	}
	return render(cmd, resp, func(w io.Writer) { writeResponse(w, resp) })
}

func runEnergies(cmd *cobra.Command, args []string) error {
	k, err := parseOrder(args[0])
	if err != nil {
		return err
	}
	e, err := parseNumbers([]string{"emin", "ehomo", "elumo", "emax"}, args[1:])
	if err != nil {
		return err
	}

	svc, closeSvc, err := openService()
	if err != nil {
		return err
	}
	defer closeSvc()

	resp, err := svc.ComputeFromEnergies(cmd.Context(), service.EnergiesRequest{
		K: k, Emin: e[0], Ehomo: e[1], Elumo: e[2], Emax: e[3], Norm: normFlag, Extrema: showExtrema,
	})
	if err != nil {
		return err
	}
	return render(cmd, resp, func(w io.Writer) { writeResponse(w, resp) })
}

func runTable(cmd *cobra.Command, args []string) error {
	bounds, err := parseNumbers([]string{"ymin", "ymax"}, args)
	if err != nil {
		return err
	}
	orders, err := parseOrders(tableOrders)
	if err != nil {
		return err
	}

	svc, closeSvc, err := openService()
	if err != nil {
		return err
	}
	defer closeSvc()

	resp, err := svc.Table(cmd.Context(), service.TableRequest{
		Ymin: bounds[0], Ymax: bounds[1], Norm: normFlag, Orders: orders,
	})
	if err != nil {
		return err
	}
	return render(cmd, resp, func(w io.Writer) { writeTable(w, resp) })
}

func badArg(name, value string) *mdwerror.Error {
	return mdwerror.Newf("invalid %s %q", name, value).
		WithCode(mdwerror.CodeInvalidInput).
		WithDetail("argument", name)
}

func parseOrder(s string) (int, error) {
	k, err := strconv.Atoi(s)
	if err != nil {
		return 0, badArg("order", s)
	}
	return k, nil
}

func parseNumbers(names, args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		x, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, badArg(names[i], a)
		}
		out[i] = x
	}
	return out, nil
}

// parseOrders accepts comma separated orders and inclusive ranges like 2-5
func parseOrders(s string) ([]int, error) {
	var orders []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			a, err1 := strconv.Atoi(lo)
			b, err2 := strconv.Atoi(hi)
			if err1 != nil || err2 != nil || a > b {
				return nil, badArg("orders", s)
			}
			for k := a; k <= b; k++ {
				orders = append(orders, k)
			}
			continue
		}
		k, err := strconv.Atoi(part)
		if err != nil {
			return nil, badArg("orders", s)
		}
		orders = append(orders, k)
	}
	return orders, nil
}
