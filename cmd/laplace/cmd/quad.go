package cmd

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	mdwerror "github.com/msto63/laplace/foundation/core/error"
	"github.com/msto63/laplace/pkg/quad"
)

var quadCmd = &cobra.Command{
	Use:   "quad",
	Short: "Inspect extended-precision values",
}

var quadParseCmd = &cobra.Command{
	Use:     "parse LITERAL...",
	Short:   "Parse decimal literals and print their rounded value",
	Example: `  laplace quad parse 0.1 1e-4000 -- -2.5e+1`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runQuadParse,
}

var quadEvalCmd = &cobra.Command{
	Use:   "eval FUNC X [Y]",
	Short: "Evaluate an elementary function",
	Long: "Evaluate an elementary function at extended precision.\n\nFunctions: " +
		strings.Join(funcNames(), ", "),
	Example: `  laplace quad eval exp 1
  laplace quad eval pow 2 0.5`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runQuadEval,
}

func init() {
	rootCmd.AddCommand(quadCmd)
	quadCmd.AddCommand(quadParseCmd, quadEvalCmd)
}

// quadValue describes one value in every representation
type quadValue struct {
	Input   string `json:"input" yaml:"input"`
	Value   string `json:"value" yaml:"value"`
	Exact   string `json:"exact" yaml:"exact"`
	Float64 string `json:"float64" yaml:"float64"`
}

func describe(input string, x quad.Float) quadValue {
	return quadValue{
		Input:   input,
		Value:   x.String(),
		Exact:   x.Exact(),
		Float64: strconv.FormatFloat(x.Float64(), 'g', -1, 64),
	}
}

var unary = map[string]func(quad.Float) quad.Float{
	"abs":   quad.Float.Abs,
	"sqrt":  quad.Float.Sqrt,
	"exp":   quad.Exp,
	"expm1": quad.Expm1,
	"exp2":  quad.Exp2,
	"log":   quad.Log,
	"log1p": quad.Log1p,
	"log2":  quad.Log2,
	"log10": quad.Log10,
	"sin":   quad.Sin,
	"cos":   quad.Cos,
	"tan":   quad.Tan,
	"asin":  quad.Asin,
	"acos":  quad.Acos,
	"atan":  quad.Atan,
	"sinh":  quad.Sinh,
	"cosh":  quad.Cosh,
	"tanh":  quad.Tanh,
	"asinh": quad.Asinh,
	"acosh": quad.Acosh,
	"atanh": quad.Atanh,
	"erf":   quad.Erf,
	"erfc":  quad.Erfc,
}

var binary = map[string]func(quad.Float, quad.Float) quad.Float{
	"pow":   quad.Pow,
	"hypot": quad.Hypot,
	"atan2": quad.Atan2,
}

func funcNames() []string {
	names := make([]string, 0, len(unary)+len(binary))
	for name := range unary {
		names = append(names, name)
	}
	for name := range binary {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func runQuadParse(cmd *cobra.Command, args []string) error {
	values := make([]quadValue, len(args))
	for i, a := range args {
		x, err := quad.Parse(a)
		if err != nil {
			return err
		}
		values[i] = describe(a, x)
	}
	return render(cmd, values, func(w io.Writer) { writeQuadValues(w, values) })
}

func runQuadEval(cmd *cobra.Command, args []string) error {
	name := strings.ToLower(args[0])
	xs := make([]quad.Float, len(args)-1)
	for i, a := range args[1:] {
		x, err := quad.Parse(a)
		if err != nil {
			return err
		}
		xs[i] = x
	}

	var y quad.Float
	if f, ok := unary[name]; ok && len(xs) == 1 {
		y = f(xs[0])
	} else if g, ok := binary[name]; ok && len(xs) == 2 {
		y = g(xs[0], xs[1])
	} else {
		return mdwerror.Newf("unknown function %s/%d", name, len(xs)).
			WithCode(mdwerror.CodeInvalidInput).
			WithDetail("functions", strings.Join(funcNames(), ","))
	}

	v := describe(fmt.Sprintf("%s(%s)", name, strings.Join(args[1:], ", ")), y)
	return render(cmd, v, func(w io.Writer) { writeQuadValues(w, []quadValue{v}) })
}

func writeQuadValues(w io.Writer, values []quadValue) {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{v.Input, v.Value, v.Exact, v.Float64}
	}
	fmt.Fprintln(w, renderTable([]string{"input", "value", "exact", "float64"}, rows))
}
