package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/msto63/laplace/internal/service"
)

// render writes v in the --output format
func render(cmd *cobra.Command, v interface{}, text func(w io.Writer)) error {
	return encode(cmd.OutOrStdout(), outputFormat, v, text)
}

// encode writes v as JSON or YAML, or calls text for the text format
func encode(w io.Writer, format string, v interface{}, text func(w io.Writer)) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		text(w)
		return nil
	}
}

func num(x float64) string {
	return strconv.FormatFloat(x, 'g', 17, 64)
}

func short(x float64) string {
	return strconv.FormatFloat(x, 'e', 6, 64)
}

func writeResponse(w io.Writer, r *service.Response) {
	title := fmt.Sprintf("k = %d   [%s, %s]   R = %s   %s norm", r.K, num(r.Ymin), num(r.Ymax), num(r.Ratio), r.Norm)
	fmt.Fprintln(w, titleStyle.Render(title))

	rows := make([][]string, r.K)
	for i := range r.Weights {
		rows[i] = []string{strconv.Itoa(i + 1), num(r.Weights[i]), num(r.Exponents[i])}
	}
	fmt.Fprintln(w, renderTable([]string{"i", "weight ω", "exponent α"}, rows))

	fmt.Fprintln(w, statusLine(
		"max error", short(r.MaxError),
		"iterations", strconv.Itoa(r.Iterations),
		"time", r.Duration.Round(time.Millisecond).String(),
	))

	if r.Extrema != nil {
		rows := make([][]string, len(r.Extrema))
		for i, e := range r.Extrema {
			rows[i] = []string{strconv.Itoa(i), num(e.X), short(e.Error)}
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, subtitleStyle.Render("alternation points"))
		fmt.Fprintln(w, renderTable([]string{"j", "x", "error"}, rows))
		if r.Alternates {
			fmt.Fprintln(w, okStyle.Render("equioscillates"))
		} else {
			fmt.Fprintln(w, errorStyle.Render("does not equioscillate"))
		}
	}
}

func writeTable(w io.Writer, t *service.TableResponse) {
	rows := make([][]string, len(t.Entries))
	for i, e := range t.Entries {
		if e.Response == nil {
			rows[i] = []string{strconv.Itoa(e.K), "", "", errorStyle.Render(e.Error)}
			continue
		}
		rows[i] = []string{strconv.Itoa(e.K), short(e.Response.MaxError), strconv.Itoa(e.Response.Iterations), okStyle.Render("ok")}
	}
	fmt.Fprintln(w, renderTable([]string{"k", "max error", "iterations", "status"}, rows))
	fmt.Fprintln(w, statusLine("time", t.Duration.Round(time.Millisecond).String()))
}
