package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/msto63/laplace/internal/server"
	"github.com/msto63/laplace/internal/service"
	"github.com/msto63/laplace/pkg/core/logging"
)

var (
	remoteAddr    string
	remoteTimeout time.Duration
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Call a running laplace server",
	Long: `Send requests to a laplace gRPC server. With -o json the reply message
is printed as it arrives on the wire.`,
}

var remoteComputeCmd = &cobra.Command{
	Use:   "compute K YMIN YMAX",
	Short: "Compute on the server",
	Args:  cobra.ExactArgs(3),
	RunE:  runRemoteCompute,
}

var remoteEnergiesCmd = &cobra.Command{
	Use:   "energies K EMIN EHOMO ELUMO EMAX",
	Short: "Compute from orbital energies on the server",
	Args:  cobra.ExactArgs(5),
	RunE:  runRemoteEnergies,
}

var remoteHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show the server health report",
	Args:  cobra.NoArgs,
	RunE:  runRemoteHealth,
}

func init() {
	rootCmd.AddCommand(remoteCmd)
	remoteCmd.AddCommand(remoteComputeCmd, remoteEnergiesCmd, remoteHealthCmd)
	remoteCmd.PersistentFlags().StringVar(&remoteAddr, "addr", "localhost:9310", "server address")
	remoteCmd.PersistentFlags().DurationVar(&remoteTimeout, "timeout", 2*time.Minute, "call timeout")
	remoteComputeCmd.Flags().BoolVar(&showExtrema, "extrema", false, "request the alternation points")
	remoteEnergiesCmd.Flags().BoolVar(&showExtrema, "extrema", false, "request the alternation points")
}

func dialRemote(cmd *cobra.Command) (*server.Client, context.Context, context.CancelFunc, error) {
	client, err := server.Dial(remoteAddr, logging.New("laplace-client"))
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), remoteTimeout)
	return client, ctx, func() {
		cancel()
		client.Close()
	}, nil
}

func runRemoteCompute(cmd *cobra.Command, args []string) error {
	k, err := parseOrder(args[0])
	if err != nil {
		return err
	}
	bounds, err := parseNumbers([]string{"ymin", "ymax"}, args[1:])
	if err != nil {
		return err
	}
	client, ctx, done, err := dialRemote(cmd)
	if err != nil {
		return err
	}
	defer done()

	req := service.Request{K: k, Ymin: bounds[0], Ymax: bounds[1], Norm: normFlag, Extrema: showExtrema}
	if outputFormat == "json" {
		out, err := client.ComputeStruct(ctx, req)
		if err != nil {
			return err
		}
		return writeWire(cmd.OutOrStdout(), out)
	}
	resp, err := client.Compute(ctx, req)
	if err != nil {
		return err
	}
	return render(cmd, resp, func(w io.Writer) { writeResponse(w, resp) })
}

func runRemoteEnergies(cmd *cobra.Command, args []string) error {
	k, err := parseOrder(args[0])
	if err != nil {
		return err
	}
	e, err := parseNumbers([]string{"emin", "ehomo", "elumo", "emax"}, args[1:])
	if err != nil {
		return err
	}
	client, ctx, done, err := dialRemote(cmd)
	if err != nil {
		return err
	}
	defer done()

	req := service.EnergiesRequest{K: k, Emin: e[0], Ehomo: e[1], Elumo: e[2], Emax: e[3], Norm: normFlag, Extrema: showExtrema}
	if outputFormat == "json" {
		out, err := client.ComputeFromEnergiesStruct(ctx, req)
		if err != nil {
			return err
		}
		return writeWire(cmd.OutOrStdout(), out)
	}
	resp, err := client.ComputeFromEnergies(ctx, req)
	if err != nil {
		return err
	}
	return render(cmd, resp, func(w io.Writer) { writeResponse(w, resp) })
}

func runRemoteHealth(cmd *cobra.Command, _ []string) error {
	client, ctx, done, err := dialRemote(cmd)
	if err != nil {
		return err
	}
	defer done()

	report, err := client.Health(ctx)
	if err != nil {
		return err
	}
	return render(cmd, report, func(w io.Writer) {
		style := okStyle
		if !report.Healthy() {
			style = errorStyle
		}
		fmt.Fprintln(w, titleStyle.Render(report.Service+" "+report.Version)+"  "+style.Render(string(report.Status)))
		rows := make([][]string, len(report.Checks))
		for i, c := range report.Checks {
			rows[i] = []string{c.Name, string(c.Status), c.Message, c.Duration.Round(time.Microsecond).String()}
		}
		fmt.Fprintln(w, renderTable([]string{"check", "status", "message", "time"}, rows))
		fmt.Fprintln(w, statusLine("uptime", report.Uptime.Round(time.Second).String()))
	})
}

func writeWire(w io.Writer, msg *structpb.Struct) error {
	b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
