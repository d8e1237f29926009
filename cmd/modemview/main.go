// Command modemview is a terminal client for the bad modems dashboard
// server. It shows the latest analysis of a city, uploads new reports and
// writes the dashboard charts as PNG files.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/arty021/bad-modems/internal/report"
	"github.com/arty021/bad-modems/internal/view"
)

const (
	defaultServer    = "http://localhost:8869"
	defaultChartsDir = "./charts"
)

type options struct {
	server    string
	chartsDir string
	verbose   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "modemview",
		Short:         "Terminal client for the bad modems dashboard",
		Long:          "Shows the latest modem analysis of a city, uploads modem reports for analysis and writes the dashboard charts as PNG files.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.server, "server", defaultServer, "Dashboard server URL")
	root.PersistentFlags().StringVar(&opts.chartsDir, "charts-dir", defaultChartsDir, "Directory the chart PNG files are written to")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log requests and chart rendering")

	root.AddCommand(newLatestCmd(opts), newUploadCmd(opts), newCitiesCmd(opts))
	return root
}

func newLatestCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "latest [city]",
		Short: "Show the latest analysis of a city",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			city := report.DefaultCity
			if len(args) == 1 {
				var err error
				if city, err = report.ParseCity(args[0]); err != nil {
					return err
				}
			}
			s, err := opts.session(cmd.OutOrStdout(), city)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.ctrl.SwitchCity(cmd.Context(), city); err != nil {
				return err
			}
			s.surface.printCharts(s.ctrl.State())
			return nil
		},
	}
}

func newUploadCmd(opts *options) *cobra.Command {
	var cityName string
	cmd := &cobra.Command{
		Use:   "upload <file.csv>",
		Short: "Upload a modem report for analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			city, err := report.ParseCity(cityName)
			if err != nil {
				return err
			}
			s, err := opts.session(cmd.OutOrStdout(), city)
			if err != nil {
				return err
			}
			defer s.close()

			s.surface.SetActiveCity(city)
			if err := s.ctrl.SelectFile(cmd.Context(), view.LocalFile(args[0])); err != nil {
				return err
			}
			st := s.ctrl.State()
			if st.Panel == view.PanelError {
				return errors.New(st.Message)
			}
			s.surface.printCharts(st)
			return nil
		},
	}
	cmd.Flags().StringVar(&cityName, "city", string(report.DefaultCity), "City the report belongs to")
	return cmd
}

func newCitiesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cities",
		Short: "List the cities the server accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session(cmd.OutOrStdout(), report.DefaultCity)
			if err != nil {
				return err
			}
			defer s.close()

			cities, err := s.backend.Cities(cmd.Context())
			if err != nil {
				return err
			}
			s.surface.printCities(cities)
			return nil
		},
	}
}

// session wires a controller to the server, the terminal and the chart
// directory.
type session struct {
	log     *zap.Logger
	backend *view.HTTPClient
	surface *terminalSurface
	charts  *pngRenderer
	ctrl    *view.Controller
}

// session starts a session with city as the active city.
func (o *options) session(out io.Writer, city report.City) (*session, error) {
	log, err := newLogger(o.verbose)
	if err != nil {
		return nil, err
	}
	s := &session{
		log:     log,
		backend: view.NewHTTPClient(o.server, nil),
		surface: newTerminalSurface(out),
		charts:  newPNGRenderer(o.chartsDir),
	}
	s.ctrl = view.New(view.Config{
		Backend: s.backend,
		Surface: s.surface,
		Charts:  s.charts,
		Logger:  log,
		City:    city,
	})
	return s, nil
}

func (s *session) close() {
	_ = s.log.Sync()
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
