// Command riskctl trains the accident risk model offline and inspects
// trained artifacts.
//
// Usage:
//
//	riskctl train   --data data/accidents.csv
//	riskctl analyze --data data/accidents.csv --out predictions.csv
//	riskctl predict --location "대구광역시 중구 동인동" --weather-label Rain --temp 3
//	riskctl geocode --meta model/risk_metadata.json --out data/daegu_coords.json
package main

import (
	"log/slog"
	"os"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/spf13/cobra"
)

// app carries state shared by all subcommands.
type app struct {
	logLevel  string
	logFormat string
	logger    *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "riskctl",
		Short:         "Train and inspect the traffic accident risk model",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			a.logger = sharedobs.NewLogger(a.logLevel, a.logFormat)
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(newTrainCmd(a), newAnalyzeCmd(a), newPredictCmd(a), newGeocodeCmd(a))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("riskctl failed", "error", err)
		os.Exit(1)
	}
}
