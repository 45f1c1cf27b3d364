package main

import (
	"fmt"

	"github.com/ljjun8453/BLEP-Contest/internal/artifact"
	"github.com/ljjun8453/BLEP-Contest/internal/domain"
	"github.com/ljjun8453/BLEP-Contest/internal/inference"
	"github.com/spf13/cobra"
)

func newPredictCmd(a *app) *cobra.Command {
	var modelPath, metaPath, location, label string
	var tempC float64

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score one location under a given OpenWeather condition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			model, err := artifact.LoadModel(modelPath)
			if err != nil {
				return err
			}
			meta, err := artifact.LoadMetadata(metaPath)
			if err != nil {
				return err
			}
			p, err := inference.NewPredictor(model, meta)
			if err != nil {
				return err
			}

			loc := domain.Location{Address: location}
			weather, surface := p.Normalize(label, tempC)
			risk, err := p.Score(loc.ModelKey(), weather, surface)
			if err != nil {
				return err
			}
			a.logger.Debug("scored", "location", loc.ModelKey(), "weather", weather, "surface", surface)

			risk = domain.Round5(risk)
			score := domain.RiskScore(risk)
			priority := domain.DerivePriority(score)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "location: %s (%s)\n", loc.DisplayLabel(), loc.District())
			fmt.Fprintf(out, "weather: %s\n", weather)
			fmt.Fprintf(out, "surface: %s\n", surface)
			fmt.Fprintf(out, "expect_risk: %.5f\n", risk)
			fmt.Fprintf(out, "score: %d (%s)\n", score, priority)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&modelPath, "model", "model/risk_model.bin", "model artifact path")
	f.StringVar(&metaPath, "meta", "model/risk_metadata.json", "metadata path")
	f.StringVar(&location, "location", "", "full registry address, e.g. \"대구광역시 중구 동인동\"")
	f.StringVar(&label, "weather-label", "Clouds", "OpenWeather main label (Clear, Rain, Mist, ...)")
	f.Float64Var(&tempC, "temp", domain.DefaultTemperatureC, "temperature in °C")
	_ = cmd.MarkFlagRequired("location")
	return cmd
}
