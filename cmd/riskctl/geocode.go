package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ljjun8453/BLEP-Contest/internal/adapter/kakao"
	"github.com/ljjun8453/BLEP-Contest/internal/artifact"
	"github.com/ljjun8453/BLEP-Contest/internal/domain"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

func newGeocodeCmd(a *app) *cobra.Command {
	var metaPath, outPath, restKey, baseURL string
	var timeout time.Duration
	var qps float64

	cmd := &cobra.Command{
		Use:   "geocode",
		Short: "Build the location registry from the trained location vocabulary",
		Long: `Resolves every location the model was trained on through the Kakao Local
address search and writes the registry the server predicts for. Addresses
that cannot be resolved are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if restKey == "" {
				restKey = os.Getenv("KAKAO_REST_KEY")
			}
			if restKey == "" {
				return errors.New("--kakao-key or KAKAO_REST_KEY is required")
			}
			meta, err := artifact.LoadMetadata(metaPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			geocoder := kakao.NewClient(restKey, baseURL, timeout, a.logger)
			limit := rate.Inf
			if qps > 0 {
				limit = rate.Limit(qps)
			}
			limiter := rate.NewLimiter(limit, 1)

			addresses := meta.Categories[domain.ColumnLocation]
			locs := make([]domain.Location, 0, len(addresses))
			var skipped int
			for _, addr := range addresses {
				if err := limiter.Wait(ctx); err != nil {
					return err
				}
				res, err := geocoder.ForwardGeocode(ctx, addr)
				if err != nil || !res.Found() {
					a.logger.Warn("address not resolved, skipping", "address", addr, "error", err)
					skipped++
					continue
				}
				// The registry keeps the training address so it matches the model vocabulary.
				locs = append(locs, domain.Location{X: res.Lon, Y: res.Lat, Address: addr})
			}
			if len(locs) == 0 {
				return fmt.Errorf("none of %d addresses could be resolved", len(addresses))
			}
			if err := artifact.SaveLocations(outPath, locs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "locations: %d (skipped %d)\n", len(locs), skipped)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&metaPath, "meta", "model/risk_metadata.json", "metadata path")
	f.StringVar(&outPath, "out", "data/daegu_coords.json", "registry output path")
	f.StringVar(&restKey, "kakao-key", "", "Kakao REST API key (default $KAKAO_REST_KEY)")
	f.StringVar(&baseURL, "kakao-url", kakao.DefaultBaseURL, "Kakao Local address search endpoint")
	f.DurationVar(&timeout, "timeout", 5*time.Second, "per-request timeout")
	f.Float64Var(&qps, "qps", 10, "maximum requests per second (0 for no limit)")
	return cmd
}
