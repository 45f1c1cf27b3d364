package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ljjun8453/BLEP-Contest/internal/gbm"
	"github.com/ljjun8453/BLEP-Contest/internal/training"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	opts := training.DefaultAnalyzeOptions()
	var dataPath, outPath, rankBy string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Rank every accident attribute by its influence on risk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			by, err := gbm.ParseImportanceType(rankBy)
			if err != nil {
				return err
			}
			opts.RankBy = by

			ds, err := training.LoadCSV(dataPath)
			if err != nil {
				return err
			}
			res, err := training.Analyze(ds, opts, a.logger)
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "MAE: %.4f\n", res.Evaluation.MAE)
			fmt.Fprintf(out, "R2: %.4f\n\n", res.Evaluation.R2)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "rank\tfeature\tgain\tsplits")
			for i, imp := range res.Importance {
				fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.0f\n", i+1, imp.Feature, imp.Gain, imp.Splits)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if outPath == "" {
				return nil
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create predictions file: %w", err)
			}
			if err := res.WritePredictions(f); err != nil {
				_ = f.Close()
				return fmt.Errorf("write predictions: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			a.logger.Info("predictions written", "path", outPath, "rows", len(res.Predictions))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&dataPath, "data", "", "accident dataset CSV (UTF-8 or CP949)")
	f.StringVar(&outPath, "out", "analysis_predictions.csv", "test-set predictions CSV; empty skips writing")
	f.IntVar(&opts.TopN, "top", opts.TopN, "number of features to report")
	f.StringVar(&rankBy, "importance", "split", "rank features by split count or total gain (split|gain)")
	f.Float64Var(&opts.TestFraction, "test-fraction", opts.TestFraction, "held-out fraction")
	f.Uint64Var(&opts.Seed, "seed", opts.Seed, "train/test split seed")
	f.Float64Var(&opts.Params.FeatureFraction, "feature-fraction", opts.Params.FeatureFraction, "features sampled per tree")
	addBoosterFlags(cmd, &opts.Params)
	_ = cmd.MarkFlagRequired("data")
	return cmd
}
