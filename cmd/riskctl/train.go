package main

import (
	"fmt"

	"github.com/ljjun8453/BLEP-Contest/internal/artifact"
	"github.com/ljjun8453/BLEP-Contest/internal/gbm"
	"github.com/ljjun8453/BLEP-Contest/internal/training"
	"github.com/spf13/cobra"
)

// addBoosterFlags binds the commonly tuned booster parameters to cmd.
func addBoosterFlags(cmd *cobra.Command, p *gbm.Params) {
	f := cmd.Flags()
	f.IntVar(&p.NumTrees, "trees", p.NumTrees, "number of boosting rounds")
	f.Float64Var(&p.LearningRate, "learning-rate", p.LearningRate, "shrinkage applied to each tree")
	f.IntVar(&p.NumLeaves, "num-leaves", p.NumLeaves, "maximum leaves per tree")
	f.IntVar(&p.MinDataInLeaf, "min-data-in-leaf", p.MinDataInLeaf, "minimum rows per leaf")
	f.Uint64Var(&p.Seed, "booster-seed", p.Seed, "feature sampling seed")
}

func newTrainCmd(a *app) *cobra.Command {
	opts := training.DefaultOptions()
	var dataPath, modelOut, metaOut string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the risk model and write the model and metadata artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := training.LoadCSV(dataPath)
			if err != nil {
				return err
			}
			res, err := training.Train(ds, opts, a.logger)
			if err != nil {
				return fmt.Errorf("train: %w", err)
			}
			if err := artifact.SaveBundle(modelOut, metaOut, res.Model, res.Metadata); err != nil {
				return err
			}
			a.logger.Info("artifacts written", "model", modelOut, "metadata", metaOut)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rows: %d (dropped %d, train %d, test %d)\n",
				res.Rows, res.Dropped, res.TrainRows, res.Evaluation.TestRows)
			fmt.Fprintf(out, "trees: %d\n", res.Model.NumTrees())
			fmt.Fprintf(out, "MAE: %.4f\n", res.Evaluation.MAE)
			fmt.Fprintf(out, "R2: %.4f\n", res.Evaluation.R2)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&dataPath, "data", "", "accident dataset CSV (UTF-8 or CP949)")
	f.StringVar(&modelOut, "model-out", "model/risk_model.bin", "model artifact output path")
	f.StringVar(&metaOut, "meta-out", "model/risk_metadata.json", "metadata output path")
	f.Float64Var(&opts.TestFraction, "test-fraction", opts.TestFraction, "held-out fraction")
	f.Uint64Var(&opts.Seed, "seed", opts.Seed, "train/test split seed")
	addBoosterFlags(cmd, &opts.Params)
	_ = cmd.MarkFlagRequired("data")
	return cmd
}
