package gbm

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Params controls booster training. Field names follow the usual
// gradient-boosting vocabulary so persisted models stay readable.
type Params struct {
	NumTrees        int     `json:"num_trees" validate:"gte=1"`
	LearningRate    float64 `json:"learning_rate" validate:"gt=0,lte=1"`
	NumLeaves       int     `json:"num_leaves" validate:"gte=2"`
	MaxDepth        int     `json:"max_depth" validate:"gte=-1"` // <= 0 means unlimited
	MinDataInLeaf   int     `json:"min_data_in_leaf" validate:"gte=1"`
	MinSumHessian   float64 `json:"min_sum_hessian_in_leaf" validate:"gte=0"`
	MinGainToSplit  float64 `json:"min_gain_to_split" validate:"gte=0"`
	Lambda          float64 `json:"lambda_l2" validate:"gte=0"`
	MaxBins         int     `json:"max_bin" validate:"gte=2,lte=65534"`
	FeatureFraction float64 `json:"feature_fraction" validate:"gt=0,lte=1"`

	// Categorical split controls.
	CatSmooth       float64 `json:"cat_smooth" validate:"gte=0"`
	CatL2           float64 `json:"cat_l2" validate:"gte=0"`
	MaxCatThreshold int     `json:"max_cat_threshold" validate:"gte=1"`
	MaxCatToOneHot  int     `json:"max_cat_to_onehot" validate:"gte=1"`
	MinDataPerGroup int     `json:"min_data_per_group" validate:"gte=1"`

	Seed uint64 `json:"seed"`
}

// DefaultParams returns the parameters the risk model is trained with.
func DefaultParams() Params {
	return Params{
		NumTrees:        700,
		LearningRate:    0.05,
		NumLeaves:       31,
		MaxDepth:        -1,
		MinDataInLeaf:   20,
		MinSumHessian:   1e-3,
		MinGainToSplit:  0,
		Lambda:          0,
		MaxBins:         255,
		FeatureFraction: 1.0,
		CatSmooth:       10,
		CatL2:           10,
		MaxCatThreshold: 32,
		MaxCatToOneHot:  4,
		MinDataPerGroup: 100,
		Seed:            42,
	}
}

var paramsValidator = validator.New()

// Validate checks parameter ranges.
func (p Params) Validate() error {
	if err := paramsValidator.Struct(p); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return nil
}
