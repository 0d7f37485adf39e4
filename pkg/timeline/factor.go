package timeline

import (
	"github.com/tokenflow/tokenflow/internal/model"
	"github.com/tokenflow/tokenflow/pkg/config"
	"github.com/tokenflow/tokenflow/pkg/errors"
)

// Epsilon is the minimum positive duration on the animation clock. The
// downstream animation player rejects zero-duration and simultaneous-start
// segments, so every dwell is at least this long and tied starts are pushed
// exactly this far apart. Renderer tolerance changes are a one-line
// adjustment here.
const Epsilon = 1e-5

// ComputeFactor derives the time-compression factor (real seconds per
// animation second) for the given mode and target duration.
//
// In absolute mode every case shares one global clock, so the factor is
// log_duration / animation_duration. In relative mode every case is
// normalized to start at its own zero, so the factor is the maximum case
// duration / animation_duration.
//
// A zero numerator (single instantaneous case or log) would make the factor
// undefined; it is reported as a degenerate-input error instead of being
// left to float division.
func ComputeFactor(mode string, animationDuration float64, cases []model.CaseBounds, log model.LogBounds) (float64, error) {
	if animationDuration <= 0 {
		return 0, errors.NonPositiveDuration(animationDuration)
	}

	switch mode {
	case config.ModeAbsolute:
		if log.Duration <= 0 {
			return 0, errors.ZeroLogDuration()
		}
		return log.Duration / animationDuration, nil

	case config.ModeRelative:
		maxCase := 0.0
		for i := range cases {
			if cases[i].Duration > maxCase {
				maxCase = cases[i].Duration
			}
		}
		if maxCase <= 0 {
			return 0, errors.ZeroCaseDuration()
		}
		return maxCase / animationDuration, nil

	default:
		return 0, errors.UnknownAnimationMode(mode)
	}
}
