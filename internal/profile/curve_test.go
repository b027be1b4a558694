package profile

import (
	"testing"

	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/stretchr/testify/assert"
)

var allProfiles = []model.SpenderProfile{
	model.ProfileFrontLoader,
	model.ProfileBackLoader,
	model.ProfilePaydaySpiker,
	model.ProfileSteady,
	model.ProfileVariable,
}

func TestCurve_Normalized(t *testing.T) {
	for _, profile := range allProfiles {
		t.Run(string(profile), func(t *testing.T) {
			curve := CurveFor(profile, DefaultPaydays)
			assert.InDelta(t, float64(DaysInCurve), curve.Sum(), 1e-6)
			for day := 1; day <= DaysInCurve; day++ {
				assert.Positive(t, curve.Weight(day))
			}
		})
	}
}

func TestCurve_Shapes(t *testing.T) {
	t.Run("front loader decays", func(t *testing.T) {
		curve := CurveFor(model.ProfileFrontLoader, DefaultPaydays)
		for day := 2; day <= DaysInCurve; day++ {
			assert.Less(t, curve.Weight(day), curve.Weight(day-1))
		}
	})

	t.Run("back loader mirrors front loader", func(t *testing.T) {
		front := CurveFor(model.ProfileFrontLoader, DefaultPaydays)
		back := CurveFor(model.ProfileBackLoader, DefaultPaydays)
		for day := 1; day <= DaysInCurve; day++ {
			assert.InDelta(t, front.Weight(day), back.Weight(DaysInCurve+1-day), 1e-12)
		}
	})

	t.Run("payday peaks and shoulders", func(t *testing.T) {
		curve := CurveFor(model.ProfilePaydaySpiker, DefaultPaydays)
		peak := curve.Weight(1)
		assert.InDelta(t, peak, curve.Weight(15), 1e-12)
		assert.InDelta(t, peak/2, curve.Weight(3), 1e-12)
		assert.InDelta(t, peak/2, curve.Weight(13), 1e-12)
		assert.InDelta(t, peak/2, curve.Weight(17), 1e-12)
		assert.InDelta(t, peak*0.8/3, curve.Weight(8), 1e-12)
		assert.InDelta(t, peak*0.8/3, curve.Weight(31), 1e-12)
	})

	t.Run("flat profiles", func(t *testing.T) {
		for _, profile := range []model.SpenderProfile{model.ProfileSteady, model.ProfileVariable} {
			curve := CurveFor(profile, DefaultPaydays)
			for day := 1; day <= DaysInCurve; day++ {
				assert.InDelta(t, 1.0, curve.Weight(day), 1e-12)
			}
		}
	})
}

func TestCurve_WeightClamps(t *testing.T) {
	curve := CurveFor(model.ProfileFrontLoader, DefaultPaydays)
	assert.Equal(t, curve.Weight(1), curve.Weight(0))
	assert.Equal(t, curve.Weight(1), curve.Weight(-5))
	assert.Equal(t, curve.Weight(31), curve.Weight(32))
	assert.Equal(t, curve.Weight(31), curve.Weight(400))
}
