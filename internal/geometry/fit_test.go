package geometry

import (
	"math"
	"testing"

	"github.com/piwi3910/TruckLoad/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestFits_DirectOrientation(t *testing.T) {
	pallet := model.Size{Length: 1200, Width: 800, Height: 1500}
	assert.True(t, Fits(model.Size{Length: 400, Width: 300, Height: 200}, pallet))
	assert.True(t, Fits(pallet, pallet), "exact fit counts")
}

func TestFits_RotatedOrientation(t *testing.T) {
	pallet := model.Size{Length: 1200, Width: 800, Height: 1500}
	assert.True(t, Fits(model.Size{Length: 700, Width: 1100, Height: 100}, pallet), "fits when turned 90°")
	assert.False(t, Fits(model.Size{Length: 1300, Width: 700, Height: 100}, pallet))
}

func TestFits_HeightNeverRotates(t *testing.T) {
	pallet := model.Size{Length: 1200, Width: 800, Height: 1500}
	assert.False(t, Fits(model.Size{Length: 100, Width: 100, Height: 1501}, pallet))
}

func TestFits_MalformedDimensionsAreZero(t *testing.T) {
	pallet := model.Size{Length: 1200, Width: 800, Height: 1500}
	assert.True(t, Fits(model.Size{Length: math.NaN(), Width: -3, Height: math.Inf(1)}, pallet))
	assert.False(t, Fits(model.Size{Length: 10, Width: 10, Height: 10}, model.Size{Length: math.NaN(), Width: 800, Height: 1500}))
}

func TestMaxCount_PalletScenario(t *testing.T) {
	pallet := model.Size{Length: 1200, Width: 800, Height: 1500}
	item := model.Size{Length: 400, Width: 300, Height: 200}

	assert.Equal(t, 1_440_000_000.0, pallet.Volume())
	assert.Equal(t, 24_000_000.0, item.Volume())
	assert.Equal(t, 60, MaxCount(item, pallet, 0, 100), "floor(1.44e9 / 2.4e7)")
	assert.Equal(t, 50, MaxCount(item, pallet, 0, 50), "clamped to the requested count")
}

func TestMaxCount_ZeroWhenItDoesNotFit(t *testing.T) {
	pallet := model.Size{Length: 1200, Width: 800, Height: 1500}
	assert.Equal(t, 0, MaxCount(model.Size{Length: 2000, Width: 10, Height: 10}, pallet, 0, 5))
}

func TestMaxCount_FullOrOverfilledPallet(t *testing.T) {
	pallet := model.Size{Length: 1200, Width: 800, Height: 1500}
	item := model.Size{Length: 400, Width: 300, Height: 200}
	assert.Equal(t, 0, MaxCount(item, pallet, pallet.Volume(), 5))
	assert.Equal(t, 0, MaxCount(item, pallet, pallet.Volume()*2, 5))
	assert.Equal(t, 0, MaxCount(item, pallet, 0, 0))
}

func TestMaxCount_ZeroVolumeItem(t *testing.T) {
	pallet := model.Size{Length: 1200, Width: 800, Height: 1500}
	assert.Equal(t, 7, MaxCount(model.Size{Length: 100, Width: 100}, pallet, pallet.Volume(), 7))
}

func TestMaxCount_MonotoneAndVolumeBounded(t *testing.T) {
	pallet := model.Size{Length: 1200, Width: 800, Height: 1500}
	item := model.Size{Length: 410, Width: 290, Height: 230}
	unit := item.Volume()

	prev := math.MaxInt
	for used := 0.0; used <= pallet.Volume()*1.1; used += pallet.Volume() / 97 {
		n := MaxCount(item, pallet, used, 1000)
		assert.LessOrEqual(t, n, prev, "non-increasing in used volume (used=%.0f)", used)
		assert.LessOrEqual(t, float64(n)*unit, math.Max(0, pallet.Volume()-used)+1e-6)
		prev = n
	}
}
