package levels

import (
	"fmt"
	"math"
	"sort"

	"pricelevels/internal/analysis/indicators"
)

// VolumeBucket is one price bin of the volume profile.
type VolumeBucket struct {
	Price  float64 // bin midpoint
	Low    float64
	High   float64
	Volume float64
}

// VolumeLevels holds the volume-weighted level series and the profile peaks.
type VolumeLevels struct {
	VWAP         indicators.Series
	WeightedHigh indicators.Series
	WeightedLow  indicators.Series
	Profile      []VolumeBucket

	// UniformBars counts bars where zero window volume forced uniform weights.
	UniformBars int
	// ProfileFallback is set when the profile collapsed to a single mean bucket.
	ProfileFallback bool
	ProfileErr      error
}

// CalculateVolumeLevels computes VWAP, volume-weighted high/low over window bars
// and the volume profile of the closes.
func CalculateVolumeLevels(high, low, close, volume []float64, cfg Config) VolumeLevels {
	h := indicators.FillGaps(high)
	l := indicators.FillGaps(low)
	c := indicators.FillGaps(close)
	vol := sanitizeVolume(volume)

	typical := indicators.TypicalPrice(h, l, c)

	result := VolumeLevels{}
	var uniform int
	result.VWAP, uniform = volumeWeighted(typical, vol, cfg.Window)
	result.WeightedHigh, _ = volumeWeighted(h, vol, cfg.Window)
	result.WeightedLow, _ = volumeWeighted(l, vol, cfg.Window)
	result.UniformBars = uniform

	profile, err := VolumeProfile(c, vol, cfg.VolumeProfileBuckets, cfg.VolumeProfileTop)
	if err != nil {
		profile = []VolumeBucket{meanBucket(c, vol)}
		result.ProfileFallback = true
		result.ProfileErr = err
	}
	result.Profile = profile

	return result
}

// volumeWeighted returns sum(price*volume)/sum(volume) over the trailing window.
// Where the window volume is zero every bar gets the same weight, so the value
// degrades to a simple moving average. The second result counts those bars.
func volumeWeighted(price, volume []float64, window int) (indicators.Series, int) {
	n := len(price)
	weighted := make([]float64, n)
	for i := range price {
		weighted[i] = price[i] * volume[i]
	}

	sumPV := indicators.RollingSum(weighted, window)
	sumV := indicators.RollingSum(volume, window)
	sma := indicators.RollingMean(price, window)

	out := indicators.NewSeries(n)
	uniform := 0
	for i := 0; i < n; i++ {
		if indicators.IsNoValue(sumV[i]) {
			continue
		}
		if sumV[i] <= 0 {
			out[i] = sma[i]
			uniform++
			continue
		}
		out[i] = sumPV[i] / sumV[i]
	}
	return out, uniform
}

// VolumeProfile buckets closes into at most buckets equal-width bins, sums the
// volume per bin and returns the top bins by volume. The bin count never exceeds
// the number of distinct closes. It fails when the closes have no variation.
func VolumeProfile(close, volume []float64, buckets, top int) (profile []VolumeBucket, err error) {
	defer func() {
		if r := recover(); r != nil {
			profile, err = nil, fmt.Errorf("volume profile: %v", r)
		}
	}()

	if len(close) == 0 || len(close) != len(volume) {
		return nil, fmt.Errorf("volume profile: %d closes for %d volumes", len(close), len(volume))
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	distinct := make(map[float64]struct{}, len(close))
	for _, c := range close {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("volume profile: non-finite close %v", c)
		}
		lo = math.Min(lo, c)
		hi = math.Max(hi, c)
		distinct[c] = struct{}{}
	}

	bins := buckets
	if len(distinct) < bins {
		bins = len(distinct)
	}
	if bins < 2 || hi <= lo {
		return nil, fmt.Errorf("volume profile: no price variation")
	}

	width := (hi - lo) / float64(bins)
	all := make([]VolumeBucket, bins)
	for b := range all {
		all[b] = VolumeBucket{
			Low:  lo + float64(b)*width,
			High: lo + float64(b+1)*width,
		}
		all[b].Price = (all[b].Low + all[b].High) / 2
	}

	for i, c := range close {
		idx := int((c - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		all[idx].Volume += volume[i]
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Volume > all[j].Volume
	})
	if top > len(all) {
		top = len(all)
	}

	return all[:top], nil
}

// meanBucket is the single-bucket fallback of the volume profile.
func meanBucket(close, volume []float64) VolumeBucket {
	price := indicators.Mean(close)
	return VolumeBucket{
		Price:  price,
		Low:    price,
		High:   price,
		Volume: indicators.Mean(volume),
	}
}

// sanitizeVolume maps missing and negative volume to zero.
func sanitizeVolume(volume []float64) []float64 {
	out := make([]float64, len(volume))
	for i, v := range volume {
		if math.IsNaN(v) || v < 0 {
			continue
		}
		out[i] = v
	}
	return out
}

// profileSeries expands the profile peaks to constant series of length n.
func profileSeries(profile []VolumeBucket, n int) []indicators.NamedSeries {
	out := make([]indicators.NamedSeries, 0, len(profile))
	for k, b := range profile {
		out = append(out, indicators.NamedSeries{
			Name:   fmt.Sprintf("high_volume_level_%d", k+1),
			Values: indicators.Constant(n, b.Price),
		})
	}
	return out
}
