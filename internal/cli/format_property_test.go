package cli

import (
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestProperty_PriceFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("FormatPrice preserves value to its precision", prop.ForAll(
		func(price float64) bool {
			formatted := FormatPrice(price)
			parsed, err := strconv.ParseFloat(formatted, 64)
			if err != nil {
				t.Logf("Unparseable price for %f: %s", price, formatted)
				return false
			}
			tolerance := 0.005
			if math.Abs(price) < 10 {
				tolerance = 0.00005
			}
			return math.Abs(parsed-price) <= tolerance+1e-9
		},
		gen.Float64Range(-1e6, 1e6),
	))

	properties.Property("FormatDistance sign follows level side", prop.ForAll(
		func(close, offset float64) bool {
			formatted := FormatDistance(close+offset, close)
			if !strings.HasSuffix(formatted, "%") {
				return false
			}
			if offset > 0.01 {
				return strings.HasPrefix(formatted, "+")
			}
			if offset < -0.01 {
				return strings.HasPrefix(formatted, "-")
			}
			return true
		},
		gen.Float64Range(1, 10000),
		gen.Float64Range(-500, 500),
	))

	properties.Property("FormatVolume uses correct units", prop.ForAll(
		func(volume float64) bool {
			formatted := FormatVolume(volume)
			switch {
			case volume >= 1e9:
				return strings.HasSuffix(formatted, "B")
			case volume >= 1e6:
				return strings.HasSuffix(formatted, "M")
			case volume >= 1e3:
				return strings.HasSuffix(formatted, "K")
			}
			return !strings.ContainsAny(formatted, "KMB")
		},
		gen.Float64Range(0, 1e12),
	))

	properties.Property("FormatStrength bar is ten cells wide", prop.ForAll(
		func(strength int) bool {
			bar := strings.SplitN(FormatStrength(strength), " ", 2)[0]
			return len(bar) == 10
		},
		gen.IntRange(-5, 15),
	))

	properties.Property("padding reaches the requested width", prop.ForAll(
		func(s string, width int) bool {
			right, left := PadRight(s, width), PadLeft(s, width)
			want := width
			if len(s) > width {
				want = len(s)
			}
			return len(right) == want && len(left) == want &&
				strings.HasPrefix(right, s) && strings.HasSuffix(left, s)
		},
		gen.AlphaString(),
		gen.IntRange(0, 30),
	))

	properties.TestingRun(t)
}

func TestFormatExamples(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"price", FormatPrice(123.456), "123.46"},
		{"small price", FormatPrice(1.23456), "1.2346"},
		{"missing price", FormatPrice(math.NaN()), "-"},
		{"distance", FormatDistance(105, 100), "+5.00%"},
		{"distance below", FormatDistance(95, 100), "-5.00%"},
		{"missing distance", FormatDistance(math.NaN(), 100), "-"},
		{"volume", FormatVolume(2_500_000), "2.50M"},
		{"missing volume", FormatVolume(math.NaN()), "-"},
		{"strength", FormatStrength(3), "###....... 3"},
		{"clamped strength", FormatStrength(12), "########## 10"},
		{"daily date", FormatDate(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), "2024-03-01"},
		{"intraday date", FormatDate(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)), "2024-03-01 09:30"},
		{"duration", FormatDuration(1500 * time.Millisecond), "1.5s"},
		{"truncate", TruncateString("database is locked", 10), "databas..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestJSONFloat(t *testing.T) {
	assert.Nil(t, jsonFloat(math.NaN()))
	assert.Nil(t, jsonFloat(math.Inf(1)))
	if v := jsonFloat(1.5); assert.NotNil(t, v) {
		assert.Equal(t, 1.5, *v)
	}
	assert.True(t, math.IsNaN(deref(nil)))
}

func TestOutputLevelTag(t *testing.T) {
	o := &Output{}
	assert.Equal(t, "fib_support (4)      ", o.LevelTag("fib_support", 4, 21))
	assert.Equal(t, "-    ", o.LevelTag("", 0, 5))
	assert.Equal(t, "psych_resistance (10)", o.LevelTag("psych_resistance", 10, 3))
}
