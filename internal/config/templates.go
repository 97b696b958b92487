package config

import (
	"fmt"
	"os"
)

const configTemplate = `# Price Level Engine Configuration

[levels]
# Primary rolling window in bars (fibonacci, bands, vwap, resistance_1/support_1)
window = 20
# Bars on each side a swing point must dominate
swing_window = 5
# Band width in standard deviations / ATRs
std_multiplier = 2.0
# Minimum relative height of a swing point over its neighbours
min_swing_strength = 0.02
# Trailing bars scanned when scoring level strength
strength_lookback = 20
# Relative distance at which a bar touches a level
touch_tolerance = 0.01
# Cap on the touch/window volume ratio added to strength
volume_bonus_cap = 2.0
# Volume bonus above which a level counts as volume-confirmed
volume_confirm_threshold = 1.5
# Volume profile bins and how many top bins to report
volume_profile_buckets = 20
volume_profile_top = 3
# Round-number levels on each side of the anchor
psychological_count = 5
# Bars per week and month for the calendar extremes
week_bars = 5
month_bars = 21
# Rolling horizons of the swing extremes
swing_horizons = [5, 10, 20]

[logging]
# Log level: debug, info, warn, error
level = "info"
# Human-readable log output on stderr
console = true
# Rotated JSON log file
file = false
# file_path = "~/.config/pricelevels/logs/pricelevels.log"
max_size = 50
max_backups = 5
max_age = 30

[store]
# SQLite bar database (defaults to bars.db in the config directory)
# path = "~/.config/pricelevels/bars.db"

[batch]
# Tickers computed concurrently
workers = 4
# Upper bound on one batch run
timeout = "5m"
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := Path(configDir)
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
