// README: Pricing rate definition for each ride tier.
package pricing

import (
	"github.com/get2yaheart/get2ya/internal/modules/driver"
	"github.com/get2yaheart/get2ya/internal/types"
)

// Rate is the fare schedule for one tier. Amounts are in the currency's
// smallest unit.
type Rate struct {
	Tier     driver.Tier
	BaseFare int64
	PerKm    int64
	PerMin   int64
	Currency string
}

// Quote is a computed fare with its component breakdown.
type Quote struct {
	Fare      types.Money      `json:"fare"`
	Surge     float64          `json:"surge"`
	Breakdown map[string]int64 `json:"breakdown"`
}

// DefaultRates returns the built-in fare schedule, used when no rate store
// is configured. Amounts are VND.
func DefaultRates() map[driver.Tier]Rate {
	return map[driver.Tier]Rate{
		driver.TierX:     {Tier: driver.TierX, BaseFare: 12000, PerKm: 9500, PerMin: 400, Currency: "VND"},
		driver.TierXL:    {Tier: driver.TierXL, BaseFare: 15000, PerKm: 12500, PerMin: 500, Currency: "VND"},
		driver.TierBlack: {Tier: driver.TierBlack, BaseFare: 25000, PerKm: 17000, PerMin: 700, Currency: "VND"},
		driver.TierGreen: {Tier: driver.TierGreen, BaseFare: 13000, PerKm: 10500, PerMin: 450, Currency: "VND"},
	}
}
