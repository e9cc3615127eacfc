package commission

import (
	"github.com/shopspring/decimal"

	"github.com/tundeadepitan/swiftchow-backend/pkg/config"
	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
	pkgerrors "github.com/tundeadepitan/swiftchow-backend/pkg/errors"
)

// Table resolves the platform commission rate for each seller role and
// splits order subtotals into commission and seller payout. Rates are
// loaded once at startup; unknown roles fall back to the default rate.
type Table struct {
	rates       map[enums.VendorRole]decimal.Decimal
	defaultRate decimal.Decimal
}

// NewTable parses the configured rates. Every rate must be a decimal in
// [0, 1); a malformed or out-of-range rate fails startup rather than
// silently taking the wrong cut of seller money.
func NewTable(cfg config.CommissionConfig) (*Table, error) {
	parse := func(name, raw string) (decimal.Decimal, error) {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "invalid commission rate for "+name)
		}
		if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeInternal, "commission rate for "+name+" must be in [0, 1)")
		}
		return rate, nil
	}

	defaultRate, err := parse("default", cfg.Default)
	if err != nil {
		return nil, err
	}

	rates := make(map[enums.VendorRole]decimal.Decimal, 4)
	for _, entry := range []struct {
		role enums.VendorRole
		raw  string
	}{
		{enums.VendorRoleChef, cfg.Chef},
		{enums.VendorRolePharmacy, cfg.Pharmacy},
		{enums.VendorRoleVendor, cfg.Vendor},
		{enums.VendorRoleTopVendor, cfg.TopVendor},
	} {
		rate, err := parse(string(entry.role), entry.raw)
		if err != nil {
			return nil, err
		}
		rates[entry.role] = rate
	}

	return &Table{rates: rates, defaultRate: defaultRate}, nil
}

// Rate returns the commission rate for the given seller role.
func (t *Table) Rate(role enums.VendorRole) decimal.Decimal {
	if rate, ok := t.rates[role]; ok {
		return rate
	}
	return t.defaultRate
}

// Split divides a subtotal into (commission, payout), both in kobo.
// Commission is rounded half-up to the nearest kobo and the payout is the
// exact remainder, so commission + payout always equals the subtotal.
func (t *Table) Split(role enums.VendorRole, subtotalKobo int64) (int64, int64) {
	if subtotalKobo <= 0 {
		return 0, 0
	}
	rate := t.Rate(role)
	commission := decimal.NewFromInt(subtotalKobo).Mul(rate).Round(0).IntPart()
	if commission > subtotalKobo {
		commission = subtotalKobo
	}
	return commission, subtotalKobo - commission
}
