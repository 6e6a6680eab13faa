package factory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/contract-engine/calendar"
	"github.com/warp/contract-engine/contract"
	"github.com/warp/contract-engine/factory"
)

const mixedContract = `{
	"start_date": "2025-01-01",
	"duration_value": 12,
	"duration_unit": "months",
	"payment_mode": "prepaid",
	"billing_cycle_type": "mixed",
	"per_block_payment_type": {"audit": "postpaid", "setup": "whenever"},
	"currency": "eur",
	"selected_blocks": [
		{"id": "setup", "name": "Setup", "price": 1000, "cycle": "one-time", "category_id": "service"},
		{"id": "audit", "price": "900", "quantity": 0, "cycle": "Quarterly", "category_id": "service"},
		{"id": "license", "name": "License", "price": 5000, "cycle": "yearly", "category_id": "billing"}
	]
}`

func TestParseContract_Normalises(t *testing.T) {
	f := factory.NewContractFactory()

	cfg, err := f.ParseContract(mixedContract)
	require.NoError(t, err)

	assert.Equal(t, calendar.NewDate(2025, time.January, 1), cfg.StartDate)
	assert.Equal(t, contract.DurationMonths, cfg.DurationUnit)
	assert.Equal(t, contract.BillingMixed, cfg.BillingCycleType)
	assert.Equal(t, contract.PaymentPrepaid, cfg.PaymentMode)
	assert.Equal(t, "EUR", cfg.Currency)

	require.Len(t, cfg.Blocks, 3)
	assert.Equal(t, contract.CycleOneTime, cfg.Blocks[0].Cycle)
	assert.Equal(t, contract.CycleQuarterly, cfg.Blocks[1].Cycle)
	assert.Equal(t, "audit", cfg.Blocks[1].Name)
	assert.Equal(t, 1, cfg.Blocks[1].Quantity)
	assert.Equal(t, contract.CycleAnnually, cfg.Blocks[2].Cycle)
	assert.False(t, cfg.Blocks[2].HasService())

	assert.Equal(t, contract.BlockPostpaid, cfg.PerBlockPaymentType["audit"])
	assert.Equal(t, contract.BlockPrepaid, cfg.PerBlockPaymentType["setup"])

	// 1000 + 4 x 900 + 5000
	assert.True(t, decimal.RequireFromString("9600").Equal(cfg.GrandTotal), "got %s", cfg.GrandTotal)
}

func TestParseContract_NullBillingCycleType(t *testing.T) {
	f := factory.NewContractFactory()
	cfg, err := f.ParseContract(`{
		"start_date": "2025-01-01", "duration_value": 3, "duration_unit": "months",
		"billing_cycle_type": null,
		"selected_blocks": [{"id": "a", "price": 10, "cycle": "monthly"}]
	}`)
	require.NoError(t, err)
	assert.Equal(t, contract.BillingNone, cfg.BillingCycleType)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Empty(t, contract.Summarize(contract.ComputeEvents(cfg)).BillingEvents)
}

func TestParseContract_EMIMonthsDefaultsToOne(t *testing.T) {
	f := factory.NewContractFactory()
	cfg, err := f.ParseContract(`{
		"start_date": "2025-01-01", "duration_value": 3, "duration_unit": "months",
		"payment_mode": "EMI", "billing_cycle_type": "unified", "grand_total": "300",
		"selected_blocks": [{"id": "a", "price": 100, "cycle": "monthly"}]
	}`)
	require.NoError(t, err)
	assert.Equal(t, contract.PaymentEMI, cfg.PaymentMode)
	assert.Equal(t, 1, cfg.EMIMonths)
	assert.True(t, decimal.NewFromInt(300).Equal(cfg.GrandTotal))
}

func TestParseContract_Errors(t *testing.T) {
	f := factory.NewContractFactory()

	tests := []struct {
		name  string
		json  string
		field string
	}{
		{"bad json", `{"start_date":`, ""},
		{"missing start", `{"duration_value": 1, "duration_unit": "months"}`, "start_date"},
		{"bad start", `{"start_date": "01/01/2025", "duration_value": 1, "duration_unit": "months"}`, "start_date"},
		{"empty block id", `{"start_date": "2025-01-01", "duration_value": 1, "duration_unit": "months",
			"selected_blocks": [{"id": " ", "price": 1, "cycle": "monthly"}]}`, "selected_blocks[0]"},
		{"duplicate block id", `{"start_date": "2025-01-01", "duration_value": 1, "duration_unit": "months",
			"selected_blocks": [{"id": "a", "price": 1, "cycle": "monthly"}, {"id": "a", "price": 2, "cycle": "monthly"}]}`, "selected_blocks[1].id"},
		{"negative price", `{"start_date": "2025-01-01", "duration_value": 1, "duration_unit": "months",
			"selected_blocks": [{"id": "a", "price": -1, "cycle": "monthly"}]}`, "selected_blocks[0]"},
		{"too long", `{"start_date": "2025-01-01", "duration_value": 101, "duration_unit": "years"}`, "duration_value"},
		{"too many installments", `{"start_date": "2025-01-01", "duration_value": 1, "duration_unit": "years",
			"payment_mode": "emi", "emi_months": 2000000000}`, "emi_months"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseContract(tt.json)
			require.Error(t, err)
			assert.ErrorIs(t, err, contract.ErrInvalidConfiguration)
			assert.True(t, contract.IsClientError(err))

			if tt.field != "" {
				var fe *contract.FieldError
				require.True(t, errors.As(err, &fe))
				assert.Equal(t, tt.field, fe.Field)
			}
		})
	}
}

func TestParseContract_EMIMonthsAtLimit(t *testing.T) {
	f := factory.NewContractFactory()
	cfg, err := f.ParseContract(`{"start_date": "2025-01-01", "duration_value": 1, "duration_unit": "years",
		"payment_mode": "emi", "emi_months": 1200, "billing_cycle_type": "unified", "grand_total": 1200}`)
	require.NoError(t, err)
	assert.Equal(t, factory.MaxDurationYears*12, cfg.EMIMonths)
	assert.Len(t, contract.ComputeEvents(cfg), 1200)
}

func TestParseContract_NonPositiveDurationIsAccepted(t *testing.T) {
	// The engine turns non-positive durations into an empty timeline.
	f := factory.NewContractFactory()
	cfg, err := f.ParseContract(`{"start_date": "2025-01-01", "duration_value": 0, "duration_unit": "months",
		"billing_cycle_type": "unified", "selected_blocks": [{"id": "a", "price": 1, "cycle": "monthly"}]}`)
	require.NoError(t, err)
	assert.Empty(t, contract.ComputeEvents(cfg))
}

func TestToJSON_RoundTrip(t *testing.T) {
	f := factory.NewContractFactory()

	cfg, err := f.ParseContract(mixedContract)
	require.NoError(t, err)

	raw, err := f.Marshal(cfg)
	require.NoError(t, err)

	again, err := f.ParseContract(raw)
	require.NoError(t, err)

	assert.Equal(t, contract.ComputeEvents(cfg), contract.ComputeEvents(again))
	assert.Equal(t, cfg.BillingCycleType, again.BillingCycleType)
	assert.Equal(t, cfg.PerBlockPaymentType, again.PerBlockPaymentType)
}
