package vas

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/movaapp/mova-backend/internal/domain/shared"
)

func TestCatalog_Validate(t *testing.T) {
	catalog := NewCatalog()

	tests := []struct {
		name       string
		category   shared.Category
		amount     int64
		recipient  string
		normalized string
		wantErr    error
	}{
		{
			name:       "airtime local phone",
			category:   shared.CategoryAirtime,
			amount:     50_000,
			recipient:  "08012345678",
			normalized: "08012345678",
		},
		{
			name:       "airtime international phone with separators",
			category:   shared.CategoryAirtime,
			amount:     50_000,
			recipient:  "+234 801 234-5678",
			normalized: "08012345678",
		},
		{
			name:       "airtime international phone without plus",
			category:   shared.CategoryAirtime,
			amount:     50_000,
			recipient:  "2348012345678",
			normalized: "08012345678",
		},
		{
			name:       "data phone",
			category:   shared.CategoryData,
			amount:     150_000,
			recipient:  "0703 111 2233",
			normalized: "07031112233",
		},
		{
			name:       "electricity meter",
			category:   shared.CategoryElectricity,
			amount:     500_000,
			recipient:  "45021-88931",
			normalized: "4502188931",
		},
		{
			name:     "electricity meter starting with 234 is not treated as a phone",
			category: shared.CategoryElectricity,
			amount:   500_000,
			// 13 digits, same shape as an international phone number
			recipient:  "2340011223344",
			normalized: "2340011223344",
		},
		{
			name:       "tv smartcard",
			category:   shared.CategoryTV,
			amount:     900_000,
			recipient:  "7025162843",
			normalized: "7025162843",
		},
		{
			name:      "amount below minimum",
			category:  shared.CategoryAirtime,
			amount:    99,
			recipient: "08012345678",
			wantErr:   ErrAmountOutOfRange{Category: shared.CategoryAirtime},
		},
		{
			name:      "amount above maximum",
			category:  shared.CategoryData,
			amount:    10_000_001,
			recipient: "08012345678",
			wantErr:   ErrAmountOutOfRange{Category: shared.CategoryData},
		},
		{
			name:      "phone too short",
			category:  shared.CategoryAirtime,
			amount:    50_000,
			recipient: "0801234567",
			wantErr:   ErrInvalidRecipient{Category: shared.CategoryAirtime},
		},
		{
			name:      "phone with letters",
			category:  shared.CategoryAirtime,
			amount:    50_000,
			recipient: "0801234567a",
			wantErr:   ErrInvalidRecipient{Category: shared.CategoryAirtime},
		},
		{
			name:      "meter too short",
			category:  shared.CategoryElectricity,
			amount:    500_000,
			recipient: "12345",
			wantErr:   ErrInvalidRecipient{Category: shared.CategoryElectricity},
		},
		{
			name:      "smartcard too long",
			category:  shared.CategoryTV,
			amount:    900_000,
			recipient: "7025162843999",
			wantErr:   ErrInvalidRecipient{Category: shared.CategoryTV},
		},
		{
			name:      "unknown category",
			category:  shared.Category("GIFT_CARD"),
			amount:    50_000,
			recipient: "08012345678",
			wantErr:   ErrUnknownCategory{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalized, err := catalog.Validate(tt.category, tt.amount, tt.recipient)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, normalized)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.normalized, normalized)
		})
	}
}

func TestCatalog_Definition(t *testing.T) {
	catalog := NewCatalog()

	t.Run("known category", func(t *testing.T) {
		def, ok := catalog.Definition(shared.CategoryElectricity)

		assert.True(t, ok)
		assert.Equal(t, "electricity-token", def.Service)
		assert.Equal(t, int64(1_000), def.MinAmount)
		assert.Equal(t, int64(50_000_000), def.MaxAmount)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, ok := catalog.Definition(shared.CategoryTransfer)

		assert.False(t, ok)
	})
}
