// Package vas implements the idempotent purchase flow for value added
// services: airtime, data bundles, electricity tokens and TV subscriptions.
// The flow reserves an idempotency key before contacting the provider,
// submits outside any database transaction and commits the wallet debit, the
// purchase row and the cached receipt atomically afterwards.
package vas

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/movaapp/mova-backend/internal/domain/shared"
)

// ErrUnknownCategory indicates a category outside the catalog
type ErrUnknownCategory struct {
	Category shared.Category
}

func (e ErrUnknownCategory) Error() string {
	return fmt.Sprintf("unknown purchase category: %q", string(e.Category))
}

// Is implements the errors.Is interface for ErrUnknownCategory
func (e ErrUnknownCategory) Is(target error) bool {
	t, ok := target.(ErrUnknownCategory)
	if !ok {
		return false
	}
	if t.Category == "" {
		return true
	}
	return e.Category == t.Category
}

// ErrAmountOutOfRange indicates the amount is outside the category's limits
type ErrAmountOutOfRange struct {
	Category shared.Category
	Amount   int64
	Min      int64
	Max      int64
}

func (e ErrAmountOutOfRange) Error() string {
	return fmt.Sprintf("amount %d outside range [%d, %d] for category %s", e.Amount, e.Min, e.Max, e.Category)
}

// Is implements the errors.Is interface for ErrAmountOutOfRange
func (e ErrAmountOutOfRange) Is(target error) bool {
	t, ok := target.(ErrAmountOutOfRange)
	if !ok {
		return false
	}
	if t.Category == "" {
		return true
	}
	return e.Category == t.Category
}

// ErrInvalidRecipient indicates the recipient does not match the category's
// expected format after normalization
type ErrInvalidRecipient struct {
	Category  shared.Category
	Recipient string
}

func (e ErrInvalidRecipient) Error() string {
	return fmt.Sprintf("invalid recipient %q for category %s", e.Recipient, e.Category)
}

// Is implements the errors.Is interface for ErrInvalidRecipient
func (e ErrInvalidRecipient) Is(target error) bool {
	t, ok := target.(ErrInvalidRecipient)
	if !ok {
		return false
	}
	if t.Category == "" {
		return true
	}
	return e.Category == t.Category
}

var (
	phonePattern     = regexp.MustCompile(`^0\d{10}$`)
	meterPattern     = regexp.MustCompile(`^\d{6,13}$`)
	smartcardPattern = regexp.MustCompile(`^\d{10,12}$`)
)

// ServiceDefinition describes one purchasable category: the provider-side
// product code, the allowed amount range in minor units and the recipient
// format.
type ServiceDefinition struct {
	Category  shared.Category
	Service   string
	MinAmount int64
	MaxAmount int64

	phone   bool // recipients are phone numbers, localized before matching
	pattern *regexp.Regexp
}

// Catalog is the fixed set of purchasable services
type Catalog struct {
	entries map[shared.Category]ServiceDefinition
}

// NewCatalog builds the service catalog. Amounts are minor units (kobo):
// airtime from 100 (one naira) up to 5,000,000, data bundles from 500 up to
// 10,000,000, electricity tokens from 1,000 up to 50,000,000 and TV
// subscriptions from 1,000 up to 20,000,000.
func NewCatalog() *Catalog {
	definitions := []ServiceDefinition{
		{Category: shared.CategoryAirtime, Service: "airtime", MinAmount: 100, MaxAmount: 5_000_000, phone: true, pattern: phonePattern},
		{Category: shared.CategoryData, Service: "data-bundle", MinAmount: 500, MaxAmount: 10_000_000, phone: true, pattern: phonePattern},
		{Category: shared.CategoryElectricity, Service: "electricity-token", MinAmount: 1_000, MaxAmount: 50_000_000, pattern: meterPattern},
		{Category: shared.CategoryTV, Service: "tv-subscription", MinAmount: 1_000, MaxAmount: 20_000_000, pattern: smartcardPattern},
	}

	entries := make(map[shared.Category]ServiceDefinition, len(definitions))
	for _, def := range definitions {
		entries[def.Category] = def
	}
	return &Catalog{entries: entries}
}

// Definition returns the catalog entry for a category
func (c *Catalog) Definition(category shared.Category) (ServiceDefinition, bool) {
	def, ok := c.entries[category]
	return def, ok
}

// Validate checks category, amount and recipient against the catalog and
// returns the normalized recipient. The normalized form is what the key
// derivation and the provider both see, so "+234 801 234 5678" and
// "08012345678" collapse onto the same purchase.
func (c *Catalog) Validate(category shared.Category, amount int64, recipient string) (string, error) {
	def, ok := c.entries[category]
	if !ok {
		return "", ErrUnknownCategory{Category: category}
	}

	if amount < def.MinAmount || amount > def.MaxAmount {
		return "", ErrAmountOutOfRange{
			Category: category,
			Amount:   amount,
			Min:      def.MinAmount,
			Max:      def.MaxAmount,
		}
	}

	normalized := stripSeparators(recipient)
	if def.phone {
		normalized = localizePhone(normalized)
	}
	if !def.pattern.MatchString(normalized) {
		return "", ErrInvalidRecipient{Category: category, Recipient: recipient}
	}

	return normalized, nil
}

// stripSeparators removes spaces, dashes and parentheses
func stripSeparators(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch r {
		case ' ', '-', '(', ')':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// localizePhone converts international Nigerian prefixes to local form
func localizePhone(s string) string {
	if strings.HasPrefix(s, "+234") && len(s) == 14 {
		return "0" + s[4:]
	}
	if strings.HasPrefix(s, "234") && len(s) == 13 {
		return "0" + s[3:]
	}
	return s
}
