package whatsapp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// OrderLine is one itemized row in the handoff message.
type OrderLine struct {
	Name     string
	Quantity int
	Total    decimal.Decimal
}

// OrderSummary carries everything the handoff message needs.
type OrderSummary struct {
	StoreName       string
	Lines           []OrderLine
	Total           decimal.Decimal
	CustomerName    string
	CustomerPhone   string
	DeliveryAddress string
}

// Message renders the human-readable order text handed to the store's
// WhatsApp number. Delivery is fire-and-forget; nothing awaits a reply.
func Message(s OrderSummary) string {
	items := make([]string, 0, len(s.Lines))
	for _, line := range s.Lines {
		items = append(items, fmt.Sprintf("%s x%d", line.Name, line.Quantity))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hello! I just placed an order on %s.\n\n", s.StoreName)
	fmt.Fprintf(&b, "Order Details:\n%s\n\n", strings.Join(items, ", "))
	fmt.Fprintf(&b, "Total: %s\n\n", FormatNaira(s.Total))
	fmt.Fprintf(&b, "Name: %s\nPhone: %s\nAddress: %s", s.CustomerName, s.CustomerPhone, s.DeliveryAddress)
	return b.String()
}

// DeepLink builds the wa.me URL for the store's configured number.
func DeepLink(storeNumber string, s OrderSummary) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", digitsOnly(storeNumber), url.QueryEscape(Message(s)))
}

// FormatNaira renders an amount with the naira sign and thousand
// separators. Whole amounts drop the decimal part.
func FormatNaira(amount decimal.Decimal) string {
	if amount.Equal(amount.Truncate(0)) {
		return "₦" + groupThousands(amount.Truncate(0).String())
	}
	fixed := amount.StringFixed(2)
	parts := strings.SplitN(fixed, ".", 2)
	return "₦" + groupThousands(parts[0]) + "." + parts[1]
}

func groupThousands(digits string) string {
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}
	var out []string
	for len(digits) > 3 {
		out = append([]string{digits[len(digits)-3:]}, out...)
		digits = digits[:len(digits)-3]
	}
	out = append([]string{digits}, out...)
	joined := strings.Join(out, ",")
	if neg {
		return "-" + joined
	}
	return joined
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
