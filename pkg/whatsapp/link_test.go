package whatsapp

import (
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFormatNaira(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "₦0"},
		{"500", "₦500"},
		{"1000", "₦1,000"},
		{"1250000", "₦1,250,000"},
		{"1999.5", "₦1,999.50"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, FormatNaira(decimal.RequireFromString(tt.in)), "input %s", tt.in)
	}
}

func TestMessageIncludesAllOrderFields(t *testing.T) {
	summary := OrderSummary{
		StoreName: "Ada Stores",
		Lines: []OrderLine{
			{Name: "Ankara Tote", Quantity: 2, Total: decimal.NewFromInt(1000)},
			{Name: "Beads", Quantity: 1, Total: decimal.NewFromInt(500)},
		},
		Total:           decimal.NewFromInt(1500),
		CustomerName:    "Chidi Okafor",
		CustomerPhone:   "+2348011111111",
		DeliveryAddress: "12 Allen Avenue, Ikeja",
	}

	msg := Message(summary)
	require.Contains(t, msg, "Ada Stores")
	require.Contains(t, msg, "Ankara Tote x2, Beads x1")
	require.Contains(t, msg, "Total: ₦1,500")
	require.Contains(t, msg, "Phone: +2348011111111")
	require.Contains(t, msg, "Address: 12 Allen Avenue, Ikeja")
}

func TestDeepLinkStripsNonDigitsAndEscapes(t *testing.T) {
	summary := OrderSummary{
		StoreName:       "Ada Stores",
		Lines:           []OrderLine{{Name: "Tote", Quantity: 1, Total: decimal.NewFromInt(500)}},
		Total:           decimal.NewFromInt(500),
		CustomerName:    "Chidi",
		CustomerPhone:   "+234 801 111 1111",
		DeliveryAddress: "Ikeja",
	}

	link := DeepLink("+234 (802) 222-2222", summary)
	require.True(t, strings.HasPrefix(link, "https://wa.me/2348022222222?text="), link)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	require.Contains(t, parsed.Query().Get("text"), "I just placed an order")
}
