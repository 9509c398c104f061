package checkout

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storelinkhq/storelink-backend/pkg/db/models"
	pkgerrors "github.com/storelinkhq/storelink-backend/pkg/errors"
)

func testStore(whatsapp string) *models.Store {
	store := &models.Store{
		ID:          uuid.New(),
		OwnerID:     uuid.New(),
		Name:        "Ada Fabrics",
		Slug:        "ada-fabrics",
		IsPublished: true,
	}
	if whatsapp != "" {
		store.WhatsAppNumber = &whatsapp
	}
	return store
}

func validInput() SubmitInput {
	return SubmitInput{
		IdempotencyKey: uuid.NewString(),
		Lines: []CartLine{
			{ProductID: uuid.New(), Name: "Ankara Wrap", Price: decimal.NewFromInt(2500), Quantity: 2},
		},
		Customer: CustomerInfo{
			FullName: "Chinedu Okafor",
			Email:    "chinedu@example.com",
			Phone:    "+234 (803) 123-4567",
			Address:  "12 Allen Avenue, Ikeja, Lagos",
		},
	}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected coded error, got %v", err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, typed.Code(), err)
	}
	return typed
}

func TestResolveOrderNormalizesCustomer(t *testing.T) {
	t.Parallel()

	input := validInput()
	input.Customer.FullName = "  Chinedu Okafor "
	input.Customer.Address = " 12 Allen Avenue, Ikeja, Lagos  "

	intent, err := ResolveOrder(testStore("+2348012345678"), 50, input)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if intent.Customer.FullName != "Chinedu Okafor" {
		t.Fatalf("name not trimmed: %q", intent.Customer.FullName)
	}
	if intent.Customer.Phone != "+2348031234567" {
		t.Fatalf("phone not normalized: %q", intent.Customer.Phone)
	}
	if intent.Customer.Address != "12 Allen Avenue, Ikeja, Lagos" {
		t.Fatalf("address not trimmed: %q", intent.Customer.Address)
	}
	if len(intent.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(intent.Lines))
	}
}

func TestResolveOrderAcceptsLocalPhoneFormat(t *testing.T) {
	t.Parallel()

	input := validInput()
	input.Customer.Phone = "0803 123 4567"

	intent, err := ResolveOrder(testStore("+2348012345678"), 50, input)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if intent.Customer.Phone != "08031234567" {
		t.Fatalf("unexpected phone %q", intent.Customer.Phone)
	}
}

func TestResolveOrderRejectsBadPhone(t *testing.T) {
	t.Parallel()

	for _, phone := range []string{"", "12345", "+2348031234", "+14155551212", "0803123456789"} {
		input := validInput()
		input.Customer.Phone = phone

		_, err := ResolveOrder(testStore("+2348012345678"), 50, input)
		typed := assertCode(t, err, pkgerrors.CodeValidation)
		if typed.Message() != "invalid_phone" {
			t.Fatalf("phone %q: expected invalid_phone, got %q", phone, typed.Message())
		}
		details, ok := typed.Details().(map[string]any)
		if !ok || details["field"] != "phone" {
			t.Fatalf("phone %q: missing field detail: %v", phone, typed.Details())
		}
	}
}

func TestResolveOrderEmailIsOptionalButValidated(t *testing.T) {
	t.Parallel()

	input := validInput()
	input.Customer.Email = ""
	if _, err := ResolveOrder(testStore("+2348012345678"), 50, input); err != nil {
		t.Fatalf("blank email should pass: %v", err)
	}

	input.Customer.Email = "not-an-email"
	_, err := ResolveOrder(testStore("+2348012345678"), 50, input)
	typed := assertCode(t, err, pkgerrors.CodeValidation)
	if typed.Message() != "invalid_email" {
		t.Fatalf("expected invalid_email, got %q", typed.Message())
	}
}

func TestResolveOrderRequiresNameAndAddress(t *testing.T) {
	t.Parallel()

	input := validInput()
	input.Customer.FullName = "   "
	_, err := ResolveOrder(testStore("+2348012345678"), 50, input)
	assertCode(t, err, pkgerrors.CodeValidation)

	input = validInput()
	input.Customer.Address = ""
	_, err = ResolveOrder(testStore("+2348012345678"), 50, input)
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestResolveOrderEmptyCartBeforeChannelCheck(t *testing.T) {
	t.Parallel()

	// A store with no WhatsApp number still reports empty_cart first.
	input := validInput()
	input.Lines = nil

	_, err := ResolveOrder(testStore(""), 50, input)
	typed := assertCode(t, err, pkgerrors.CodeValidation)
	if typed.Message() != "empty_cart" {
		t.Fatalf("expected empty_cart, got %q", typed.Message())
	}
}

func TestResolveOrderMissingContactChannel(t *testing.T) {
	t.Parallel()

	_, err := ResolveOrder(testStore(""), 50, validInput())
	typed := assertCode(t, err, pkgerrors.CodeConfiguration)
	if typed.Message() != "missing_contact_channel" {
		t.Fatalf("expected missing_contact_channel, got %q", typed.Message())
	}
}

func TestResolveOrderEnforcesLineLimit(t *testing.T) {
	t.Parallel()

	input := validInput()
	for i := 0; i < 3; i++ {
		input.Lines = append(input.Lines, CartLine{ProductID: uuid.New(), Quantity: 1})
	}

	_, err := ResolveOrder(testStore("+2348012345678"), 2, input)
	typed := assertCode(t, err, pkgerrors.CodeValidation)
	details, ok := typed.Details().(map[string]any)
	if !ok || details["max_lines"] != 2 {
		t.Fatalf("expected max_lines detail, got %v", typed.Details())
	}
}

func TestResolveOrderRejectsBadLines(t *testing.T) {
	t.Parallel()

	input := validInput()
	input.Lines[0].ProductID = uuid.Nil
	_, err := ResolveOrder(testStore("+2348012345678"), 50, input)
	assertCode(t, err, pkgerrors.CodeValidation)

	input = validInput()
	input.Lines[0].Quantity = 0
	_, err = ResolveOrder(testStore("+2348012345678"), 50, input)
	assertCode(t, err, pkgerrors.CodeValidation)
}
