package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validPaymentDetails() PaymentDetails {
	return PaymentDetails{
		FullName:       "Asha Rao",
		Email:          "asha@example.com",
		BillingAddress: "Flat 4B, Lotus Residency",
		Street:         "MG Road",
		City:           "Bengaluru",
		State:          "Karnataka",
		Zip:            "560001",
		Country:        "India",
		Amount:         "1500",
	}
}

func TestValidateAcceptsCompleteDetails(t *testing.T) {
	details := validPaymentDetails()
	assert.Empty(t, details.Validate())
}

func TestValidatePanIsOptional(t *testing.T) {
	details := validPaymentDetails()
	details.Pan = ""
	assert.Empty(t, details.Validate())
}

func TestValidateEachRequiredField(t *testing.T) {
	clear := []struct {
		field string
		apply func(*PaymentDetails)
	}{
		{"fullName", func(d *PaymentDetails) { d.FullName = "" }},
		{"email", func(d *PaymentDetails) { d.Email = "" }},
		{"billingAddress", func(d *PaymentDetails) { d.BillingAddress = "" }},
		{"street", func(d *PaymentDetails) { d.Street = "" }},
		{"city", func(d *PaymentDetails) { d.City = "" }},
		{"state", func(d *PaymentDetails) { d.State = "" }},
		{"zip", func(d *PaymentDetails) { d.Zip = "" }},
		{"country", func(d *PaymentDetails) { d.Country = "" }},
		{"amount", func(d *PaymentDetails) { d.Amount = "" }},
	}

	for _, tt := range clear {
		t.Run(tt.field, func(t *testing.T) {
			details := validPaymentDetails()
			tt.apply(&details)

			errors := details.Validate()
			assert.Len(t, errors, 1)
			assert.Contains(t, errors, tt.field)
		})
	}
}

func TestValidateEmailFormat(t *testing.T) {
	details := validPaymentDetails()
	details.Email = "not-an-email"

	errors := details.Validate()
	assert.Equal(t, map[string]string{"email": "Invalid email address"}, errors)
}

func TestValidateIsIdempotent(t *testing.T) {
	details := validPaymentDetails()
	details.Email = ""
	details.City = ""

	first := details.Validate()
	second := details.Validate()
	assert.Equal(t, first, second, "identical input yields an identical error set")
}

func TestValidateDoesNotNormalizeValues(t *testing.T) {
	details := validPaymentDetails()
	details.FullName = "  Asha Rao  "
	details.Pan = "abcde1234f"

	assert.Empty(t, details.Validate())
	assert.Equal(t, "  Asha Rao  ", details.FullName)
	assert.Equal(t, "abcde1234f", details.Pan)
}

func TestFlowStepProgress(t *testing.T) {
	assert.Equal(t, 20, StepPhoneVerification.Progress())
	assert.Equal(t, 50, StepOtpVerification.Progress())
	assert.Equal(t, 75, StepPaymentForm.Progress())
	assert.Equal(t, 85, StepPaymentDisplay.Progress())
	assert.Equal(t, 0, FlowStep("bogus").Progress())
}
