package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zatix-checkout/models"
)

func methodCatalog() *models.PaymentMethodsResponse {
	return &models.PaymentMethodsResponse{
		Groups: []models.PaymentMethodGroup{
			{
				Name: "Bank Transfer",
				Methods: []models.PaymentMethod{
					{Code: "bca_va", Name: "BCA Virtual Account", Type: "bank_transfer"},
					{Code: "bni_va", Name: "BNI Virtual Account", Type: "bank_transfer"},
				},
			},
			{
				Name: "E-Wallet",
				Methods: []models.PaymentMethod{
					{Code: "gopay", Name: "GoPay", Type: "ewallet"},
				},
			},
		},
	}
}

func TestMethodPicker_Select(t *testing.T) {
	picker := NewMethodPicker(methodCatalog(), nil)

	_, ok := picker.Selected()
	assert.False(t, ok)

	require.NoError(t, picker.Select("gopay"))
	method, ok := picker.Selected()
	require.True(t, ok)
	assert.Equal(t, "gopay", method.Code)
	assert.Equal(t, "ewallet", method.Type)

	// Re-selection replaces the previous choice.
	require.NoError(t, picker.Select("bca_va"))
	method, _ = picker.Selected()
	assert.Equal(t, "bca_va", method.Code)

	assert.ErrorIs(t, picker.Select("dana"), ErrUnknownMethod)
	method, _ = picker.Selected()
	assert.Equal(t, "bca_va", method.Code, "failed select must not clobber the choice")
}

func TestMethodPicker_Proceed(t *testing.T) {
	items := []models.LimitCheckItem{{TicketID: 12, Quantity: 2}, {TicketID: 15, Quantity: 1}}
	picker := NewMethodPicker(methodCatalog(), items)

	_, _, err := picker.Proceed()
	assert.ErrorIs(t, err, ErrNoMethodSelected)

	require.NoError(t, picker.Select("bni_va"))

	picker.SetBusy(true)
	_, _, err = picker.Proceed()
	assert.ErrorIs(t, err, ErrPickerBusy)

	picker.SetBusy(false)
	method, got, err := picker.Proceed()
	require.NoError(t, err)
	assert.Equal(t, "bni_va", method.Code)
	assert.Equal(t, items, got, "items pass through untouched")
}

func TestMethodPicker_NilCatalog(t *testing.T) {
	picker := NewMethodPicker(nil, nil)
	assert.Empty(t, picker.Groups())
	assert.ErrorIs(t, picker.Select("gopay"), ErrUnknownMethod)
}
