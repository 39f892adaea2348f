package esewa_test

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	esewa "github.com/noah-isme/esewa-epay"
)

func encodeCallback(t *testing.T, payload map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestBuildPaymentFieldsComputesTotal(t *testing.T) {
	req := esewa.PaymentRequest{
		Amount:                1000,
		ProductDeliveryCharge: 50,
		ProductServiceCharge:  20,
		TaxAmount:             30,
		TransactionUUID:       "id-1-abcdefghi",
	}
	fields, err := esewa.BuildPaymentFields(req, "EPAYTEST", "https://merchant.example/success", "https://merchant.example/failure")
	require.NoError(t, err)
	require.Equal(t, "1100", fields["total_amount"])
	require.Equal(t, "1000", fields["amount"])
	require.Equal(t, esewa.SignedFieldNames, fields["signed_field_names"])

	want := []string{
		"amount", "tax_amount", "total_amount", "transaction_uuid",
		"product_code", "product_service_charge", "product_delivery_charge",
		"success_url", "failure_url", "signed_field_names",
	}
	require.Len(t, fields, len(want))
	for _, key := range want {
		require.Contains(t, fields, key)
	}
}

func TestBuildPaymentFieldsCurrencyPrecision(t *testing.T) {
	req := esewa.PaymentRequest{
		Amount:                0.1,
		ProductDeliveryCharge: 0.2,
		ProductServiceCharge:  0,
		TaxAmount:             0,
		TransactionUUID:       "id-1-abcdefghi",
	}
	fields, err := esewa.BuildPaymentFields(req, "EPAYTEST", "https://m.example/s", "https://m.example/f")
	require.NoError(t, err)
	require.Equal(t, "0.3", fields["total_amount"])
}

func TestBuildPaymentFieldsRejectsNegativeCharge(t *testing.T) {
	req := esewa.PaymentRequest{
		Amount:          100,
		TaxAmount:       -1,
		TransactionUUID: "id-1-abcdefghi",
	}
	_, err := esewa.BuildPaymentFields(req, "EPAYTEST", "https://m.example/s", "https://m.example/f")
	require.True(t, esewa.IsValidationError(err))

	var verr *esewa.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "tax_amount", verr.Field)
}

func TestBuildPaymentFieldsRejectsEmptyTransactionUUID(t *testing.T) {
	req := esewa.PaymentRequest{Amount: 100}
	_, err := esewa.BuildPaymentFields(req, "EPAYTEST", "https://m.example/s", "https://m.example/f")
	require.True(t, esewa.IsValidationError(err))
}

func TestBuildPaymentFieldsRejectsNaN(t *testing.T) {
	req := esewa.PaymentRequest{Amount: math.NaN(), TransactionUUID: "id-1-abcdefghi"}
	_, err := esewa.BuildPaymentFields(req, "EPAYTEST", "https://m.example/s", "https://m.example/f")
	require.True(t, esewa.IsValidationError(err))
}

func TestFormatAmountPlainDecimal(t *testing.T) {
	cases := map[float64]string{
		1100:   "1100",
		100.5:  "100.5",
		0:      "0",
		1e6:    "1000000",
		2500.4: "2500.4",
	}
	for in, want := range cases {
		if got := esewa.FormatAmount(in); got != want {
			t.Fatalf("FormatAmount(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestDecodeCallbackRoundTrip(t *testing.T) {
	payload := map[string]any{
		"transaction_code": "000AWEO",
		"status":           "COMPLETE",
		"total_amount":     "1,100.0",
		"transaction_uuid": "id-1-abcdefghi",
		"product_code":     "EPAYTEST",
		"ref_id":           "0001TSP",
	}
	decoded, err := esewa.DecodeCallback(encodeCallback(t, payload))
	require.NoError(t, err)
	require.Equal(t, "id-1-abcdefghi", decoded.TransactionUUID())
	require.Equal(t, "COMPLETE", decoded.Status())
	require.Equal(t, "0001TSP", decoded.RefID())

	total, err := decoded.TotalAmount()
	require.NoError(t, err)
	require.Equal(t, 1100.0, total)
}

func TestDecodeCallbackURLSafeUnpadded(t *testing.T) {
	raw, err := json.Marshal(map[string]any{"transaction_uuid": "id-1-abcdefghi", "total_amount": 1100})
	require.NoError(t, err)
	encoded := base64.RawURLEncoding.EncodeToString(raw)

	decoded, err := esewa.DecodeCallback(encoded)
	require.NoError(t, err)
	require.Equal(t, "id-1-abcdefghi", decoded.TransactionUUID())

	total, err := decoded.TotalAmount()
	require.NoError(t, err)
	require.Equal(t, 1100.0, total)
}

func TestDecodeCallbackInvalidEncoding(t *testing.T) {
	_, err := esewa.DecodeCallback("***not base64***")
	require.True(t, esewa.IsValidationError(err))
	require.Contains(t, err.Error(), "invalid encoding")

	_, err = esewa.DecodeCallback("")
	require.True(t, esewa.IsValidationError(err))
}

func TestDecodeCallbackInvalidPayload(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("not json at all"))
	_, err := esewa.DecodeCallback(encoded)
	require.True(t, esewa.IsValidationError(err))
	require.Contains(t, err.Error(), "invalid payload")

	// a JSON array is valid JSON but not a callback object
	encoded = base64.StdEncoding.EncodeToString([]byte(`[1,2,3]`))
	_, err = esewa.DecodeCallback(encoded)
	require.True(t, esewa.IsValidationError(err))
}
