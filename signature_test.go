package esewa_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	esewa "github.com/noah-isme/esewa-epay"
)

func TestSigningStringOrderPreserved(t *testing.T) {
	fields := []esewa.Field{
		{Name: "total_amount", Value: "1100"},
		{Name: "transaction_uuid", Value: "id-1-abc"},
		{Name: "product_code", Value: "EPAYTEST"},
	}
	got := esewa.SigningString(fields)
	if got != "total_amount=1100,transaction_uuid=id-1-abc,product_code=EPAYTEST" {
		t.Fatalf("unexpected signing string: %s", got)
	}
}

func TestSignDeterministic(t *testing.T) {
	fields := []esewa.Field{
		{Name: "total_amount", Value: "1100"},
		{Name: "transaction_uuid", Value: "id-1-abc"},
		{Name: "product_code", Value: "EPAYTEST"},
	}
	first, err := esewa.Sign("8gBm/:&EnhH.1/q", fields)
	require.NoError(t, err)
	second, err := esewa.Sign("8gBm/:&EnhH.1/q", fields)
	require.NoError(t, err)
	require.Equal(t, first, second)

	raw, err := base64.StdEncoding.DecodeString(first)
	require.NoError(t, err)
	require.Len(t, raw, 32)
}

func TestSignSensitivity(t *testing.T) {
	fields := []esewa.Field{
		{Name: "total_amount", Value: "1100"},
		{Name: "transaction_uuid", Value: "id-1-abc"},
	}
	base, err := esewa.Sign("secret", fields)
	require.NoError(t, err)

	changedValue, err := esewa.Sign("secret", []esewa.Field{
		{Name: "total_amount", Value: "1101"},
		{Name: "transaction_uuid", Value: "id-1-abc"},
	})
	require.NoError(t, err)
	require.NotEqual(t, base, changedValue)

	changedSecret, err := esewa.Sign("other", fields)
	require.NoError(t, err)
	require.NotEqual(t, base, changedSecret)
}

func TestSignOrderSensitive(t *testing.T) {
	forward, err := esewa.Sign("secret", []esewa.Field{
		{Name: "a", Value: "1"},
		{Name: "b", Value: "2"},
	})
	require.NoError(t, err)
	reversed, err := esewa.Sign("secret", []esewa.Field{
		{Name: "b", Value: "2"},
		{Name: "a", Value: "1"},
	})
	require.NoError(t, err)
	require.NotEqual(t, forward, reversed)
}

func TestSignRejectsBadInput(t *testing.T) {
	_, err := esewa.Sign("", []esewa.Field{{Name: "a", Value: "1"}})
	require.True(t, esewa.IsValidationError(err))

	_, err = esewa.Sign("secret", nil)
	require.True(t, esewa.IsValidationError(err))
}

func TestSignHexMatchesDigest(t *testing.T) {
	fields := []esewa.Field{{Name: "a", Value: "1"}}
	b64, err := esewa.Sign("secret", fields)
	require.NoError(t, err)
	hexed, err := esewa.SignHex("secret", fields)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	require.Len(t, hexed, len(raw)*2)
}
