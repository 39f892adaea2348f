package esewa

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SignedFieldNames is the gateway-fixed subset and order of initiation fields
// covered by the signature.
const SignedFieldNames = "total_amount,transaction_uuid,product_code"

// PaymentRequest carries the charge components of a single payment attempt.
// The total presented to the gateway is always recomputed as the sum of the
// four components; a caller-supplied total is never trusted.
type PaymentRequest struct {
	Amount                float64 `validate:"gte=0"`
	ProductDeliveryCharge float64 `validate:"gte=0"`
	ProductServiceCharge  float64 `validate:"gte=0"`
	TaxAmount             float64 `validate:"gte=0"`
	TransactionUUID       string  `validate:"required"`
}

// TotalAmount returns amount + delivery + service + tax, rounded to currency
// precision (two decimal places).
func (r PaymentRequest) TotalAmount() float64 {
	sum := r.Amount + r.ProductDeliveryCharge + r.ProductServiceCharge + r.TaxAmount
	return math.Round(sum*100) / 100
}

func (r PaymentRequest) validateFields() error {
	for name, v := range map[string]float64{
		"amount":                  r.Amount,
		"product_delivery_charge": r.ProductDeliveryCharge,
		"product_service_charge":  r.ProductServiceCharge,
		"tax_amount":              r.TaxAmount,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ValidationError{Field: name, Reason: "must be a finite number"}
		}
	}
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{Field: gatewayFieldName(fe.Field()), Reason: validationReason(fe)}
	}
	return &ValidationError{Reason: err.Error()}
}

func gatewayFieldName(structField string) string {
	switch structField {
	case "Amount":
		return "amount"
	case "ProductDeliveryCharge":
		return "product_delivery_charge"
	case "ProductServiceCharge":
		return "product_service_charge"
	case "TaxAmount":
		return "tax_amount"
	case "TransactionUUID":
		return "transaction_uuid"
	default:
		return structField
	}
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be non-negative"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// BuildPaymentFields produces the exact field set the ePay v2 redirect form
// requires, with total_amount computed from the charge components. The
// signature field is not included; the client adds it after signing.
func BuildPaymentFields(req PaymentRequest, productCode, successURL, failureURL string) (map[string]string, error) {
	if err := req.validateFields(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(productCode) == "" {
		return nil, &ValidationError{Field: "product_code", Reason: "is required"}
	}
	if err := validateAbsoluteURL("success_url", successURL); err != nil {
		return nil, err
	}
	if err := validateAbsoluteURL("failure_url", failureURL); err != nil {
		return nil, err
	}
	return map[string]string{
		"amount":                  FormatAmount(req.Amount),
		"tax_amount":              FormatAmount(req.TaxAmount),
		"total_amount":            FormatAmount(req.TotalAmount()),
		"transaction_uuid":        req.TransactionUUID,
		"product_code":            productCode,
		"product_service_charge":  FormatAmount(req.ProductServiceCharge),
		"product_delivery_charge": FormatAmount(req.ProductDeliveryCharge),
		"success_url":             successURL,
		"failure_url":             failureURL,
		"signed_field_names":      SignedFieldNames,
	}, nil
}

// FormatAmount renders an amount as a plain decimal string: no exponent, no
// grouping separators, trailing zeros trimmed ("1100", "100.5").
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CallbackPayload is the JSON object the gateway delivers, base64-encoded, on
// the success/failure redirect.
type CallbackPayload map[string]any

// TransactionUUID returns the transaction identifier from the payload, or ""
// when absent.
func (p CallbackPayload) TransactionUUID() string {
	return p.stringValue("transaction_uuid")
}

// Status returns the raw status string from the payload, or "" when absent.
func (p CallbackPayload) Status() string {
	return p.stringValue("status")
}

// RefID returns the gateway reference id from the payload, or "" when absent.
func (p CallbackPayload) RefID() string {
	return p.stringValue("ref_id")
}

// TotalAmount parses the payload's total_amount, which the gateway delivers
// either as a JSON number or as a grouped decimal string ("1,100.0").
func (p CallbackPayload) TotalAmount() (float64, error) {
	return parseAmount(p["total_amount"])
}

func (p CallbackPayload) stringValue(key string) string {
	if v, ok := p[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func parseAmount(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case string:
		trimmed := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		if trimmed == "" {
			return 0, &ValidationError{Field: "total_amount", Reason: "is required"}
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, &ValidationError{Field: "total_amount", Reason: "must be a decimal number"}
		}
		return parsed, nil
	case nil:
		return 0, &ValidationError{Field: "total_amount", Reason: "is required"}
	default:
		return 0, &ValidationError{Field: "total_amount", Reason: "must be a decimal number"}
	}
}

// DecodeCallback decodes a base64 (standard or URL alphabet, padded or not)
// JSON blob into a CallbackPayload. Malformed base64 and malformed JSON fail
// explicitly; a bad blob never decodes to a partial or empty record.
func DecodeCallback(encoded string) (CallbackPayload, error) {
	trimmed := strings.TrimSpace(encoded)
	if trimmed == "" {
		return nil, &ValidationError{Field: "data", Reason: "invalid encoding"}
	}
	normalised := strings.NewReplacer("-", "+", "_", "/").Replace(trimmed)
	if rem := len(normalised) % 4; rem != 0 {
		normalised += strings.Repeat("=", 4-rem)
	}
	raw, err := base64.StdEncoding.DecodeString(normalised)
	if err != nil {
		return nil, &ValidationError{Field: "data", Reason: "invalid encoding"}
	}
	var payload CallbackPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &ValidationError{Field: "data", Reason: "invalid payload"}
	}
	return payload, nil
}
