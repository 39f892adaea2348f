package esewa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Endpoints for the v2 ePay integration.
const (
	DefaultPaymentURL     = "https://epay.esewa.com.np/api/epay/main/v2/form"
	DefaultStatusCheckURL = "https://esewa.com.np/api/epay/transaction/status/"
	SandboxPaymentURL     = "https://rc-epay.esewa.com.np/api/epay/main/v2/form"
	SandboxStatusCheckURL = "https://rc.esewa.com.np/api/epay/transaction/status/"
)

// DefaultTimeout bounds the status-check call when no HTTPClient or Timeout
// is configured.
const DefaultTimeout = 30 * time.Second

const maxStatusBody = 1 << 20

// Status is the normalised transaction state reported by the gateway.
type Status string

const (
	StatusComplete Status = "COMPLETE"
	StatusPending  Status = "PENDING"
	StatusFailed   Status = "FAILED"
	StatusCanceled Status = "CANCELED"
	StatusNotFound Status = "NOT_FOUND"
	// StatusUnknown covers any status string the gateway returns that this
	// package does not recognise, so callers can branch without a type error.
	StatusUnknown Status = "UNKNOWN"
)

// Client talks to the eSewa ePay gateway for one merchant configuration.
// The zero value is not usable; at minimum Secret and ProductCode must be
// set. Payment and status URLs default to the production endpoints. Client
// holds no state between calls and is safe for concurrent use.
type Client struct {
	Secret         string
	ProductCode    string
	SuccessURL     string
	FailureURL     string
	PaymentURL     string
	StatusCheckURL string

	// HTTPClient, when set, is used as-is for status checks and its own
	// timeout applies. When nil a client bounded by Timeout (or
	// DefaultTimeout) is used.
	HTTPClient *http.Client
	Timeout    time.Duration
}

// PaymentResult carries everything the merchant frontend needs to redirect
// the customer: the form endpoint plus the exact field set (including the
// signature) to auto-submit.
type PaymentResult struct {
	PaymentURL string
	Fields     map[string]string
	Status     Status
	Message    string
}

// StatusCheckResult is the normalised response of the transaction status API.
type StatusCheckResult struct {
	Status    Status
	RawStatus string
	RefID     string
	Raw       map[string]any
}

// Complete reports whether the transaction is paid. Only a COMPLETE status
// from the status API counts; redirects are never proof of payment.
func (r *StatusCheckResult) Complete() bool {
	return r != nil && r.Status == StatusComplete
}

// InitiatePayment validates the request, builds the redirect form field set
// and signs the gateway-defined field subset. No network call is made:
// initiation is a browser redirect, so the caller's transport layer renders
// the returned fields as an auto-submitting form posted to PaymentURL.
func (c *Client) InitiatePayment(_ context.Context, req PaymentRequest) (*PaymentResult, error) {
	if strings.TrimSpace(c.Secret) == "" {
		return nil, &ValidationError{Field: "secret", Reason: "is required"}
	}
	fields, err := BuildPaymentFields(req, c.ProductCode, c.SuccessURL, c.FailureURL)
	if err != nil {
		return nil, err
	}
	signature, err := Sign(c.Secret, []Field{
		{Name: "total_amount", Value: fields["total_amount"]},
		{Name: "transaction_uuid", Value: req.TransactionUUID},
		{Name: "product_code", Value: c.ProductCode},
	})
	if err != nil {
		return nil, err
	}
	fields["signature"] = signature
	return &PaymentResult{
		PaymentURL: c.paymentURL(),
		Fields:     fields,
		Status:     StatusPending,
		Message:    "payment form ready",
	}, nil
}

// CheckStatus issues a single GET to the transaction status endpoint and
// normalises the response. The status API uses the transaction identifier as
// the lookup key; no signing is involved. Transport failures, timeouts and
// non-2xx responses surface as PaymentRequestError; an unparsable body as
// ValidationError. No retries are performed.
func (c *Client) CheckStatus(ctx context.Context, totalAmount float64, transactionUUID string) (*StatusCheckResult, error) {
	if math.IsNaN(totalAmount) || math.IsInf(totalAmount, 0) || totalAmount < 0 {
		return nil, &ValidationError{Field: "total_amount", Reason: "must be a non-negative finite number"}
	}
	if strings.TrimSpace(transactionUUID) == "" {
		return nil, &ValidationError{Field: "transaction_uuid", Reason: "is required"}
	}
	if strings.TrimSpace(c.ProductCode) == "" {
		return nil, &ValidationError{Field: "product_code", Reason: "is required"}
	}
	endpoint := c.statusCheckURL()
	if err := validateAbsoluteURL("status_check_url", endpoint); err != nil {
		return nil, err
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, &ValidationError{Field: "status_check_url", Reason: "must be an absolute URL"}
	}
	q := u.Query()
	q.Set("product_code", c.ProductCode)
	q.Set("total_amount", FormatAmount(totalAmount))
	q.Set("transaction_uuid", transactionUUID)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &PaymentRequestError{Op: "status check", Err: err}
	}
	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return nil, &PaymentRequestError{Op: "status check", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusBody))
	if err != nil {
		return nil, &PaymentRequestError{Op: "status check", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &PaymentRequestError{
			Op:  "status check",
			Err: fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ValidationError{Field: "response", Reason: "invalid payload"}
	}
	rawStatus, _ := raw["status"].(string)
	result := &StatusCheckResult{
		Status:    normaliseStatus(rawStatus),
		RawStatus: strings.ToUpper(strings.TrimSpace(rawStatus)),
		Raw:       raw,
	}
	if ref, ok := raw["ref_id"].(string); ok {
		result.RefID = strings.TrimSpace(ref)
	}
	return result, nil
}

// VerifyCallback decodes a redirect payload and re-checks the transaction
// against the status API. The redirect payload alone is never trusted.
func (c *Client) VerifyCallback(ctx context.Context, encoded string) (*StatusCheckResult, error) {
	payload, err := DecodeCallback(encoded)
	if err != nil {
		return nil, err
	}
	transactionUUID := payload.TransactionUUID()
	if transactionUUID == "" {
		return nil, &ValidationError{Field: "transaction_uuid", Reason: "missing from callback payload"}
	}
	total, err := payload.TotalAmount()
	if err != nil {
		return nil, err
	}
	return c.CheckStatus(ctx, total, transactionUUID)
}

func (c *Client) paymentURL() string {
	if strings.TrimSpace(c.PaymentURL) != "" {
		return c.PaymentURL
	}
	return DefaultPaymentURL
}

func (c *Client) statusCheckURL() string {
	if strings.TrimSpace(c.StatusCheckURL) != "" {
		return c.StatusCheckURL
	}
	return DefaultStatusCheckURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func normaliseStatus(status string) Status {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "COMPLETE":
		return StatusComplete
	case "PENDING":
		return StatusPending
	case "FAILED":
		return StatusFailed
	case "CANCELED":
		return StatusCanceled
	case "NOT_FOUND":
		return StatusNotFound
	default:
		return StatusUnknown
	}
}

func validateAbsoluteURL(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: "is required"}
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ValidationError{Field: field, Reason: "must be an absolute URL"}
	}
	return nil
}
