package merchant

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	esewa "github.com/noah-isme/esewa-epay"
)

// Handler exposes the demo merchant endpoints around an esewa.Client.
type Handler struct {
	Client *esewa.Client
	Logger zerolog.Logger
}

type createPaymentReq struct {
	Amount          float64 `json:"amount"`
	DeliveryCharge  float64 `json:"deliveryCharge"`
	ServiceCharge   float64 `json:"serviceCharge"`
	TaxAmount       float64 `json:"taxAmount"`
	TransactionUUID string  `json:"transactionUuid,omitempty"`
}

type createPaymentResp struct {
	OrderRef        string            `json:"orderRef"`
	TransactionUUID string            `json:"transactionUuid"`
	PaymentURL      string            `json:"paymentUrl"`
	Fields          map[string]string `json:"fields"`
	FormHTML        string            `json:"formHtml"`
	Status          string            `json:"status"`
	Message         string            `json:"message"`
}

type statusResp struct {
	Status    string         `json:"status"`
	RawStatus string         `json:"rawStatus,omitempty"`
	RefID     string         `json:"refId,omitempty"`
	Raw       map[string]any `json:"raw,omitempty"`
}

// CreatePayment initiates a payment and returns the redirect form fields plus
// a rendered auto-submit form for the storefront to serve.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Client == nil {
		JSONError(w, http.StatusInternalServerError, "NOT_CONFIGURED", "payment handler unavailable", nil)
		return
	}
	var req createPaymentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	transactionUUID := strings.TrimSpace(req.TransactionUUID)
	if transactionUUID == "" {
		transactionUUID = esewa.GenerateUniqueID()
	}
	result, err := h.Client.InitiatePayment(r.Context(), esewa.PaymentRequest{
		Amount:                req.Amount,
		ProductDeliveryCharge: req.DeliveryCharge,
		ProductServiceCharge:  req.ServiceCharge,
		TaxAmount:             req.TaxAmount,
		TransactionUUID:       transactionUUID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	formHTML, err := RenderAutoSubmitForm(result)
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "FORM_RENDER_FAILED", err.Error(), nil)
		return
	}
	JSON(w, http.StatusCreated, createPaymentResp{
		OrderRef:        uuid.NewString(),
		TransactionUUID: transactionUUID,
		PaymentURL:      result.PaymentURL,
		Fields:          result.Fields,
		FormHTML:        formHTML,
		Status:          string(result.Status),
		Message:         result.Message,
	})
}

// Status checks the transaction status for a given identifier and total.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Client == nil {
		JSONError(w, http.StatusInternalServerError, "NOT_CONFIGURED", "payment handler unavailable", nil)
		return
	}
	transactionUUID := strings.TrimSpace(chi.URLParam(r, "transactionUUID"))
	totalRaw := strings.TrimSpace(r.URL.Query().Get("totalAmount"))
	if totalRaw == "" {
		JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "totalAmount is required", nil)
		return
	}
	total, err := strconv.ParseFloat(totalRaw, 64)
	if err != nil {
		JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "totalAmount must be a decimal number", nil)
		return
	}
	result, err := h.Client.CheckStatus(r.Context(), total, transactionUUID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, statusResp{
		Status:    string(result.Status),
		RawStatus: result.RawStatus,
		RefID:     result.RefID,
		Raw:       result.Raw,
	})
}

// Callback handles the gateway redirect after a payment attempt: it decodes
// the base64 data query parameter and re-verifies against the status API
// before reporting anything to the shopper.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Client == nil {
		JSONError(w, http.StatusInternalServerError, "NOT_CONFIGURED", "payment handler unavailable", nil)
		return
	}
	result, err := h.Client.VerifyCallback(r.Context(), r.URL.Query().Get("data"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.Logger.Info().
		Str("status", string(result.Status)).
		Str("ref_id", result.RefID).
		Msg("payment callback verified")
	JSON(w, http.StatusOK, statusResp{
		Status:    string(result.Status),
		RawStatus: result.RawStatus,
		RefID:     result.RefID,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case esewa.IsValidationError(err):
		JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		JSONError(w, http.StatusGatewayTimeout, "GATEWAY_TIMEOUT", err.Error(), nil)
	case esewa.IsPaymentRequestError(err):
		JSONError(w, http.StatusBadGateway, "GATEWAY_ERROR", err.Error(), nil)
	default:
		JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}

var formTemplate = template.Must(template.New("form").Parse(`<form method="POST" action="{{.Action}}" id="esewa-payment">
{{- range $name, $value := .Fields}}
<input type="hidden" name="{{$name}}" value="{{$value}}">
{{- end}}
</form>
<script>document.getElementById("esewa-payment").submit();</script>
`))

// RenderAutoSubmitForm renders the redirect fields as a same-origin
// auto-submitting HTML form posted to the gateway's form endpoint.
func RenderAutoSubmitForm(result *esewa.PaymentResult) (string, error) {
	var sb strings.Builder
	err := formTemplate.Execute(&sb, struct {
		Action string
		Fields map[string]string
	}{Action: result.PaymentURL, Fields: result.Fields})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
