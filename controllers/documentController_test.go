package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"billing-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quotationBody(clientID uint) map[string]any {
	return map[string]any{
		"kind":      "quotation",
		"client_id": clientID,
		"items": []map[string]any{
			{"name": "widget", "quantity": "2", "price": "100", "discount_percent": "10", "tax_percent": "5"},
		},
	}
}

func TestCreateDocumentComputesTotals(t *testing.T) {
	app, db := setupApp(t)
	client := seedClient(t, db)

	code, body := doJSON(t, app, http.MethodPost, "/api/document", quotationBody(client.Id), nil)
	require.Equal(t, http.StatusCreated, code, "body: %v", body)

	requireAmount(t, body["subtotal"], "200")
	requireAmount(t, body["discount_total"], "20")
	requireAmount(t, body["tax_total"], "9")
	requireAmount(t, body["grand_total"], "189")
	assert.Equal(t, "draft", body["status"])
	assert.Empty(t, body["number"], "number is assigned at send, not create")
}

func TestCreateDocumentValidation(t *testing.T) {
	app, db := setupApp(t)
	client := seedClient(t, db)

	// Unknown client
	payload := quotationBody(9999)
	code, _ := doJSON(t, app, http.MethodPost, "/api/document", payload, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	// Empty item list
	payload = quotationBody(client.Id)
	payload["items"] = []map[string]any{}
	code, _ = doJSON(t, app, http.MethodPost, "/api/document", payload, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	// Zero quantity
	payload = quotationBody(client.Id)
	payload["items"] = []map[string]any{{"name": "x", "quantity": "0", "price": "10"}}
	code, _ = doJSON(t, app, http.MethodPost, "/api/document", payload, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestCurrencyGuard(t *testing.T) {
	app, db := setupApp(t)
	client := seedClient(t, db)

	// Foreign currency without a rate is always rejected at submit time.
	payload := quotationBody(client.Id)
	payload["currency"] = "USD"
	code, body := doJSON(t, app, http.MethodPost, "/api/document", payload, nil)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "exchange_rate", body["field"])

	// With a positive rate it passes.
	payload["exchange_rate"] = "1.0845"
	code, body = doJSON(t, app, http.MethodPost, "/api/document", payload, nil)
	require.Equal(t, http.StatusCreated, code, "body: %v", body)
	assert.Equal(t, "USD", body["currency"])

	// Base currency never requires a rate.
	payload = quotationBody(client.Id)
	payload["currency"] = "EUR"
	code, _ = doJSON(t, app, http.MethodPost, "/api/document", payload, nil)
	assert.Equal(t, http.StatusCreated, code)
}

func TestSendAssignsNumberOnce(t *testing.T) {
	app, db := setupApp(t)
	client := seedClient(t, db)

	_, created := doJSON(t, app, http.MethodPost, "/api/document", quotationBody(client.Id), nil)
	id := docID(created)

	code, sent := doJSON(t, app, http.MethodPut, "/api/document/"+id+"/send", nil, nil)
	require.Equal(t, http.StatusOK, code, "body: %v", sent)
	assert.Equal(t, "sent", sent["status"])
	assert.Equal(t, "QUO-00001", sent["number"])

	// The sequence advances: the next send claims the next number.
	_, second := doJSON(t, app, http.MethodPost, "/api/document", quotationBody(client.Id), nil)
	code, sentSecond := doJSON(t, app, http.MethodPut, "/api/document/"+docID(second)+"/send", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "QUO-00002", sentSecond["number"])

	// Sending again is an illegal transition.
	code, body := doJSON(t, app, http.MethodPut, "/api/document/"+id+"/send", nil, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "state_conflict", body["kind"])

	// Exactly one version snapshot was stored for the first document.
	var versions int64
	require.NoError(t, db.Model(&models.DocumentVersion{}).
		Where("document_id = ?", mustUint(t, id)).Count(&versions).Error)
	assert.EqualValues(t, 1, versions)
}

func TestDraftOnlyEditing(t *testing.T) {
	app, db := setupApp(t)
	client := seedClient(t, db)

	_, created := doJSON(t, app, http.MethodPost, "/api/document", quotationBody(client.Id), nil)
	id := docID(created)
	doJSON(t, app, http.MethodPut, "/api/document/"+id+"/send", nil, nil)

	code, body := doJSON(t, app, http.MethodPut, "/api/document/"+id, quotationBody(client.Id), nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "state_conflict", body["kind"])
}

func TestQuotationLifecycleAndConversion(t *testing.T) {
	app, db := setupApp(t)
	client := seedClient(t, db)

	_, created := doJSON(t, app, http.MethodPost, "/api/document", quotationBody(client.Id), nil)
	id := docID(created)

	// Accepting a draft must fail: no silent skips.
	code, _ := doJSON(t, app, http.MethodPut, "/api/document/"+id+"/accept", nil, nil)
	require.Equal(t, http.StatusConflict, code)

	doJSON(t, app, http.MethodPut, "/api/document/"+id+"/send", nil, nil)
	code, body := doJSON(t, app, http.MethodPut, "/api/document/"+id+"/accept", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "accepted", body["status"])

	// Convert.
	code, invoice := doJSON(t, app, http.MethodPost, "/api/document/"+id+"/convert", nil, nil)
	require.Equal(t, http.StatusCreated, code, "body: %v", invoice)
	assert.Equal(t, "invoice", invoice["kind"])
	assert.Equal(t, "draft", invoice["status"])
	requireAmount(t, invoice["grand_total"], "189")
	requireAmount(t, invoice["balance_due"], "189")

	// The quotation is terminal now.
	_, q := doJSON(t, app, http.MethodGet, "/api/document/"+id, nil, nil)
	assert.Equal(t, "converted", q["status"])

	// A second conversion fails and creates no duplicate.
	code, _ = doJSON(t, app, http.MethodPost, "/api/document/"+id+"/convert", nil, nil)
	assert.Equal(t, http.StatusConflict, code)

	var invoices int64
	require.NoError(t, db.Model(&models.Document{}).
		Where("kind = ?", models.KindInvoice).Count(&invoices).Error)
	assert.EqualValues(t, 1, invoices)
}

func TestPaymentFlow(t *testing.T) {
	app, db := setupApp(t)
	client := seedClient(t, db)

	payload := quotationBody(client.Id)
	payload["kind"] = "invoice"
	_, created := doJSON(t, app, http.MethodPost, "/api/document", payload, nil)
	id := docID(created)

	// Payments against a draft are refused.
	code, _ := doJSON(t, app, http.MethodPost, "/api/document/"+id+"/payments",
		map[string]any{"amount": "50", "payment_method": "cash"}, nil)
	require.Equal(t, http.StatusConflict, code)

	doJSON(t, app, http.MethodPut, "/api/document/"+id+"/send", nil, nil)

	// Partial payment.
	code, body := doJSON(t, app, http.MethodPost, "/api/document/"+id+"/payments",
		map[string]any{"amount": "100", "payment_method": "bank_transfer", "reference": "wire-1"}, nil)
	require.Equal(t, http.StatusCreated, code, "body: %v", body)
	invoice := body["invoice"].(map[string]any)
	requireAmount(t, invoice["balance_due"], "89")
	assert.Equal(t, "partial", invoice["status"])

	// Overpay is a conflict.
	code, body = doJSON(t, app, http.MethodPost, "/api/document/"+id+"/payments",
		map[string]any{"amount": "89.01", "payment_method": "cash"}, nil)
	require.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "state_conflict", body["kind"])

	// Settle in full.
	code, body = doJSON(t, app, http.MethodPost, "/api/document/"+id+"/payments",
		map[string]any{"amount": "89", "payment_method": "cash"}, nil)
	require.Equal(t, http.StatusCreated, code)
	invoice = body["invoice"].(map[string]any)
	requireAmount(t, invoice["balance_due"], "0")
	assert.Equal(t, "paid", invoice["status"])
	secondPayment := body["payment"].(map[string]any)

	// Paid invoices take no further payments.
	code, _ = doJSON(t, app, http.MethodPost, "/api/document/"+id+"/payments",
		map[string]any{"amount": "1", "payment_method": "cash"}, nil)
	assert.Equal(t, http.StatusConflict, code)

	// Removing the second payment restores the pre-payment balance exactly
	// and reverts the status.
	payID := fmt.Sprintf("%v", secondPayment["id"])
	code, body = doJSON(t, app, http.MethodDelete, "/api/document/"+id+"/payments/"+payID, nil, nil)
	require.Equal(t, http.StatusOK, code, "body: %v", body)
	requireAmount(t, body["balance_due"], "89")
	assert.Equal(t, "partial", body["status"])
}

func sentInvoiceID(t *testing.T, app *fiber.App, clientID uint) string {
	t.Helper()
	payload := quotationBody(clientID)
	payload["kind"] = "invoice"
	_, created := doJSON(t, app, http.MethodPost, "/api/document", payload, nil)
	id := docID(created)
	code, _ := doJSON(t, app, http.MethodPut, "/api/document/"+id+"/send", nil, nil)
	require.Equal(t, http.StatusOK, code)
	return id
}

func TestPaymentRetryWithKeyAppliesOnce(t *testing.T) {
	app, db := setupApp(t)
	client := seedClient(t, db)
	id := sentInvoiceID(t, app, client.Id)

	headers := map[string]string{"Idempotency-Key": "pay-once-1"}
	body := map[string]any{"amount": "100", "payment_method": "cash"}

	code, first := doJSON(t, app, http.MethodPost, "/api/document/"+id+"/payments", body, headers)
	require.Equal(t, http.StatusCreated, code, "body: %v", first)

	// The retry replays the stored response; the handler never runs again.
	code, second := doJSON(t, app, http.MethodPost, "/api/document/"+id+"/payments", body, headers)
	require.Equal(t, http.StatusCreated, code, "body: %v", second)
	assert.Equal(t, first, second)

	var payments int64
	require.NoError(t, db.Model(&models.Payment{}).Count(&payments).Error)
	assert.EqualValues(t, 1, payments)

	// The same key with a different request is a misuse, not a replay.
	other := map[string]any{"amount": "50", "payment_method": "cash"}
	code, _ = doJSON(t, app, http.MethodPost, "/api/document/"+id+"/payments", other, headers)
	assert.Equal(t, http.StatusConflict, code)
}

func TestPaymentAmountSettlesInCents(t *testing.T) {
	app, db := setupApp(t)
	client := seedClient(t, db)
	id := sentInvoiceID(t, app, client.Id)

	// A sub-cent amount rounds before reconciling, so the stored row and
	// the balance stay in lockstep.
	code, body := doJSON(t, app, http.MethodPost, "/api/document/"+id+"/payments",
		map[string]any{"amount": "10.004", "payment_method": "cash"}, nil)
	require.Equal(t, http.StatusCreated, code, "body: %v", body)
	payment := body["payment"].(map[string]any)
	requireAmount(t, payment["amount"], "10")
	invoice := body["invoice"].(map[string]any)
	requireAmount(t, invoice["balance_due"], "179")

	// Removing it restores the full balance exactly.
	payID := fmt.Sprintf("%v", payment["id"])
	code, body = doJSON(t, app, http.MethodDelete, "/api/document/"+id+"/payments/"+payID, nil, nil)
	require.Equal(t, http.StatusOK, code)
	requireAmount(t, body["balance_due"], "189")
	assert.Equal(t, "sent", body["status"])

	// An amount that rounds to zero is no payment at all.
	code, _ = doJSON(t, app, http.MethodPost, "/api/document/"+id+"/payments",
		map[string]any{"amount": "0.004", "payment_method": "cash"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestRecurringMaterialize(t *testing.T) {
	app, db := setupApp(t)
	client := seedClient(t, db)

	payload := map[string]any{
		"client_id":     client.Id,
		"frequency":     "monthly",
		"start_date":    "2026-08-01T00:00:00Z",
		"due_date_days": 14,
		"items": []map[string]any{
			{"name": "retainer", "quantity": "1", "price": "500", "tax_percent": "20"},
		},
	}
	code, tmpl := doJSON(t, app, http.MethodPost, "/api/recurring", payload, nil)
	require.Equal(t, http.StatusCreated, code, "body: %v", tmpl)
	assert.Equal(t, "recurring", tmpl["kind"])

	code, invoice := doJSON(t, app, http.MethodPost, "/api/recurring/"+docID(tmpl)+"/materialize", nil, nil)
	require.Equal(t, http.StatusCreated, code, "body: %v", invoice)
	assert.Equal(t, "invoice", invoice["kind"])
	assert.Equal(t, "draft", invoice["status"])
	requireAmount(t, invoice["grand_total"], "600")

	// Due-date-days outside 1..30 is rejected at create.
	payload["due_date_days"] = 45
	code, _ = doJSON(t, app, http.MethodPost, "/api/recurring", payload, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestRecurringEnd(t *testing.T) {
	app, db := setupApp(t)
	client := seedClient(t, db)

	payload := map[string]any{
		"client_id":     client.Id,
		"frequency":     "weekly",
		"start_date":    "2026-08-01T00:00:00Z",
		"due_date_days": 7,
		"items": []map[string]any{
			{"name": "hosting", "quantity": "1", "price": "25"},
		},
	}
	_, tmpl := doJSON(t, app, http.MethodPost, "/api/recurring", payload, nil)
	id := docID(tmpl)

	code, body := doJSON(t, app, http.MethodDelete, "/api/recurring/"+id, nil, nil)
	require.Equal(t, http.StatusOK, code, "body: %v", body)
	assert.Equal(t, "ended", body["status"])
	assert.Equal(t, "ended", body["display_status"])

	// Ended schedules neither end again nor materialize.
	code, _ = doJSON(t, app, http.MethodDelete, "/api/recurring/"+id, nil, nil)
	assert.Equal(t, http.StatusConflict, code)
	code, _ = doJSON(t, app, http.MethodPost, "/api/recurring/"+id+"/materialize", nil, nil)
	assert.Equal(t, http.StatusConflict, code)
}
