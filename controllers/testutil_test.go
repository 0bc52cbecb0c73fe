package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"billing-backend/database"
	"billing-backend/middlewares"
	"billing-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupApp builds an in-memory sqlite DB and a fiber app wired like the real
// router, minus the session/tx middlewares: the tenant DB is injected into
// locals directly, which is what TenantTx does in production.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Company{}, &models.ShareLink{},
		&models.Client{}, &models.Category{}, &models.CatalogItem{}, &models.UnitOfMeasure{},
		&models.Document{}, &models.LineItem{}, &models.DocumentVersion{},
		&models.Payment{}, &models.CompanySettings{}, &models.IdempotencyKey{},
	))
	require.NoError(t, db.Create(&models.CompanySettings{
		Currency:         "EUR",
		BaseCurrency:     "EUR",
		InvoicePrefix:    "INV-",
		QuotationPrefix:  "QUO-",
		NextInvoiceSeq:   1,
		NextQuotationSeq: 1,
		PaymentTermsDays: 14,
		ConversionPolicy: models.ConvertToDraft,
	}).Error)
	database.DB = db

	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("tx", db)
		c.Locals("schema", "test")
		c.Locals("userID", "test-user")
		return c.Next()
	})
	app.Use(middlewares.Idempotency())

	api := app.Group("/api")
	api.Post("/logout", Logout)

	share := api.Group("/share")
	share.Get("/:token", OpenShare)
	share.Post("/:token/verify", VerifyShare)
	shareActions := share.Group("", middlewares.IsVerifiedGuest())
	shareActions.Post("/:token/acknowledge", AcknowledgeInvoice)
	shareActions.Post("/:token/accept", GuestAcceptQuotation)
	shareActions.Post("/:token/reject", GuestRejectQuotation)

	api.Post("/client", CreateClient)
	api.Post("/document", CreateDocument)
	api.Get("/documents", GetDocuments)
	api.Get("/document/:id", GetDocument)
	api.Put("/document/:id", UpdateDocument)
	api.Put("/document/:id/send", SendDocument)
	api.Put("/document/:id/:decision<regex(accept|reject)>", DecideQuotation)
	api.Post("/document/:id/convert", ConvertQuotation)
	api.Get("/document/:id/versions", GetDocumentVersions)
	api.Post("/document/:id/payments", CreatePayment)
	api.Get("/document/:id/payments", ListPayments)
	api.Delete("/document/:id/payments/:paymentId", DeletePayment)
	api.Post("/recurring", CreateRecurringTemplate)
	api.Post("/recurring/:id/materialize", MaterializeRecurring)
	api.Delete("/recurring/:id", EndRecurringTemplate)
	api.Post("/share-link", CreateShareLink)
	api.Get("/document/:id/share-links", ListShareLinks)
	api.Delete("/share-link/:token", DeactivateShareLink)

	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		blob, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(blob)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	}
	return resp.StatusCode, out
}

func seedClient(t *testing.T, db *gorm.DB) models.Client {
	t.Helper()
	client := models.Client{Name: "ClientCo", Email: "billing@clientco.test", Status: models.ClientActive}
	require.NoError(t, db.Create(&client).Error)
	return client
}

// amount parses a JSON field that may be a string or number into a decimal.
func amount(t *testing.T, v any) decimal.Decimal {
	t.Helper()
	dec, err := decimal.NewFromString(fmt.Sprint(v))
	require.NoError(t, err)
	return dec
}

func requireAmount(t *testing.T, v any, want string) {
	t.Helper()
	dec := amount(t, v)
	wantDec, err := decimal.NewFromString(want)
	require.NoError(t, err)
	require.True(t, dec.Equal(wantDec), "got %s want %s", dec, wantDec)
}

func docID(body map[string]any) string {
	return fmt.Sprintf("%v", body["id"])
}
