package routes

import (
	"github.com/gofiber/fiber/v2"

	"billing-backend/controllers"
	"billing-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", controllers.Register)
	api.Post("/login", controllers.Login)
	api.Post("/logout", controllers.Logout)

	// Guest share-link surface: token-scoped, no session credential, and no
	// session refresh path. Open/verify are fully public; actions require
	// the guest token issued by open/verify.
	share := api.Group("/share")
	share.Get("/:token", controllers.OpenShare)
	share.Post("/:token/verify", controllers.VerifyShare)

	shareActions := share.Group("", middlewares.IsVerifiedGuest())
	shareActions.Post("/:token/acknowledge", controllers.AcknowledgeInvoice)
	shareActions.Post("/:token/accept", controllers.GuestAcceptQuotation)
	shareActions.Post("/:token/reject", controllers.GuestRejectQuotation)

	// Protected endpoints (session JWT)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency())

	// Then per-request tenant transaction (pins search_path and commits/rolls back)
	protected.Use(middlewares.TenantTx())

	// Clients
	protected.Post("/client", controllers.CreateClient)
	protected.Get("/clients", controllers.GetClients)
	protected.Get("/client/:id", controllers.GetClient)
	protected.Put("/client/:id", controllers.UpdateClient)

	// Catalog
	protected.Post("/items", controllers.CreateCatalogItems) // batch create
	protected.Get("/items", controllers.GetCatalogItems)
	protected.Put("/items/:id", controllers.UpdateCatalogItem)
	protected.Post("/category", controllers.CreateCategory)
	protected.Get("/categories", controllers.GetCategories)
	protected.Post("/uom", controllers.CreateUnitOfMeasure)
	protected.Get("/uoms", controllers.GetUnitsOfMeasure)

	// Company settings
	protected.Get("/settings", controllers.GetSettings)
	protected.Put("/settings", controllers.UpdateSettings)

	// Documents (quotations + invoices)
	protected.Post("/document", controllers.CreateDocument)
	protected.Get("/documents", controllers.GetDocuments)
	protected.Get("/document/:id", controllers.GetDocument)
	protected.Put("/document/:id", controllers.UpdateDocument)
	protected.Put("/document/:id/send", controllers.SendDocument)
	protected.Put("/document/:id/:decision<regex(accept|reject)>", controllers.DecideQuotation)
	protected.Post("/document/:id/convert", controllers.ConvertQuotation)
	protected.Get("/document/:id/versions", controllers.GetDocumentVersions)

	// Payments
	protected.Post("/document/:id/payments", controllers.CreatePayment)
	protected.Get("/document/:id/payments", controllers.ListPayments)
	protected.Delete("/document/:id/payments/:paymentId", controllers.DeletePayment)

	// Recurring invoice templates
	protected.Post("/recurring", controllers.CreateRecurringTemplate)
	protected.Get("/recurring", controllers.GetRecurringTemplates)
	protected.Post("/recurring/:id/materialize", controllers.MaterializeRecurring)
	protected.Delete("/recurring/:id", controllers.EndRecurringTemplate)

	// Share-link management
	protected.Post("/share-link", controllers.CreateShareLink)
	protected.Get("/document/:id/share-links", controllers.ListShareLinks)
	protected.Delete("/share-link/:token", controllers.DeactivateShareLink)
}
