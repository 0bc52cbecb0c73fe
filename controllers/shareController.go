package controllers

import (
	"time"

	"billing-backend/billing"
	"billing-backend/database"
	"billing-backend/middlewares"
	"billing-backend/models"

	"github.com/gofiber/fiber/v2"
)

type shareLinkDTO struct {
	DocumentType models.DocumentKind `json:"document_type" validate:"required,oneof=invoice quotation"`
	DocumentID   uint                `json:"document_id" validate:"required"`
	Password     string              `json:"password"`
}

// CreateShareLink issues a token-scoped external link for one document.
// Multiple links may coexist for the same document. Links live in the
// public schema so a bare token can later be resolved to its tenant.
func CreateShareLink(c *fiber.Ctx) error {
	var data shareLinkDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}

	schema, _ := c.Locals("schema").(string)
	if schema == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "tenant context missing")
	}

	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	var doc models.Document
	if err := db.First(&doc, data.DocumentID).Error; err != nil {
		return billing.Invalidf("document_id", "document %d does not exist", data.DocumentID)
	}
	if doc.Kind != data.DocumentType {
		return billing.Invalidf("document_type", "document %d is a %s, not a %s", doc.ID, doc.Kind, data.DocumentType)
	}

	link := models.ShareLink{
		DocumentType: data.DocumentType,
		DocumentID:   data.DocumentID,
		TenantSchema: schema,
		Active:       true,
	}
	if data.Password != "" {
		link.SetPassword(data.Password)
	}
	if err := database.DB.Create(&link).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create share link")
	}

	// The password hash never leaves the server; the caller only learns
	// whether a password is set.
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":        link.Token,
		"has_password": link.HasPassword,
	})
}

func ListShareLinks(c *fiber.Ctx) error {
	schema, _ := c.Locals("schema").(string)
	if schema == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "tenant context missing")
	}
	var links []models.ShareLink
	if err := database.DB.
		Where("tenant_schema = ? AND document_id = ?", schema, uintParam(c, "id")).
		Order("created_at DESC").Find(&links).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"share_links": links})
}

// DeactivateShareLink is one-way: there is no reactivation, and afterwards
// the token behaves as if it never existed.
func DeactivateShareLink(c *fiber.Ctx) error {
	schema, _ := c.Locals("schema").(string)
	if schema == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "tenant context missing")
	}
	var link models.ShareLink
	if err := database.DB.
		Where("token = ? AND tenant_schema = ?", c.Params("token"), schema).
		First(&link).Error; err != nil {
		return billing.ErrLinkNotFound
	}
	now := time.Now()
	if err := database.DB.Model(&link).Updates(map[string]any{
		"active":         false,
		"deactivated_at": &now,
	}).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "deactivated"})
}

// resolveActiveLink resolves a guest token to its link. Unknown and
// deactivated tokens return the same error, indistinguishable by design.
func resolveActiveLink(token string) (*models.ShareLink, error) {
	var link models.ShareLink
	if err := database.DB.Where("token = ?", token).First(&link).Error; err != nil {
		return nil, billing.ErrLinkNotFound
	}
	if !link.Active {
		return nil, billing.ErrLinkNotFound
	}
	return &link, nil
}

func guestDocument(c *fiber.Ctx, link *models.ShareLink) (*models.Document, error) {
	db, err := tenantDBForSchema(c, link.TenantSchema)
	if err != nil {
		return nil, err
	}
	doc, err := loadDocument(db, link.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc.Kind != link.DocumentType {
		return nil, billing.ErrLinkNotFound
	}
	return doc, nil
}

// OpenShare is the unauthenticated entry point for a viewer holding only a
// token. Passwordless links return the document and a guest token at once;
// protected links reveal nothing beyond the existence check until verified.
func OpenShare(c *fiber.Ctx) error {
	link, err := resolveActiveLink(c.Params("token"))
	if err != nil {
		return err
	}

	if link.HasPassword {
		return c.JSON(fiber.Map{
			"requires_password": true,
			"document_type":     link.DocumentType,
		})
	}

	doc, err := guestDocument(c, link)
	if err != nil {
		return err
	}
	guestToken, err := middlewares.GenerateGuestJWT(link.Token, link.TenantSchema)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not issue guest token")
	}
	return c.JSON(fiber.Map{
		"requires_password": false,
		"guest_token":       guestToken,
		"document":          doc,
	})
}

type verifyShareDTO struct {
	Password string `json:"password" validate:"required"`
}

// VerifyShare checks the link password by hash comparison and, on success,
// grants a short-lived authenticated view for the rest of the browsing
// session. A wrong password is recoverable: re-prompt.
func VerifyShare(c *fiber.Ctx) error {
	var data verifyShareDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}

	link, err := resolveActiveLink(c.Params("token"))
	if err != nil {
		return err
	}
	if !link.HasPassword {
		return fiber.NewError(fiber.StatusBadRequest, "share link has no password")
	}
	if err := link.ComparePassword(data.Password); err != nil {
		return &billing.AuthError{Message: "wrong password", Recoverable: true}
	}

	doc, err := guestDocument(c, link)
	if err != nil {
		return err
	}
	guestToken, err := middlewares.GenerateGuestJWT(link.Token, link.TenantSchema)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not issue guest token")
	}
	return c.JSON(fiber.Map{
		"guest_token": guestToken,
		"document":    doc,
	})
}

// verifiedLink guards a guest action: the link must still be active and the
// caller's guest token must have been issued for this very link.
func verifiedLink(c *fiber.Ctx) (*models.ShareLink, error) {
	token := c.Params("token")
	if subject, _ := c.Locals("shareToken").(string); subject != token {
		return nil, &billing.AuthError{Message: "guest token does not match share link", Recoverable: false}
	}
	return resolveActiveLink(token)
}

// AcknowledgeInvoice records that the recipient has seen the invoice.
// Repeats are idempotent: the first acknowledgement timestamp sticks.
func AcknowledgeInvoice(c *fiber.Ctx) error {
	link, err := verifiedLink(c)
	if err != nil {
		return err
	}
	if link.DocumentType != models.KindInvoice {
		return billing.Conflictf("acknowledge", "", "share link does not reference an invoice")
	}
	doc, err := guestDocument(c, link)
	if err != nil {
		return err
	}
	if doc.Status == models.StatusDraft {
		return billing.Conflictf("acknowledge", doc.Status, "invoice has not been sent")
	}

	if doc.AcknowledgedAt == nil {
		db, err := tenantDBForSchema(c, link.TenantSchema)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := db.Model(&models.Document{}).Where("id = ?", doc.ID).
			Update("acknowledged_at", &now).Error; err != nil {
			return err
		}
		doc.AcknowledgedAt = &now
	}
	return c.JSON(fiber.Map{
		"status":          doc.DisplayStatus,
		"acknowledged_at": doc.AcknowledgedAt,
	})
}

// GuestAcceptQuotation and GuestRejectQuotation feed the recipient's
// decision back into the quotation lifecycle. Once the quotation is
// terminal the current state comes back unchanged, without error and
// without re-firing side effects.
func GuestAcceptQuotation(c *fiber.Ctx) error {
	return guestDecide(c, models.StatusAccepted)
}

func GuestRejectQuotation(c *fiber.Ctx) error {
	return guestDecide(c, models.StatusRejected)
}

func guestDecide(c *fiber.Ctx, decision models.DocumentStatus) error {
	link, err := verifiedLink(c)
	if err != nil {
		return err
	}
	if link.DocumentType != models.KindQuotation {
		return billing.Conflictf("decide", "", "share link does not reference a quotation")
	}
	doc, err := guestDocument(c, link)
	if err != nil {
		return err
	}

	status, changed, err := billing.GuestDecision(doc.Status, decision)
	if err != nil {
		return err
	}
	if changed {
		db, err := tenantDBForSchema(c, link.TenantSchema)
		if err != nil {
			return err
		}
		if err := db.Model(&models.Document{}).Where("id = ?", doc.ID).
			Update("status", status).Error; err != nil {
			return err
		}
	}
	return c.JSON(fiber.Map{
		"status":  status,
		"changed": changed,
	})
}
