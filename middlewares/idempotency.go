package middlewares

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"billing-backend/database"
	"billing-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Idempotency processes Idempotency-Key for mutating HTTP methods. A retried
// request with the same key replays the stored response instead of running
// the handler again, which keeps a double-submitted payment from applying
// twice. It uses its own short transactions with SET LOCAL search_path so
// pooled connections never leak a tenant.
func Idempotency() fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch && method != fiber.MethodDelete {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get("Idempotency-Key"))
		if key == "" {
			return c.Next()
		}
		if len(key) > 128 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Idempotency-Key too long"})
		}

		schema, _ := c.Locals("schema").(string)
		userID, _ := c.Locals("userID").(string)
		if schema == "" || userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "auth context missing"})
		}

		reqHash := requestHash(method, c.OriginalURL(), c.Body(), schema, userID)

		// Phase 1: find existing record or create a "pending" one.
		replayed := false
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := pinSchema(tx, schema); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "idempotency schema pin failed")
			}

			existing, err := findOrCreatePending(tx, key, reqHash, method, c.OriginalURL(), schema, userID)
			if err != nil {
				return err
			}
			if existing.RequestHash != reqHash {
				return fiber.NewError(fiber.StatusConflict, "Idempotency-Key reuse with different request")
			}
			if existing.ResponseStatus != 0 && existing.ResponseBody != nil {
				// Completed earlier: replay the stored response, skip the handler.
				replayed = true
				c.Status(existing.ResponseStatus)
				return c.Send(existing.ResponseBody)
			}
			return nil
		})
		if err != nil || replayed {
			return err
		}

		if err := c.Next(); err != nil {
			return err
		}

		// Phase 2: store the response. Best-effort; a failure here must not
		// break the already-successful response.
		_ = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := pinSchema(tx, schema); err != nil {
				return nil
			}
			now := time.Now().UTC()
			resp := c.Response().Body()
			blob := make([]byte, len(resp))
			copy(blob, resp)

			return tx.Model(&models.IdempotencyKey{}).
				Where("key = ?", key).
				Updates(map[string]any{
					"response_status": c.Response().StatusCode(),
					"response_body":   blob,
					"completed_at":    &now,
				}).Error
		})

		return nil
	}
}

// pinSchema scopes the transaction to the tenant schema. search_path is a
// postgres notion; other dialects are single-schema and need no pin.
func pinSchema(tx *gorm.DB, schema string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec(`SET LOCAL search_path = "` + schema + `", public`).Error
}

// requestHash builds the deterministic hash method|path|body|schema|user.
func requestHash(method, path string, body []byte, schema, userID string) string {
	h := sha256.New()
	for _, part := range [][]byte{[]byte(method), []byte(path), body, []byte(schema), []byte(userID)} {
		h.Write(part)
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func findOrCreatePending(tx *gorm.DB, key, reqHash, method, path, schema, userID string) (*models.IdempotencyKey, error) {
	var existing models.IdempotencyKey
	err := tx.Where("key = ?", key).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "idempotency lookup failed")
	}
	rec := models.IdempotencyKey{
		Key:          key,
		RequestHash:  reqHash,
		Method:       method,
		Path:         path,
		TenantSchema: schema,
		UserID:       userID,
	}
	if err := tx.Create(&rec).Error; err != nil {
		// Unique race: another request created it first; read that one.
		if err := tx.Where("key = ?", key).First(&existing).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusInternalServerError, "idempotency create failed")
		}
		return &existing, nil
	}
	return &rec, nil
}
