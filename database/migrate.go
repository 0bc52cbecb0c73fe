package database

import (
	"fmt"

	"billing-backend/models"

	"gorm.io/gorm"
)

// MigrateTenantSchema applies (idempotent) schema migrations for a single
// tenant schema: AutoMigrate, NUMERIC(12,2) money columns, indexes and basic
// CHECK constraints, plus the idempotency keys table. It also seeds the
// tenant's single company settings row.
func MigrateTenantSchema(schema string) error {
	if schema == "" {
		return fmt.Errorf("schema name is empty")
	}

	return DB.Transaction(func(tx *gorm.DB) error {
		// Pin the tenant schema for this transaction
		if err := tx.Exec(`SET LOCAL search_path = "` + schema + `", public`).Error; err != nil {
			return fmt.Errorf("set search_path failed: %w", err)
		}

		if err := tx.AutoMigrate(
			&models.Client{},
			&models.Category{},
			&models.CatalogItem{},
			&models.UnitOfMeasure{},
			&models.Document{},
			&models.LineItem{},
			&models.DocumentVersion{},
			&models.Payment{},
			&models.CompanySettings{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("tenant automigrate failed: %w", err)
		}

		// Money columns as NUMERIC(12,2) (idempotent ALTERs)
		alters := []string{
			`ALTER TABLE catalog_items ALTER COLUMN rate           TYPE numeric(12,2)`,
			`ALTER TABLE documents     ALTER COLUMN subtotal       TYPE numeric(12,2)`,
			`ALTER TABLE documents     ALTER COLUMN discount_total TYPE numeric(12,2)`,
			`ALTER TABLE documents     ALTER COLUMN tax_total      TYPE numeric(12,2)`,
			`ALTER TABLE documents     ALTER COLUMN grand_total    TYPE numeric(12,2)`,
			`ALTER TABLE documents     ALTER COLUMN balance_due    TYPE numeric(12,2)`,
			`ALTER TABLE line_items    ALTER COLUMN price          TYPE numeric(12,2)`,
			`ALTER TABLE payments      ALTER COLUMN amount         TYPE numeric(12,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		indexes := []string{
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_document_versions_doc_version ON document_versions (document_id, version_no)`,
			`CREATE INDEX IF NOT EXISTS idx_payments_invoice_paid_at ON payments (invoice_id, paid_at)`,
			`CREATE INDEX IF NOT EXISTS idx_line_items_document ON line_items (document_id)`,
			`CREATE INDEX IF NOT EXISTS idx_documents_kind_status ON documents (kind, status)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_keys_key ON idempotency_keys (key)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		checks := []string{
			checkConstraint("payments", "chk_payments_amount_positive", "amount > 0"),
			checkConstraint("line_items", "chk_line_items_quantity_positive", "quantity > 0"),
			checkConstraint("line_items", "chk_line_items_price_nonneg", "price >= 0"),
			checkConstraint("line_items", "chk_line_items_discount_pct", "discount_percent >= 0 AND discount_percent <= 100"),
			checkConstraint("line_items", "chk_line_items_tax_pct", "tax_percent >= 0 AND tax_percent <= 100"),
			checkConstraint("documents", "chk_documents_due_date_days", "due_date_days >= 0 AND due_date_days <= 30"),
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		// Seed the singleton settings row if missing.
		var count int64
		if err := tx.Model(&models.CompanySettings{}).Count(&count).Error; err != nil {
			return fmt.Errorf("settings count failed: %w", err)
		}
		if count == 0 {
			if err := tx.Create(&models.CompanySettings{}).Error; err != nil {
				return fmt.Errorf("settings seed failed: %w", err)
			}
		}

		return nil
	})
}

// checkConstraint emits an idempotent ADD CONSTRAINT ... CHECK block.
func checkConstraint(table, name, expr string) string {
	return fmt.Sprintf(`DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint
		WHERE conrelid = '%s'::regclass
		  AND conname  = '%s'
	) THEN
		ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);
	END IF;
END $$;`, table, name, table, name, expr)
}
