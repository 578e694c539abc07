package tenant

import (
	"context"
	"fmt"

	"farmavida-master/pkg/logger"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type cascadeStep struct {
	table string
	// where selects the rows of this tenant; it receives the tenant id once.
	where    string
	required bool
}

func byTenant(table string, required bool) cascadeStep {
	return cascadeStep{table: table, where: "tenant_id = ?", required: required}
}

// cascadeSteps lists tenant-scoped tables in dependency order. Children of
// products and orders go first, profiles last.
var cascadeSteps = []cascadeStep{
	{table: "product_batches", where: "product_id IN (SELECT id FROM products WHERE tenant_id = ?)", required: true},
	{table: "order_items", where: "order_id IN (SELECT id FROM orders WHERE tenant_id = ?)", required: true},
	byTenant("invoice_logs", false),
	byTenant("crm_logs", false),
	byTenant("whatsapp_notifications", false),
	byTenant("price_history", false),
	byTenant("restock_recommendations", false),
	byTenant("invoices", false),
	byTenant("payments", false),
	byTenant("daily_offers", false),
	byTenant("crm_birthday", false),
	byTenant("crm_vip", false),
	byTenant("orders", true),
	byTenant("products", true),
	byTenant("customers", false),
	byTenant("health_insurance_plans", false),
	byTenant("store_settings", false),
	byTenant("fiscal_settings", false),
	byTenant("cashback_settings", false),
	byTenant("crm_campaigns", false),
	{table: "ticket_messages", where: "ticket_id IN (SELECT id FROM support_tickets WHERE tenant_id = ?)"},
	byTenant("support_tickets", false),
	byTenant("access_logs", false),
	byTenant("identities", false),
	byTenant("profiles", true),
}

type CascadeReport struct {
	Deleted map[string]int64 `json:"deleted"`
	Skipped []string         `json:"skipped,omitempty"`
}

// Delete removes the tenant and every tenant-scoped row. Failures on
// products, orders or profiles abort and roll back; failures on the other
// tables are logged and skipped. Tables that do not exist count as clean.
func (s *Service) Delete(ctx context.Context, id string) (*CascadeReport, error) {
	ctx, span := tracer.Start(ctx, "tenant.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("tenant.id", id))

	zapLog := logger.FromContext(ctx).With(zap.String("tenant_id", id))

	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}

	report := &CascadeReport{Deleted: map[string]int64{}}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		migrator := tx.Migrator()
		for _, step := range cascadeSteps {
			if !migrator.HasTable(step.table) {
				continue
			}

			var affected int64
			err := tx.Transaction(func(sp *gorm.DB) error {
				res := sp.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s", step.table, step.where), id)
				affected = res.RowsAffected
				return res.Error
			})
			if err != nil {
				if step.required {
					zapLog.Error("cascade delete failed", zap.String("table", step.table), zap.Error(err))
					return fmt.Errorf("delete %s: %w", step.table, err)
				}
				zapLog.Warn("cascade delete skipped", zap.String("table", step.table), zap.Error(err))
				report.Skipped = append(report.Skipped, step.table)
				continue
			}
			if affected > 0 {
				report.Deleted[step.table] = affected
			}
		}

		res := tx.Where("id = ?", id).Delete(&Tenant{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	zapLog.Info("tenant deleted", zap.Any("deleted", report.Deleted), zap.Strings("skipped", report.Skipped))
	return report, nil
}
