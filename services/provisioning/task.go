package provisioning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"farmavida-master/pkg/logger"
	"farmavida-master/pkg/taskname"
	"farmavida-master/services/tenant"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// TenantToucher records activity on a tenant.
type TenantToucher interface {
	Touch(ctx context.Context, id string) error
}

type TaskHandler struct {
	tenants TenantToucher
}

func NewTaskHandler(tenants TenantToucher) *TaskHandler {
	return &TaskHandler{tenants: tenants}
}

// HandleProvisioned records first activity for a new tenant. The welcome
// notice is not delivered until a mail provider is configured.
func (h *TaskHandler) HandleProvisioned(ctx context.Context, t *asynq.Task) error {
	var payload ProvisionedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}

	zapLog := logger.FromContext(ctx).With(
		zap.String("tenant_id", payload.TenantID),
		zap.String("slug", payload.Slug),
	)

	if err := h.tenants.Touch(ctx, payload.TenantID); err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			zapLog.Warn("provisioned tenant no longer exists")
			return nil
		}
		return err
	}

	zapLog.Info("tenant activity recorded, welcome notice pending mail provider", zap.String("admin_email", payload.AdminEmail))
	return nil
}

type registerParams struct {
	fx.In
	Mux     *asynq.ServeMux
	Tenants *tenant.Service
}

func registerTasks(p registerParams) {
	h := NewTaskHandler(p.Tenants)
	p.Mux.HandleFunc(taskname.TenantProvisioned, h.HandleProvisioned)
}
