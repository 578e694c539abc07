package httpapi

import (
	"errors"

	"farmavida-master/pkg/errutil"
	"farmavida-master/services/plan"
	"farmavida-master/services/provisioning"
	"farmavida-master/services/tenant"
	"farmavida-master/services/ticket"

	"github.com/gin-gonic/gin"
)

// translate turns domain sentinels into errutil errors with a stable reason.
// Errors that already carry a status pass through untouched.
func translate(err error) error {
	var base errutil.BaseError
	if errors.As(err, &base) {
		return err
	}

	switch {
	case errors.Is(err, tenant.ErrNotFound):
		return errutil.NotFound("tenant not found", err, errutil.WithReason("tenant_not_found"))
	case errors.Is(err, tenant.ErrSlugTaken):
		return errutil.Conflict("slug already in use", err, errutil.WithReason("slug_taken"))
	case errors.Is(err, tenant.ErrInvalidStatus):
		return errutil.ValidationFailed("invalid tenant status", err, errutil.WithReason("invalid_status"))
	case errors.Is(err, tenant.ErrUnknownPlan):
		return errutil.ValidationFailed("plan does not exist", err, errutil.WithReason("unknown_plan"))
	case errors.Is(err, tenant.ErrNoCustomDomain):
		return errutil.BadRequest("tenant has no custom domain", err, errutil.WithReason("no_custom_domain"))
	case errors.Is(err, tenant.ErrDomainUnchecked):
		return errutil.UnprocessableEntity("verification record not found", err, errutil.WithReason("domain_unverified"))
	case errors.Is(err, provisioning.ErrSlugExhausted):
		return errutil.Conflict("could not find a free slug", err, errutil.WithReason("slug_exhausted"))
	case errors.Is(err, plan.ErrNotFound):
		return errutil.NotFound("plan not found", err, errutil.WithReason("plan_not_found"))
	case errors.Is(err, plan.ErrCodeTaken):
		return errutil.Conflict("plan code already exists", err, errutil.WithReason("plan_code_taken"))
	case errors.Is(err, plan.ErrInUse):
		return errutil.Conflict("plan is assigned to tenants", err, errutil.WithReason("plan_in_use"))
	case errors.Is(err, ticket.ErrNotFound):
		return errutil.NotFound("ticket not found", err, errutil.WithReason("ticket_not_found"))
	case errors.Is(err, ticket.ErrInvalidStatus):
		return errutil.ValidationFailed("invalid ticket status", err, errutil.WithReason("invalid_status"))
	case errors.Is(err, ticket.ErrClosed):
		return errutil.Conflict("ticket is closed", err, errutil.WithReason("ticket_closed"))
	case errors.Is(err, ticket.ErrStorageDisabled):
		return errutil.Unavailable("attachments are disabled", err, errutil.WithReason("storage_disabled"))
	case errors.Is(err, ticket.ErrAssistantOffline):
		return errutil.Unavailable("reply assistant is disabled", err, errutil.WithReason("assistant_offline"))
	}
	return err
}

func abort(c *gin.Context, err error) {
	_ = c.Error(translate(err))
	c.Abort()
}

func badBody(c *gin.Context, err error) {
	abort(c, errutil.BadRequest("invalid request body", err, errutil.WithReason("invalid_body")))
}
