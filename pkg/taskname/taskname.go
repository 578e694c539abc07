package taskname

const (
	// Tenant tasks
	TenantProvisioned = "tenant:provisioned"

	// Billing tasks
	BillingMonitorRun = "billing:monitor:run"

	// Ticket tasks
	TicketCreated = "ticket:created"
)
