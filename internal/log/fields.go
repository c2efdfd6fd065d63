package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"

	FieldItemID       = "item_id"
	FieldLocalID      = "local_id"
	FieldUserID       = "user_id"
	FieldAmountCents  = "amount_cents"
	FieldCurrency     = "currency"
	FieldPendingCount = "pending_count"
	FieldAttempted    = "attempted"
	FieldSucceeded    = "succeeded"
	FieldFailed       = "failed"
	FieldOnline       = "is_online"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentSync    = "sync"
	ComponentMonitor = "monitor"
	ComponentBackend = "backend"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentCache   = "cache"
)
