package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldDurationHuman = "duration_human"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldUserID        = "user_id"
	FieldRecordKind    = "record_kind"
	FieldRecordID      = "record_id"
	FieldAmount        = "amount"
	FieldPeriod        = "period"
	FieldSheetTab      = "sheet_tab"
)

// Components defines standard component names
const (
	ComponentApp          = "app"
	ComponentHTTP         = "http"
	ComponentRecords      = "records"
	ComponentAuth         = "auth"
	ComponentSubscription = "subscription"
	ComponentStorage      = "storage"
	ComponentAMQP         = "amqp"
	ComponentWorker       = "worker"
	ComponentSheets       = "sheets"
	ComponentCache        = "cache"
	ComponentSecurity     = "security"
	ComponentRateLimit    = "rate_limit"
	ComponentTrace        = "trace"
	ComponentBackend      = "backend"
	ComponentExport       = "export"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSync     = "sync"
	OpValidate = "validate"
	OpParse    = "parse"
	OpExport   = "export"
	OpPublish  = "publish"
	OpSignUp   = "sign_up"
	OpSignIn   = "sign_in"
	OpSignOut  = "sign_out"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error text; nil errors are skipped.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithRecord adds the owner, kind and id of a user record.
func (f LogFields) WithRecord(userID, kind, id string) LogFields {
	f[FieldUserID] = userID
	f[FieldRecordKind] = kind
	if id != "" {
		f[FieldRecordID] = id
	}
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a slice for slog. The component key is left
// out because Logger adds its own.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		if k == FieldComponent {
			continue
		}
		slice = append(slice, k, v)
	}
	return slice
}
