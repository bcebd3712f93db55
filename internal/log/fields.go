package log

const (
	FieldBackend   = "backend"
	FieldService   = "service"
	FieldURL       = "url"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldQuery     = "query"
	FieldPage      = "page"
	FieldImages    = "images"
	FieldCacheKey  = "cache_key"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldRequestID = "request_id"
	FieldClientIP  = "client_ip"
)
