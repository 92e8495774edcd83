package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, propagated through the call chain via context.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldJobID is the scrape job ID
	FieldJobID = "job_id"

	// FieldEventID is the internal tracked-event ID
	FieldEventID = "event_id"

	// FieldProductionID is the marketplace production ID
	FieldProductionID = "production_id"

	// FieldQuantityFilter is the requested group size of a fetch
	FieldQuantityFilter = "quantity_filter"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldTask is the scheduler task name
	FieldTask = "task"
)

// Metric fields, attached per log line for aggregation and alerting.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"

	// FieldDataSource marks fetched data as live or mock
	FieldDataSource = "data_source"
)
