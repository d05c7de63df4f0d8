package http

const (
	KeyHeaderContentType       = "Content-Type"
	KeyHeaderRequestID         = "X-Request-ID"
	ValueHeaderApplicationJson = "application/json"
	ValueHeaderEventStream     = "text/event-stream"
)
