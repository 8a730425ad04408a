// Package handlers implements the market-suggest HTTP endpoints: probes,
// the pure analyze operation, run history queries, run triggering, and the
// HTML run report. Typed operations are registered on a huma.API; probes and
// the report page are plain Echo handlers.
package handlers

// ErrorResponse is the JSON body of errors returned outside huma, such as
// from the HTML report route.
type ErrorResponse struct {
	Error string `json:"error" example:"getting run failed: connection reset"`
}

// StatusResponse is the JSON body of the probe endpoints. Database is only
// set by the readiness probe.
type StatusResponse struct {
	Status   string `json:"status"             example:"ready"`
	Database string `json:"database,omitempty" example:"ok"`
}
