package models

// OpenAPIRef points a planned request at its catalog operation.
type OpenAPIRef struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// PlannedRequest is a validated, not-yet-executed description of an API
// call. The engine never executes one itself; execution is always delegated
// to the caller.
type PlannedRequest struct {
	Method  string         `json:"method"`
	Path    string         `json:"path"`
	Body    map[string]any `json:"body,omitempty"`
	OpenAPI OpenAPIRef     `json:"openapi"`
}

// NewPlannedRequest builds a planned request with its OpenAPI reference
// mirroring method and path.
func NewPlannedRequest(method, path string, body map[string]any) PlannedRequest {
	return PlannedRequest{
		Method:  method,
		Path:    path,
		Body:    body,
		OpenAPI: OpenAPIRef{Method: method, Path: path},
	}
}
