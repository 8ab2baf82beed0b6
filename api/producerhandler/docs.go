package producerhandler

// Operation describes one documented endpoint.
type Operation struct {
	Method  string
	Path    string
	Summary string
}

// Documentation lists documented operations. Producer endpoints are called by
// the secrets manager, not by people, so nothing is published.
func (h *Handler) Documentation() []Operation {
	return []Operation{}
}

// DocumentationSecuritySchemes returns no security schemes.
func (h *Handler) DocumentationSecuritySchemes() map[string]any {
	return map[string]any{}
}

// DocumentationModels returns no models.
func (h *Handler) DocumentationModels() map[string]any {
	return map[string]any{}
}
