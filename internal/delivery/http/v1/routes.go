package v1

import (
	"net/http"

	"catalog-backend/internal/delivery/http/middleware"
)

type Handlers struct {
	Search      *SearchHandler
	Attributes  *AttributeHandler
	Assignments *AdminAssignmentHandler
}

// RegisterRoutes mounts the public and admin routes on mux.
func RegisterRoutes(mux *http.ServeMux, h Handlers) {
	// Public
	mux.HandleFunc("GET /api/v1/products/search", h.Search.Search)
	mux.HandleFunc("GET /api/v1/attributes", h.Attributes.ListFilterable)

	admin := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireAdmin(fn)
	}

	// Attribute definitions
	mux.Handle("GET /api/v1/admin/attributes", admin(h.Attributes.List))
	mux.Handle("POST /api/v1/admin/attributes", admin(h.Attributes.Create))
	mux.Handle("GET /api/v1/admin/attributes/{id}", admin(h.Attributes.Get))
	mux.Handle("PUT /api/v1/admin/attributes/{id}", admin(h.Attributes.Update))
	mux.Handle("DELETE /api/v1/admin/attributes/{id}", admin(h.Attributes.Delete))
	mux.Handle("POST /api/v1/admin/attributes/{id}/values", admin(h.Attributes.CreateValue))
	mux.Handle("PUT /api/v1/admin/attribute-values/{id}", admin(h.Attributes.UpdateValue))
	mux.Handle("DELETE /api/v1/admin/attribute-values/{id}", admin(h.Attributes.DeleteValue))

	// Assignments
	mux.Handle("GET /api/v1/admin/variants/{id}/attributes", admin(h.Assignments.ListVariantAttributes))
	mux.Handle("PUT /api/v1/admin/variants/{id}/attributes", admin(h.Assignments.ReplaceVariantAttributes))
	mux.Handle("GET /api/v1/admin/variants/{id}/attribute-cache", admin(h.Assignments.GetVariantCache))
	mux.Handle("GET /api/v1/admin/products/{id}/attributes", admin(h.Assignments.ListProductAttributes))
	mux.Handle("PUT /api/v1/admin/products/{id}/attributes/{attributeId}", admin(h.Assignments.SaveProductAttribute))
	mux.Handle("DELETE /api/v1/admin/products/{id}/attributes/{attributeId}", admin(h.Assignments.DeleteProductAttribute))
	mux.Handle("POST /api/v1/admin/products/{id}/attribute-cache/rebuild", admin(h.Assignments.RebuildProductCache))
}
