package v1

import (
	"net/http"
	"time"

	"catalog-backend/internal/domain"
	"catalog-backend/pkg/utils"
)

// AdminAssignmentHandler edits product and variant attribute assignments and
// exposes the derived variant caches.
type AdminAssignmentHandler struct {
	assignUC domain.AssignmentUsecase
	syncUC   domain.CacheSyncUsecase
}

func NewAdminAssignmentHandler(assignUC domain.AssignmentUsecase, syncUC domain.CacheSyncUsecase) *AdminAssignmentHandler {
	return &AdminAssignmentHandler{assignUC: assignUC, syncUC: syncUC}
}

type replaceAttributesRequest struct {
	Attributes *[]domain.AssignmentInput `json:"attributes"`
}

type attributeCacheResponse struct {
	VariantID int64                 `json:"variantId"`
	Cache     domain.AttributeCache `json:"attributeCache"`
	UpdatedAt *time.Time            `json:"updatedAt"`
}

func (h *AdminAssignmentHandler) ListVariantAttributes(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, domain.ScopeVariant)
}

func (h *AdminAssignmentHandler) ListProductAttributes(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, domain.ScopeProduct)
}

func (h *AdminAssignmentHandler) list(w http.ResponseWriter, r *http.Request, scope domain.AssignmentScope) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rows, err := h.assignUC.ListFor(r.Context(), scope, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, nonNil(rows))
}

// ReplaceVariantAttributes handles PUT /admin/variants/{id}/attributes. An
// empty list clears the variant's own assignments; a missing list is rejected.
func (h *AdminAssignmentHandler) ReplaceVariantAttributes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req replaceAttributesRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Attributes == nil {
		writeDomainError(w, r, domain.NewValidation("attributes", "is required"))
		return
	}

	rows, err := h.assignUC.ReplaceVariantAttributes(r.Context(), id, *req.Attributes)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, nonNil(rows))
}

// SaveProductAttribute handles PUT /admin/products/{id}/attributes/{attributeId}.
func (h *AdminAssignmentHandler) SaveProductAttribute(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	attributeID, ok := pathID(w, r, "attributeId")
	if !ok {
		return
	}
	var input domain.AssignmentInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	input.AttributeID = attributeID

	rows, err := h.assignUC.SaveProductAttribute(r.Context(), productID, input)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, nonNil(rows))
}

func (h *AdminAssignmentHandler) DeleteProductAttribute(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	attributeID, ok := pathID(w, r, "attributeId")
	if !ok {
		return
	}
	if err := h.assignUC.DeleteProductAttribute(r.Context(), productID, attributeID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminAssignmentHandler) GetVariantCache(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	cache, updatedAt, err := h.syncUC.GetCache(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, attributeCacheResponse{VariantID: id, Cache: cache, UpdatedAt: updatedAt})
}

func (h *AdminAssignmentHandler) RebuildProductCache(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	n, err := h.syncUC.RebuildForProduct(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int64{"productId": id, "variants": int64(n)})
}
