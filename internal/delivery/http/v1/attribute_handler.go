package v1

import (
	"net/http"

	"catalog-backend/internal/domain"
	"catalog-backend/pkg/utils"
)

type AttributeHandler struct {
	attrUC domain.AttributeUsecase
}

func NewAttributeHandler(attrUC domain.AttributeUsecase) *AttributeHandler {
	return &AttributeHandler{attrUC: attrUC}
}

type attributeRequest struct {
	Key               string               `json:"key"`
	Name              string               `json:"name"`
	Description       string               `json:"description"`
	Kind              domain.AttributeKind `json:"kind"`
	DataType          domain.DataType      `json:"dataType"`
	IsFilterable      bool                 `json:"isFilterable"`
	IsSearchable      bool                 `json:"isSearchable"`
	IsRequired        bool                 `json:"isRequired"`
	IsVariantSpecific bool                 `json:"isVariantSpecific"`
	DisplayOrder      int                  `json:"displayOrder"`
}

func (req attributeRequest) toDomain(id int64) *domain.Attribute {
	return &domain.Attribute{
		ID:                id,
		Key:               req.Key,
		Name:              req.Name,
		Description:       req.Description,
		Kind:              req.Kind,
		DataType:          req.DataType,
		IsFilterable:      req.IsFilterable,
		IsSearchable:      req.IsSearchable,
		IsRequired:        req.IsRequired,
		IsVariantSpecific: req.IsVariantSpecific,
		DisplayOrder:      req.DisplayOrder,
	}
}

type attributeValueRequest struct {
	Value        string  `json:"value"`
	Display      string  `json:"display"`
	ColorCode    *string `json:"colorCode"`
	ImageURL     *string `json:"imageUrl"`
	IsDefault    bool    `json:"isDefault"`
	DisplayOrder int     `json:"displayOrder"`
}

func (req attributeValueRequest) toDomain(id, attributeID int64) *domain.AttributeValue {
	return &domain.AttributeValue{
		ID:           id,
		AttributeID:  attributeID,
		Value:        req.Value,
		Display:      req.Display,
		ColorCode:    req.ColorCode,
		ImageURL:     req.ImageURL,
		IsDefault:    req.IsDefault,
		DisplayOrder: req.DisplayOrder,
	}
}

// ListFilterable serves the storefront filter UI.
func (h *AttributeHandler) ListFilterable(w http.ResponseWriter, r *http.Request) {
	attrs, err := h.attrUC.ListAttributes(r.Context(), true)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, nonNil(attrs))
}

func (h *AttributeHandler) List(w http.ResponseWriter, r *http.Request) {
	attrs, err := h.attrUC.ListAttributes(r.Context(), r.URL.Query().Get("filterable") == "true")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, nonNil(attrs))
}

func (h *AttributeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	attr, err := h.attrUC.GetAttribute(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, attr)
}

func (h *AttributeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req attributeRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	attr := req.toDomain(0)
	if err := h.attrUC.CreateAttribute(r.Context(), attr); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, attr)
}

func (h *AttributeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req attributeRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	attr := req.toDomain(id)
	if err := h.attrUC.UpdateAttribute(r.Context(), attr); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, attr)
}

func (h *AttributeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.attrUC.DeleteAttribute(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AttributeHandler) CreateValue(w http.ResponseWriter, r *http.Request) {
	attributeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req attributeValueRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	value := req.toDomain(0, attributeID)
	if err := h.attrUC.CreateValue(r.Context(), value); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, value)
}

func (h *AttributeHandler) UpdateValue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req attributeValueRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	value := req.toDomain(id, 0)
	if err := h.attrUC.UpdateValue(r.Context(), value); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, value)
}

func (h *AttributeHandler) DeleteValue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.attrUC.DeleteValue(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
