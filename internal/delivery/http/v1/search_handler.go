package v1

import (
	"net/http"
	"net/url"
	"strings"

	"catalog-backend/internal/domain"
	"catalog-backend/internal/usecase"
	"catalog-backend/pkg/pagination"
	"catalog-backend/pkg/utils"
)

type SearchHandler struct {
	searchUC domain.SearchUsecase
}

func NewSearchHandler(searchUC domain.SearchUsecase) *SearchHandler {
	return &SearchHandler{
		searchUC: searchUC,
	}
}

// Search handles GET /api/v1/products/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter, err := parseSearchFilter(query)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	req := pagination.Request{
		Page: utils.ParseInt(query.Get("page"), 0),
		Size: utils.ParseInt(query.Get("size"), 0),
		Sort: parseSort(query.Get("sort")),
	}

	page, err := h.searchUC.Search(r.Context(), filter, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, domain.Response{
		Success: true,
		Data:    page.Content,
		Meta:    page.Meta(),
	})
}

// parseSearchFilter reads typed parameters strictly; attrs and ranges are
// passed through raw and parsed leniently by the planner.
func parseSearchFilter(query url.Values) (domain.ProductSearchFilter, error) {
	filter := domain.ProductSearchFilter{
		AttrsParam:  query.Get("attrs"),
		RangesParam: query.Get("ranges"),
	}

	ids, err := usecase.ParseIDList(strings.Join(query["brandIds"], ","))
	if err != nil {
		return filter, err
	}
	filter.BrandIDs = ids

	if raw := query.Get("categoryId"); raw != "" {
		id, ok := utils.ParseID(raw)
		if !ok {
			return filter, domain.NewValidation("categoryId", "must be a positive integer")
		}
		filter.CategoryID = &id
	}

	price, err := usecase.ParseNumericRange(query.Get("minPrice"), query.Get("maxPrice"))
	if err != nil {
		return filter, domain.NewValidation("minPrice", err.Error())
	}
	filter.Price = price
	return filter, nil
}

// parseSort accepts `field,dir`, `field_dir` or a bare field.
func parseSort(raw string) pagination.Sort {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return pagination.Sort{}
	}
	field, dir, ok := strings.Cut(raw, ",")
	if !ok {
		if i := strings.LastIndex(raw, "_"); i > 0 {
			switch strings.ToLower(raw[i+1:]) {
			case "asc", "desc":
				field, dir = raw[:i], raw[i+1:]
			}
		}
	}
	return pagination.Sort{Field: strings.TrimSpace(field), Direction: pagination.ParseDirection(dir)}
}
