package stubapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/veloracommerce/storefront-client/internal/catalog"
	pkgerrors "github.com/veloracommerce/storefront-client/pkg/errors"
	"github.com/veloracommerce/storefront-client/pkg/validators"
)

const defaultPageSize = 20

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	s.mu.Lock()
	matched := make([]catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		if category := query.Get("category"); category != "" && p.Category != category {
			continue
		}
		if search := query.Get("search"); search != "" {
			needle := strings.ToLower(search)
			if !strings.Contains(strings.ToLower(p.Name), needle) &&
				!strings.Contains(strings.ToLower(p.Description), needle) {
				continue
			}
		}
		if min, err := decimal.NewFromString(query.Get("minPrice")); err == nil && p.Price.LessThan(min) {
			continue
		}
		if max, err := decimal.NewFromString(query.Get("maxPrice")); err == nil && p.Price.GreaterThan(max) {
			continue
		}
		matched = append(matched, p)
	}
	s.mu.Unlock()

	switch query.Get("sort") {
	case "price_asc":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price.LessThan(matched[j].Price) })
	case "price_desc":
		sort.SliceStable(matched, func(i, j int) bool { return matched[j].Price.LessThan(matched[i].Price) })
	case "name":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	}

	page, limit := 1, defaultPageSize
	if v, err := strconv.Atoi(query.Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(query.Get("limit")); err == nil && v > 0 {
		limit = v
	}

	total := len(matched)
	pages := (total + limit - 1) / limit
	if pages == 0 {
		pages = 1
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	writeJSON(w, http.StatusOK, catalog.Page{
		Products: matched[start:end],
		Total:    total,
		Page:     page,
		Pages:    pages,
	})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	idOrSlug := chi.URLParam(r, "idOrSlug")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ID == idOrSlug || p.Slug == idOrSlug {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeError(w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
}

func (s *Server) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Price decimal.Decimal `json:"price"`
	}
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if !s.SetPrice(chi.URLParam(r, "productID"), req.Price) {
		writeError(w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
