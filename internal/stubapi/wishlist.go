package stubapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	pkgerrors "github.com/veloracommerce/storefront-client/pkg/errors"
	"github.com/veloracommerce/storefront-client/pkg/types"
	"github.com/veloracommerce/storefront-client/pkg/validators"
)

type wishlistResponse struct {
	Items []types.ProductRef `json:"items"`
}

func (s *Server) wishlistFor(owner string) wishlistResponse {
	items := []types.ProductRef{}
	for _, productID := range s.wishes[owner] {
		if product, ok := s.productByID(productID); ok {
			items = append(items, types.ProductRef{
				ID: product.ID, Name: product.Name, Slug: product.Slug,
				Image: product.Image, Stock: product.Stock, Price: product.Price,
			})
		}
	}
	return wishlistResponse{Items: items}
}

func (s *Server) handleGetWishlist(w http.ResponseWriter, r *http.Request) {
	owner := s.owner(r)
	s.mu.Lock()
	resp := s.wishlistFor(owner)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

type wishRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

func (s *Server) handleAddWish(w http.ResponseWriter, r *http.Request) {
	var req wishRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	owner := s.owner(r)

	s.mu.Lock()
	if _, ok := s.productByID(req.ProductID); !ok {
		s.mu.Unlock()
		writeError(w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
		return
	}
	already := false
	for _, id := range s.wishes[owner] {
		if id == req.ProductID {
			already = true
			break
		}
	}
	if !already {
		s.wishes[owner] = append(s.wishes[owner], req.ProductID)
	}
	resp := s.wishlistFor(owner)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveWish(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	owner := s.owner(r)

	s.mu.Lock()
	ids := s.wishes[owner]
	for i, id := range ids {
		if id == productID {
			s.wishes[owner] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	resp := s.wishlistFor(owner)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}
