package stubapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	pkgerrors "github.com/veloracommerce/storefront-client/pkg/errors"
	"github.com/veloracommerce/storefront-client/pkg/validators"
)

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	owner := s.owner(r)
	s.mu.Lock()
	cart := s.toWireCart(s.cartFor(owner))
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, cart)
}

type addToCartRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	owner := s.owner(r)

	s.mu.Lock()
	product, ok := s.productByID(req.ProductID)
	if !ok {
		s.mu.Unlock()
		writeError(w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
		return
	}

	cart := s.cartFor(owner)
	held := 0
	var existing *sessionItem
	for i := range cart.Items {
		item := &cart.Items[i]
		if item.ProductID != req.ProductID {
			continue
		}
		held += item.Quantity
		if item.Size == req.Size && item.Color == req.Color {
			existing = item
		}
	}
	if held+req.Quantity > product.Stock {
		s.mu.Unlock()
		writeError(w, pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock"))
		return
	}

	if existing != nil {
		existing.Quantity += req.Quantity
		// Restocking an existing line re-captures the live price, so the
		// user implicitly accepts the current price on add.
		existing.UnitPrice = product.Price
	} else {
		cart.Items = append(cart.Items, sessionItem{
			ID:        "item-" + uuid.NewString(),
			ProductID: product.ID,
			Quantity:  req.Quantity,
			Size:      req.Size,
			Color:     req.Color,
			UnitPrice: product.Price,
		})
	}
	wire := s.toWireCart(cart)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, wire)
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

func (s *Server) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	itemID := chi.URLParam(r, "itemID")
	owner := s.owner(r)

	s.mu.Lock()
	cart := s.cartFor(owner)
	for i := range cart.Items {
		item := &cart.Items[i]
		if item.ID != itemID {
			continue
		}
		if product, ok := s.productByID(item.ProductID); ok && req.Quantity > product.Stock {
			s.mu.Unlock()
			writeError(w, pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock"))
			return
		}
		item.Quantity = req.Quantity
		wire := s.toWireCart(cart)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, wire)
		return
	}
	s.mu.Unlock()
	writeError(w, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found"))
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	owner := s.owner(r)

	s.mu.Lock()
	cart := s.cartFor(owner)
	for i := range cart.Items {
		if cart.Items[i].ID != itemID {
			continue
		}
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		if len(cart.Items) == 0 {
			cart.Coupon = ""
		}
		wire := s.toWireCart(cart)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, wire)
		return
	}
	s.mu.Unlock()
	writeError(w, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found"))
}

type couponRequest struct {
	Code string `json:"code" validate:"required"`
}

func (s *Server) handleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	owner := s.owner(r)

	s.mu.Lock()
	if _, ok := s.coupons[req.Code]; !ok {
		s.mu.Unlock()
		writeError(w, pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired coupon"))
		return
	}
	cart := s.cartFor(owner)
	if len(cart.Items) == 0 {
		s.mu.Unlock()
		writeError(w, pkgerrors.New(pkgerrors.CodeValidation, "cannot apply a coupon to an empty cart"))
		return
	}
	cart.Coupon = req.Code
	wire := s.toWireCart(cart)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, wire)
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	owner := s.owner(r)

	s.mu.Lock()
	cart := s.cartFor(owner)
	cart.Items = nil
	cart.Coupon = ""
	wire := s.toWireCart(cart)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, wire)
}
