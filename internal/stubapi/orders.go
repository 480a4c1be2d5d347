package stubapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/veloracommerce/storefront-client/internal/orders"
	pkgerrors "github.com/veloracommerce/storefront-client/pkg/errors"
	"github.com/veloracommerce/storefront-client/pkg/validators"
)

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.PlaceOrderInput
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	owner := s.owner(r)

	s.mu.Lock()
	cart := s.cartFor(owner)
	wire := s.toWireCart(cart)
	if wire.IsEmpty() {
		s.mu.Unlock()
		writeError(w, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty"))
		return
	}
	// The server enforces the integrity gate too; the client-side check is
	// a courtesy, not the defense.
	if flagged := wire.PriceChangedItems(); len(flagged) > 0 {
		s.mu.Unlock()
		writeError(w, pkgerrors.New(pkgerrors.CodeConflict, "item prices changed since they were added"))
		return
	}

	s.orderSeq++
	order := orders.Order{
		ID:          "order-" + uuid.NewString(),
		OrderNumber: fmt.Sprintf("VR-%04d", 1000+s.orderSeq),
		Items:       wire.Items,
		Address:     req.Address,
		Subtotal:    wire.Subtotal,
		Shipping:    wire.Shipping,
		Discount:    wire.Discount,
		Total:       wire.Total,
		Status:      "pending",
		CreatedAt:   nowUTC(),
	}
	s.orders[owner] = append(s.orders[owner], order)
	cart.Items = nil
	cart.Coupon = ""
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	owner := s.owner(r)
	s.mu.Lock()
	list := append([]orders.Order{}, s.orders[owner]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleTrackOrder(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range s.orders {
		for _, order := range list {
			if order.OrderNumber == orderNumber {
				writeJSON(w, http.StatusOK, order)
				return
			}
		}
	}
	writeError(w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
}
