// Package handler exposes the engine's operational HTTP surface: order
// placement and cancellation, manual scan triggering and the batched token
// price audit.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/1001pro/xrp-trading-bot/src/model"
	"github.com/1001pro/xrp-trading-bot/src/orders"
	"github.com/1001pro/xrp-trading-bot/src/repository"
)

type userGetter interface {
	GetByTgID(ctx context.Context, tgID int64) (*model.User, error)
}

type orderService interface {
	PlaceOrder(ctx context.Context, user *model.User, input orders.PlaceOrderInput) (*model.Order, error)
	ListOrders(ctx context.Context, user *model.User) ([]model.Order, error)
	CancelOrder(ctx context.Context, user *model.User, orderID string) error
}

// resolveUser identifies the calling user from the tgId query parameter.
// There is no session layer on this surface; callers are trusted operators
// acting on behalf of a user.
func resolveUser(w http.ResponseWriter, r *http.Request, users userGetter) (*model.User, bool) {
	tgParam := r.URL.Query().Get("tgId")
	if tgParam == "" {
		http.Error(w, "missing tgId", http.StatusBadRequest)
		return nil, false
	}

	tgID, err := strconv.ParseInt(tgParam, 10, 64)
	if err != nil {
		http.Error(w, "invalid tgId", http.StatusBadRequest)
		return nil, false
	}

	user, err := users.GetByTgID(r.Context(), tgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return nil, false
		}
		logger.WithError(err).Error("failed to load user")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}

	return user, true
}

// PlaceOrderHandler creates a new pending limit order for the user.
func PlaceOrderHandler(users userGetter, svc orderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := resolveUser(w, r, users)
		if !ok {
			return
		}

		var input orders.PlaceOrderInput
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&input); err != nil {
			logger.WithError(err).Warn("invalid order payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), user, input)
		if err != nil {
			if isValidationError(err) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			logger.WithError(err).Error("failed to place order")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(order); err != nil {
			logger.WithError(err).Error("failed to encode order response")
		}
	}
}

// ListOrdersHandler returns the user's pending orders in creation order.
func ListOrdersHandler(users userGetter, svc orderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := resolveUser(w, r, users)
		if !ok {
			return
		}

		list, err := svc.ListOrders(r.Context(), user)
		if err != nil {
			logger.WithError(err).Error("failed to list orders")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(list); err != nil {
			logger.WithError(err).Error("failed to encode order list response")
		}
	}
}

// CancelOrderHandler deletes one pending order by its id.
func CancelOrderHandler(users userGetter, svc orderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := resolveUser(w, r, users)
		if !ok {
			return
		}

		orderID := chi.URLParam(r, "id")
		if err := svc.CancelOrder(r.Context(), user, orderID); err != nil {
			if errors.Is(err, repository.ErrOrderNotFound) {
				http.Error(w, "order not found", http.StatusNotFound)
				return
			}
			logger.WithError(err).Error("failed to cancel order")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func isValidationError(err error) bool {
	for _, known := range []error{
		orders.ErrInvalidSide,
		orders.ErrInvalidTargetPrice,
		orders.ErrInvalidAmount,
		orders.ErrInvalidPercentage,
		orders.ErrInvalidExpiry,
		orders.ErrUnknownToken,
	} {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}
