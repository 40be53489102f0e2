package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/plus-predictor/internal/domain/shop"
	"github.com/riskibarqy/plus-predictor/internal/usecase"
)

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListProducts")
	defer span.End()

	items, err := h.shopService.ListProducts(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list products failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, productsToDTO(items))
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetProduct")
	defer span.End()

	slugOrID := r.PathValue("slugOrID")
	item, err := h.shopService.GetProduct(ctx, slugOrID)
	if err != nil {
		h.logger.WarnContext(ctx, "get product failed", "product", slugOrID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, productToDTO(item))
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateOrder")
	defer span.End()

	caller, err := currentUser(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createOrderRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]shop.ItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, shop.ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.shopService.CreateOrder(ctx, usecase.CreateOrderInput{
		UserID: caller.ID,
		Items:  items,
		Customer: shop.Customer{
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
			Phone: req.CustomerPhone,
		},
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create order failed", "user_id", caller.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "order created", "order_id", order.ID, "user_id", caller.ID, "total_cents", order.TotalCents)
	writeSuccess(ctx, w, http.StatusCreated, orderToDTO(order))
}

func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyOrders")
	defer span.End()

	caller, err := currentUser(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.shopService.ListMyOrders(ctx, caller.ID)
	if err != nil {
		h.logger.WarnContext(ctx, "list my orders failed", "user_id", caller.ID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, ordersToDTO(items))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetOrder")
	defer span.End()

	caller, err := currentUser(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	orderID := r.PathValue("orderID")
	order, err := h.shopService.GetOrder(ctx, caller.ID, orderID)
	if err != nil {
		h.logger.WarnContext(ctx, "get order failed", "user_id", caller.ID, "order_id", orderID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, orderToDTO(order))
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CancelOrder")
	defer span.End()

	caller, err := currentUser(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	orderID := r.PathValue("orderID")
	order, err := h.shopService.CancelOrder(ctx, caller.ID, orderID)
	if err != nil {
		h.logger.WarnContext(ctx, "cancel order failed", "user_id", caller.ID, "order_id", orderID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, orderToDTO(order))
}

func (h *Handler) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminListProducts")
	defer span.End()

	items, err := h.shopService.AdminListProducts(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "admin list products failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, productsToDTO(items))
}

func (h *Handler) AdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminCreateProduct")
	defer span.End()

	var req productRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.shopService.AdminCreateProduct(ctx, productInputFromRequest(req))
	if err != nil {
		h.logger.WarnContext(ctx, "create product failed", "slug", req.Slug, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusCreated, productToDTO(item))
}

func (h *Handler) AdminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminUpdateProduct")
	defer span.End()

	productID := r.PathValue("productID")
	var req productRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.shopService.AdminUpdateProduct(ctx, productID, productInputFromRequest(req))
	if err != nil {
		h.logger.WarnContext(ctx, "update product failed", "product_id", productID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, productToDTO(item))
}

func (h *Handler) AdminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminDeleteProduct")
	defer span.End()

	productID := r.PathValue("productID")
	if err := h.shopService.AdminDeleteProduct(ctx, productID); err != nil {
		h.logger.WarnContext(ctx, "delete product failed", "product_id", productID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"id": productID})
}

func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminListOrders")
	defer span.End()

	status := strings.TrimSpace(r.URL.Query().Get("status"))
	items, err := h.shopService.AdminListOrders(ctx, status)
	if err != nil {
		h.logger.WarnContext(ctx, "admin list orders failed", "status", status, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, ordersToDTO(items))
}

func (h *Handler) AdminSetOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminSetOrderStatus")
	defer span.End()

	orderID := r.PathValue("orderID")
	var req orderStatusRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	order, err := h.shopService.AdminSetOrderStatus(ctx, orderID, req.Status)
	if err != nil {
		h.logger.WarnContext(ctx, "admin set order status failed", "order_id", orderID, "status", req.Status, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, orderToDTO(order))
}

func productInputFromRequest(req productRequest) usecase.ProductInput {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return usecase.ProductInput{
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		Active:      active,
	}
}
