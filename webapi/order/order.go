package order

import (
	"github.com/amirasaad/topup/pkg/config"
	ordersvc "github.com/amirasaad/topup/pkg/service/order"
	walletsvc "github.com/amirasaad/topup/pkg/service/wallet"
	"github.com/amirasaad/topup/webapi/common"
	"github.com/amirasaad/topup/webapi/middleware"
	"github.com/gofiber/fiber/v2"
)

func Routes(app *fiber.App, orderSvc *ordersvc.Service, cfg *config.App) {
	app.Post("/orders", middleware.JwtProtected(cfg.Auth.Jwt), CreateOrder(orderSvc))
	app.Get("/orders", middleware.JwtProtected(cfg.Auth.Jwt), ListOrders(orderSvc))
	app.Get("/orders/:orderId/status", middleware.JwtProtected(cfg.Auth.Jwt), GetOrderStatus(orderSvc))
	app.Post(
		"/admin/orders/:orderId/refund",
		middleware.JwtProtected(cfg.Auth.Jwt),
		middleware.AdminOnly(),
		RefundOrder(orderSvc),
	)
}

// CreateOrder places a top-up order.
// @Summary Create order
// @Description Wallet orders are charged and submitted at once. Gateway
// @Description orders return a checkout URL and wait for payment.
// @Tags orders
// @Accept json
// @Produce json
// @Param request body CreateOrderInput true "Order"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Router /orders [post]
// @Security Bearer
func CreateOrder(orderSvc *ordersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.CurrentIdentity(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, fiber.StatusUnauthorized)
		}
		input, err := common.BindAndValidate[CreateOrderInput](c)
		if input == nil {
			return err
		}
		res, err := orderSvc.CreateOrder(c.Context(), ToCreateRequest(input, id.UserID, id.Role))
		if err != nil {
			if res != nil && res.Order != nil {
				return common.ProblemDetailsJSON(c, "Order failed", err, fiber.Map{"order": res.Order})
			}
			return common.ProblemDetailsJSON(c, "Order rejected", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Order created", res)
	}
}

// ListOrders returns the caller's orders, newest first.
// @Summary List orders
// @Tags orders
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /orders [get]
// @Security Bearer
func ListOrders(orderSvc *ordersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.CurrentIdentity(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, fiber.StatusUnauthorized)
		}
		page, limit := walletsvc.Page(common.QueryInt(c, "page", 1), common.QueryInt(c, "limit", 0))
		orders, total, err := orderSvc.ListUserOrders(c.Context(), id.UserID, page, limit)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list orders", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Orders fetched", OrderList{
			Orders: orders,
			Total:  total,
			Page:   page,
			Limit:  limit,
		})
	}
}

// GetOrderStatus returns an order, refreshing it from the provider while
// it is processing.
// @Summary Order status
// @Tags orders
// @Produce json
// @Param orderId path string true "Order ID"
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /orders/{orderId}/status [get]
// @Security Bearer
func GetOrderStatus(orderSvc *ordersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.CurrentIdentity(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, fiber.StatusUnauthorized)
		}
		res, err := orderSvc.GetOrderStatus(c.Context(), c.Params("orderId"), id.UserID, id.IsAdmin())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get order status", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Order status fetched", res)
	}
}

// RefundOrder refunds a completed or failed order.
// @Summary Refund order (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Param orderId path string true "Order ID"
// @Param request body RefundInput true "Reason"
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /admin/orders/{orderId}/refund [post]
// @Security Bearer
func RefundOrder(orderSvc *ordersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.CurrentIdentity(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, fiber.StatusUnauthorized)
		}
		input, err := common.BindAndValidate[RefundInput](c)
		if input == nil {
			return err
		}
		o, err := orderSvc.RefundOrder(c.Context(), c.Params("orderId"), input.Reason, id.UserID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Refund failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Order refunded", o)
	}
}
