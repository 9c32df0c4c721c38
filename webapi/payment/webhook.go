package payment

import (
	paymentsvc "github.com/amirasaad/topup/pkg/service/payment"
	"github.com/amirasaad/topup/webapi/common"
	"github.com/gofiber/fiber/v2"
)

func Routes(app *fiber.App, paymentSvc *paymentsvc.Service) {
	app.Post("/payments/phonepe/webhook", WebhookHandler(paymentSvc))
}

// WebhookHandler receives gateway payment and refund callbacks. Callbacks
// for unknown or already settled references are acknowledged with 200 so
// the gateway stops retrying them.
// @Summary Gateway webhook
// @Tags payments
// @Accept json
// @Produce json
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Router /payments/phonepe/webhook [post]
func WebhookHandler(paymentSvc *paymentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := append([]byte(nil), c.Body()...)
		if err := paymentSvc.HandleWebhook(c.Context(), c.Get(fiber.HeaderAuthorization), body); err != nil {
			return common.ProblemDetailsJSON(c, "Webhook rejected", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Webhook processed", fiber.Map{"success": true})
	}
}
