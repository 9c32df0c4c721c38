package wallet

import (
	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/domain"
	paymentsvc "github.com/amirasaad/topup/pkg/service/payment"
	walletsvc "github.com/amirasaad/topup/pkg/service/wallet"
	"github.com/amirasaad/topup/webapi/common"
	"github.com/amirasaad/topup/webapi/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func Routes(
	app *fiber.App,
	walletSvc *walletsvc.Service,
	paymentSvc *paymentsvc.Service,
	cfg *config.App,
) {
	protected := middleware.JwtProtected(cfg.Auth.Jwt)
	app.Get("/wallet/balance", protected, GetBalance(walletSvc))
	app.Get("/wallet/transactions", protected, ListTransactions(walletSvc))
	app.Post("/wallet/deposit", protected, Deposit(walletSvc))
	app.Get("/wallet/deposit/:transactionId/status", protected, DepositStatus(paymentSvc))

	admin := app.Group("/admin/wallet", protected, middleware.AdminOnly())
	admin.Post("/credit", Credit(walletSvc))
	admin.Post("/refund", RefundDeposit(walletSvc))
	admin.Get("/refund/:transactionId/status", RefundStatus(paymentSvc))
}

// GetBalance returns the caller's wallet balance.
// @Summary Wallet balance
// @Tags wallet
// @Produce json
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /wallet/balance [get]
// @Security Bearer
func GetBalance(walletSvc *walletsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.CurrentIdentity(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, fiber.StatusUnauthorized)
		}
		b, err := walletSvc.GetBalance(c.Context(), id.UserID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get balance", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Balance fetched", ToBalanceDTO(b))
	}
}

// ListTransactions returns a page of the caller's ledger.
// @Summary Wallet transactions
// @Tags wallet
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} common.Response
// @Router /wallet/transactions [get]
// @Security Bearer
func ListTransactions(walletSvc *walletsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.CurrentIdentity(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, fiber.StatusUnauthorized)
		}
		page, limit := walletsvc.Page(common.QueryInt(c, "page", 1), common.QueryInt(c, "limit", 0))
		txns, total, err := walletSvc.ListTransactions(c.Context(), id.UserID, page, limit)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list transactions", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transactions fetched", TransactionList{
			Transactions: txns,
			Total:        total,
			Page:         page,
			Limit:        limit,
		})
	}
}

// Deposit starts a wallet top-up through the gateway, or applies a stub
// deposit when those are enabled.
// @Summary Deposit
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body DepositInput true "Deposit"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Router /wallet/deposit [post]
// @Security Bearer
func Deposit(walletSvc *walletsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.CurrentIdentity(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, fiber.StatusUnauthorized)
		}
		input, err := common.BindAndValidate[DepositInput](c)
		if input == nil {
			return err
		}
		res, err := walletSvc.InitiateDeposit(c.Context(), id.UserID, domain.Paise(input.Amount), input.Stub)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Deposit failed", err)
		}
		msg := "Deposit checkout created"
		if res.Immediate {
			msg = "Deposit applied"
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, msg, res)
	}
}

// DepositStatus polls the gateway for a pending deposit.
// @Summary Deposit status
// @Tags wallet
// @Produce json
// @Param transactionId path string true "Transaction ID"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /wallet/deposit/{transactionId}/status [get]
// @Security Bearer
func DepositStatus(paymentSvc *paymentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.CurrentIdentity(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, fiber.StatusUnauthorized)
		}
		txn, err := paymentSvc.CheckDepositStatus(c.Context(), c.Params("transactionId"), id.UserID, id.IsAdmin())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to check deposit", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Deposit status fetched", txn)
	}
}

// Credit adds funds to a user's wallet.
// @Summary Credit wallet (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Param request body CreditInput true "Credit"
// @Success 201 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /admin/wallet/credit [post]
// @Security Bearer
func Credit(walletSvc *walletsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.CurrentIdentity(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, fiber.StatusUnauthorized)
		}
		input, err := common.BindAndValidate[CreditInput](c)
		if input == nil {
			return err
		}
		txn, err := walletSvc.Credit(
			c.Context(),
			uuid.MustParse(input.UserID),
			domain.Paise(input.Amount),
			input.Reason,
			id.UserID,
		)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Credit failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Wallet credited", txn)
	}
}

// RefundDeposit reverses part or all of a gateway deposit.
// @Summary Refund deposit (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Param request body RefundInput true "Refund"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Router /admin/wallet/refund [post]
// @Security Bearer
func RefundDeposit(walletSvc *walletsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.CurrentIdentity(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, fiber.StatusUnauthorized)
		}
		input, err := common.BindAndValidate[RefundInput](c)
		if input == nil {
			return err
		}
		txn, err := walletSvc.RefundDeposit(
			c.Context(),
			input.TransactionID,
			domain.Paise(input.Amount),
			input.Reason,
			id.UserID,
		)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Refund failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Refund initiated", txn)
	}
}

// RefundStatus polls the gateway for a pending reversal.
// @Summary Refund status (admin)
// @Tags admin
// @Produce json
// @Param transactionId path string true "Reversal transaction ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /admin/wallet/refund/{transactionId}/status [get]
// @Security Bearer
func RefundStatus(paymentSvc *paymentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		txn, err := paymentSvc.CheckRefundStatus(c.Context(), c.Params("transactionId"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to check refund", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Refund status fetched", txn)
	}
}
