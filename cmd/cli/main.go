// Command cli runs operator tasks against the top-up database without
// going through the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/amirasaad/topup/infra/initializer"
	"github.com/amirasaad/topup/pkg/app"
	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/user"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const usage = `Usage: cli <command> [arguments]
Commands:
  create-user <name> <email> <password> [role]
                                       create an account (role: user, reseller, admin)
  balance <email>                      show a user's wallet balance
  credit <email> <rupees> [reason]     credit a user's wallet
  refund-order <order_id> <reason>     refund a completed or failed order
  reconcile                            run one reconciliation sweep`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		return
	}
	if err := run(context.Background(), os.Args[1], os.Args[2:]); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, args []string) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	deps, cleanup, err := initializer.InitializeDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	a, err := app.New(deps, cfg)
	if err != nil {
		return err
	}

	switch cmd {
	case "create-user":
		if len(args) < 3 {
			return fmt.Errorf("usage: create-user <name> <email> <password> [role]")
		}
		role := user.RoleUser
		if len(args) > 3 {
			role = user.Role(args[3])
		}
		u, err := a.UserService.CreateUser(ctx, args[0], args[1], args[2], role)
		if err != nil {
			return err
		}
		fmt.Printf("Created %s user %s (%s)\n", u.Role, u.Email, u.ID)
	case "balance":
		if len(args) < 1 {
			return fmt.Errorf("usage: balance <email>")
		}
		u, err := a.UserService.GetByEmail(ctx, args[0])
		if err != nil {
			return err
		}
		b, err := a.WalletService.GetBalance(ctx, u.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%s: balance %s, held %s, available %s\n", u.Email, b.Balance, b.Held, b.Available)
	case "credit":
		if len(args) < 2 {
			return fmt.Errorf("usage: credit <email> <rupees> [reason]")
		}
		u, err := a.UserService.GetByEmail(ctx, args[0])
		if err != nil {
			return err
		}
		rupees, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[1], err)
		}
		amount := domain.PaiseFromRupees(rupees)
		if amount <= 0 {
			return domain.ErrInvalidAmount
		}
		txn, err := a.WalletService.Credit(ctx, u.ID, amount, strings.Join(args[2:], " "), uuid.Nil)
		if err != nil {
			return err
		}
		fmt.Printf("Credited %s to %s (%s). New balance: %s\n", amount, u.Email, txn.ID, txn.BalanceAfterTransaction)
	case "refund-order":
		if len(args) < 2 {
			return fmt.Errorf("usage: refund-order <order_id> <reason>")
		}
		o, err := a.OrderService.RefundOrder(ctx, args[0], strings.Join(args[1:], " "), uuid.Nil)
		if err != nil {
			return err
		}
		fmt.Printf("Order %s is %s\n", o.ID, o.Status)
	case "reconcile":
		r := a.ReconcileService.Sweep(ctx)
		fmt.Printf("awaiting_payment=%d deposits=%d refunds=%d processing=%d stranded=%d errors=%d\n",
			r.AwaitingPayment, r.Deposits, r.Refunds, r.Processing, r.Stranded, r.Errors)
	default:
		fmt.Println(usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}
