package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/amirasaad/ledgercore/pkg/app"
	"github.com/amirasaad/ledgercore/pkg/currency"
	"github.com/amirasaad/ledgercore/pkg/domain/account"
	"github.com/amirasaad/ledgercore/pkg/domain/purchase"
	"github.com/amirasaad/ledgercore/pkg/dto"
	"github.com/amirasaad/ledgercore/pkg/handler"
	"github.com/amirasaad/ledgercore/pkg/repository"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

const (
	exitOK = iota
	exitFailed
	exitUsage
)

type command struct {
	usage   string
	minArgs int
	run     func(c *cli, ctx context.Context, args []string) (handler.Response, error)
}

var commands = map[string]command{
	"open-account": {"open-account <user_id> <account_id> [balance] [currency]", 2, (*cli).openAccount},
	"add-product":  {"add-product <product_id> <stock> <price> [benefit...]", 3, (*cli).addProduct},
	"transfer":     {"transfer <user_id> <from_account> <to_account> <amount> [description]", 4, (*cli).transfer},
	"balance":      {"balance <user_id> <account_id>", 2, (*cli).balance},
	"history":      {"history <user_id> [account_id]", 1, (*cli).history},
	"resolve":      {"resolve <user_id> <alias>", 2, (*cli).resolve},
	"beneficiary":  {"beneficiary <user_id> <name> <alias> <account_id>", 4, (*cli).addBeneficiary},
	"purchase":     {"purchase <user_id> <product_id> <quantity> [benefit]", 3, (*cli).purchase},
	"complete":     {"complete <user_id> <purchase_id> [transaction_id]", 2, (*cli).complete},
	"fail":         {"fail <user_id> <purchase_id> [message]", 2, (*cli).fail},
	"products":     {"products [category]", 0, (*cli).products},
}

type cli struct {
	app *app.App
	out io.Writer
}

func newCLI(a *app.App, out io.Writer) *cli {
	return &cli{app: a, out: out}
}

func usage(out io.Writer) {
	fmt.Fprintln(out, "Usage: cli <command> [arguments]")
	fmt.Fprintln(out, "Commands:")
	names := []string{
		"open-account", "add-product", "transfer", "balance", "history", "resolve",
		"beneficiary", "purchase", "complete", "fail", "products",
	}
	for _, name := range names {
		fmt.Fprintf(out, "  %s\n", commands[name].usage)
	}
}

func (c *cli) run(args []string) int {
	if len(args) == 0 {
		usage(c.out)
		return exitUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		color.New(color.FgRed).Fprintf(c.out, "Unknown command %q\n", args[0])
		usage(c.out)
		return exitUsage
	}
	rest := args[1:]
	if len(rest) < cmd.minArgs {
		color.New(color.FgYellow).Fprintf(c.out, "Usage: %s\n", cmd.usage)
		return exitUsage
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	resp, err := cmd.run(c, ctx, rest)
	if err != nil {
		color.New(color.FgRed).Fprintf(c.out, "✖ %v\n", err)
		return exitFailed
	}
	return c.print(resp)
}

func (c *cli) print(resp handler.Response) int {
	body, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		color.New(color.FgRed).Fprintf(c.out, "✖ %v\n", err)
		return exitFailed
	}
	if resp.Success {
		color.New(color.FgGreen, color.Bold).Fprintf(c.out, "✔ %d\n", resp.Status)
		fmt.Fprintln(c.out, string(body))
		return exitOK
	}
	color.New(color.FgRed, color.Bold).Fprintf(c.out, "✖ %d %s\n", resp.Status, resp.Error.Code)
	fmt.Fprintln(c.out, string(body))
	return exitFailed
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

func optional(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// openAccount writes an active account straight to the store.
func (c *cli) openAccount(ctx context.Context, args []string) (handler.Response, error) {
	balance := decimal.Zero
	if raw := optional(args, 2); raw != "" {
		var err error
		if balance, err = parseAmount(raw); err != nil {
			return handler.Response{}, err
		}
	}
	acc, err := account.New().
		WithUserID(args[0]).
		WithID(args[1]).
		WithBalance(balance).
		WithCurrency(currency.Normalize(optional(args, 3))).
		Build()
	if err != nil {
		return handler.Response{}, err
	}
	err = c.app.Deps.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		return repo.Create(ctx, acc)
	})
	if err != nil {
		return handler.Response{}, err
	}
	return c.app.Operations.GetBalance(ctx, dto.BalanceQuery{UserID: acc.UserID, AccountID: acc.AccountID}), nil
}

// addProduct writes a catalog product straight to the store.
func (c *cli) addProduct(ctx context.Context, args []string) (handler.Response, error) {
	stock, err := strconv.Atoi(args[1])
	if err != nil || stock < 0 {
		return handler.Response{}, fmt.Errorf("invalid stock %q", args[1])
	}
	price, err := parseAmount(args[2])
	if err != nil {
		return handler.Response{}, err
	}
	benefits := make([]string, 0, len(args)-3)
	for _, b := range args[3:] {
		benefits = append(benefits, strings.ToUpper(b))
	}
	now := time.Now().UTC()
	p := &purchase.Product{
		ProductID:  args[0],
		RetailerID: "cli",
		Name:       args[0],
		Benefits:   benefits,
		Stock:      stock,
		Price:      price,
		Currency:   currency.DefaultCurrency,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err = c.app.Deps.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.ProductRepository()
		if err != nil {
			return err
		}
		return repo.Create(ctx, p)
	})
	if err != nil {
		return handler.Response{}, err
	}
	return c.app.Operations.GetBenefits(ctx, dto.BenefitsQuery{UserID: "cli", ProductID: p.ProductID}), nil
}

func (c *cli) transfer(ctx context.Context, args []string) (handler.Response, error) {
	amount, err := parseAmount(args[3])
	if err != nil {
		return handler.Response{}, err
	}
	return c.app.Operations.Transfer(ctx, dto.TransferRequest{
		UserID:      args[0],
		FromAccount: args[1],
		ToAccount:   args[2],
		Amount:      amount,
		Description: optional(args, 4),
	}), nil
}

func (c *cli) balance(ctx context.Context, args []string) (handler.Response, error) {
	return c.app.Operations.GetBalance(ctx, dto.BalanceQuery{UserID: args[0], AccountID: args[1]}), nil
}

func (c *cli) history(ctx context.Context, args []string) (handler.Response, error) {
	return c.app.Operations.ListTransactions(ctx, dto.TransactionsQuery{
		UserID:    args[0],
		AccountID: optional(args, 1),
	}), nil
}

func (c *cli) resolve(ctx context.Context, args []string) (handler.Response, error) {
	return c.app.Operations.ResolveAlias(ctx, dto.ResolveAliasRequest{UserID: args[0], Alias: args[1]}), nil
}

func (c *cli) addBeneficiary(ctx context.Context, args []string) (handler.Response, error) {
	return c.app.Operations.AddBeneficiary(ctx, dto.AddBeneficiaryRequest{
		UserID:    args[0],
		Name:      args[1],
		Alias:     args[2],
		AccountID: args[3],
	}), nil
}

func (c *cli) purchase(ctx context.Context, args []string) (handler.Response, error) {
	quantity, err := strconv.Atoi(args[2])
	if err != nil {
		return handler.Response{}, fmt.Errorf("invalid quantity %q", args[2])
	}
	return c.app.Operations.RequestPurchase(ctx, dto.PurchaseRequest{
		UserID:      args[0],
		ProductID:   args[1],
		Quantity:    quantity,
		BenefitType: optional(args, 3),
	}), nil
}

func (c *cli) complete(ctx context.Context, args []string) (handler.Response, error) {
	return c.app.Operations.CompletePurchase(ctx, dto.CompletePurchaseRequest{
		UserID:        args[0],
		PurchaseID:    args[1],
		TransactionID: optional(args, 2),
	}), nil
}

func (c *cli) fail(ctx context.Context, args []string) (handler.Response, error) {
	return c.app.Operations.FailPurchase(ctx, dto.FailPurchaseRequest{
		UserID:       args[0],
		PurchaseID:   args[1],
		ErrorMessage: optional(args, 2),
	}), nil
}

func (c *cli) products(ctx context.Context, args []string) (handler.Response, error) {
	return c.app.Operations.ListProducts(ctx, dto.CatalogQuery{UserID: "cli", Category: optional(args, 0)}), nil
}
