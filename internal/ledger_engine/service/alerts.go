package service

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/domain/outbox"
	"github.com/flash-wallet-ledger/internal/domain/request"
	"github.com/flash-wallet-ledger/internal/domain/shared"
)

// alertBuilder assembles the HTML body of an admin alert line by line.
type alertBuilder struct {
	b strings.Builder
}

func newAlert(title string) *alertBuilder {
	a := &alertBuilder{}
	a.b.WriteString("<b>" + html.EscapeString(title) + "</b>\n")
	return a
}

func (a *alertBuilder) line(label, value string) *alertBuilder {
	if value == "" {
		return a
	}
	fmt.Fprintf(&a.b, "%s: %s\n", label, html.EscapeString(value))
	return a
}

func (a *alertBuilder) code(label, value string) *alertBuilder {
	fmt.Fprintf(&a.b, "%s: <code>%s</code>\n", label, html.EscapeString(value))
	return a
}

func (a *alertBuilder) build(req *request.Request) *outbox.AdminAlert {
	alert := &outbox.AdminAlert{Text: strings.TrimRight(a.b.String(), "\n")}
	for _, action := range []request.Action{request.ActionApprove, request.ActionReject} {
		data, ok := request.CallbackData(action, req.Type, req.ID)
		if !ok {
			return alert
		}
		label := "Approve"
		if action == request.ActionReject {
			label = "Reject"
		}
		alert.Actions = append(alert.Actions, outbox.Action{Label: label, CallbackData: data})
	}
	return alert
}

func accountLine(acc *account.Account) string {
	return fmt.Sprintf("@%s (%s)", acc.Username, acc.CustomCode)
}

func withdrawalAlert(acc *account.Account, req *request.Request) *outbox.AdminAlert {
	d := req.Withdrawal
	q := d.Quote
	return newAlert("New Withdrawal Request").
		line("User", accountLine(acc)).
		line("Amount", shared.FormatUSD(req.Amount)).
		line("Method", d.MethodName).
		line("Rate", q.ExchangeRate.String()).
		line("Fee", q.Fee.StringFixed(shared.MoneyScale)+" "+q.Currency).
		line("Payout", q.NetPayout.StringFixed(shared.MoneyScale)+" "+q.Currency).
		line("Details", formatFields(d.PayoutFields)).
		code("Request", req.ID.String()).
		build(req)
}

func depositAlert(acc *account.Account, req *request.Request) *outbox.AdminAlert {
	d := req.Deposit
	return newAlert("New Deposit Request").
		line("User", accountLine(acc)).
		line("Amount", shared.FormatUSD(req.Amount)).
		line("Method", d.MethodName).
		line("Proof", d.ProofURL).
		code("Request", req.ID.String()).
		build(req)
}

func orderAlert(acc *account.Account, req *request.Request) *outbox.AdminAlert {
	d := req.Order
	return newAlert("New Order").
		line("User", accountLine(acc)).
		line("Service", d.ServiceName).
		line("Variant", d.VariantLabel).
		line("Price", shared.FormatUSD(req.Amount)).
		line("Input", d.UserInput).
		code("Request", req.ID.String()).
		build(req)
}

func kycAlert(acc *account.Account, req *request.Request) *outbox.AdminAlert {
	d := req.Kyc
	return newAlert("New Verification Request").
		line("User", accountLine(acc)).
		line("Document", d.DocumentType).
		line("Front", d.DocumentFrontURL).
		line("Back", d.DocumentBackURL).
		line("Selfie", d.SelfieURL).
		code("Request", req.ID.String()).
		build(req)
}

// formatFields renders payout fields in a stable order.
func formatFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+fields[k])
	}
	return strings.Join(parts, ", ")
}
