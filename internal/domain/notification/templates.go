package notification

import (
	"fmt"

	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TransferReceived(recipientID uuid.UUID, amount decimal.Decimal, senderUsername string) *Notification {
	return New(recipientID, CategoryTransaction, "Funds Received",
		fmt.Sprintf("You received %s from @%s.", shared.FormatUSD(amount), senderUsername))
}

func DepositApproved(accountID uuid.UUID, amount decimal.Decimal) *Notification {
	return New(accountID, CategoryTransaction, "Deposit Approved",
		fmt.Sprintf("Success! %s has been credited to your balance.", shared.FormatUSD(amount)))
}

func WithdrawalConfirmed(accountID uuid.UUID, amount decimal.Decimal) *Notification {
	return New(accountID, CategoryTransaction, "Withdrawal Confirmed",
		fmt.Sprintf("Your request for %s has been processed.", shared.FormatUSD(amount)))
}

func WithdrawalRejected(accountID uuid.UUID, amount decimal.Decimal, reason string) *Notification {
	return New(accountID, CategoryRequest, "Withdrawal Rejected",
		withReason(fmt.Sprintf("Your withdrawal of %s was rejected and refunded.", shared.FormatUSD(amount)), reason))
}

func OrderDelivered(accountID uuid.UUID, serviceName string) *Notification {
	return New(accountID, CategoryRequest, "Order Delivered",
		fmt.Sprintf("Your order for %s has been completed.", serviceName))
}

func OrderRejected(accountID uuid.UUID, serviceName string, amount decimal.Decimal, reason string) *Notification {
	return New(accountID, CategoryRequest, "Order Rejected",
		withReason(fmt.Sprintf("Your order for %s was rejected. %s has been refunded.", serviceName, shared.FormatUSD(amount)), reason))
}

func VerificationApproved(accountID uuid.UUID) *Notification {
	return New(accountID, CategorySecurity, "Verification Approved",
		"Your identity has been verified.")
}

func withReason(message, reason string) string {
	if reason == "" {
		return message
	}
	return message + " Reason: " + reason
}
