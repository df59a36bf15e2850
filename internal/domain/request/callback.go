package request

import (
	"strings"

	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Action is a reviewer's decision
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// ParseAction validates an action coming from user input.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(s)); a {
	case ActionApprove, ActionReject:
		return a, nil
	}
	return "", shared.NewValidationError("action", "must be approve or reject")
}

var (
	actionCodes = map[Action]string{ActionApprove: "app", ActionReject: "rej"}
	typeCodes   = map[Type]string{TypeDeposit: "dep", TypeWithdrawal: "wit", TypeKyc: "ver"}
)

// CallbackData encodes a decision as "{action}_{domain}_{requestId}" for bot buttons.
// Orders have no code: approving one needs a delivery payload.
func CallbackData(a Action, t Type, id uuid.UUID) (string, bool) {
	ac, ok := actionCodes[a]
	if !ok {
		return "", false
	}
	tc, ok := typeCodes[t]
	if !ok {
		return "", false
	}
	return ac + "_" + tc + "_" + id.String(), true
}

// ParseCallbackData decodes bot button data produced by CallbackData.
func ParseCallbackData(data string) (Action, Type, uuid.UUID, error) {
	parts := strings.SplitN(data, "_", 3)
	if len(parts) != 3 {
		return "", "", uuid.Nil, shared.NewValidationError("callback_data", "must be action_domain_id")
	}

	var action Action
	for a, code := range actionCodes {
		if code == parts[0] {
			action = a
		}
	}
	var typ Type
	for t, code := range typeCodes {
		if code == parts[1] {
			typ = t
		}
	}
	if action == "" || typ == "" {
		return "", "", uuid.Nil, shared.NewValidationError("callback_data", "has an unknown action or domain")
	}

	id, err := uuid.Parse(parts[2])
	if err != nil {
		return "", "", uuid.Nil, shared.NewValidationError("callback_data", "has a malformed request id")
	}
	return action, typ, id, nil
}
