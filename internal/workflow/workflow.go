// Package workflow holds the application status machine: which triggers are
// legal in which status, what each trigger requires, and where a status sits
// on the progress indicator. It performs no I/O.
package workflow

import (
	"strings"
	"time"

	"dealership/internal/model"
	"dealership/pkg/apperror"

	"github.com/google/uuid"
)

// Trigger is an action that moves an application between statuses.
type Trigger string

const (
	TriggerSubmit         Trigger = "SUBMIT"
	TriggerBeginReview    Trigger = "BEGIN_REVIEW"
	TriggerRequestInfo    Trigger = "REQUEST_INFO"
	TriggerSupplyInfo     Trigger = "SUPPLY_INFO"
	TriggerApprove        Trigger = "APPROVE"
	TriggerReject         Trigger = "REJECT"
	TriggerAssignPayment  Trigger = "ASSIGN_PAYMENT"
	TriggerSubmitPayment  Trigger = "SUBMIT_PAYMENT"
	TriggerConfirmPayment Trigger = "CONFIRM_PAYMENT"
	TriggerDeclinePayment Trigger = "DECLINE_PAYMENT"
)

// Payload carries the data an edge may require.
type Payload struct {
	Note          string
	Reason        string
	TransactionID string
	UTRNumber     string
	Actor         *uuid.UUID
}

type edge struct {
	to      model.Status
	require func(app model.Application, p Payload) error
}

var table = map[model.Status]map[Trigger]edge{
	model.StatusSubmitted: {
		TriggerBeginReview: {to: model.StatusUnderReview},
	},
	model.StatusUnderReview: {
		TriggerRequestInfo: {to: model.StatusAdditionalInfoRequired},
		TriggerApprove:     {to: model.StatusApproved},
	},
	model.StatusAdditionalInfoRequired: {
		TriggerSupplyInfo: {to: model.StatusUnderReview, require: requireNote},
	},
	model.StatusApproved: {
		TriggerAssignPayment: {to: model.StatusPaymentPending, require: requirePaymentAmount},
	},
	model.StatusPaymentPending: {
		TriggerSubmitPayment:  {to: model.StatusPaymentPending, require: requireTransactionDetails},
		TriggerConfirmPayment: {to: model.StatusPaymentVerified},
		TriggerDeclinePayment: {to: model.StatusPaymentPending, require: requireNote},
	},
}

func requireNote(_ model.Application, p Payload) error {
	if strings.TrimSpace(p.Note) == "" {
		return apperror.New(apperror.CodeMissingPrecondition, "a note is required")
	}
	return nil
}

func requirePaymentAmount(app model.Application, _ Payload) error {
	if !app.PaymentAmount.IsPositive() {
		return apperror.New(apperror.CodeMissingPrecondition, "payment amount must be greater than zero")
	}
	return nil
}

func requireTransactionDetails(_ model.Application, p Payload) error {
	if strings.TrimSpace(p.TransactionID) == "" || strings.TrimSpace(p.UTRNumber) == "" {
		return apperror.New(apperror.CodeMissingPrecondition, "transaction id and UTR number are both required")
	}
	return nil
}

func requireReason(_ model.Application, p Payload) error {
	if strings.TrimSpace(p.Reason) == "" {
		return apperror.New(apperror.CodeMissingPrecondition, "a rejection reason is required")
	}
	return nil
}

// IsTerminal reports whether no trigger leaves status.
func IsTerminal(status model.Status) bool {
	return status == model.StatusRejected || status == model.StatusPaymentVerified
}

func lookup(from model.Status, trigger Trigger) (edge, bool) {
	if trigger == TriggerReject {
		if !from.Valid() || IsTerminal(from) {
			return edge{}, false
		}
		return edge{to: model.StatusRejected, require: requireReason}, true
	}
	e, ok := table[from][trigger]
	return e, ok
}

// Allowed lists the triggers available in status, in a stable order.
func Allowed(status model.Status) []Trigger {
	order := []Trigger{
		TriggerBeginReview, TriggerRequestInfo, TriggerSupplyInfo, TriggerApprove,
		TriggerAssignPayment, TriggerSubmitPayment, TriggerConfirmPayment,
		TriggerDeclinePayment, TriggerReject,
	}
	var out []Trigger
	for _, t := range order {
		if _, ok := lookup(status, t); ok {
			out = append(out, t)
		}
	}
	return out
}

// TriggerFor resolves an admin "set status to" request into the trigger that
// performs it. Self-loops are not resolvable this way.
func TriggerFor(from, to model.Status) (Trigger, error) {
	if to == model.StatusRejected {
		if _, ok := lookup(from, TriggerReject); ok {
			return TriggerReject, nil
		}
	} else if from != to {
		for trigger, e := range table[from] {
			if e.to == to {
				return trigger, nil
			}
		}
	}
	return "", apperror.Newf(apperror.CodeInvalidTransition, "cannot move application from %s to %s", from, to)
}

// NewApplication puts a freshly submitted application into its initial
// state: SUBMITTED with exactly one history entry.
func NewApplication(app model.Application, now time.Time) model.Application {
	app.Status = model.StatusSubmitted
	app.CreatedAt = now
	app.UpdatedAt = now
	app.History = []model.StatusHistory{{
		ApplicationID: app.ID,
		Sequence:      1,
		Status:        model.StatusSubmitted,
		Trigger:       string(TriggerSubmit),
		Note:          "Application submitted",
		CreatedAt:     now,
	}}
	return app
}

// Transition applies trigger to app and returns the updated copy. On error
// the returned application is app unchanged. Existing history entries are
// never modified; the result carries a new slice with one entry appended.
func Transition(app model.Application, trigger Trigger, p Payload, now time.Time) (model.Application, error) {
	e, ok := lookup(app.Status, trigger)
	if !ok {
		return app, apperror.Newf(apperror.CodeInvalidTransition, "%s is not allowed while application is %s", trigger, app.Status)
	}
	if e.require != nil {
		if err := e.require(app, p); err != nil {
			return app, err
		}
	}

	next := app
	next.Status = e.to
	if now.After(app.UpdatedAt) {
		next.UpdatedAt = now
	}

	note := p.Note
	if trigger == TriggerReject {
		// Only approved applications reference a letter.
		next.ApprovalLetterURL = ""
		next.RejectionReason = strings.TrimSpace(p.Reason)
		if note == "" {
			note = next.RejectionReason
		}
	}
	if trigger == TriggerSubmitPayment && note == "" {
		note = "Payment details submitted: transaction " + p.TransactionID + ", UTR " + p.UTRNumber
	}

	history := make([]model.StatusHistory, len(app.History), len(app.History)+1)
	copy(history, app.History)
	next.History = append(history, model.StatusHistory{
		ApplicationID: app.ID,
		Sequence:      lastSequence(app.History) + 1,
		FromStatus:    app.Status,
		Status:        e.to,
		Trigger:       string(trigger),
		Note:          note,
		ChangedBy:     p.Actor,
		CreatedAt:     next.UpdatedAt,
	})
	return next, nil
}

func lastSequence(history []model.StatusHistory) int {
	last := 0
	for _, h := range history {
		if h.Sequence > last {
			last = h.Sequence
		}
	}
	return last
}
