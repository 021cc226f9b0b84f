// Package gateway charges bookings. Only the local simulated gateway exists;
// no external payment provider is contacted.
package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Domenick1991/railbooking/internal/domain"
)

type ChargeRequest struct {
	BookingID int64
	Amount    int64
	Method    string
}

type Gateway interface {
	// Charge returns the payment reference of an approved charge.
	Charge(ctx context.Context, req ChargeRequest) (string, error)
}

var defaultMethods = []string{"credit", "debit", "upi", "netbanking", "wallet", "cash"}

type Local struct {
	methods map[string]struct{}
}

// NewLocal approves the given methods, or the default set when none are given.
func NewLocal(methods ...string) *Local {
	if len(methods) == 0 {
		methods = defaultMethods
	}
	g := &Local{methods: make(map[string]struct{}, len(methods))}
	for _, m := range methods {
		g.methods[NormalizeMethod(m)] = struct{}{}
	}
	return g
}

func (g *Local) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if req.Amount <= 0 {
		return "", domain.Invalid("amount", "must be positive")
	}
	method := NormalizeMethod(req.Method)
	if _, ok := g.methods[method]; !ok {
		return "", fmt.Errorf("%w: method %q is not supported", domain.ErrPaymentDeclined, req.Method)
	}
	return "PAY-" + strings.ToUpper(uuid.NewString()), nil
}

func NormalizeMethod(method string) string {
	return strings.ToLower(strings.TrimSpace(method))
}

var _ Gateway = (*Local)(nil)
