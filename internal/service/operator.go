package service

import "context"

// Operator is the API account behind an authenticated request.
type Operator struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

type operatorKey struct{}

// WithOperator returns a copy of ctx carrying op.
func WithOperator(ctx context.Context, op Operator) context.Context {
	return context.WithValue(ctx, operatorKey{}, op)
}

// OperatorFrom reports the operator stored by WithOperator.
func OperatorFrom(ctx context.Context) (Operator, bool) {
	op, ok := ctx.Value(operatorKey{}).(Operator)
	return op, ok
}

// operatorMeta adds the acting operator, if any, to event metadata.
func operatorMeta(ctx context.Context, meta map[string]any) map[string]any {
	op, ok := OperatorFrom(ctx)
	if !ok {
		return meta
	}
	if meta == nil {
		meta = make(map[string]any, 1)
	}
	meta["operator"] = op.Username
	return meta
}
