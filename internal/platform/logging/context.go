package logging

import "context"

type attrsKey struct{}

// ContextWith returns a ctx whose context-aware log records carry args, on
// top of any attrs already bound to ctx. Used for request-scoped ids.
func ContextWith(ctx context.Context, args ...any) context.Context {
	if len(args) == 0 {
		return ctx
	}
	prev := contextAttrs(ctx)
	merged := make([]any, 0, len(prev)+len(args))
	merged = append(merged, prev...)
	merged = append(merged, args...)
	return context.WithValue(ctx, attrsKey{}, merged)
}

// ContextValue returns the value bound to key by ContextWith.
func ContextValue(ctx context.Context, key string) (any, bool) {
	attrs := contextAttrs(ctx)
	for i := len(attrs) - 2; i >= 0; i -= 2 {
		if k, ok := attrs[i].(string); ok && k == key {
			return attrs[i+1], true
		}
	}
	return nil, false
}

func contextAttrs(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	attrs, _ := ctx.Value(attrsKey{}).([]any)
	return attrs
}
