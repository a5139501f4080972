package httpclient

import "context"

type actionKey struct{}

// WithAction tags ctx with the console action issuing requests,
// so API logs can be grouped per workflow.
func WithAction(ctx context.Context, action string) context.Context {
	return context.WithValue(ctx, actionKey{}, action)
}

// ActionFrom returns the action set by WithAction, if any.
func ActionFrom(ctx context.Context) string {
	action, _ := ctx.Value(actionKey{}).(string)
	return action
}
