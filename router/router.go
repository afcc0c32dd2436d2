// Package router dispatches decoded messages to a handler selected by a
// "type" field in the message body.
package router

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flowmq/sqsconsumer"
	"github.com/flowmq/sqsconsumer/middleware"
)

// Type routes from a type value to the middleware.Handler that handles it.
type Type map[string]middleware.Handler

// New makes an empty router.
func New() Type {
	return make(Type)
}

// Add registers h for the given type value, replacing any existing handler
// for it.
func (t Type) Add(typeValue string, h middleware.Handler) {
	t[typeValue] = h
}

// Handler satisfies middleware.Handler: it decodes msg.Body's "type" field
// and dispatches to the registered handler, or returns RouteNotFoundError.
func (t Type) Handler(ctx context.Context, msg *sqsconsumer.Message) error {
	var tm typedMessage
	if err := json.Unmarshal(msg.Body, &tm); err != nil {
		return fmt.Errorf("router: decoding message %s: %w", msg.ID, err)
	}
	if tm.Type == "" {
		return RouteNotFoundError{tm.Type}
	}

	fn, ok := t[tm.Type]
	if !ok {
		return RouteNotFoundError{tm.Type}
	}
	return fn(ctx, msg)
}

// RouteNotFoundError names the type value that matched no registered route.
type RouteNotFoundError struct {
	Type string
}

func (e RouteNotFoundError) Error() string {
	return fmt.Sprintf("router: no route found for type: %s", e.Type)
}

type typedMessage struct {
	Type string `json:"type"`
}
