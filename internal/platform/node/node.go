package node

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ctxKey represents the type of value for the context key.
type ctxKey int

// KeyValues is how request values are stored/retrieved.
const KeyValues ctxKey = 1

// Values represent state for each request.
type Values struct {
	TraceID string
	Now     time.Time
}

// ContextWithValues returns a context carrying fresh request values.
func ContextWithValues(ctx context.Context) context.Context {
	v := Values{
		TraceID: uuid.New().String(),
		Now:     time.Now(),
	}
	return context.WithValue(ctx, KeyValues, &v)
}

// ContextValues returns the request values attached to the context, or fresh
// values when none are attached.
func ContextValues(ctx context.Context) *Values {
	if v, ok := ctx.Value(KeyValues).(*Values); ok {
		return v
	}
	return &Values{
		TraceID: uuid.New().String(),
		Now:     time.Now(),
	}
}
