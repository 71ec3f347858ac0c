package orders

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type actionFunc func(context.Context, uuid.UUID) error

type actionFactory struct {
	byStatus map[string]actionFunc
}

func newActionFactory(onPending, onSearching, onCancelled actionFunc) *actionFactory {
	return &actionFactory{
		byStatus: map[string]actionFunc{
			"pending":          onPending,
			"searching_driver": onSearching,
			"cancelled":        onCancelled,
			"canceled":         onCancelled,
		},
	}
}

func (f *actionFactory) get(status string) (actionFunc, bool) {
	status = strings.ToLower(strings.TrimSpace(status))
	fn, ok := f.byStatus[status]
	return fn, ok
}
