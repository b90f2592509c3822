package domain

import (
	"context"
	"fmt"
	"time"
)

// DeliverParams is everything an adapter needs to push one completed response
// to one destination.
type DeliverParams struct {
	Destination *Destination
	Form        Form
	Answers     AnswerSet
	Mapping     *FieldMapping // nil puts the mapping engine in heuristic mode
	SubmittedAt time.Time
}

// DestinationAdapter turns a shaped answer set into one outbound call to an
// external system. Adapters return an error instead of retrying; the dispatch
// boundary owns failure isolation.
type DestinationAdapter interface {
	Deliver(ctx context.Context, params DeliverParams) error
}

// AdapterSelector resolves the adapter for a destination type at dispatch
// time, replacing type-string branching with a registry.
type AdapterSelector interface {
	Register(destinationType DestinationType, adapter DestinationAdapter)
	Select(ctx context.Context, destinationType DestinationType) (DestinationAdapter, error)
}

type adapterSelector struct {
	adaptersByType map[DestinationType]DestinationAdapter
}

func NewAdapterSelector() AdapterSelector {
	return &adapterSelector{
		adaptersByType: make(map[DestinationType]DestinationAdapter),
	}
}

func (s *adapterSelector) Register(destinationType DestinationType, adapter DestinationAdapter) {
	s.adaptersByType[destinationType] = adapter
}

func (s *adapterSelector) Select(ctx context.Context, destinationType DestinationType) (DestinationAdapter, error) {
	adapter, ok := s.adaptersByType[destinationType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAdapterNotFound, destinationType)
	}

	return adapter, nil
}
