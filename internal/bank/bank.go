package bank

import (
	"context"
	"math/rand/v2"
)

// Bank merges built-in questions with the store. A nil store serves built-ins only.
type Bank struct {
	store *Store
	rng   *rand.Rand
}

func New(store *Store, rng *rand.Rand) *Bank {
	return &Bank{store: store, rng: rng}
}

// All returns built-in then stored questions for category.
func (b *Bank) All(ctx context.Context, category string) ([]Question, error) {
	out := Builtin(category)
	if b.store == nil {
		return out, nil
	}
	stored, err := b.store.Questions(ctx, category)
	if err != nil {
		return nil, err
	}
	return append(out, stored...), nil
}

// Session picks up to n random questions from category.
func (b *Bank) Session(ctx context.Context, category string, n int) ([]Question, error) {
	all, err := b.All(ctx, category)
	if err != nil {
		return nil, err
	}
	return Pick(all, n, b.rng), nil
}
