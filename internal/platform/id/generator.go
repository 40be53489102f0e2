package id

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

// UUIDGenerator issues random (v4) UUID strings.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	v, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}

	return v.String(), nil
}

// SequenceGenerator returns prefix-1, prefix-2, ... and is meant for tests and seeds.
type SequenceGenerator struct {
	Prefix string

	mu   sync.Mutex
	next int
}

func (g *SequenceGenerator) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.next++
	return fmt.Sprintf("%s-%d", g.Prefix, g.next), nil
}
