package domain

import (
	"slices"
	"strings"
)

// WorkOrders is the ordered, de-duplicated set of work orders registered
// for a session. Methods never modify the receiver's backing array.
type WorkOrders []string

// NormalizeWorkOrder trims raw scanner or keyboard input.
// An empty result means the input should be ignored.
func NormalizeWorkOrder(raw string) string {
	return strings.TrimSpace(raw)
}

// Contains reports whether wo is registered (exact match)
func (w WorkOrders) Contains(wo string) bool {
	return slices.Contains(w, wo)
}

// Len returns the number of registered work orders
func (w WorkOrders) Len() int {
	return len(w)
}

// List returns a copy of the work orders in registration order
func (w WorkOrders) List() []string {
	out := make([]string, len(w))
	copy(out, w)
	return out
}

// Add returns the set with raw appended. Blank input and duplicates leave
// the set unchanged and report false.
func (w WorkOrders) Add(raw string) (WorkOrders, bool) {
	wo := NormalizeWorkOrder(raw)
	if wo == "" || w.Contains(wo) {
		return w, false
	}
	out := make(WorkOrders, 0, len(w)+1)
	out = append(out, w...)
	return append(out, wo), true
}

// Remove returns the set without wo, reporting whether it was present
func (w WorkOrders) Remove(wo string) (WorkOrders, bool) {
	if !w.Contains(wo) {
		return w, false
	}
	out := make(WorkOrders, 0, len(w)-1)
	for _, x := range w {
		if x != wo {
			out = append(out, x)
		}
	}
	return out, true
}
