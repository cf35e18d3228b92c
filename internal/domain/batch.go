package domain

import "time"

// BatchVersion is the only protocol version this engine speaks.
const BatchVersion = "v1"

// Batch is one atomically-applied list of operations. Ownership transfers to
// the server while a flush is in flight: the client must not mutate it until
// a definitive success or failure comes back. The idempotency key is stable
// across retries of the same flush attempt and fresh for every new attempt.
type Batch struct {
	Version        string      `json:"version"`
	IdempotencyKey string      `json:"idempotencyKey,omitempty"`
	Ops            []Operation `json:"ops"`
}

// IDPair maps one client tempId to the durable id the server assigned.
type IDPair struct {
	TempID string `json:"tempId"`
	ID     string `json:"id"`
}

// IDMapping carries every tempId introduced by the batch, per collection.
type IDMapping struct {
	Exercises []IDPair `json:"exercises"`
	Sets      []IDPair `json:"sets"`
	Rests     []IDPair `json:"rests"`
}

// Pairs flattens the mapping into a lookup table.
func (m *IDMapping) Pairs() map[string]string {
	out := make(map[string]string, len(m.Exercises)+len(m.Sets)+len(m.Rests))
	for _, group := range [][]IDPair{m.Exercises, m.Sets, m.Rests} {
		for _, p := range group {
			out[p.TempID] = p.ID
		}
	}
	return out
}

// BatchResponse is the server's answer to a save. UpdatedAt is the server
// clock for the affected day so the client can align local staleness.
type BatchResponse struct {
	Applied   bool      `json:"applied"`
	Mapping   IDMapping `json:"mapping"`
	UpdatedAt time.Time `json:"updatedAt"`
}
