package pubsub

import "github.com/goccy/go-json"

// PayloadKind distinguishes how a published message's body should be
// interpreted by a subscriber.
type PayloadKind int

const (
	PayloadBytes PayloadKind = iota
	PayloadJSON
	PayloadSerialized
)

// Payload is the body of a published message, per spec.md §4.10's
// Bytes/Json/Serialized variants.
type Payload struct {
	kind  PayloadKind
	bytes []byte
}

// NewBytesPayload wraps a raw byte payload.
func NewBytesPayload(b []byte) Payload { return Payload{kind: PayloadBytes, bytes: b} }

// NewJSONPayload marshals v with goccy/go-json and wraps the result.
func NewJSONPayload(v any) (Payload, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Payload{}, err
	}
	return Payload{kind: PayloadJSON, bytes: b}, nil
}

// NewSerializedPayload wraps an already-serialized (e.g. ZDB-encoded)
// byte payload, distinguishing it from arbitrary Bytes for consumers
// that care about provenance.
func NewSerializedPayload(b []byte) Payload { return Payload{kind: PayloadSerialized, bytes: b} }

func (p Payload) Kind() PayloadKind { return p.kind }
func (p Payload) Bytes() []byte     { return p.bytes }

// DecodeJSON decodes a PayloadJSON body into v.
func (p Payload) DecodeJSON(v any) error {
	return json.Unmarshal(p.bytes, v)
}
