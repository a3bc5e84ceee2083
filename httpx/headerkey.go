package httpx

import "strings"

// HeaderKey is a header field name together with its lowercase form.
// Norm is used for equality and lookup; Name keeps the casing seen on the
// wire.
type HeaderKey struct {
	Name string
	Norm string
}

func NewHeaderKey(name string) HeaderKey {
	return HeaderKey{Name: name, Norm: strings.ToLower(name)}
}

func (k HeaderKey) Equal(o HeaderKey) bool { return k.Norm == o.Norm }

func (k HeaderKey) String() string { return k.Name }
