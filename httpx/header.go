package httpx

import (
	"sort"
	"strings"
)

// HeaderField is one stored header: the key as first seen and its value.
type HeaderField struct {
	Key   HeaderKey
	Value string
}

// Header collects parsed header fields keyed by normalized name. A repeated
// field replaces the earlier value.
type Header map[string]HeaderField

// SetHeader stores value under k, replacing any previous field with the
// same normalized name.
func (h Header) SetHeader(k HeaderKey, value string) {
	if h == nil {
		return
	}
	h[k.Norm] = HeaderField{Key: k, Value: value}
}

// Lookup returns the value stored for name, matched case-insensitively.
func (h Header) Lookup(name string) (string, bool) {
	if h == nil {
		return "", false
	}
	f, ok := h[strings.ToLower(name)]
	return f.Value, ok
}

func (h Header) Get(name string) string {
	v, _ := h.Lookup(name)
	return v
}

func (h Header) Del(name string) {
	if h == nil {
		return
	}
	delete(h, strings.ToLower(name))
}

func (h Header) Len() int { return len(h) }

// Names returns the original field names in normalized order.
func (h Header) Names() []string {
	norms := make([]string, 0, len(h))
	for n := range h {
		norms = append(norms, n)
	}
	sort.Strings(norms)
	names := make([]string, len(norms))
	for i, n := range norms {
		names[i] = h[n].Key.Name
	}
	return names
}
