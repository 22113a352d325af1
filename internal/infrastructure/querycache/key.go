package querycache

import (
	"net/url"
	"strings"
)

// Key clave compuesta de caché, p. ej. ["inventory", id, "movements"] → "inventory/<id>/movements".
// Cada segmento se escapa para que un id con '/' no colisione con otra clave.
type Key string

// NewKey construye una clave a partir de sus segmentos.
func NewKey(parts ...string) Key {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return Key(strings.Join(escaped, "/"))
}

// Parts devuelve los segmentos originales de la clave.
func (k Key) Parts() []string {
	if k == "" {
		return nil
	}
	raw := strings.Split(string(k), "/")
	out := make([]string, len(raw))
	for i, p := range raw {
		if u, err := url.PathUnescape(p); err == nil {
			out[i] = u
		} else {
			out[i] = p
		}
	}
	return out
}

func (k Key) String() string { return string(k) }
