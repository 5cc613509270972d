// Package meta keeps the set of meta fields exposed through the content API.
package meta

import (
	"html"
	"sort"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/textbulker/textbulker/auth"
)

// ObjectPost is the object type for content items.
const ObjectPost = "post"

// TypeString is the only value type the content API serves for meta.
const TypeString = "string"

// AuthFunc decides whether caller may read or write a meta field.
type AuthFunc func(caller auth.Caller) bool

// Args describes how a meta key is exposed.
type Args struct {
	Type       string
	Single     bool
	ShowInREST bool
	Auth       AuthFunc
}

// Field is a registered meta key with its arguments.
type Field struct {
	Key string
	Args
}

// Allowed reports whether caller passes the field's auth predicate.
// A field without a predicate is open to everyone.
func (f Field) Allowed(caller auth.Caller) bool {
	if f.Auth == nil {
		return true
	}
	return f.Auth(caller)
}

// Registry holds registered meta fields by object type.
type Registry struct {
	mu     sync.RWMutex
	fields map[string]map[string]Field
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{fields: make(map[string]map[string]Field)}
}

// RegisterMeta registers key on objectType. Registering the same key again
// replaces the previous arguments.
func (r *Registry) RegisterMeta(objectType, key string, args Args) {
	if args.Type == "" {
		args.Type = TypeString
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.fields[objectType]
	if !ok {
		m = make(map[string]Field)
		r.fields[objectType] = m
	}
	m[key] = Field{Key: key, Args: args}
}

// Fields returns the fields registered on objectType, sorted by key.
func (r *Registry) Fields(objectType string) []Field {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Field, 0, len(r.fields[objectType]))
	for _, f := range r.fields[objectType] {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Lookup returns the field registered for key.
func (r *Registry) Lookup(objectType, key string) (Field, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fields[objectType][key]
	return f, ok
}

// Readable returns the REST-visible keys on objectType that caller may read.
func (r *Registry) Readable(objectType string, caller auth.Caller) []string {
	var keys []string
	for _, f := range r.Fields(objectType) {
		if f.ShowInREST && f.Allowed(caller) {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// Len returns the number of fields registered on objectType.
func (r *Registry) Len(objectType string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fields[objectType])
}

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeString strips all markup from a string meta value and returns
// plain text. Entities are decoded, and decoding that reveals new tags
// triggers another pass.
func SanitizeString(v string) string {
	for i := 0; i < 4; i++ {
		next := html.UnescapeString(strictPolicy.Sanitize(v))
		if next == v {
			break
		}
		v = next
	}
	return strings.TrimSpace(v)
}
