package conf

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

//go:embed engine-defaults.yaml
var defaultsYAML []byte

// ErrInvalidKey is returned by Set for keys the engine cannot address.
var ErrInvalidKey = errors.New("invalid configuration key")

var (
	engineDefaults     map[string]string
	engineDefaultsOnce sync.Once
)

// Defaults returns a copy of the embedded engine defaults.
func Defaults() map[string]string {
	engineDefaultsOnce.Do(func() {
		m, err := parseFlat(defaultsYAML)
		if err != nil {
			panic(fmt.Sprintf("conf: embedded defaults: %v", err))
		}
		engineDefaults = m
	})
	return copyMap(engineDefaults)
}

// Configuration is the engine's mutable key/value configuration.
type Configuration struct {
	defaults map[string]string
	props    map[string]string
}

// New creates a Configuration populated with the embedded engine defaults.
func New() *Configuration {
	return NewFrom(Defaults())
}

// NewFrom creates a Configuration over the given defaults.
// The map is copied; later changes to it are not observed.
func NewFrom(defaults map[string]string) *Configuration {
	d := copyMap(defaults)
	return &Configuration{defaults: d, props: copyMap(d)}
}

// Get returns the value for key, or "" if the key is absent.
func (c *Configuration) Get(key string) string {
	return c.props[key]
}

// Lookup returns the value for key and whether it is present.
func (c *Configuration) Lookup(key string) (string, bool) {
	v, ok := c.props[key]
	return v, ok
}

// Set stores value under key.
func (c *Configuration) Set(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	c.props[key] = value
	return nil
}

// Unset removes a caller-provided value. Keys with an engine default revert
// to that default; other keys are removed. Unsetting an absent key is a no-op.
func (c *Configuration) Unset(key string) {
	if d, ok := c.defaults[key]; ok {
		c.props[key] = d
		return
	}
	delete(c.props, key)
}

// Properties returns the live backing map. Mutations bypass key validation
// and default restoration.
func (c *Configuration) Properties() map[string]string {
	return c.props
}

// Keys returns all present keys in sorted order.
func (c *Configuration) Keys() []string {
	keys := make([]string, 0, len(c.props))
	for k := range c.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Range calls fn for every key in sorted order until fn returns false.
func (c *Configuration) Range(fn func(key, value string) bool) {
	for _, k := range c.Keys() {
		if !fn(k, c.props[k]) {
			return
		}
	}
}

// RemoveIf deletes every key matching pred and returns how many were removed.
// Unlike Unset, matching keys are dropped even if they carry a default.
func (c *Configuration) RemoveIf(pred func(key string) bool) int {
	n := 0
	for k := range c.props {
		if pred(k) {
			delete(c.props, k)
			n++
		}
	}
	return n
}

// Len returns the number of present keys.
func (c *Configuration) Len() int {
	return len(c.props)
}

// Clone returns an independent copy, defaults included.
func (c *Configuration) Clone() *Configuration {
	return &Configuration{defaults: copyMap(c.defaults), props: copyMap(c.props)}
}

// GetBool returns key parsed as a boolean, or def if absent or unparsable.
func (c *Configuration) GetBool(key string, def bool) bool {
	v, ok := c.props[key]
	if !ok {
		return def
	}
	b, err := cast.ToBoolE(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

// GetInt returns key parsed as an integer, or def if absent or unparsable.
func (c *Configuration) GetInt(key string, def int) int {
	v, ok := c.props[key]
	if !ok {
		return def
	}
	i, err := cast.ToIntE(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}

// GetList splits key on sep, trimming blanks and dropping empty elements.
func (c *Configuration) GetList(key, sep string) []string {
	v := strings.TrimSpace(c.props[key])
	if v == "" {
		return nil
	}
	if sep == "" {
		return []string{v}
	}
	var out []string
	for _, part := range strings.Split(v, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidKey, key)
	}
	return nil
}

// parseFlat decodes a YAML document into a flat dotted-key map.
// Nested mappings are joined with "." and sequences with ",".
func parseFlat(data []byte) (map[string]string, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	out := make(map[string]string, len(raw))
	if err := flatten("", raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(prefix string, in map[string]any, out map[string]string) error {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch tv := v.(type) {
		case map[string]any:
			if err := flatten(key, tv, out); err != nil {
				return err
			}
		case []any:
			items, err := cast.ToStringSliceE(tv)
			if err != nil {
				return fmt.Errorf("key %q: %w", key, err)
			}
			out[key] = strings.Join(items, ",")
		case nil:
			out[key] = ""
		default:
			s, err := cast.ToStringE(tv)
			if err != nil {
				return fmt.Errorf("key %q: %w", key, err)
			}
			out[key] = s
		}
	}
	return nil
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
