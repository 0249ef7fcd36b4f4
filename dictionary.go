package avcodec

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/multierr"
)

// Dictionary owns a native option map. The zero handle is an empty map, so
// a Dictionary stays usable after Close.
type Dictionary struct {
	lib *Library
	ptr DictionaryHandle
}

// NewDictionary returns an empty dictionary.
func (l *Library) NewDictionary() *Dictionary {
	return &Dictionary{lib: l}
}

// NewDictionary returns an empty dictionary bound to the default library.
func NewDictionary() (*Dictionary, error) {
	lib, err := Default()
	if err != nil {
		return nil, err
	}
	return lib.NewDictionary(), nil
}

// Set stores value under key, replacing an existing entry.
func (d *Dictionary) Set(key, value string) error {
	if ret := d.lib.native.DictSet(&d.ptr, key, value); ret < 0 {
		return fmt.Errorf("set %q: %w", key, d.lib.newError(ret, "av_dict_set"))
	}
	return nil
}

// SetAll stores every entry of m in key order. Failures do not stop the
// remaining entries; they are returned combined.
func (d *Dictionary) SetAll(m map[string]string) error {
	keys := lo.Keys(m)
	sort.Strings(keys)

	var err error
	for _, k := range keys {
		err = multierr.Append(err, d.Set(k, m[k]))
	}
	return err
}

// Get returns the value stored under key.
func (d *Dictionary) Get(key string) (string, bool) {
	return d.lib.native.DictGet(d.ptr, key)
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	return d.lib.native.DictCount(d.ptr)
}

// Map copies the entries into a Go map.
func (d *Dictionary) Map() map[string]string {
	m := make(map[string]string, d.Len())
	d.lib.native.DictEach(d.ptr, func(k, v string) {
		m[k] = v
	})
	return m
}

// Keys returns the keys in sorted order.
func (d *Dictionary) Keys() []string {
	keys := lo.Keys(d.Map())
	sort.Strings(keys)
	return keys
}

// Handle returns the native pointer. It changes when the native side
// rebuilds the map, e.g. during OpenWith.
func (d *Dictionary) Handle() DictionaryHandle { return d.ptr }

// Close frees every entry.
func (d *Dictionary) Close() error {
	if d == nil || d.ptr == 0 {
		return nil
	}
	d.lib.native.DictFree(&d.ptr)
	d.ptr = 0
	return nil
}
