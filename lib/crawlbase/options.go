package crawlbase

import "slices"

// Options is an insertion ordered set of request options. The zero value is
// ready to use and a nil *Options behaves as an empty set for reads.
type Options struct {
	keys   []string
	values map[string]any
}

func NewOptions() *Options {
	return &Options{}
}

// Set assigns value to key. Overwriting an existing key keeps its position.
func (o *Options) Set(key string, value any) *Options {
	if o.values == nil {
		o.values = map[string]any{}
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
	return o
}

func (o *Options) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

func (o *Options) Delete(key string) {
	if o == nil {
		return
	}
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	o.keys = slices.DeleteFunc(o.keys, func(k string) bool { return k == key })
}

func (o *Options) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

func (o *Options) Keys() []string {
	if o == nil {
		return nil
	}
	return slices.Clone(o.keys)
}

// Clone returns a copy so that calls never mutate the caller's options.
func (o *Options) Clone() *Options {
	out := NewOptions()
	if o == nil {
		return out
	}
	for _, k := range o.keys {
		out.Set(k, o.values[k])
	}
	return out
}
