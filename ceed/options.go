package ceed

import (
	"strconv"
	"strings"
)

// Options are the key=value pairs after ':' in a resource string
type Options map[string]string

// ParseOptions parses "k1=v1,k2=v2". A bare key is stored with an empty value.
func ParseOptions(s string) (Options, error) {
	opts := make(Options)
	for _, kv := range strings.Split(s, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if k == "" {
			return nil, Errorf("Ceed", "Init", ErrInvalidArgument, "empty option key in %q", s)
		}
		opts[k] = strings.TrimSpace(v)
	}
	return opts, nil
}

func (o Options) String(key, defaultValue string) string {
	if v, ok := o[key]; ok && v != "" {
		return v
	}
	return defaultValue
}

func (o Options) Int(key string, defaultValue int) (int, error) {
	v, ok := o[key]
	if !ok || v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, Errorf("Ceed", "Init", ErrInvalidArgument, "option %s=%q is not an integer", key, v)
	}
	return n, nil
}
