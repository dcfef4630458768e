package cache

import (
	"net/url"
)

// Fingerprint builds a deterministic cache key out of a namespace and the
// request parameters that affect the result. Parameters are ordered by name
// and empty values are left out, so the insertion order of params never
// changes the key.
func Fingerprint(namespace string, params map[string]string) string {
	values := make(url.Values, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		values.Set(k, v)
	}
	return namespace + ":" + values.Encode()
}
