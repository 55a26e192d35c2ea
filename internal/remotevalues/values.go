package remotevalues

import (
	"context"
	"fmt"
	"sort"

	"git.home.luguber.info/inful/remotevalues/internal/fetch"
	ferrors "git.home.luguber.info/inful/remotevalues/internal/foundation/errors"
	"git.home.luguber.info/inful/remotevalues/internal/placeholder"
)

// ResolveValues resolves named value specs ("<url>" or "<url>|<path>", "remote:" prefix
// optional) in one batch. Unresolvable values are "". A malformed spec is an error
// and nothing is fetched.
func (t *Transformer) ResolveValues(ctx context.Context, specs map[string]string) (map[string]string, error) {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	keyed := make(map[string]placeholder.Key, len(specs))
	keys := make([]placeholder.Key, 0, len(specs))
	for _, name := range names {
		key, ok := placeholder.ParseSpec(specs[name])
		if !ok {
			return nil, ferrors.ValidationError(fmt.Sprintf("value %q: %q is not <url> or <url>|<path>", name, specs[name])).
				WithContext("name", name).Build()
		}
		keyed[name] = key
		keys = append(keys, key)
	}

	cache := t.cache
	if cache == nil {
		cache = fetch.NewMemoryCache()
	}
	outcomes := t.resolver.ResolveAll(ctx, cache, keys)

	values := make(map[string]string, len(keyed))
	for name, key := range keyed {
		values[name] = outcomes[key].Value
	}
	return values, nil
}
