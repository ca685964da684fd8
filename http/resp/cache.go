package resp

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/xy-planning-network/canopy/template"
)

var (
	_ FragmentCacher = NewFragmentMap()
	_ FragmentCacher = FragmentRedis{}
)

// A FragmentCacher stores rendered Fragments paired to keys for a time.
//
// A FragmentCacher ought report a miss rather than an error
// when a key does not match a stored Fragment or the backend cannot be reached,
// so a Responder falls back to rendering.
type FragmentCacher interface {
	Get(ctx context.Context, key string) (template.Fragment, bool)
	Set(ctx context.Context, key string, frag template.Fragment, ttl time.Duration)
}

// A FragmentMap stores key, Fragment pairs in a map.
//
// Server restarts reset this map,
// nor is it shared between instances of an application.
// A FragmentMap ought not be used for production environments running more than one instance.
type FragmentMap struct {
	mu   sync.Mutex
	vals map[string]fragmentMapVal
}

type fragmentMapVal struct {
	frag template.Fragment
	exp  time.Time
}

// NewFragmentMap constructs an empty *FragmentMap.
func NewFragmentMap() *FragmentMap {
	return &FragmentMap{vals: make(map[string]fragmentMapVal)}
}

// Get retrieves the Fragment paired to key much like a regular map.
// Expired Fragments are misses.
func (fm *FragmentMap) Get(ctx context.Context, key string) (template.Fragment, bool) {
	if key == "" {
		return template.Fragment{}, false
	}

	select {
	case <-ctx.Done():
		return template.Fragment{}, false

	default:
		fm.mu.Lock()
		defer fm.mu.Unlock()

		v, ok := fm.vals[key]
		if !ok {
			return template.Fragment{}, false
		}

		if time.Now().After(v.exp) {
			delete(fm.vals, key)
			return template.Fragment{}, false
		}

		return v.frag, true
	}
}

// Set overwrites the Fragment paired to key in the map.
//
// For each call to Set, expired Fragments are evicted.
func (fm *FragmentMap) Set(ctx context.Context, key string, frag template.Fragment, ttl time.Duration) {
	select {
	case <-ctx.Done():
		return

	default:
		fm.mu.Lock()
		defer fm.mu.Unlock()

		now := time.Now()
		for k, v := range fm.vals {
			if now.After(v.exp) {
				delete(fm.vals, k)
			}
		}

		fm.vals[key] = fragmentMapVal{frag: frag, exp: now.Add(ttl)}
	}
}

// A FragmentRedis connects to a Redis backend
// for the purposes of caching rendered Fragments.
type FragmentRedis struct {
	client *redis.Client
	prefix string
}

// FragmentRedisPrefix prefixes every key a FragmentRedis stores.
const FragmentRedisPrefix = "canopy:fragment:"

// NewFragmentRedis constructs a FragmentRedis with the options passed in.
func NewFragmentRedis(opts *redis.Options) FragmentRedis {
	return FragmentRedis{client: redis.NewClient(opts), prefix: FragmentRedisPrefix}
}

// Get retrieves the Fragment paired to key from the connected Redis backend.
func (fr FragmentRedis) Get(ctx context.Context, key string) (template.Fragment, bool) {
	select {
	case <-ctx.Done():
		return template.Fragment{}, false
	default:
		s, err := fr.client.Get(ctx, fr.prefix+key).Result()
		if err != nil {
			return template.Fragment{}, false
		}

		return template.RawFragment(s), true
	}
}

// Set saves the Fragment by pairing it to the key in the Redis backend,
// expiring after ttl.
func (fr FragmentRedis) Set(ctx context.Context, key string, frag template.Fragment, ttl time.Duration) {
	select {
	case <-ctx.Done():
		return
	default:
		fr.client.Set(ctx, fr.prefix+key, frag.String(), ttl)
	}
}

// Close closes the connection to the Redis backend.
func (fr FragmentRedis) Close() error {
	return fr.client.Close()
}
