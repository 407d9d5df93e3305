package padic

import (
	"math/big"
	"sync"
)

// memo is an append-only keyed cache. Values are computed outside the lock; two
// goroutines racing on the same key both compute it and the first insert wins.
type memo[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]V
}

func (c *memo[K, V]) lookup(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[k]
	return v, ok
}

func (c *memo[K, V]) get(k K, fill func() V) V {
	if v, ok := c.lookup(k); ok {
		return v
	}
	v := fill()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = make(map[K]V)
	}
	if old, ok := c.m[k]; ok {
		return old
	}
	c.m[k] = v
	return v
}

func (c *memo[K, V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

type invKey struct {
	u    int64
	prec int
}

// InverseCache memoizes inverses of small p-adic units modulo p^prec. The series
// evaluators ask for the same 1/k at the same precision on every call.
type InverseCache struct {
	p int64
	m memo[invKey, *big.Int]
}

func NewInverseCache(p int64) *InverseCache {
	return &InverseCache{p: p}
}

// Inverse returns u⁻¹ mod p^prec. u must be prime to p. The result is shared.
func (c *InverseCache) Inverse(u int64, prec int) *big.Int {
	return c.m.get(invKey{u, prec}, func() *big.Int {
		mod := Pow(c.p, prec)
		x := new(big.Int).Mod(big.NewInt(u), mod)
		if x.ModInverse(x, mod) == nil {
			panic("padic: inverse of a non-unit")
		}
		return x
	})
}

// Len is the number of cached inverses.
func (c *InverseCache) Len() int { return c.m.len() }
