package vend

import (
	"hash/fnv"
	"sort"
	"sync"
)

const guardShards = 64

// keyedLocks serializes mutations that touch the same account or product.
// Keys hash onto a fixed set of striped mutexes; multi-key acquisition takes
// shards in ascending order so two purchases touching the same pair of
// records can never deadlock.
type keyedLocks struct {
	shards [guardShards]sync.Mutex
}

func shardFor(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % guardShards)
}

// lock acquires the shards covering all keys and returns the release func.
func (k *keyedLocks) lock(keys ...string) func() {
	idx := make([]int, 0, len(keys))
	seen := make(map[int]bool, len(keys))
	for _, key := range keys {
		s := shardFor(key)
		if !seen[s] {
			seen[s] = true
			idx = append(idx, s)
		}
	}
	sort.Ints(idx)
	for _, i := range idx {
		k.shards[i].Lock()
	}
	return func() {
		for j := len(idx) - 1; j >= 0; j-- {
			k.shards[idx[j]].Unlock()
		}
	}
}
