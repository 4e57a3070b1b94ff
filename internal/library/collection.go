package library

import "sort"

// collection stores entities of one kind keyed by uint32 IDs. IDs come
// from the library's shared allocator, so an ID identifies one entity
// across all collections. The zero ID is reserved.
type collection[T any] struct {
	items map[uint32]*T
}

func newCollection[T any]() collection[T] {
	return collection[T]{items: make(map[uint32]*T)}
}

// add inserts a new zero-valued entity under the given ID and returns a
// pointer to it.
func (c *collection[T]) add(id uint32) *T {
	item := new(T)
	c.items[id] = item
	return item
}

func (c *collection[T]) find(id uint32) *T {
	return c.items[id]
}

func (c *collection[T]) remove(id uint32) {
	delete(c.items, id)
}

// put inserts an entity under an explicit ID during deserialization.
func (c *collection[T]) put(id uint32, item *T) {
	c.items[id] = item
}

func (c *collection[T]) size() int {
	return len(c.items)
}

// ids returns all IDs in ascending order, for deterministic iteration.
func (c *collection[T]) ids() []uint32 {
	out := make([]uint32, 0, len(c.items))
	for id := range c.items {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
