package vulkan

import "github.com/dolthub/swiss"

// table hands out opaque engine handles for native objects. Handle 0 is never issued and
// resolves to the zero native value, which is the null object for every vk handle type.
type table[H ~uint64, V any] struct {
	next  H
	items *swiss.Map[H, V]
}

func newTable[H ~uint64, V any](size uint32) *table[H, V] {
	return &table[H, V]{items: swiss.NewMap[H, V](size)}
}

func (t *table[H, V]) add(v V) H {
	t.next++
	t.items.Put(t.next, v)
	return t.next
}

func (t *table[H, V]) get(h H) V {
	v, _ := t.items.Get(h)
	return v
}

func (t *table[H, V]) remove(h H) (V, bool) {
	v, ok := t.items.Get(h)
	if ok {
		t.items.Delete(h)
	}
	return v, ok
}

func (t *table[H, V]) len() int {
	return t.items.Count()
}

// each visits every live entry. Order is unspecified.
func (t *table[H, V]) each(fn func(h H, v V)) {
	t.items.Iter(func(h H, v V) bool {
		fn(h, v)
		return false
	})
}
