package evaluator

import (
	"hash/fnv"
	"math/bits"
	"sort"
	"strings"
)

// Persistent Hash Array Mapped Trie (HAMT) keyed by structural key.
// Every Put returns a new map sharing unchanged nodes with the old one.

const (
	hamtBits = 5
	hamtSize = 1 << hamtBits // 32
	hamtMask = hamtSize - 1
)

// Map is the runtime value of (Map K V).
type Map struct {
	root  *hamtNode
	count int
}

type hamtNode struct {
	bitmap uint32        // which indices are populated
	nodes  []interface{} // hamtEntry or *hamtNode
}

// hamtEntry keeps the original key object next to its structural key so
// keys() hands back what was stored.
type hamtEntry struct {
	hash  uint32
	skey  string
	key   Object
	value Object
}

// MapEntry is one key/value pair of a Map.
type MapEntry struct {
	Key   Object
	Value Object
}

func EmptyMap() *Map {
	return &Map{}
}

func (m *Map) Type() ObjectType { return MAP_OBJ }

func (m *Map) Inspect() string {
	var sb strings.Builder
	sb.WriteString("(map")
	for _, e := range m.Entries() {
		sb.WriteString(" (" + e.Key.Inspect() + " " + e.Value.Inspect() + ")")
	}
	sb.WriteString(")")
	return sb.String()
}

func (m *Map) Len() int {
	return m.count
}

// Get returns the value stored under key, or nil.
func (m *Map) Get(key Object) (Object, *Error) {
	skey, err := structuralKey(key)
	if err != nil {
		return nil, err
	}
	if m.root == nil {
		return nil, nil
	}
	return m.root.get(hashKey(skey), skey, 0), nil
}

// Put returns a new map with key bound to value.
func (m *Map) Put(key, value Object) (*Map, *Error) {
	skey, err := structuralKey(key)
	if err != nil {
		return nil, err
	}
	root := m.root
	if root == nil {
		root = &hamtNode{}
	}
	entry := hamtEntry{hash: hashKey(skey), skey: skey, key: key, value: value}
	newRoot, added := root.put(entry, 0)

	count := m.count
	if added {
		count++
	}
	return &Map{root: newRoot, count: count}, nil
}

// Entries returns all pairs ordered by structural key.
func (m *Map) Entries() []MapEntry {
	all := make([]hamtEntry, 0, m.count)
	if m.root != nil {
		m.root.collect(&all)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].skey < all[j].skey })
	out := make([]MapEntry, len(all))
	for i, e := range all {
		out[i] = MapEntry{Key: e.key, Value: e.value}
	}
	return out
}

// Keys returns the stored key objects ordered by structural key.
func (m *Map) Keys() []Object {
	entries := m.Entries()
	keys := make([]Object, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

func (n *hamtNode) get(hash uint32, skey string, shift uint) Object {
	if shift >= 32 {
		for _, node := range n.nodes {
			if entry, ok := node.(hamtEntry); ok && entry.skey == skey {
				return entry.value
			}
		}
		return nil
	}

	bit := uint32(1) << ((hash >> shift) & hamtMask)
	if n.bitmap&bit == 0 {
		return nil
	}

	switch v := n.nodes[popcount(n.bitmap&(bit-1))].(type) {
	case hamtEntry:
		if v.skey == skey {
			return v.value
		}
	case *hamtNode:
		return v.get(hash, skey, shift+hamtBits)
	}
	return nil
}

func (n *hamtNode) put(e hamtEntry, shift uint) (*hamtNode, bool) {
	newNode := n.clone()

	// Hash bits exhausted: the node is a collision bucket.
	if shift >= 32 {
		for i, node := range newNode.nodes {
			if entry, ok := node.(hamtEntry); ok && entry.skey == e.skey {
				newNode.nodes[i] = e
				return newNode, false
			}
		}
		newNode.nodes = append(newNode.nodes, e)
		return newNode, true
	}

	bit := uint32(1) << ((e.hash >> shift) & hamtMask)
	pos := popcount(n.bitmap & (bit - 1))

	if n.bitmap&bit == 0 {
		newNode.bitmap |= bit
		newNode.nodes = append(newNode.nodes, nil)
		copy(newNode.nodes[pos+1:], newNode.nodes[pos:])
		newNode.nodes[pos] = e
		return newNode, true
	}

	switch v := newNode.nodes[pos].(type) {
	case hamtEntry:
		if v.skey == e.skey {
			newNode.nodes[pos] = e
			return newNode, false
		}
		// push both entries one level down
		child, _ := (&hamtNode{}).put(v, shift+hamtBits)
		child, _ = child.put(e, shift+hamtBits)
		newNode.nodes[pos] = child
		return newNode, true
	case *hamtNode:
		child, added := v.put(e, shift+hamtBits)
		newNode.nodes[pos] = child
		return newNode, added
	}
	return newNode, false
}

func (n *hamtNode) clone() *hamtNode {
	nodes := make([]interface{}, len(n.nodes))
	copy(nodes, n.nodes)
	return &hamtNode{bitmap: n.bitmap, nodes: nodes}
}

func (n *hamtNode) collect(out *[]hamtEntry) {
	for _, node := range n.nodes {
		switch v := node.(type) {
		case hamtEntry:
			*out = append(*out, v)
		case *hamtNode:
			v.collect(out)
		}
	}
}

func hashKey(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func popcount(x uint32) int {
	return bits.OnesCount32(x)
}
