package leaderboard

import "hash/fnv"

// Treap keyed by (reviews DESC, username ASC). In-order traversal yields the
// board from best to worst. Priorities come from a hash of the username so
// the shape is deterministic for a given set of users.

type node struct {
	name    string
	reviews int
	prio    uint64
	left    *node
	right   *node
	size    int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aReviews, aName) ranks before (bReviews, bName).
func less(aReviews int, aName string, bReviews int, bName string) bool {
	if aReviews != bReviews {
		return aReviews > bReviews
	}
	return aName < bName
}

func priority(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return h.Sum64()
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, name string, reviews int) *node {
	if n == nil {
		return &node{name: name, reviews: reviews, prio: priority(name), size: 1}
	}
	if less(reviews, name, n.reviews, n.name) {
		n.left = insert(n.left, name, reviews)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, name, reviews)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func remove(n *node, name string, reviews int) *node {
	if n == nil {
		return nil
	}
	if n.name == name && n.reviews == reviews {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = remove(n.right, name, reviews)
		} else {
			n = rotateLeft(n)
			n.left = remove(n.left, name, reviews)
		}
	} else if less(reviews, name, n.reviews, n.name) {
		n.left = remove(n.left, name, reviews)
	} else {
		n.right = remove(n.right, name, reviews)
	}
	fix(n)
	return n
}

// walk visits nodes in rank order until fn returns false.
func walk(n *node, fn func(*node) bool) bool {
	if n == nil {
		return true
	}
	if !walk(n.left, fn) {
		return false
	}
	if !fn(n) {
		return false
	}
	return walk(n.right, fn)
}
