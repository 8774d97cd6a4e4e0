// pkg/physics/tree.go
package physics

import (
	"errors"
	"fmt"
)

// Default fattening for tree leaves
const (
	DefaultTreePadding            = 5.0
	DefaultTreeVelocityMultiplier = 2.0
)

type treeNode struct {
	parent *treeNode
	left   *treeNode
	right  *treeNode
	bounds BoundingBox
	height int
	body   *Body
}

func (n *treeNode) isLeaf() bool { return n.left == nil }

// DynamicTree is a bounding volume hierarchy over fattened body bounds. It is
// kept AVL balanced: every internal node's children differ in height by at
// most one.
type DynamicTree struct {
	root               *treeNode
	leaves             map[uint64]*treeNode
	padding            float64
	velocityMultiplier float64
	rotations          int
}

// NewDynamicTree creates an empty tree. Leaves are padded on every side by
// padding and stretched along the body velocity by velocityMultiplier*delta.
func NewDynamicTree(padding, velocityMultiplier float64) *DynamicTree {
	return &DynamicTree{
		leaves:             make(map[uint64]*treeNode),
		padding:            padding,
		velocityMultiplier: velocityMultiplier,
	}
}

// Len returns the number of leaves
func (t *DynamicTree) Len() int { return len(t.leaves) }

// Height of the root; zero for an empty tree or a single leaf
func (t *DynamicTree) Height() int {
	if t.root == nil {
		return 0
	}
	return t.root.height
}

// Rotations is the total number of rotations performed so far
func (t *DynamicTree) Rotations() int { return t.rotations }

// FatBounds returns the leaf box stored for a body
func (t *DynamicTree) FatBounds(b *Body) (BoundingBox, bool) {
	leaf, ok := t.leaves[b.ID()]
	if !ok {
		return BoundingBox{}, false
	}
	return leaf.bounds, true
}

func (t *DynamicTree) fatBounds(b *Body, delta float64) BoundingBox {
	bb := b.Bounds().Pad(t.padding)
	if delta > 0 && t.velocityMultiplier > 0 {
		bb = bb.Extend(b.Vel.Scale(delta * t.velocityMultiplier))
	}
	return bb
}

// Insert adds a leaf for b
func (t *DynamicTree) Insert(b *Body) error {
	if _, ok := t.leaves[b.ID()]; ok {
		return fmt.Errorf("body %d: %w", b.ID(), ErrAlreadyTracked)
	}
	leaf := &treeNode{body: b, bounds: t.fatBounds(b, 0)}
	t.leaves[b.ID()] = leaf
	t.insertLeaf(leaf)
	return nil
}

// Remove drops the leaf for b; unknown bodies are ignored
func (t *DynamicTree) Remove(b *Body) bool {
	leaf, ok := t.leaves[b.ID()]
	if !ok {
		return false
	}
	delete(t.leaves, b.ID())
	t.removeLeaf(leaf)
	return true
}

// Move re-inserts b when its tight bounds escaped the leaf box. It reports
// whether a re-insertion happened.
func (t *DynamicTree) Move(b *Body, delta float64) bool {
	leaf, ok := t.leaves[b.ID()]
	if !ok {
		return false
	}
	if leaf.bounds.Contains(b.Bounds()) {
		return false
	}
	t.removeLeaf(leaf)
	leaf.bounds = t.fatBounds(b, delta)
	leaf.height = 0
	t.insertLeaf(leaf)
	return true
}

// Query calls fn for every leaf whose box overlaps bounds until fn returns
// false.
func (t *DynamicTree) Query(bounds BoundingBox, fn func(b *Body) bool) {
	if t.root == nil {
		return
	}
	stack := []*treeNode{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !n.bounds.Overlaps(bounds) {
			continue
		}
		if n.isLeaf() {
			if !fn(n.body) {
				return
			}
			continue
		}
		stack = append(stack, n.left, n.right)
	}
}

// RayCast visits the leaves the ray may enter. fn reports whether the body
// was hit and at what distance; with nearest set, subtrees the ray enters
// beyond the closest hit so far are skipped.
func (t *DynamicTree) RayCast(ray Ray, maxDistance float64, nearest bool, fn func(b *Body) (float64, bool)) {
	if t.root == nil {
		return
	}
	limit := maxDistance
	stack := []*treeNode{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := n.bounds.RayCast(ray, limit); !ok {
			continue
		}
		if !n.isLeaf() {
			stack = append(stack, n.left, n.right)
			continue
		}
		d, hit := fn(n.body)
		if hit && nearest && (limit <= 0 || d < limit) {
			// keep equal distances reachable so ties resolve by tracking order
			limit = d + Epsilon
		}
	}
}

func (t *DynamicTree) insertLeaf(leaf *treeNode) {
	if t.root == nil {
		leaf.parent = nil
		t.root = leaf
		return
	}

	// descend by the cheapest perimeter growth
	node := t.root
	for !node.isLeaf() {
		inherit := node.bounds.Combine(leaf.bounds).Perimeter() - node.bounds.Perimeter()
		costLeft := descentCost(node.left, leaf.bounds) + inherit
		costRight := descentCost(node.right, leaf.bounds) + inherit
		if costLeft <= costRight {
			node = node.left
		} else {
			node = node.right
		}
	}

	sibling := node
	parent := &treeNode{
		parent: sibling.parent,
		left:   sibling,
		right:  leaf,
		bounds: sibling.bounds.Combine(leaf.bounds),
		height: 1,
	}
	t.replaceChild(sibling.parent, sibling, parent)
	sibling.parent = parent
	leaf.parent = parent

	t.fixUpwards(parent.parent)
}

func descentCost(child *treeNode, bounds BoundingBox) float64 {
	combined := child.bounds.Combine(bounds).Perimeter()
	if child.isLeaf() {
		return combined
	}
	return combined - child.bounds.Perimeter()
}

func (t *DynamicTree) removeLeaf(leaf *treeNode) {
	if leaf == t.root {
		t.root = nil
		leaf.parent = nil
		return
	}
	parent := leaf.parent
	grand := parent.parent
	sibling := parent.left
	if sibling == leaf {
		sibling = parent.right
	}
	sibling.parent = grand
	t.replaceChild(grand, parent, sibling)
	leaf.parent = nil
	t.fixUpwards(grand)
}

func (t *DynamicTree) replaceChild(parent, old, replacement *treeNode) {
	switch {
	case parent == nil:
		t.root = replacement
	case parent.left == old:
		parent.left = replacement
	default:
		parent.right = replacement
	}
}

// fixUpwards refreshes heights and boxes from n to the root, rotating where
// a node went out of balance.
func (t *DynamicTree) fixUpwards(n *treeNode) {
	for n != nil {
		refresh(n)
		n = t.balance(n)
		n = n.parent
	}
}

func refresh(n *treeNode) {
	n.height = 1 + max(n.left.height, n.right.height)
	n.bounds = n.left.bounds.Combine(n.right.bounds)
}

func (t *DynamicTree) balance(a *treeNode) *treeNode {
	if a.isLeaf() || a.height < 2 {
		return a
	}
	bal := a.right.height - a.left.height
	switch {
	case bal > 1:
		c := a.right
		if c.left.height > c.right.height {
			t.rotateRight(c)
		}
		return t.rotateLeft(a)
	case bal < -1:
		b := a.left
		if b.right.height > b.left.height {
			t.rotateLeft(b)
		}
		return t.rotateRight(a)
	}
	return a
}

// rotateLeft lifts a's right child into a's place
func (t *DynamicTree) rotateLeft(a *treeNode) *treeNode {
	c := a.right
	a.right = c.left
	a.right.parent = a
	c.left = a
	c.parent = a.parent
	a.parent = c
	t.replaceChild(c.parent, a, c)
	refresh(a)
	refresh(c)
	t.rotations++
	return c
}

// rotateRight lifts a's left child into a's place
func (t *DynamicTree) rotateRight(a *treeNode) *treeNode {
	b := a.left
	a.left = b.right
	a.left.parent = a
	b.right = a
	b.parent = a.parent
	a.parent = b
	t.replaceChild(b.parent, a, b)
	refresh(a)
	refresh(b)
	t.rotations++
	return b
}

// Validate checks the structural invariants: parent links, heights, AVL
// balance, box containment and the leaf index. A non-nil result is a bug in
// the tree, not in the caller.
func (t *DynamicTree) Validate() error {
	if t.root == nil {
		if len(t.leaves) != 0 {
			return fmt.Errorf("empty tree indexes %d leaves", len(t.leaves))
		}
		return nil
	}
	if t.root.parent != nil {
		return errors.New("root has a parent")
	}
	count, err := t.validateNode(t.root)
	if err != nil {
		return err
	}
	if count != len(t.leaves) {
		return fmt.Errorf("tree holds %d leaves, index has %d", count, len(t.leaves))
	}
	return nil
}

func (t *DynamicTree) validateNode(n *treeNode) (int, error) {
	if n.isLeaf() {
		if n.right != nil {
			return 0, errors.New("leaf with a single child")
		}
		if n.body == nil {
			return 0, errors.New("leaf without a body")
		}
		if n.height != 0 {
			return 0, fmt.Errorf("leaf %d has height %d", n.body.ID(), n.height)
		}
		if t.leaves[n.body.ID()] != n {
			return 0, fmt.Errorf("leaf %d missing from index", n.body.ID())
		}
		return 1, nil
	}
	if n.right == nil {
		return 0, errors.New("internal node with a single child")
	}
	if n.body != nil {
		return 0, errors.New("internal node holds a body")
	}
	if n.left.parent != n || n.right.parent != n {
		return 0, errors.New("broken parent link")
	}
	if want := 1 + max(n.left.height, n.right.height); n.height != want {
		return 0, fmt.Errorf("node height %d, expected %d", n.height, want)
	}
	if bal := n.right.height - n.left.height; bal > 1 || bal < -1 {
		return 0, fmt.Errorf("node out of balance by %d", bal)
	}
	if !n.bounds.Contains(n.left.bounds) || !n.bounds.Contains(n.right.bounds) {
		return 0, errors.New("node bounds do not contain children")
	}
	l, err := t.validateNode(n.left)
	if err != nil {
		return 0, err
	}
	r, err := t.validateNode(n.right)
	if err != nil {
		return 0, err
	}
	return l + r, nil
}

// DebugDraw outlines every node box
func (t *DynamicTree) DebugDraw(d DebugDrawer) {
	if t.root == nil {
		return
	}
	stack := []*treeNode{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n.bounds.DebugDraw(d)
		if !n.isLeaf() {
			stack = append(stack, n.left, n.right)
		}
	}
}
