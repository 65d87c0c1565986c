// pkg/physics/quadtree.go
package physics

const (
	// DefaultNodeCapacity is how many entries a leaf holds before splitting
	DefaultNodeCapacity = 1
	// DefaultMaxDepth bounds subdivision so stacked identical boxes terminate
	DefaultMaxDepth = 24
)

// QuadTree is a broad phase index over bounding boxes. It is meant to be
// built from scratch every tick and thrown away afterwards.
type QuadTree struct {
	Boundary Box2D
	Capacity int
	MaxDepth int

	root *quadNode
	size int
}

type quadEntry struct {
	id  int
	box Box2D
}

// quadNode keeps entries that straddle its quadrants even after splitting
type quadNode struct {
	entries  []quadEntry
	children *[4]quadNode
}

// NewQuadTree creates an empty tree covering boundary. Non-positive
// capacity or maxDepth fall back to the defaults.
func NewQuadTree(boundary Box2D, capacity, maxDepth int) *QuadTree {
	if capacity <= 0 {
		capacity = DefaultNodeCapacity
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &QuadTree{
		Boundary: boundary,
		Capacity: capacity,
		MaxDepth: maxDepth,
		root:     &quadNode{},
	}
}

// Len returns the number of inserted entries
func (qt *QuadTree) Len() int {
	return qt.size
}

// Insert adds an entry. Boxes not inside the boundary are kept at the root.
func (qt *QuadTree) Insert(id int, box Box2D) {
	qt.root.insert(quadEntry{id: id, box: box}, qt.Boundary, 0, qt)
	qt.size++
}

func (n *quadNode) insert(e quadEntry, bounds Box2D, depth int, qt *QuadTree) {
	if n.children != nil {
		n.insertToChildren(e, bounds, depth, qt)
		return
	}

	n.entries = append(n.entries, e)
	if len(n.entries) <= qt.Capacity || depth >= qt.MaxDepth {
		return
	}

	n.children = &[4]quadNode{}
	held := n.entries
	n.entries = nil
	for _, h := range held {
		n.insertToChildren(h, bounds, depth, qt)
	}
}

// insertToChildren descends only when exactly one quadrant overlaps e and
// that quadrant fully contains it. Boxes poking out of the node region stay
// put so that queries reaching this node still see them.
func (n *quadNode) insertToChildren(e quadEntry, bounds Box2D, depth int, qt *QuadTree) {
	quads := bounds.Quadrants()
	target := -1
	for i := range quads {
		if !e.box.Overlaps(quads[i]) {
			continue
		}
		if target >= 0 {
			n.entries = append(n.entries, e)
			return
		}
		target = i
	}

	if target < 0 || !quads[target].ContainsBox(e.box) {
		n.entries = append(n.entries, e)
		return
	}
	n.children[target].insert(e, quads[target], depth+1, qt)
}

// MightCollide returns every id that could overlap box, excluding id
// itself. False positives are possible; callers must re-check overlap.
func (qt *QuadTree) MightCollide(id int, box Box2D) []int {
	return qt.root.mightCollide(id, box, qt.Boundary, nil)
}

func (n *quadNode) mightCollide(id int, box Box2D, bounds Box2D, out []int) []int {
	for _, e := range n.entries {
		if e.id != id {
			out = append(out, e.id)
		}
	}
	if n.children == nil {
		return out
	}

	quads := bounds.Quadrants()
	for i := range quads {
		if quads[i].Overlaps(box) {
			out = n.children[i].mightCollide(id, box, quads[i], out)
		}
	}
	return out
}

// Export writes the tree shape in pre-order: 0 for a leaf, 1 for an
// internal node followed by its four children.
func (qt *QuadTree) Export() []float64 {
	return qt.root.export(nil)
}

func (n *quadNode) export(out []float64) []float64 {
	if n.children == nil {
		return append(out, 0)
	}
	out = append(out, 1)
	for i := range n.children {
		out = n.children[i].export(out)
	}
	return out
}

// Cells returns the region of every leaf, for debug drawing
func (qt *QuadTree) Cells() []Box2D {
	return qt.root.cells(qt.Boundary, nil)
}

func (n *quadNode) cells(bounds Box2D, out []Box2D) []Box2D {
	if n.children == nil {
		return append(out, bounds)
	}
	quads := bounds.Quadrants()
	for i := range n.children {
		out = n.children[i].cells(quads[i], out)
	}
	return out
}

// Depth returns the number of levels below the root
func (qt *QuadTree) Depth() int {
	return qt.root.depth()
}

func (n *quadNode) depth() int {
	if n.children == nil {
		return 0
	}
	deepest := 0
	for i := range n.children {
		if d := n.children[i].depth(); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}
