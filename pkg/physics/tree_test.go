package physics

import (
	"math/rand"
	"testing"
)

func randomBodies(t testing.TB, rng *rand.Rand, n int, spread float64) []*Body {
	t.Helper()
	bodies := make([]*Body, 0, n)
	for i := 0; i < n; i++ {
		pos := Vec(rng.Float64()*spread, rng.Float64()*spread)
		switch i % 3 {
		case 0:
			bodies = append(bodies, mustCircleBody(t, pos, 1+rng.Float64()*4))
		case 1:
			bodies = append(bodies, mustBoxBody(t, pos, 1+rng.Float64()*6, 1+rng.Float64()*6))
		default:
			bodies = append(bodies, edgeBody(pos, Vec(-3, 0), Vec(3, rng.Float64()*2)))
		}
	}
	return bodies
}

func checkBalance(t *testing.T, n *treeNode) int {
	t.Helper()
	if n == nil || n.isLeaf() {
		return 0
	}
	l := checkBalance(t, n.left)
	r := checkBalance(t, n.right)
	if d := l - r; d > 1 || d < -1 {
		t.Fatalf("node heights %d and %d are out of balance", l, r)
	}
	return 1 + max(l, r)
}

func TestDynamicTree_BalanceAfterInserts(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tree := NewDynamicTree(DefaultTreePadding, DefaultTreeVelocityMultiplier)

	// non-overlapping grid positions in random order
	var bodies []*Body
	for _, i := range rng.Perm(256) {
		bodies = append(bodies, mustCircleBody(t, Vec(float64(i%16)*20, float64(i/16)*20), 5))
	}
	for _, b := range bodies {
		if err := tree.Insert(b); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	checkBalance(t, tree.root)
	if tree.Len() != 256 {
		t.Errorf("Len() = %d, expected 256", tree.Len())
	}
	// an AVL tree of 256 leaves is at most ~1.44 log2(n) high
	if h := tree.Height(); h < 8 || h > 12 {
		t.Errorf("Height() = %d, expected between 8 and 12", h)
	}
}

func TestDynamicTree_RemoveKeepsInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tree := NewDynamicTree(1, 0)
	bodies := randomBodies(t, rng, 200, 500)
	for _, b := range bodies {
		if err := tree.Insert(b); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	for i, idx := range rng.Perm(len(bodies)) {
		if !tree.Remove(bodies[idx]) {
			t.Fatalf("Remove() reported body %d as missing", idx)
		}
		if i%10 == 0 {
			if err := tree.Validate(); err != nil {
				t.Fatalf("Validate() after %d removals: %v", i+1, err)
			}
		}
	}
	if tree.Len() != 0 || tree.root != nil {
		t.Errorf("tree not empty after removing everything: %d leaves", tree.Len())
	}
	if tree.Remove(bodies[0]) {
		t.Error("Remove() of an untracked body should report false")
	}
	if err := tree.Validate(); err != nil {
		t.Errorf("Validate() on empty tree: %v", err)
	}
}

func TestDynamicTree_DuplicateInsert(t *testing.T) {
	tree := NewDynamicTree(0, 0)
	b := mustCircleBody(t, Zero, 1)
	if err := tree.Insert(b); err != nil {
		t.Fatal(err)
	}
	if err := tree.Insert(b); err == nil {
		t.Error("Insert() accepted the same body twice")
	}
}

func TestDynamicTree_DegeneratePointBodies(t *testing.T) {
	tree := NewDynamicTree(0, 0)
	for i := 0; i < 64; i++ {
		if err := tree.Insert(mustCircleBody(t, Vec(3, 3), 0)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate() with co-located point bodies: %v", err)
	}
	found := 0
	tree.Query(BoundingBox{Left: 3, Top: 3, Right: 3, Bottom: 3}, func(*Body) bool {
		found++
		return true
	})
	if found != 64 {
		t.Errorf("Query() found %d point bodies, expected 64", found)
	}
}

func TestDynamicTree_Move(t *testing.T) {
	tree := NewDynamicTree(2, 1)
	b := mustCircleBody(t, Zero, 1)
	if err := tree.Insert(b); err != nil {
		t.Fatal(err)
	}

	b.Pos = Vec(1, 0)
	b.Recalc()
	if tree.Move(b, 0.1) {
		t.Error("Move() re-inserted a body still inside its fat box")
	}

	b.Pos = Vec(10, 0)
	b.Vel = Vec(50, 0)
	b.Recalc()
	if !tree.Move(b, 0.1) {
		t.Fatal("Move() should re-insert a body that left its fat box")
	}
	fat, ok := tree.FatBounds(b)
	if !ok || !fat.Contains(b.Bounds()) {
		t.Fatalf("FatBounds() = %+v does not contain %+v", fat, b.Bounds())
	}
	// padded by 2 and stretched by velocity*delta*multiplier = 5 along +x
	if !approx(fat.Right, 18) || !approx(fat.Left, 7) {
		t.Errorf("FatBounds() = %+v, expected Left 7 and Right 18", fat)
	}
	if err := tree.Validate(); err != nil {
		t.Error(err)
	}
}

func TestDynamicTree_QueryMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	tree := NewDynamicTree(0, 0)
	bodies := randomBodies(t, rng, 150, 300)
	for _, b := range bodies {
		if err := tree.Insert(b); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < 20; i++ {
		x, y := rng.Float64()*300, rng.Float64()*300
		area := BoundingBox{Left: x, Top: y, Right: x + 40, Bottom: y + 40}

		got := map[uint64]bool{}
		tree.Query(area, func(b *Body) bool {
			got[b.ID()] = true
			return true
		})
		for _, b := range bodies {
			if b.Bounds().Overlaps(area) != got[b.ID()] {
				t.Fatalf("Query(%+v) disagrees with brute force for body %d", area, b.ID())
			}
		}
	}
}

func TestDynamicTree_QueryStopsEarly(t *testing.T) {
	tree := NewDynamicTree(0, 0)
	for i := 0; i < 10; i++ {
		if err := tree.Insert(mustCircleBody(t, Zero, 1)); err != nil {
			t.Fatal(err)
		}
	}
	visits := 0
	tree.Query(BoundingBox{Left: -1, Top: -1, Right: 1, Bottom: 1}, func(*Body) bool {
		visits++
		return visits < 3
	})
	if visits != 3 {
		t.Errorf("Query() visited %d leaves after being told to stop at 3", visits)
	}
}

func TestDynamicTree_RayCastNearest(t *testing.T) {
	tree := NewDynamicTree(DefaultTreePadding, 0)
	near := mustCircleBody(t, Vec(10, 0), 1)
	far := mustCircleBody(t, Vec(30, 0), 1)
	off := mustCircleBody(t, Vec(20, 50), 1)
	for _, b := range []*Body{far, off, near} {
		if err := tree.Insert(b); err != nil {
			t.Fatal(err)
		}
	}

	var hits []*Body
	ray := NewRay(Zero, Vec(1, 0))
	tree.RayCast(ray, 0, true, func(b *Body) (float64, bool) {
		p, ok := b.Shape().CastRay(ray, 0)
		if !ok {
			return 0, false
		}
		hits = append(hits, b)
		return p.Distance(ray.Pos), true
	})
	for _, b := range hits {
		if b == off {
			t.Error("RayCast() reported a body off the ray")
		}
	}
	foundNear := false
	for _, b := range hits {
		foundNear = foundNear || b == near
	}
	if !foundNear {
		t.Error("RayCast() missed the nearest body")
	}
}

func BenchmarkDynamicTree_Insert(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	bodies := randomBodies(b, rng, 1000, 2000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree := NewDynamicTree(DefaultTreePadding, DefaultTreeVelocityMultiplier)
		for _, body := range bodies {
			_ = tree.Insert(body)
		}
	}
}
