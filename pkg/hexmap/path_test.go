package hexmap

import (
	"errors"
	"testing"
)

// Helper: пустая сетка со стоимостью 1 везде
func flatGrid(t *testing.T, w, h int) *Grid {
	t.Helper()
	g, err := newGrid(w, h)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestShortestPath_StraightLine(t *testing.T) {
	g := flatGrid(t, 5, 5)
	p := NewPathfinder(g)

	origin := Coord{Col: 0, Row: 0}
	dest := Coord{Col: 4, Row: 0}

	path, err := p.ShortestPath(origin, dest)
	if err != nil {
		t.Fatal(err)
	}

	if len(path) != 5 {
		t.Fatalf("path length = %d, want 5", len(path))
	}
	if path[0] != origin {
		t.Errorf("path starts at %v, want %v", path[0], origin)
	}
	if path[len(path)-1] != dest {
		t.Errorf("path ends at %v, want %v", path[len(path)-1], dest)
	}

	// Каждый шаг - на соседний гекс
	for i := 1; i < len(path); i++ {
		if Distance(path[i-1], path[i]) != 1 {
			t.Errorf("step %d jumps from %v to %v", i, path[i-1], path[i])
		}
	}

	if cost := p.PathCost(path); cost != 4 {
		t.Errorf("PathCost = %d, want 4", cost)
	}
}

func TestShortestPath_AvoidsExpensiveTile(t *testing.T) {
	g := flatGrid(t, 5, 5)
	poisoned := Coord{Col: 2, Row: 0}
	g.tiles[poisoned.Row][poisoned.Col].Cost = 50

	p := NewPathfinder(g)
	path, err := p.ShortestPath(Coord{Col: 0, Row: 0}, Coord{Col: 4, Row: 0})
	if err != nil {
		t.Fatal(err)
	}

	for _, c := range path {
		if c == poisoned {
			t.Fatalf("path goes through expensive tile %v: %v", poisoned, path)
		}
	}

	// Обход стоит один лишний шаг: 5 вместо 4
	if cost := p.PathCost(path); cost != 5 {
		t.Errorf("PathCost = %d, want 5", cost)
	}
}

func TestShortestPath_SameTile(t *testing.T) {
	g := flatGrid(t, 3, 3)
	p := NewPathfinder(g)

	c := Coord{Col: 1, Row: 1}
	path, err := p.ShortestPath(c, c)
	if err != nil {
		t.Fatal(err)
	}
	if len(path) != 1 || path[0] != c {
		t.Errorf("path to self = %v, want [%v]", path, c)
	}
	if cost := p.PathCost(path); cost != 0 {
		t.Errorf("PathCost of self-path = %d, want 0", cost)
	}
}

func TestShortestPath_OutOfBounds(t *testing.T) {
	g := flatGrid(t, 3, 3)
	p := NewPathfinder(g)

	_, err := p.ShortestPath(Coord{Col: 0, Row: 0}, Coord{Col: 9, Row: 9})
	if !errors.Is(err, ErrTileNotFound) {
		t.Errorf("expected ErrTileNotFound, got %v", err)
	}

	_, err = p.ShortestPath(Coord{Col: -1, Row: 0}, Coord{Col: 1, Row: 1})
	if !errors.Is(err, ErrTileNotFound) {
		t.Errorf("expected ErrTileNotFound for bad origin, got %v", err)
	}
}

func TestShortestPath_CacheIdempotent(t *testing.T) {
	g := flatGrid(t, 6, 6)
	p := NewPathfinder(g)

	origin := Coord{Col: 0, Row: 5}
	dest := Coord{Col: 5, Row: 0}

	first, err := p.ShortestPath(origin, dest)
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.ShortestPath(origin, dest)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("cached path differs: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("cached path differs at %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestShortestPath_CallerMutationDoesNotCorruptCache(t *testing.T) {
	g := flatGrid(t, 5, 5)
	p := NewPathfinder(g)

	origin := Coord{Col: 0, Row: 0}
	dest := Coord{Col: 4, Row: 0}

	first, err := p.ShortestPath(origin, dest)
	if err != nil {
		t.Fatal(err)
	}

	// Вызывающий портит свой срез - кэш этого видеть не должен
	for i := range first {
		first[i] = Coord{Col: -99, Row: -99}
	}

	second, err := p.ShortestPath(origin, dest)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 5 {
		t.Fatalf("path length after mutation = %d, want 5", len(second))
	}
	if second[0] != origin || second[len(second)-1] != dest {
		t.Errorf("cached path corrupted by caller: %v", second)
	}
}

func TestShortestPath_MatchesHexDistanceOnUniformGrid(t *testing.T) {
	g := flatGrid(t, 7, 7)
	p := NewPathfinder(g)

	origin := Coord{Col: 1, Row: 1}
	for col := 0; col < 7; col++ {
		for row := 0; row < 7; row++ {
			dest := Coord{Col: col, Row: row}
			path, err := p.ShortestPath(origin, dest)
			if err != nil {
				t.Fatal(err)
			}

			// На однородной сетке длина оптимального маршрута
			// равна гексагональной дистанции
			want := Distance(origin, dest)
			if got := p.PathCost(path); got != want {
				t.Errorf("PathCost(%v -> %v) = %d, want %d", origin, dest, got, want)
			}
		}
	}
}
