package hexmap

import (
	"container/heap"
	"sync"
)

// Pathfinder считает кратчайшие маршруты по сетке (A*).
// Стоимости тайлов после генерации не меняются, поэтому кэш
// живет столько же, сколько сам Grid, и не нуждается в инвалидации.
type Pathfinder struct {
	grid *Grid

	mu    sync.RWMutex
	cache map[pathKey][]Coord
}

type pathKey struct {
	origin Coord
	dest   Coord
}

func NewPathfinder(grid *Grid) *Pathfinder {
	return &Pathfinder{
		grid:  grid,
		cache: make(map[pathKey][]Coord),
	}
}

// ShortestPath возвращает маршрут от origin до dest включительно.
// Пустой срез = пути нет (легальный ответ, не ошибка).
// Координата вне сетки = ErrTileNotFound (ошибка вызывающего).
func (p *Pathfinder) ShortestPath(origin, dest Coord) ([]Coord, error) {
	if _, err := p.grid.Tile(origin); err != nil {
		return nil, err
	}
	if _, err := p.grid.Tile(dest); err != nil {
		return nil, err
	}

	key := pathKey{origin: origin, dest: dest}

	p.mu.RLock()
	cached, ok := p.cache[key]
	p.mu.RUnlock()
	if ok {
		return clonePath(cached), nil
	}

	path := p.search(origin, dest)

	p.mu.Lock()
	p.cache[key] = path
	p.mu.Unlock()

	return clonePath(path), nil
}

// clonePath отдает вызывающему собственный срез: кэшированный маршрут
// общий для всех запросов и не должен меняться снаружи
func clonePath(path []Coord) []Coord {
	out := make([]Coord, len(path))
	copy(out, path)
	return out
}

// PathCost возвращает суммарную стоимость входа во все тайлы маршрута
// (без стартового). Для пустого маршрута возвращает 0.
func (p *Pathfinder) PathCost(path []Coord) int {
	total := 0
	for i := 1; i < len(path); i++ {
		total += p.grid.Cost(path[i])
	}
	return total
}

type nodeState struct {
	cost int   // g: набранная стоимость
	from Coord // откуда пришли
}

// search - классический A*. Эвристика = гексагональная дистанция.
// Она допустима, так как стоимость любого шага >= 1.
func (p *Pathfinder) search(origin, dest Coord) []Coord {
	states := map[Coord]nodeState{origin: {cost: 0, from: origin}}
	closed := map[Coord]bool{}

	open := &searchQueue{}
	heap.Init(open)
	heap.Push(open, &searchNode{
		Coord:    origin,
		Priority: Distance(origin, dest),
	})

	for open.Len() > 0 {
		current := heap.Pop(open).(*searchNode)
		if closed[current.Coord] {
			continue
		}
		closed[current.Coord] = true

		if current.Coord == dest {
			return rebuild(states, origin, dest)
		}

		currentCost := states[current.Coord].cost

		for _, n := range p.grid.Neighbors(current.Coord, 1) {
			if closed[n] {
				continue
			}

			// Стоимость шага = стоимость ВХОДА в соседний тайл
			stepCost := currentCost + p.grid.Cost(n)

			known, seen := states[n]
			if seen && known.cost <= stepCost {
				continue
			}

			states[n] = nodeState{cost: stepCost, from: current.Coord}
			heap.Push(open, &searchNode{
				Coord:    n,
				Priority: stepCost + Distance(n, dest),
			})
		}
	}

	// Цели не достигли. На связной сетке такого не бывает,
	// но защищаемся: "нет пути" - это пустой результат
	return []Coord{}
}

func rebuild(states map[Coord]nodeState, origin, dest Coord) []Coord {
	var reversed []Coord
	for at := dest; ; at = states[at].from {
		reversed = append(reversed, at)
		if at == origin {
			break
		}
	}

	path := make([]Coord, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}
	return path
}
