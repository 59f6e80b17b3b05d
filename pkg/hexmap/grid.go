package hexmap

import (
	"errors"
	"fmt"
)

// Типы местности
const (
	TerrainOcean  = "ocean"
	TerrainGround = "ground"
	TerrainDesert = "desert"

	// Боевые арены используют свой набор
	TerrainFloor  = "floor"
	TerrainRubble = "rubble"
	TerrainPit    = "pit"
)

// ErrTileNotFound возвращается при запросе координаты вне сетки.
// Это ошибка вызывающего кода, а не нормальная игровая ситуация.
var ErrTileNotFound = errors.New("hexmap: tile not found")

// Tile - один гекс. Координаты неизменяемы. Cost и Terrain меняются
// ТОЛЬКО во время генерации (декорирование добавляет стоимость),
// после этого сетка read-only и безопасна для конкурентного чтения.
type Tile struct {
	Coord     Coord   `json:"coord"`
	Elevation float64 `json:"elevation"`
	Terrain   string  `json:"terrain"`
	Cost      int     `json:"cost"` // Стоимость ВХОДА в тайл, всегда >= 1
}

// Grid - прямоугольная сетка гексов фиксированного размера.
// Владеет ровно Width*Height тайлами, по одному на координату.
type Grid struct {
	Width  int
	Height int

	// tiles[row][col]
	tiles [][]Tile
}

// newGrid создает сетку, заполненную "землей" со стоимостью 1.
// Terrain/Cost назначает генератор (см. generate.go).
func newGrid(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("hexmap: invalid grid size %dx%d", width, height)
	}

	tiles := make([][]Tile, height)
	for row := 0; row < height; row++ {
		tiles[row] = make([]Tile, width)
		for col := 0; col < width; col++ {
			tiles[row][col] = Tile{
				Coord:   Coord{Col: col, Row: row},
				Terrain: TerrainGround,
				Cost:    1,
			}
		}
	}

	return &Grid{Width: width, Height: height, tiles: tiles}, nil
}

// Contains проверяет, что координата внутри [0,Width)x[0,Height)
func (g *Grid) Contains(c Coord) bool {
	return c.Col >= 0 && c.Col < g.Width && c.Row >= 0 && c.Row < g.Height
}

// Tile возвращает тайл по координате.
// Вне диапазона - ErrTileNotFound, без молчаливого клампа.
func (g *Grid) Tile(c Coord) (*Tile, error) {
	if !g.Contains(c) {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrTileNotFound, c.Col, c.Row)
	}
	return &g.tiles[c.Row][c.Col], nil
}

// Cost возвращает стоимость входа в тайл (panic-free вариант для горячего пути A*)
func (g *Grid) Cost(c Coord) int {
	return g.tiles[c.Row][c.Col].Cost
}

// Neighbors возвращает все тайлы сетки РОВНО на кольце radius от центра.
// radius=1 дает до шести соседей (меньше на краях карты).
// Координаты вне сетки никогда не попадают в результат.
func (g *Grid) Neighbors(c Coord, radius int) []Coord {
	if radius <= 0 || !g.Contains(c) {
		return nil
	}

	// Кольцо radius целиком лежит в offset-боксе +-radius,
	// поэтому сканируем бокс и фильтруем по точной дистанции.
	result := make([]Coord, 0, 6*radius)
	for row := c.Row - radius; row <= c.Row+radius; row++ {
		for col := c.Col - radius; col <= c.Col+radius; col++ {
			n := Coord{Col: col, Row: row}
			if !g.Contains(n) {
				continue
			}
			if Distance(c, n) == radius {
				result = append(result, n)
			}
		}
	}
	return result
}

// IsBoundary - стоит ли тайл на краю сетки (точка выхода для глобальных путешествий)
func (g *Grid) IsBoundary(c Coord) bool {
	if !g.Contains(c) {
		return false
	}
	return c.Col == 0 || c.Row == 0 || c.Col == g.Width-1 || c.Row == g.Height-1
}

// Tiles отдает плоский срез всех тайлов (для снапшотов клиенту)
func (g *Grid) Tiles() []Tile {
	out := make([]Tile, 0, g.Width*g.Height)
	for row := 0; row < g.Height; row++ {
		out = append(out, g.tiles[row]...)
	}
	return out
}
