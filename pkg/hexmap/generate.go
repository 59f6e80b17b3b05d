package hexmap

import (
	"math/rand"
)

// Параметры генерации
const (
	oceanLevel  = 0.30
	desertLevel = 0.75

	// Сколько декораций (валуны, руины, заросли) высыпать на карту
	decorationFraction = 0.08
)

// GenerateSector строит сетку открытого мира.
// Один и тот же seed ВСЕГДА дает идентичную сетку - на этом держится
// совпадение клиентской отрисовки со стоимостями на сервере.
func GenerateSector(width, height int, seed int64) (*Grid, error) {
	return generate(width, height, seed, terrainSpec{
		low: TerrainOcean, lowCost: 4,
		mid: TerrainGround, midCost: 1,
		high: TerrainDesert, highCost: 2,
	})
}

// GenerateArena строит изолированную боевую сетку
func GenerateArena(width, height int, seed int64) (*Grid, error) {
	return generate(width, height, seed, terrainSpec{
		low: TerrainPit, lowCost: 4,
		mid: TerrainFloor, midCost: 1,
		high: TerrainRubble, highCost: 2,
	})
}

type terrainSpec struct {
	low      string
	lowCost  int
	mid      string
	midCost  int
	high     string
	highCost int
}

func generate(width, height int, seed int64, spec terrainSpec) (*Grid, error) {
	grid, err := newGrid(width, height)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))

	// 1. Сырой шум по тайлам (строго в row-major порядке - порядок
	// вызовов rng обязан быть детерминированным)
	raw := make([]float64, width*height)
	for i := range raw {
		raw[i] = rng.Float64()
	}

	// 2. Одно сглаживание, чтобы местность шла пятнами, а не крапинками
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			c := Coord{Col: col, Row: row}
			sum := raw[row*width+col]
			count := 1.0
			for _, n := range grid.Neighbors(c, 1) {
				sum += raw[n.Row*width+n.Col]
				count++
			}

			tile := &grid.tiles[row][col]
			tile.Elevation = sum / count

			switch {
			case tile.Elevation < oceanLevel:
				tile.Terrain = spec.low
				tile.Cost = spec.lowCost
			case tile.Elevation > desertLevel:
				tile.Terrain = spec.high
				tile.Cost = spec.highCost
			default:
				tile.Terrain = spec.mid
				tile.Cost = spec.midCost
			}
		}
	}

	// 3. Декорации: каждая добавляет стоимость тайлу, на который упала.
	// После этого цикла сетка замораживается.
	decorations := int(float64(width*height) * decorationFraction)
	for i := 0; i < decorations; i++ {
		col := rng.Intn(width)
		row := rng.Intn(height)
		grid.tiles[row][col].Cost += 1 + rng.Intn(2)
	}

	return grid, nil
}
