package hexmap

// Coord - координата тайла в смещенной системе (odd-r offset).
// Col/Row всегда неотрицательны внутри сетки.
type Coord struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// cube переводит offset-координату в кубическую (x + y + z == 0).
// Вся гексагональная математика (расстояния, кольца) живет в кубах,
// offset нужен только для хранения и JSON.
func (c Coord) cube() (x, y, z int) {
	x = c.Col - (c.Row-(c.Row&1))/2
	z = c.Row
	y = -x - z
	return
}

// Distance возвращает минимальное число шагов по гексам между двумя тайлами
func Distance(a, b Coord) int {
	ax, ay, az := a.cube()
	bx, by, bz := b.cube()

	dx := abs(ax - bx)
	dy := abs(ay - by)
	dz := abs(az - bz)

	// В кубических координатах дистанция = максимум из трех осей
	max := dx
	if dy > max {
		max = dy
	}
	if dz > max {
		max = dz
	}
	return max
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
