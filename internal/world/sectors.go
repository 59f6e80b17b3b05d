package world

import (
	"fmt"
	"math"
	"sync"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/domain"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/hexmap"
)

// Sector - один прямоугольный регион открытого мира.
// Сетка и ее стоимости генерируются один раз из сида и дальше read-only,
// поэтому сектор можно свободно читать из любого числа горутин.
type Sector struct {
	ID string

	// Макро-координаты на глобусе (для расчета ETA путешествий)
	Lat float64
	Lon float64

	Grid *hexmap.Grid
	Path *hexmap.Pathfinder

	// Village - границы поселения внутри сектора (может отсутствовать).
	// Попадание в них - производная метка, пересчитываемая из координаты.
	Village *VillageBounds
}

// VillageBounds - прямоугольник поселения в координатах сектора
type VillageBounds struct {
	Name               string
	MinCol, MinRow     int
	MaxCol, MaxRow     int
}

// Contains проверяет, лежит ли координата внутри поселения
func (v *VillageBounds) Contains(c hexmap.Coord) bool {
	return c.Col >= v.MinCol && c.Col <= v.MaxCol &&
		c.Row >= v.MinRow && c.Row <= v.MaxRow
}

// VillageAt возвращает имя поселения на координате ("" если вне его)
func (s *Sector) VillageAt(c hexmap.Coord) string {
	if s.Village != nil && s.Village.Contains(c) {
		return s.Village.Name
	}
	return ""
}

// Registry - каталог секторов и фабрика боевых арен.
// Сектора создаются лениво: сид сектора выводится из мастер-сида
// и номера сектора, так что любые два процесса с одним мастер-сидом
// видят идентичный мир.
type Registry struct {
	masterSeed int64

	mu      sync.Mutex
	sectors map[string]*Sector

	mapW, mapH int // Размер глобальной карты в макро-клетках
}

func NewRegistry(masterSeed int64, mapW, mapH int) *Registry {
	return &Registry{
		masterSeed: masterSeed,
		sectors:    make(map[string]*Sector),
		mapW:       mapW,
		mapH:       mapH,
	}
}

// SectorID собирает идентификатор из макро-координат
func SectorID(cellX, cellY int) string {
	return fmt.Sprintf("sector-%d-%d", cellX, cellY)
}

// Sector возвращает сектор по ID, генерируя его при первом обращении
func (r *Registry) Sector(id string) (*Sector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sectors[id]; ok {
		return s, nil
	}

	var cellX, cellY int
	if _, err := fmt.Sscanf(id, "sector-%d-%d", &cellX, &cellY); err != nil {
		return nil, fmt.Errorf("world: bad sector id %q: %w", id, err)
	}
	if cellX < 0 || cellX >= r.mapW || cellY < 0 || cellY >= r.mapH {
		return nil, fmt.Errorf("world: sector %q outside the map", id)
	}

	seed := r.masterSeed + int64(cellY)*int64(r.mapW) + int64(cellX)
	grid, err := hexmap.GenerateSector(domain.SectorWidth, domain.SectorHeight, seed)
	if err != nil {
		return nil, err
	}

	s := &Sector{
		ID:   id,
		Lat:  cellLat(cellY, r.mapH),
		Lon:  cellLon(cellX, r.mapW),
		Grid: grid,
		Path: hexmap.NewPathfinder(grid),
	}

	// Поселение в центре каждого четного сектора
	if (cellX+cellY)%2 == 0 {
		s.Village = &VillageBounds{
			Name:   fmt.Sprintf("village-%d-%d", cellX, cellY),
			MinCol: domain.SectorWidth/2 - 2, MaxCol: domain.SectorWidth/2 + 2,
			MinRow: domain.SectorHeight/2 - 2, MaxRow: domain.SectorHeight/2 + 2,
		}
	}

	r.sectors[id] = s
	return s, nil
}

// NewArena строит изолированную боевую сетку по сиду боя
func (r *Registry) NewArena(battleSeed int64) (*hexmap.Grid, *hexmap.Pathfinder, error) {
	grid, err := hexmap.GenerateArena(domain.ArenaWidth, domain.ArenaHeight, battleSeed)
	if err != nil {
		return nil, nil, err
	}
	return grid, hexmap.NewPathfinder(grid), nil
}

// TravelETA считает время пути между двумя секторами по дуге большого
// круга между их макро-клетками. Минимум - одна клетка.
func (r *Registry) TravelETA(fromID, toID string) (int64, error) {
	from, err := r.Sector(fromID)
	if err != nil {
		return 0, err
	}
	to, err := r.Sector(toID)
	if err != nil {
		return 0, err
	}

	// Центральный угол переводим в макро-клетки: полный оборот = ширина карты
	angle := greatCircle(from.Lat, from.Lon, to.Lat, to.Lon)
	cells := angle / 360 * float64(r.mapW)
	eta := int64(cells * domain.TravelSecondsPerCell)
	if eta < domain.TravelMinSeconds {
		eta = domain.TravelMinSeconds
	}
	return eta, nil
}

// cellLat/cellLon растягивают сетку макро-клеток на сферу
func cellLat(cellY, mapH int) float64 {
	return -90 + 180*(float64(cellY)+0.5)/float64(mapH)
}

func cellLon(cellX, mapW int) float64 {
	return -180 + 360*(float64(cellX)+0.5)/float64(mapW)
}

// greatCircle - центральный угол между точками в градусах
// (формула гаверсинусов на единичной сфере)
func greatCircle(lat1, lon1, lat2, lon2 float64) float64 {
	const deg = math.Pi / 180

	phi1 := lat1 * deg
	phi2 := lat2 * deg
	dPhi := (lat2 - lat1) * deg
	dLambda := (lon2 - lon1) * deg

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a)) / deg
}
