package store

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/domain"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/world"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/hexmap"
)

// Helper: хранилище во временном файле с управляемыми часами
func newTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()

	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("store close: %v", err)
		}
	})

	current := time.Unix(1_700_000_000, 0)
	st.Now = func() time.Time { return current }
	return st, &current
}

// Helper: готовый к действию юнит в sector-0-0
func seedUnit(t *testing.T, st *Store, id string, pos hexmap.Coord, now time.Time) {
	t.Helper()
	u := &domain.Unit{
		ID:       id,
		Name:     id,
		SectorID: "sector-0-0",
		Pos:      pos,
		Status:   domain.StatusAwake,
		HP:       100,
		MaxHP:    100,
		Strength: 10,
		// Полная готовность с порога
		LastActionAt: now.Add(-domain.SectorCadence),
	}
	if err := st.SaveUnit(u); err != nil {
		t.Fatal(err)
	}
}

func testSector(t *testing.T) *world.Sector {
	t.Helper()
	s, err := world.NewRegistry(5, 4, 4).Sector("sector-0-0")
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestMoveLocal_Accepted(t *testing.T) {
	st, now := newTestStore(t)
	sector := testSector(t)

	center := hexmap.Coord{Col: domain.SectorWidth / 2, Row: domain.SectorHeight / 2}
	seedUnit(t, st, "u1", center, *now)

	dest := hexmap.Coord{Col: center.Col + 1, Row: center.Row}
	outcome, rejection, err := st.MoveLocal("u1", dest, sector)
	if err != nil {
		t.Fatal(err)
	}
	if rejection != nil {
		t.Fatalf("unexpected rejection: %s (%s)", rejection.Code, rejection.Reason)
	}

	if outcome.Unit.Pos != dest {
		t.Errorf("unit position = %v, want %v", outcome.Unit.Pos, dest)
	}
	// Центр четного сектора лежит внутри поселения
	if outcome.Village == "" {
		t.Error("expected a village label near the sector center")
	}

	// Принятое действие обнуляет готовность: немедленный второй шаг отвергается
	_, rejection, err = st.MoveLocal("u1", center, sector)
	if err != nil {
		t.Fatal(err)
	}
	if rejection == nil || rejection.Code != domain.RejectNotReady {
		t.Errorf("second immediate move: got %v, want %s", rejection, domain.RejectNotReady)
	}
}

func TestMoveLocal_Rejections(t *testing.T) {
	st, now := newTestStore(t)
	sector := testSector(t)

	center := hexmap.Coord{Col: domain.SectorWidth / 2, Row: domain.SectorHeight / 2}
	seedUnit(t, st, "u1", center, *now)

	tests := []struct {
		name string
		dest hexmap.Coord
		want domain.RejectionCode
	}{
		{"outside sector", hexmap.Coord{Col: 99, Row: 0}, domain.RejectIllegalMove},
		{"two tiles away", hexmap.Coord{Col: center.Col + 2, Row: center.Row}, domain.RejectTooFar},
	}

	for _, tt := range tests {
		_, rejection, err := st.MoveLocal("u1", tt.dest, sector)
		if err != nil {
			t.Fatal(err)
		}
		if rejection == nil || rejection.Code != tt.want {
			t.Errorf("%s: got %v, want %s", tt.name, rejection, tt.want)
		}
	}

	// Позиция не изменилась ни от одного отказа
	u, err := st.GetUnit("u1")
	if err != nil {
		t.Fatal(err)
	}
	if u.Pos != center {
		t.Errorf("rejections must not move the unit: pos %v, want %v", u.Pos, center)
	}

	_, rejection, err := st.MoveLocal("ghost", center, sector)
	if err != nil {
		t.Fatal(err)
	}
	if rejection == nil || rejection.Code != domain.RejectUnknownUnit {
		t.Errorf("unknown unit: got %v, want %s", rejection, domain.RejectUnknownUnit)
	}
}

func TestMoveLocal_NotAwake(t *testing.T) {
	st, now := newTestStore(t)
	sector := testSector(t)

	center := hexmap.Coord{Col: domain.SectorWidth / 2, Row: domain.SectorHeight / 2}
	seedUnit(t, st, "u1", center, *now)

	if ok, err := st.SetStatusCAS("u1", domain.StatusAwake, domain.StatusQueued, ""); err != nil || !ok {
		t.Fatalf("failed to queue unit: ok=%v err=%v", ok, err)
	}

	_, rejection, err := st.MoveLocal("u1", hexmap.Coord{Col: center.Col + 1, Row: center.Row}, sector)
	if err != nil {
		t.Fatal(err)
	}
	if rejection == nil || rejection.Code != domain.RejectNotAwake {
		t.Errorf("got %v, want %s", rejection, domain.RejectNotAwake)
	}
}

func TestMoveLocal_ConcurrentSingleWinner(t *testing.T) {
	st, now := newTestStore(t)
	sector := testSector(t)

	center := hexmap.Coord{Col: domain.SectorWidth / 2, Row: domain.SectorHeight / 2}
	seedUnit(t, st, "u1", center, *now)

	// Две одновременные заявки на разные соседние тайлы: предикат по
	// сохраненной позиции в WHERE пропускает ровно одну
	dests := []hexmap.Coord{
		{Col: center.Col + 1, Row: center.Row},
		{Col: center.Col - 1, Row: center.Row},
	}

	var wins int32
	var wg sync.WaitGroup
	for _, dest := range dests {
		wg.Add(1)
		go func(dest hexmap.Coord) {
			defer wg.Done()
			outcome, rejection, err := st.MoveLocal("u1", dest, sector)
			if err != nil {
				t.Error(err)
				return
			}
			if rejection == nil && outcome != nil {
				atomic.AddInt32(&wins, 1)
			}
		}(dest)
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("accepted moves = %d, want exactly 1", wins)
	}

	// Финальная позиция - соседний тайл, двойного шага не случилось
	u, err := st.GetUnit("u1")
	if err != nil {
		t.Fatal(err)
	}
	if hexmap.Distance(center, u.Pos) != 1 {
		t.Errorf("final position %v is not adjacent to %v", u.Pos, center)
	}
}

func TestSetStatusCAS_SingleWinner(t *testing.T) {
	st, now := newTestStore(t)
	seedUnit(t, st, "u1", hexmap.Coord{Col: 5, Row: 5}, *now)

	// Две конкурирующие постановки в очередь: предикат в WHERE
	// пропускает ровно одну
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := st.SetStatusCAS("u1", domain.StatusAwake, domain.StatusQueued, "")
			if err != nil {
				t.Error(err)
				return
			}
			if ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("CAS winners = %d, want exactly 1", wins)
	}
}

func TestTravel_Lifecycle(t *testing.T) {
	st, now := newTestStore(t)
	registry := world.NewRegistry(5, 4, 4)

	// Юнит на граничном тайле своего сектора
	seedUnit(t, st, "u1", hexmap.Coord{Col: 0, Row: 5}, *now)

	eta, rejection, err := st.TravelStart("u1", "sector-1-0", registry)
	if err != nil {
		t.Fatal(err)
	}
	if rejection != nil {
		t.Fatalf("unexpected rejection: %s (%s)", rejection.Code, rejection.Reason)
	}
	if eta < domain.TravelMinSeconds {
		t.Errorf("eta = %d, want >= %d", eta, domain.TravelMinSeconds)
	}

	u, err := st.GetUnit("u1")
	if err != nil {
		t.Fatal(err)
	}
	if u.Status != domain.StatusTraveling {
		t.Fatalf("status = %s, want %s", u.Status, domain.StatusTraveling)
	}

	// Досрочная фаза 2: сервер сверяет время сам и отказывает
	_, rejection, err = st.TravelFinish("u1")
	if err != nil {
		t.Fatal(err)
	}
	if rejection == nil || rejection.Code != domain.RejectTravelPending {
		t.Fatalf("early finish: got %v, want %s", rejection, domain.RejectTravelPending)
	}

	// Время вышло - фаза 2 проходит
	*now = now.Add(time.Duration(eta+1) * time.Second)
	arrived, rejection, err := st.TravelFinish("u1")
	if err != nil {
		t.Fatal(err)
	}
	if rejection != nil {
		t.Fatalf("unexpected rejection: %s (%s)", rejection.Code, rejection.Reason)
	}

	if arrived.SectorID != "sector-1-0" {
		t.Errorf("sector = %s, want sector-1-0", arrived.SectorID)
	}
	if arrived.Status != domain.StatusAwake {
		t.Errorf("status = %s, want %s", arrived.Status, domain.StatusAwake)
	}
	entry := hexmap.Coord{Col: domain.SectorWidth / 2, Row: 0}
	if arrived.Pos != entry {
		t.Errorf("entry position = %v, want %v", arrived.Pos, entry)
	}
	if arrived.FinishAt != 0 {
		t.Errorf("finish_at must be cleared, got %d", arrived.FinishAt)
	}
	if arrived.DestSector != "" {
		t.Errorf("dest_sector must be cleared, got %q", arrived.DestSector)
	}
}

func TestTravelStart_Rejections(t *testing.T) {
	st, now := newTestStore(t)
	registry := world.NewRegistry(5, 4, 4)

	// Не на границе
	seedUnit(t, st, "inland", hexmap.Coord{Col: 10, Row: 10}, *now)
	_, rejection, err := st.TravelStart("inland", "sector-1-0", registry)
	if err != nil {
		t.Fatal(err)
	}
	if rejection == nil || rejection.Code != domain.RejectNotBoundary {
		t.Errorf("inland start: got %v, want %s", rejection, domain.RejectNotBoundary)
	}

	// Уже в пути
	seedUnit(t, st, "walker", hexmap.Coord{Col: 0, Row: 0}, *now)
	if _, rejection, err := st.TravelStart("walker", "sector-1-0", registry); err != nil || rejection != nil {
		t.Fatalf("first start failed: rej=%v err=%v", rejection, err)
	}
	_, rejection, err = st.TravelStart("walker", "sector-0-1", registry)
	if err != nil {
		t.Fatal(err)
	}
	if rejection == nil || rejection.Code != domain.RejectNotAwake {
		t.Errorf("double start: got %v, want %s", rejection, domain.RejectNotAwake)
	}

	// Несуществующий сектор назначения
	seedUnit(t, st, "lost", hexmap.Coord{Col: 0, Row: 3}, *now)
	_, rejection, err = st.TravelStart("lost", "sector-99-99", registry)
	if err != nil {
		t.Fatal(err)
	}
	if rejection == nil {
		t.Error("expected rejection for unknown destination sector")
	}
}

func TestTravelFinish_NotTraveling(t *testing.T) {
	st, now := newTestStore(t)

	seedUnit(t, st, "u1", hexmap.Coord{Col: 3, Row: 3}, *now)
	_, rejection, err := st.TravelFinish("u1")
	if err != nil {
		t.Fatal(err)
	}
	if rejection == nil || rejection.Code != domain.RejectNotAwake {
		t.Errorf("got %v, want %s", rejection, domain.RejectNotAwake)
	}
}
