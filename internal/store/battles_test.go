package store

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/domain"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/hexmap"
)

// Helper: бой 1v1, version = 0
func seedBattle(t *testing.T, st *Store, id string) *domain.BattleState {
	t.Helper()
	b := &domain.BattleState{
		ID:        id,
		ArenaSeed: 7,
		UsersState: []domain.Unit{
			{ID: "left", Name: "left", TeamID: 0, Pos: hexmap.Coord{Col: 1, Row: 1}, HP: 100, MaxHP: 100, Strength: 10},
			{ID: "right", Name: "right", TeamID: 1, Pos: hexmap.Coord{Col: 11, Row: 1}, HP: 100, MaxHP: 100, Strength: 10},
		},
	}
	if err := st.CreateBattle(b); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestBattle_VersionMonotonic(t *testing.T) {
	st, _ := newTestStore(t)
	seedBattle(t, st, "b1")

	// Серия принятых мутаций: версия растет строго на единицу за каждую
	for i := 0; i < 5; i++ {
		b, err := st.GetBattle("b1")
		if err != nil {
			t.Fatal(err)
		}
		expected := b.Version
		b.Version = expected + 1

		rejection, err := st.SwapBattle(b, expected)
		if err != nil {
			t.Fatal(err)
		}
		if rejection != nil {
			t.Fatalf("mutation %d rejected: %s", i, rejection.Code)
		}
	}

	final, err := st.GetBattle("b1")
	if err != nil {
		t.Fatal(err)
	}
	if final.Version != 5 {
		t.Errorf("version = %d, want 5", final.Version)
	}
}

func TestSwapBattle_StaleVersion(t *testing.T) {
	st, _ := newTestStore(t)
	b := seedBattle(t, st, "b1")

	b.Version = 1
	if rejection, err := st.SwapBattle(b, 0); err != nil || rejection != nil {
		t.Fatalf("first swap failed: rej=%v err=%v", rejection, err)
	}

	// Повторная подача той же (уже примененной) мутации - no-op отказ
	stale := *b
	stale.Version = 1
	stale.UsersState[0].HP = 1 // Попытка протащить чужое состояние
	rejection, err := st.SwapBattle(&stale, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rejection == nil || rejection.Code != domain.RejectStaleVersion {
		t.Fatalf("got %v, want %s", rejection, domain.RejectStaleVersion)
	}

	// Проигранный CAS не оставляет следов
	current, err := st.GetBattle("b1")
	if err != nil {
		t.Fatal(err)
	}
	if current.Version != 1 {
		t.Errorf("version = %d, want 1", current.Version)
	}
	if current.UsersState[0].HP != 100 {
		t.Errorf("lost swap leaked state: HP = %d, want 100", current.UsersState[0].HP)
	}
}

func TestSwapBattle_TerminalRejected(t *testing.T) {
	st, now := newTestStore(t)
	b := seedBattle(t, st, "b1")

	b.Version = 1
	b.Result = &domain.BattleResult{Outcome: domain.OutcomeWin, WinnerTeamID: 0, DecidedAtUnix: now.Unix()}
	if rejection, err := st.SwapBattle(b, 0); err != nil || rejection != nil {
		t.Fatalf("resolving swap failed: rej=%v err=%v", rejection, err)
	}

	// Терминальный бой не принимает мутаций даже с верной версией
	b.Version = 2
	rejection, err := st.SwapBattle(b, 1)
	if err != nil {
		t.Fatal(err)
	}
	if rejection == nil || rejection.Code != domain.RejectTerminalBattle {
		t.Errorf("got %v, want %s", rejection, domain.RejectTerminalBattle)
	}
}

func TestSwapBattle_UnknownBattle(t *testing.T) {
	st, _ := newTestStore(t)

	ghost := &domain.BattleState{ID: "nope", Version: 1}
	rejection, err := st.SwapBattle(ghost, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rejection == nil || rejection.Code != domain.RejectUnknownBattle {
		t.Errorf("got %v, want %s", rejection, domain.RejectUnknownBattle)
	}
}

func TestSwapBattle_ConcurrentOneWinner(t *testing.T) {
	st, _ := newTestStore(t)
	seedBattle(t, st, "b1")

	// Обе стороны прочитали version=0 и мутируют одновременно
	var wins int32
	var wg sync.WaitGroup
	for _, actor := range []string{"left", "right"} {
		actor := actor
		wg.Add(1)
		go func() {
			defer wg.Done()

			b, err := st.GetBattle("b1")
			if err != nil {
				t.Error(err)
				return
			}
			b.Participant(actor).Pos = hexmap.Coord{Col: 6, Row: 4}
			b.Version = 1

			rejection, err := st.SwapBattle(b, 0)
			if err != nil {
				t.Error(err)
				return
			}
			if rejection == nil {
				atomic.AddInt32(&wins, 1)
			} else if rejection.Code != domain.RejectStaleVersion {
				t.Errorf("loser got %s, want %s", rejection.Code, domain.RejectStaleVersion)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("swap winners = %d, want exactly 1", wins)
	}

	// Применилась ровно одна мутация
	final, err := st.GetBattle("b1")
	if err != nil {
		t.Fatal(err)
	}
	if final.Version != 1 {
		t.Errorf("version = %d, want 1", final.Version)
	}
	moved := 0
	for i := range final.UsersState {
		if (final.UsersState[i].Pos == hexmap.Coord{Col: 6, Row: 4}) {
			moved++
		}
	}
	if moved != 1 {
		t.Errorf("%d units moved, want exactly 1", moved)
	}
}

func TestListOverdueBattles(t *testing.T) {
	st, now := newTestStore(t)
	seedBattle(t, st, "stale")

	createdAt := now.Unix()

	// Свежих мутаций нет - бой попадает в выборку по точному cutoff
	ids, err := st.ListOverdueBattles(createdAt)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "stale" {
		t.Fatalf("overdue = %v, want [stale]", ids)
	}

	// Более ранний cutoff бой не захватывает
	ids, err = st.ListOverdueBattles(createdAt - 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Errorf("overdue with early cutoff = %v, want empty", ids)
	}

	// Разрешенный бой из выборки уходит
	*now = now.Add(time.Minute)
	b, err := st.GetBattle("stale")
	if err != nil {
		t.Fatal(err)
	}
	b.Version = 1
	b.Result = &domain.BattleResult{Outcome: domain.OutcomeDraw, DecidedAtUnix: now.Unix()}
	if rejection, err := st.SwapBattle(b, 0); err != nil || rejection != nil {
		t.Fatalf("resolve failed: rej=%v err=%v", rejection, err)
	}

	ids, err = st.ListOverdueBattles(now.Unix() + 1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Errorf("resolved battle still listed: %v", ids)
	}
}
