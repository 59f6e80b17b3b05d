package domain

import (
	"time"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/hexmap"
)

// Исходы боя
const (
	OutcomeWin  = "WIN"
	OutcomeLoss = "LOSS"
	OutcomeDraw = "DRAW"
)

// BattleResult - терминальный итог. Как только он установлен,
// бой не принимает дальнейших мутаций.
type BattleResult struct {
	Outcome       string `json:"outcome"`
	WinnerTeamID  int    `json:"winnerTeamId,omitempty"`
	DecidedAtUnix int64  `json:"decidedAt"`
}

// GroundEffect - временный эффект на тайле арены (стена огня, ловушка).
// Протухшие эффекты вычищаются при каждой принятой мутации.
type GroundEffect struct {
	ID        string       `json:"id"`
	Kind      string       `json:"kind"`
	Pos       hexmap.Coord `json:"pos"`
	Power     int          `json:"power"`
	CasterID  string       `json:"casterId"`
	ExpiresAt int64        `json:"expiresAt"` // Unix-секунды
}

// BattleState - агрегат одного боя. Version строго растет с каждой
// принятой мутацией; это весь механизм оптимистичной конкуренции.
type BattleState struct {
	ID        string `json:"id"`
	ArenaSeed int64  `json:"arenaSeed"`

	UsersState []Unit         `json:"usersState"`
	Effects    []GroundEffect `json:"effects"`

	Version int64         `json:"version"`
	Result  *BattleResult `json:"result,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsTerminal - бой завершен и отвергает любые действия
func (b *BattleState) IsTerminal() bool {
	return b.Result != nil
}

// Participant находит участника по ID (nil, если такого нет)
func (b *BattleState) Participant(unitID string) *Unit {
	for i := range b.UsersState {
		if b.UsersState[i].ID == unitID {
			return &b.UsersState[i]
		}
	}
	return nil
}

// PruneEffects убирает эффекты, чье время вышло
func (b *BattleState) PruneEffects(now time.Time) {
	alive := b.Effects[:0]
	for _, e := range b.Effects {
		if e.ExpiresAt > now.Unix() {
			alive = append(alive, e)
		}
	}
	b.Effects = alive
}

// EffectAt возвращает активный эффект на тайле (nil, если тайл чист)
func (b *BattleState) EffectAt(pos hexmap.Coord) *GroundEffect {
	for i := range b.Effects {
		if b.Effects[i].Pos == pos {
			return &b.Effects[i]
		}
	}
	return nil
}

// EvaluateResult проверяет условие конца боя: если живые остались только
// в одной команде - она победила; если живых нет вовсе - ничья.
// Возвращает nil, пока бой продолжается.
func (b *BattleState) EvaluateResult(now time.Time) *BattleResult {
	aliveTeams := map[int]bool{}
	for i := range b.UsersState {
		if !b.UsersState[i].IsDead() {
			aliveTeams[b.UsersState[i].TeamID] = true
		}
	}

	switch len(aliveTeams) {
	case 0:
		return &BattleResult{Outcome: OutcomeDraw, DecidedAtUnix: now.Unix()}
	case 1:
		for team := range aliveTeams {
			return &BattleResult{Outcome: OutcomeWin, WinnerTeamID: team, DecidedAtUnix: now.Unix()}
		}
	}
	return nil
}
