package domain

import (
	"time"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/hexmap"
)

// UnitStatus - жизненный цикл юнита в открытом мире
type UnitStatus string

const (
	StatusAwake     UnitStatus = "AWAKE"     // Стоит в секторе, может действовать
	StatusTraveling UnitStatus = "TRAVELING" // В пути между секторами
	StatusQueued    UnitStatus = "QUEUED"    // В очереди матчмейкинга
	StatusInBattle  UnitStatus = "IN_BATTLE" // Участвует в бою
)

// Unit - персонаж игрока, NPC или участник боя.
// Позиция всегда указывает на валидный тайл ЕГО текущей сетки
// (сектора или арены). Единственный владелец изменяемых полей -
// авторитетное хранилище; все остальные держат устаревающие копии.
type Unit struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SectorID string `json:"sectorId"`
	BattleID string `json:"battleId,omitempty"`

	Pos    hexmap.Coord `json:"pos"`
	Status UnitStatus   `json:"status"`

	HP       int `json:"hp"`
	MaxHP    int `json:"maxHp"`
	Strength int `json:"strength"`

	// TeamID группирует участников боя для подсчета победы
	TeamID int `json:"teamId,omitempty"`

	// DestSector и FinishAt (Unix-секунды) описывают глобальное
	// путешествие. Заполнены только в статусе TRAVELING.
	DestSector string `json:"destSector,omitempty"`
	FinishAt   int64  `json:"finishAt,omitempty"`

	// LastActionAt питает часы готовности: сервер сбрасывает его
	// В МОМЕНТ принятия действия, и никогда - по просьбе клиента
	LastActionAt time.Time `json:"lastActionAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsDead - здоровье исчерпано
func (u *Unit) IsDead() bool {
	return u.HP <= 0
}

// TakeDamage наносит урон. Возвращает true, если юнит погиб от этого удара.
func (u *Unit) TakeDamage(amount int) bool {
	if u.HP <= 0 {
		return false
	}
	if amount < 0 {
		amount = 0
	}
	u.HP -= amount
	if u.HP <= 0 {
		u.HP = 0
		return true
	}
	return false
}
