package domain

import "time"

// Размеры сеток
const (
	SectorWidth  = 30
	SectorHeight = 30
	ArenaWidth   = 13
	ArenaHeight  = 9
)

// Каденс готовности: за сколько секунд юнит накапливает 100%
const (
	SectorCadence = 60 * time.Second
	BattleCadence = 30 * time.Second
)

// Пороги готовности (проценты). Какие категории действий открыты.
// Точные значения - продуктовая настройка, монотонность - инвариант.
const (
	BandPreMove   = 45
	BandMove      = 50
	BandPreAction = 95
	BandFull      = 100
)

// Боевые параметры
const (
	BattleMoveBudget = 3 // Максимальная стоимость пути за одно действие MOVE
	AttackRange      = 1
	CastRange        = 3
	EffectLifetime   = 45 * time.Second
	EffectPower      = 5
)

// Глобальные путешествия
const (
	TravelSecondsPerCell = 15 // Секунд на одну макро-клетку дистанции
	TravelMinSeconds     = 15
)

// Серверная уборка боев
const (
	SweepInterval     = 30 * time.Second
	BattleIdleTimeout = 120 * time.Second
)
