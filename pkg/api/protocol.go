package api

import (
	"encoding/json"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/domain"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/hexmap"
)

// --- КЛИЕНТ -> СЕРВЕР ---

// ClientCommand это корневой объект для всех сообщений от клиента к серверу.
type ClientCommand struct {
	// Token - ID юнита, от имени которого выполняется действие.
	// Обязателен только для первого сообщения (LOGIN).
	Token string `json:"token,omitempty"`

	// Action - название операции: LOCAL_MOVE, TRAVEL_START, TRAVEL_FINISH,
	// BATTLE_ACTION, PATH, INIT.
	Action string `json:"action"`

	// Payload - JSON-объект с данными. Структура зависит от Action.
	Payload json.RawMessage `json:"payload"`
}

// Транспортные операции
const (
	CmdInit         = "INIT"
	CmdLocalMove    = "LOCAL_MOVE"
	CmdTravelStart  = "TRAVEL_START"
	CmdTravelFinish = "TRAVEL_FINISH"
	CmdBattleAction = "BATTLE_ACTION"
	CmdPath         = "PATH"
	CmdQueueDuel    = "QUEUE_DUEL"
	CmdQueueLeave   = "QUEUE_LEAVE"
)

// --- Payloads ---

// MovePayload - целевой тайл одношагового перемещения
type MovePayload struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// TravelPayload - сектор назначения для глобального путешествия
type TravelPayload struct {
	DestSector string `json:"destSector"`
}

// BattleActionPayload - заявка на боевое действие.
// Version - версия боя, которую клиент СЧИТАЕТ текущей: несовпадение
// означает, что клиент отстал, и заявка отвергается без побочных эффектов.
type BattleActionPayload struct {
	BattleID string       `json:"battleId"`
	Action   string       `json:"action"` // MOVE, ATTACK, CAST, WAIT
	Target   hexmap.Coord `json:"target"`
	Version  int64        `json:"version"`
}

// TargetPayload - целевой тайл боевого действия (MOVE, ATTACK, CAST)
type TargetPayload struct {
	Target hexmap.Coord `json:"target"`
}

// PathPayload - запрос превью маршрута (только для подсказок UI)
type PathPayload struct {
	Origin hexmap.Coord `json:"origin"`
	Dest   hexmap.Coord `json:"dest"`
}

// --- СЕРВЕР -> КЛИЕНТ ---

// Типы исходящих сообщений
const (
	TypeInit         = "INIT"
	TypeMoveResult   = "MOVE_RESULT"
	TypeTravelETA    = "TRAVEL_ETA"
	TypeRejection    = "REJECTION"
	TypeSectorUpdate = "SECTOR_UPDATE"
	TypeBattleUpdate = "BATTLE_UPDATE"
	TypeNotification = "NOTIFICATION"
	TypePathResult   = "PATH_RESULT"
)

// ServerResponse - конверт для всех исходящих сообщений
type ServerResponse struct {
	Type string `json:"type"`

	// Unit - полное состояние юнита (INIT, MOVE_RESULT)
	Unit *domain.Unit `json:"unit,omitempty"`

	// Village - производная метка поселения после перемещения
	Village string `json:"village,omitempty"`

	// EtaSeconds - длительность начатого путешествия
	EtaSeconds int64 `json:"etaSeconds,omitempty"`

	// Rejection - типизированный отказ (REJECTION)
	Rejection *domain.Rejection `json:"rejection,omitempty"`

	// Battle - ПОЛНЫЙ снапшот боя (BATTLE_UPDATE). Снапшоты авторитетны
	// и заменяют локальную копию целиком.
	Battle *domain.BattleState `json:"battle,omitempty"`

	// Patch - ЧАСТИЧНОЕ обновление юнита (SECTOR_UPDATE). Отсутствующие
	// поля клиент обязан сохранить из своей копии.
	Patch *UnitPatch `json:"patch,omitempty"`

	// Path - маршрут-подсказка (PATH_RESULT). Пустой = пути нет.
	Path []hexmap.Coord `json:"path,omitempty"`

	// Grid - тайлы сектора/арены для первой отрисовки (INIT)
	Grid []hexmap.Tile `json:"grid,omitempty"`

	Message string `json:"message,omitempty"`
}

// UnitPatch - частичная дельта юнита для секторного канала.
// Указатели отличают "поле не тронуто" от нулевого значения.
type UnitPatch struct {
	ID       string        `json:"id"`
	Pos      *hexmap.Coord `json:"pos,omitempty"`
	Status   *string       `json:"status,omitempty"`
	HP       *int          `json:"hp,omitempty"`
	Village  *string       `json:"village,omitempty"`
	FinishAt *int64        `json:"finishAt,omitempty"`
	SectorID *string       `json:"sectorId,omitempty"`
}
