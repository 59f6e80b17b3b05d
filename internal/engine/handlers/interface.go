package handlers

import (
	"encoding/json"
	"time"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/domain"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/hexmap"
)

// Context передает хендлеру состояние ОДНОГО боя.
// Battle и Actor - рабочая копия из хранилища: хендлер мутирует ее
// свободно, а фиксирует (или отбрасывает целиком) условный апдейт
// на уровне движка. Grid и Path - read-only.
type Context struct {
	Battle *domain.BattleState
	Actor  *domain.Unit // Участник, подавший заявку (указатель внутрь Battle)
	Grid   *hexmap.Grid
	Path   *hexmap.Pathfinder
	Now    time.Time
}

// Result - что сообщить наблюдателям после принятого действия
type Result struct {
	Msg     string // Текст лога
	MsgType string // INFO, COMBAT
}

// HandlerFunc - контракт для любого боевого действия (MOVE, ATTACK...).
// Отказ - нормальный исход, он идет отдельным значением, а не ошибкой.
type HandlerFunc func(ctx Context, payload json.RawMessage) (Result, *domain.Rejection, error)

// EmptyResult - вспомогательная функция для пустого успешного ответа
func EmptyResult() Result {
	return Result{}
}
