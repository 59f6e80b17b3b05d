package actions

import (
	"fmt"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/domain"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/engine/handlers"
)

// HandleWait - пропуск хода. Действие не меняет позиций и здоровья,
// но двигает версию боя и тем самым заставляет сервер пересчитать
// итог - именно его автоматически шлет клиент погибшего юнита.
func HandleWait(ctx handlers.Context) (handlers.Result, *domain.Rejection, error) {
	return handlers.Result{
		Msg:     fmt.Sprintf("%s пропускает ход.", ctx.Actor.Name),
		MsgType: "INFO",
	}, nil, nil
}
