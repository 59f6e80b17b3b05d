package actions

import (
	"fmt"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/domain"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/engine/handlers"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/api"
)

// HandleMove перемещает участника по арене. Цель должна быть достижима
// маршрутом со стоимостью не выше бюджета одного действия и не занята
// живым участником.
func HandleMove(ctx handlers.Context, p api.TargetPayload) (handlers.Result, *domain.Rejection, error) {
	if _, err := ctx.Grid.Tile(p.Target); err != nil {
		return handlers.EmptyResult(),
			domain.NewRejection(domain.RejectIllegalMove, "target outside arena"), nil
	}

	for i := range ctx.Battle.UsersState {
		other := &ctx.Battle.UsersState[i]
		if other.ID != ctx.Actor.ID && !other.IsDead() && other.Pos == p.Target {
			return handlers.EmptyResult(),
				domain.NewRejection(domain.RejectIllegalMove, "tile occupied"), nil
		}
	}

	path, err := ctx.Path.ShortestPath(ctx.Actor.Pos, p.Target)
	if err != nil {
		return handlers.EmptyResult(), nil, err
	}
	if len(path) == 0 {
		return handlers.EmptyResult(),
			domain.NewRejection(domain.RejectIllegalMove, "no route to target"), nil
	}
	if cost := ctx.Path.PathCost(path); cost > domain.BattleMoveBudget {
		return handlers.EmptyResult(), domain.NewRejection(domain.RejectTooFar,
			fmt.Sprintf("route cost %d exceeds budget %d", cost, domain.BattleMoveBudget)), nil
	}

	ctx.Actor.Pos = p.Target

	// Наступили на активный эффект - получаем его силу в урон
	msg := fmt.Sprintf("%s перемещается на (%d,%d).", ctx.Actor.Name, p.Target.Col, p.Target.Row)
	if effect := ctx.Battle.EffectAt(p.Target); effect != nil {
		ctx.Actor.TakeDamage(effect.Power)
		msg += fmt.Sprintf(" %s получает %d урона от эффекта.", ctx.Actor.Name, effect.Power)
	}

	return handlers.Result{Msg: msg, MsgType: "INFO"}, nil, nil
}
