package actions

import (
	"fmt"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/domain"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/engine/handlers"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/api"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/hexmap"
)

// HandleAttack бьет по тайлу. На тайле должен стоять живой противник
// в пределах дистанции атаки.
func HandleAttack(ctx handlers.Context, p api.TargetPayload) (handlers.Result, *domain.Rejection, error) {
	if _, err := ctx.Grid.Tile(p.Target); err != nil {
		return handlers.EmptyResult(),
			domain.NewRejection(domain.RejectIllegalMove, "target outside arena"), nil
	}
	if hexmap.Distance(ctx.Actor.Pos, p.Target) > domain.AttackRange {
		return handlers.EmptyResult(),
			domain.NewRejection(domain.RejectTooFar, "target out of attack range"), nil
	}

	var target *domain.Unit
	for i := range ctx.Battle.UsersState {
		other := &ctx.Battle.UsersState[i]
		if other.ID != ctx.Actor.ID && !other.IsDead() && other.Pos == p.Target {
			target = other
			break
		}
	}
	if target == nil {
		return handlers.EmptyResult(),
			domain.NewRejection(domain.RejectIllegalMove, "no living target on tile"), nil
	}
	if target.TeamID == ctx.Actor.TeamID {
		return handlers.EmptyResult(),
			domain.NewRejection(domain.RejectIllegalMove, "target is an ally"), nil
	}

	damage := ctx.Actor.Strength
	if damage < 1 {
		damage = 1
	}
	died := target.TakeDamage(damage)

	msg := fmt.Sprintf("%s наносит %d урона по %s.", ctx.Actor.Name, damage, target.Name)
	if died {
		msg += fmt.Sprintf(" %s погибает.", target.Name)
	}

	return handlers.Result{Msg: msg, MsgType: "COMBAT"}, nil, nil
}
