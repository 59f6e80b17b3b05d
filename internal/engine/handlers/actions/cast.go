package actions

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/domain"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/engine/handlers"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/api"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/hexmap"
)

// HandleCast кладет на тайл временный эффект (стену пламени).
// Юнит, стоящий на тайле, получает урон сразу; остальные - когда
// наступят (см. HandleMove). Эффект протухает сам, чистка идет
// при каждой принятой мутации боя.
func HandleCast(ctx handlers.Context, p api.TargetPayload) (handlers.Result, *domain.Rejection, error) {
	if _, err := ctx.Grid.Tile(p.Target); err != nil {
		return handlers.EmptyResult(),
			domain.NewRejection(domain.RejectIllegalMove, "target outside arena"), nil
	}
	if hexmap.Distance(ctx.Actor.Pos, p.Target) > domain.CastRange {
		return handlers.EmptyResult(),
			domain.NewRejection(domain.RejectTooFar, "target out of cast range"), nil
	}

	effect := domain.GroundEffect{
		ID:        uuid.NewString(),
		Kind:      "flame",
		Pos:       p.Target,
		Power:     domain.EffectPower,
		CasterID:  ctx.Actor.ID,
		ExpiresAt: ctx.Now.Add(domain.EffectLifetime).Unix(),
	}
	ctx.Battle.Effects = append(ctx.Battle.Effects, effect)

	msg := fmt.Sprintf("%s поджигает тайл (%d,%d).", ctx.Actor.Name, p.Target.Col, p.Target.Row)

	for i := range ctx.Battle.UsersState {
		other := &ctx.Battle.UsersState[i]
		if !other.IsDead() && other.Pos == p.Target {
			died := other.TakeDamage(effect.Power)
			msg += fmt.Sprintf(" %s получает %d урона.", other.Name, effect.Power)
			if died {
				msg += fmt.Sprintf(" %s погибает.", other.Name)
			}
		}
	}

	return handlers.Result{Msg: msg, MsgType: "COMBAT"}, nil, nil
}
