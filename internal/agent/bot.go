package agent

import (
	"context"
	"time"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/channels"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/clock"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/domain"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/engine"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/reconcile"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/api"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/hexmap"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/logger"
)

// Bot - "игрок-компьютер" (Headless Agent). Этот код является примером
// ВНЕШНЕГО клиента: он подписывается на каналы синхронизации как обычный
// наблюдатель, держит локальную картину мира в reconcile.Cache и шлет
// заявки через те же входные точки движка, что и живые игроки.
//
// Жизненный цикл:
//  1. NewBot -> подписка на личный топик и топик боя.
//  2. Run -> пуши пополняют кэш, тикер периодически решает, ходить ли.
//  3. Решение -> SubmitBattleAction с версией из локального кэша;
//     отказ StaleVersion бот просто переживает до следующего снапшота.
type Bot struct {
	UnitID  string
	Service *engine.Service // Прямая ссылка на движок (для простоты в этом проекте)
	Cache   *reconcile.Cache
}

func NewBot(unitID string, service *engine.Service) *Bot {
	b := &Bot{
		UnitID:  unitID,
		Service: service,
	}
	// Кэш сам подает добивающий WAIT, если юнит бота пал. Подача уходит
	// в отдельной горутине: снапшот может прийти из обработчика подписки,
	// а подача публикует в тот же топик - синхронный вызов встал бы
	// насмерть в ожидании собственного Ack
	b.Cache = reconcile.New(unitID, func(battleID, action string, version int64) {
		go b.submit(battleID, action, version, hexmap.Coord{})
	})
	return b
}

// Run подписывает бота и блокируется до отмены ctx
func (b *Bot) Run(ctx context.Context, battleID string) error {
	logger.Log.Infof("[BOT] Agent %s watching battle %s", b.UnitID, battleID)

	// Обработчик только обновляет кэш: Publish шины ждет Ack подписчика,
	// поэтому ходить (а значит, публиковать) из обработчика нельзя.
	// Решения принимает тикер ниже.
	handler := func(payload []byte) {
		b.Cache.HandlePush(payload)
	}

	if err := b.Service.Hub.Subscribe(ctx, channels.BattleTopic(battleID), handler); err != nil {
		return err
	}
	if err := b.Service.Hub.Subscribe(ctx, channels.UserTopic(b.UnitID), handler); err != nil {
		return err
	}

	// Готовность копится молча, пуши обрабатываются без хода - только
	// периодическая переоценка заставляет бота действовать
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	// Догоняем состояние, начавшееся до подписки
	b.syncBattle(battleID)

	for {
		select {
		case <-ctx.Done():
			logger.Log.Infof("[BOT] Agent %s shut down", b.UnitID)
			return nil
		case <-ticker.C:
			b.act()
		}
	}
}

// syncBattle подтягивает снапшот напрямую из хранилища (бой мог
// начаться раньше, чем бот подписался на его канал)
func (b *Bot) syncBattle(battleID string) {
	battle, err := b.Service.Store.GetBattle(battleID)
	if err != nil || battle == nil {
		return
	}
	b.Cache.ApplyBattleSnapshot(battle)
}

// act - мозг бота: атаковать соседнего врага, иначе сближаться
func (b *Bot) act() {
	battle := b.Cache.Battle()
	if battle == nil || battle.IsTerminal() {
		return
	}

	me := battle.Participant(b.UnitID)
	if me == nil || me.IsDead() {
		return // Мертвые не ходят; WAIT уже подал кэш
	}

	target := b.nearestEnemy(battle, me)
	if target == nil {
		return
	}

	// Локальный расчет готовности - только чтобы не спамить сервер;
	// авторитетна все равно серверная проверка при подаче
	readiness := clock.Readiness(me.LastActionAt, domain.BattleCadence, b.Service.Now())

	if hexmap.Distance(me.Pos, target.Pos) <= domain.AttackRange {
		if clock.AllowsAction(readiness, domain.ActionAttack) {
			b.submit(battle.ID, "ATTACK", battle.Version, target.Pos)
		}
		return
	}

	if !clock.AllowsAction(readiness, domain.ActionMove) {
		return
	}

	// Сближение: идем по справочному маршруту, обрезанному до бюджета хода
	path, err := b.Service.ComputeShortestPath(battle.ID, me.Pos, target.Pos)
	if err != nil || len(path) < 2 {
		return
	}
	step := path[1]
	for i := 2; i < len(path)-1; i++ {
		if hexmap.Distance(me.Pos, path[i]) > domain.BattleMoveBudget {
			break
		}
		step = path[i]
	}

	b.submit(battle.ID, "MOVE", battle.Version, step)
}

func (b *Bot) nearestEnemy(battle *domain.BattleState, me *domain.Unit) *domain.Unit {
	var target *domain.Unit
	best := -1
	for i := range battle.UsersState {
		other := &battle.UsersState[i]
		if other.TeamID == me.TeamID || other.IsDead() {
			continue
		}
		d := hexmap.Distance(me.Pos, other.Pos)
		if best < 0 || d < best {
			best = d
			target = other
		}
	}
	return target
}

func (b *Bot) submit(battleID, action string, version int64, target hexmap.Coord) {
	_, rejection, err := b.Service.SubmitBattleAction(api.BattleActionPayload{
		BattleID: battleID,
		Action:   action,
		Target:   target,
		Version:  version,
	}, b.UnitID)
	if err != nil {
		logger.Log.WithError(err).Warnf("[BOT %s] submit failed", b.UnitID)
		return
	}
	if rejection != nil {
		// Отказ - штатный исход: перечитаем мир со следующим снапшотом
		logger.Log.Debugf("[BOT %s] %s rejected: %s", b.UnitID, action, rejection.Code)
	}
}
