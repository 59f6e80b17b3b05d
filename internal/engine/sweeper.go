package engine

import (
	"context"
	"time"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/domain"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/logger"
)

// StartSweeper запускает серверную уборку боев: если все клиенты
// отвалились и никто так и не подал добивающий WAIT, бой все равно
// разрешится - за живость отвечает сервер, а не добрая воля клиентов.
func (s *Service) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(domain.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweepBattles()
			}
		}
	}()
}

func (s *Service) sweepBattles() {
	now := s.Now()
	cutoff := now.Add(-domain.BattleIdleTimeout).Unix()

	ids, err := s.Store.ListOverdueBattles(cutoff)
	if err != nil {
		logger.Log.WithError(err).Warn("sweep: failed to list battles")
		return
	}

	for _, id := range ids {
		s.forceResolve(id, now)
	}
}

// forceResolve разрешает просроченный бой: если чья-то команда выбита,
// итог считается по обычным правилам; если бой просто заброшен - ничья.
func (s *Service) forceResolve(battleID string, now time.Time) {
	b, err := s.Store.GetBattle(battleID)
	if err != nil || b == nil || b.IsTerminal() {
		return
	}

	expected := b.Version
	b.Result = b.EvaluateResult(now)
	if b.Result == nil {
		b.Result = &domain.BattleResult{Outcome: domain.OutcomeDraw, DecidedAtUnix: now.Unix()}
	}
	b.Version = expected + 1

	rejection, err := s.Store.SwapBattle(b, expected)
	if err != nil {
		logger.Log.WithError(err).Warnf("sweep: failed to resolve battle %s", battleID)
		return
	}
	if rejection != nil {
		// Кто-то успел походить между SELECT и UPDATE - бой живой, не трогаем
		return
	}

	logger.Log.WithField("battle_id", battleID).Info("🧹 Stale battle force-resolved")
	s.publishBattle(b)
	s.finishBattle(b)
}
