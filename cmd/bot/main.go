package main

import (
	"context"
	"flag"
	"time"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/agent"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/channels"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/domain"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/engine"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/store"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/world"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/hexmap"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/logger"
)

func init() {
	logger.Init()
}

// Симуляция дуэли двух агентов на встроенном движке. Полезна как
// smoke-тест боевой механики и как пример headless-клиента.
func main() {
	var seed int64
	var timeout time.Duration
	flag.Int64Var(&seed, "seed", 42, "Master world seed")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Give up after this long")
	flag.Parse()

	logger.Log.Info("Starting bot duel simulation...")

	st, err := store.Open(":memory:")
	if err != nil {
		logger.Log.Fatal("Failed to open store:", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Log.WithError(err).Warn("store close failed")
		}
	}()

	hub := channels.NewHub()
	registry := world.NewRegistry(seed, 16, 16)
	svc := engine.NewService(st, hub, registry)

	// Боты ходят мгновенно, когда готовы: жмем каденцию до секунды,
	// чтобы симуляция не тянулась полчаса
	base := time.Now()
	svc.Now = func() time.Time {
		return base.Add(time.Since(base) * 60)
	}

	for _, id := range []string{"bot-alpha", "bot-beta"} {
		u := &domain.Unit{
			ID:           id,
			Name:         id,
			SectorID:     world.SectorID(0, 0),
			Pos:          hexmap.Coord{Col: domain.SectorWidth / 2, Row: domain.SectorHeight / 2},
			Status:       domain.StatusAwake,
			HP:           100,
			MaxHP:        100,
			Strength:     10,
			LastActionAt: base.Add(-domain.BattleCadence),
		}
		if err := st.SaveUnit(u); err != nil {
			logger.Log.Fatal("Failed to seed unit:", err)
		}
	}

	b, rejection, err := svc.CreateBattle(map[string]int{"bot-alpha": 0, "bot-beta": 1})
	if err != nil {
		logger.Log.Fatal("Failed to create battle:", err)
	}
	if rejection != nil {
		logger.Log.Fatalf("Battle rejected: %s (%s)", rejection.Code, rejection.Reason)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, id := range []string{"bot-alpha", "bot-beta"} {
		bot := agent.NewBot(id, svc)
		go func() {
			if err := bot.Run(ctx, b.ID); err != nil {
				logger.Log.WithError(err).Error("bot run failed")
			}
		}()
	}

	// Ждем терминального исхода, опрашивая авторитетное хранилище
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Log.Warn("Simulation timed out, battle unresolved")
			return
		case <-ticker.C:
			cur, err := st.GetBattle(b.ID)
			if err != nil || cur == nil {
				continue
			}
			if cur.IsTerminal() {
				logger.Log.Infof("🏁 Simulation finished: %s (winner team %d, %d versions)",
					cur.Result.Outcome, cur.Result.WinnerTeamID, cur.Version)
				return
			}
		}
	}
}
