package engine

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/channels"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/clock"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/domain"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/engine/handlers"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/engine/handlers/actions"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/store"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/world"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/api"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/hexmap"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/logger"
)

// Service - ядро сервера: принимает заявки на действия, гоняет их
// через авторитетное хранилище и раскладывает принятые изменения
// по каналам синхронизации. Сам НИКОГДА не ретраит проигранный CAS:
// клиент обязан перечитать состояние и решить сам.
type Service struct {
	Store    *store.Store
	Hub      *channels.Hub
	Registry *world.Registry

	// Now подменяется в тестах
	Now func() time.Time

	handlers map[domain.ActionType]handlers.HandlerFunc

	// Matchmaker сводит желающих подраться в пары
	Matchmaker *Matchmaker

	// Кэш арен: сетка и пасфайндер живут, пока жив бой
	mu     sync.Mutex
	arenas map[string]*arena
}

type arena struct {
	grid *hexmap.Grid
	path *hexmap.Pathfinder
}

func NewService(st *store.Store, hub *channels.Hub, registry *world.Registry) *Service {
	s := &Service{
		Store:    st,
		Hub:      hub,
		Registry: registry,
		Now:      time.Now,
		handlers: make(map[domain.ActionType]handlers.HandlerFunc),
		arenas:   make(map[string]*arena),
	}
	s.registerHandlers()
	s.Matchmaker = NewMatchmaker(s)
	return s
}

func (s *Service) registerHandlers() {
	s.handlers[domain.ActionMove] = handlers.WithPayload(actions.HandleMove)
	s.handlers[domain.ActionAttack] = handlers.WithPayload(actions.HandleAttack)
	s.handlers[domain.ActionCast] = handlers.WithPayload(actions.HandleCast)
	s.handlers[domain.ActionWait] = handlers.WithEmptyPayload(actions.HandleWait)
}

// --- ОТКРЫТЫЙ МИР ---

// RequestLocalMove - одношаговое перемещение внутри сектора
func (s *Service) RequestLocalMove(unitID string, dest hexmap.Coord) (*store.MoveOutcome, *domain.Rejection, error) {
	u, err := s.Store.GetUnit(unitID)
	if err != nil {
		return nil, nil, err
	}
	if u == nil {
		return nil, domain.NewRejection(domain.RejectUnknownUnit, "unit not found"), nil
	}

	sector, err := s.Registry.Sector(u.SectorID)
	if err != nil {
		return nil, nil, err
	}

	outcome, rejection, err := s.Store.MoveLocal(unitID, dest, sector)
	if err != nil || rejection != nil {
		return nil, rejection, err
	}

	// Принято: дельта в секторный канал
	status := string(outcome.Unit.Status)
	s.publishPatch(sector.ID, &api.UnitPatch{
		ID:      outcome.Unit.ID,
		Pos:     &outcome.Unit.Pos,
		Status:  &status,
		Village: &outcome.Village,
	})

	return outcome, nil, nil
}

// RequestGlobalTravelStart - фаза 1 путешествия между секторами
func (s *Service) RequestGlobalTravelStart(unitID, destSector string) (int64, *domain.Rejection, error) {
	u, err := s.Store.GetUnit(unitID)
	if err != nil {
		return 0, nil, err
	}
	if u == nil {
		return 0, domain.NewRejection(domain.RejectUnknownUnit, "unit not found"), nil
	}

	eta, rejection, err := s.Store.TravelStart(unitID, destSector, s.Registry)
	if err != nil || rejection != nil {
		return 0, rejection, err
	}

	status := string(domain.StatusTraveling)
	finishAt := s.Now().Unix() + eta
	s.publishPatch(u.SectorID, &api.UnitPatch{
		ID:       unitID,
		Status:   &status,
		FinishAt: &finishAt,
	})

	logger.Log.WithFields(logrus.Fields{
		"unit_id": unitID,
		"dest":    destSector,
		"eta":     eta,
	}).Info("Travel started")

	return eta, nil, nil
}

// RequestGlobalTravelFinish - фаза 2. Инициируется клиентским таймером,
// но время проверяет хранилище.
func (s *Service) RequestGlobalTravelFinish(unitID string) (*domain.Unit, *domain.Rejection, error) {
	u, rejection, err := s.Store.TravelFinish(unitID)
	if err != nil || rejection != nil {
		return nil, rejection, err
	}

	status := string(domain.StatusAwake)
	s.publishPatch(u.SectorID, &api.UnitPatch{
		ID:       u.ID,
		Pos:      &u.Pos,
		Status:   &status,
		SectorID: &u.SectorID,
	})

	return u, nil, nil
}

// --- БОИ ---

// CreateBattle собирает бой из живых юнитов (матчмейкинг/вызов уже
// разрешены выше). Участники снапшотятся в BattleState и переводятся
// в IN_BATTLE условным апдейтом каждый.
func (s *Service) CreateBattle(teams map[string]int) (*domain.BattleState, *domain.Rejection, error) {
	return s.createBattle(teams, domain.StatusAwake)
}

// createBattle - общий путь для прямого вызова и матчмейкинга;
// from задает, из какого статуса юниты забираются в бой
func (s *Service) createBattle(teams map[string]int, from domain.UnitStatus) (*domain.BattleState, *domain.Rejection, error) {
	now := s.Now()
	battleID := uuid.NewString()

	b := &domain.BattleState{
		ID:        battleID,
		ArenaSeed: now.UnixNano(),
		Version:   0,
	}

	var enrolled []string
	for unitID, teamID := range teams {
		u, err := s.Store.GetUnit(unitID)
		if err != nil {
			s.releaseUnits(enrolled)
			return nil, nil, err
		}
		if u == nil {
			s.releaseUnits(enrolled)
			return nil, domain.NewRejection(domain.RejectUnknownUnit, "unit not found: "+unitID), nil
		}

		ok, err := s.Store.SetStatusCAS(unitID, from, domain.StatusInBattle, battleID)
		if err != nil {
			s.releaseUnits(enrolled)
			return nil, nil, err
		}
		if !ok {
			s.releaseUnits(enrolled)
			return nil, domain.NewRejection(domain.RejectNotAwake, "unit busy: "+unitID), nil
		}
		enrolled = append(enrolled, unitID)

		// Снапшот участника: команда 0 слева, команда 1 справа
		fighter := *u
		fighter.Status = domain.StatusInBattle
		fighter.BattleID = battleID
		fighter.TeamID = teamID
		fighter.LastActionAt = now
		fighter.Pos = startPosition(teamID, len(b.UsersState))
		b.UsersState = append(b.UsersState, fighter)
	}

	if err := s.Store.CreateBattle(b); err != nil {
		s.releaseUnits(enrolled)
		return nil, nil, err
	}

	s.publishBattle(b)
	for _, unitID := range enrolled {
		s.notifyUser(unitID, api.ServerResponse{
			Type:    api.TypeNotification,
			Message: "battle started: " + battleID,
		})
	}

	logger.Log.WithField("battle_id", battleID).Infof("⚔️  Battle created with %d fighters", len(enrolled))
	return b, nil, nil
}

func startPosition(teamID, ordinal int) hexmap.Coord {
	col := 1
	if teamID != 0 {
		col = domain.ArenaWidth - 2
	}
	row := 1 + (ordinal*2)%(domain.ArenaHeight-2)
	return hexmap.Coord{Col: col, Row: row}
}

// SubmitBattleAction применяет одно боевое действие.
// Проверка версии - ДО любых побочных эффектов; повторная подача уже
// примененного действия (устаревшая версия) - no-op отказ, не дубль.
func (s *Service) SubmitBattleAction(sub api.BattleActionPayload, unitID string) (*domain.BattleState, *domain.Rejection, error) {
	now := s.Now()

	b, err := s.Store.GetBattle(sub.BattleID)
	if err != nil {
		return nil, nil, err
	}
	if b == nil {
		return nil, domain.NewRejection(domain.RejectUnknownBattle, "battle not found"), nil
	}
	if b.IsTerminal() {
		return nil, domain.NewRejection(domain.RejectTerminalBattle,
			"battle already resolved: "+b.Result.Outcome), nil
	}
	if sub.Version != b.Version {
		return nil, domain.NewRejection(domain.RejectStaleVersion,
			fmt.Sprintf("expected version %d, current %d", sub.Version, b.Version)), nil
	}

	actor := b.Participant(unitID)
	if actor == nil {
		return nil, domain.NewRejection(domain.RejectUnknownUnit, "not a participant"), nil
	}

	action := domain.ParseAction(sub.Action)
	if action == domain.ActionUnknown {
		return nil, domain.NewRejection(domain.RejectUnknownAction, "unknown action: "+sub.Action), nil
	}

	// Мертвый юнит может только WAIT (клиентский механизм живости)
	if actor.IsDead() && action != domain.ActionWait {
		return nil, domain.NewRejection(domain.RejectIllegalMove, "unit is dead"), nil
	}

	// Готовность пересчитывает СЕРВЕР на момент подачи; клиентский
	// расчет - всего лишь подсказка интерфейсу
	if r := clock.Readiness(actor.LastActionAt, domain.BattleCadence, now); !clock.AllowsAction(r, action) {
		return nil, domain.NewRejection(domain.RejectNotReady,
			fmt.Sprintf("readiness %d%% below %d%%", r, clock.RequiredBand(action))), nil
	}

	ar, err := s.arenaFor(b)
	if err != nil {
		return nil, nil, err
	}

	b.PruneEffects(now)

	handler, ok := s.handlers[action]
	if !ok {
		return nil, domain.NewRejection(domain.RejectUnknownAction, "no handler"), nil
	}

	payload, err := targetPayload(sub)
	if err != nil {
		return nil, nil, err
	}

	result, rejection, err := handler(handlers.Context{
		Battle: b,
		Actor:  actor,
		Grid:   ar.grid,
		Path:   ar.path,
		Now:    now,
	}, payload)
	if err != nil {
		return nil, nil, err
	}
	if rejection != nil {
		return nil, rejection, nil
	}

	// Действие принято: сброс готовности, инкремент версии,
	// оценка терминального исхода - все в ОДНОЙ записи
	actor.LastActionAt = now
	if b.Result == nil {
		b.Result = b.EvaluateResult(now)
	}
	b.Version = sub.Version + 1

	rejection, err = s.Store.SwapBattle(b, sub.Version)
	if err != nil {
		return nil, nil, err
	}
	if rejection != nil {
		// Конкурент успел раньше: наша мутация отброшена целиком
		return nil, rejection, nil
	}

	if result.Msg != "" {
		logger.Log.WithFields(logrus.Fields{
			"battle_id": b.ID,
			"version":   b.Version,
		}).Info(result.Msg)
	}

	s.publishBattle(b)

	if b.IsTerminal() {
		s.finishBattle(b)
	}

	return b, nil, nil
}

// targetPayload упаковывает цель заявки в формат хендлеров
func targetPayload(sub api.BattleActionPayload) ([]byte, error) {
	raw, err := json.Marshal(api.TargetPayload{Target: sub.Target})
	if err != nil {
		return nil, fmt.Errorf("engine: marshal target: %w", err)
	}
	return raw, nil
}

// finishBattle освобождает участников завершенного боя
func (s *Service) finishBattle(b *domain.BattleState) {
	for i := range b.UsersState {
		unitID := b.UsersState[i].ID
		if _, err := s.Store.SetStatusCAS(unitID, domain.StatusInBattle, domain.StatusAwake, ""); err != nil {
			logger.Log.WithError(err).Warnf("failed to release unit %s", unitID)
		}
		s.notifyUser(unitID, api.ServerResponse{
			Type:    api.TypeNotification,
			Message: "battle resolved: " + b.Result.Outcome,
		})
	}

	s.mu.Lock()
	delete(s.arenas, b.ID)
	s.mu.Unlock()

	logger.Log.WithField("battle_id", b.ID).Infof("🏁 Battle resolved: %s", b.Result.Outcome)
}

// arenaFor достает (или строит из сида) сетку боя
func (s *Service) arenaFor(b *domain.BattleState) (*arena, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.arenas[b.ID]; ok {
		return a, nil
	}

	grid, path, err := s.Registry.NewArena(b.ArenaSeed)
	if err != nil {
		return nil, err
	}
	a := &arena{grid: grid, path: path}
	s.arenas[b.ID] = a
	return a, nil
}

// --- ЧТЕНИЕ ---

// ComputeShortestPath - справочный маршрут для превью в UI.
// gridID - ID сектора или боя. Пустой срез = пути нет.
func (s *Service) ComputeShortestPath(gridID string, origin, dest hexmap.Coord) ([]hexmap.Coord, error) {
	s.mu.Lock()
	a, ok := s.arenas[gridID]
	s.mu.Unlock()
	if ok {
		return a.path.ShortestPath(origin, dest)
	}

	sector, err := s.Registry.Sector(gridID)
	if err != nil {
		return nil, err
	}
	return sector.Path.ShortestPath(origin, dest)
}

// --- ПУБЛИКАЦИЯ ---

func (s *Service) publishPatch(sectorID string, patch *api.UnitPatch) {
	err := s.Hub.Publish(channels.SectorTopic(sectorID), api.ServerResponse{
		Type:  api.TypeSectorUpdate,
		Patch: patch,
	})
	if err != nil {
		logger.Log.WithError(err).Warn("failed to publish sector patch")
	}
}

func (s *Service) publishBattle(b *domain.BattleState) {
	err := s.Hub.Publish(channels.BattleTopic(b.ID), api.ServerResponse{
		Type:   api.TypeBattleUpdate,
		Battle: b,
	})
	if err != nil {
		logger.Log.WithError(err).Warn("failed to publish battle snapshot")
	}
}

func (s *Service) notifyUser(userID string, msg api.ServerResponse) {
	if err := s.Hub.Publish(channels.UserTopic(userID), msg); err != nil {
		logger.Log.WithError(err).Warn("failed to notify user")
	}
}

func (s *Service) releaseUnits(unitIDs []string) {
	for _, id := range unitIDs {
		if _, err := s.Store.SetStatusCAS(id, domain.StatusInBattle, domain.StatusAwake, ""); err != nil {
			logger.Log.WithError(err).Warnf("failed to roll back unit %s", id)
		}
	}
}
