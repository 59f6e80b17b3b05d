package engine

import (
	"sync"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/domain"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/logger"
)

// Matchmaker - простейшая очередь дуэлей 1v1. Постановка в очередь
// идет через тот же условный апдейт статуса, что и все остальное:
// AWAKE -> QUEUED. Пока юнит в очереди, ходить и путешествовать он
// не может - хранилище отвергнет любую заявку по статусу.
type Matchmaker struct {
	svc *Service

	mu      sync.Mutex
	waiting string // ID юнита, ждущего соперника ("" = очередь пуста)
}

func NewMatchmaker(svc *Service) *Matchmaker {
	return &Matchmaker{svc: svc}
}

// EnqueueDuel ставит юнита в очередь. Если соперник уже ждет -
// сразу собирает бой и возвращает его; иначе (nil, nil, nil) и
// клиенту придет уведомление, когда пара найдется.
func (m *Matchmaker) EnqueueDuel(unitID string) (*domain.BattleState, *domain.Rejection, error) {
	ok, err := m.svc.Store.SetStatusCAS(unitID, domain.StatusAwake, domain.StatusQueued, "")
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, domain.NewRejection(domain.RejectNotAwake, "only awake units may queue"), nil
	}

	m.mu.Lock()
	if m.waiting == "" || m.waiting == unitID {
		m.waiting = unitID
		m.mu.Unlock()
		logger.Log.Infof("🥋 Unit %s queued for a duel", unitID)
		return nil, nil, nil
	}
	opponent := m.waiting
	m.waiting = ""
	m.mu.Unlock()

	b, rejection, err := m.svc.createBattle(map[string]int{
		opponent: 0,
		unitID:   1,
	}, domain.StatusQueued)
	if err != nil || rejection != nil {
		// Пара не собралась (кто-то успел выйти из очереди) -
		// возвращаем обоих в мир, кого сможем
		m.release(opponent)
		m.release(unitID)
		return nil, rejection, err
	}
	return b, nil, nil
}

// Leave снимает юнита с очереди
func (m *Matchmaker) Leave(unitID string) (*domain.Rejection, error) {
	ok, err := m.svc.Store.SetStatusCAS(unitID, domain.StatusQueued, domain.StatusAwake, "")
	if err != nil {
		return nil, err
	}
	if !ok {
		return domain.NewRejection(domain.RejectNotAwake, "unit is not queued"), nil
	}

	m.mu.Lock()
	if m.waiting == unitID {
		m.waiting = ""
	}
	m.mu.Unlock()
	return nil, nil
}

func (m *Matchmaker) release(unitID string) {
	if _, err := m.svc.Store.SetStatusCAS(unitID, domain.StatusQueued, domain.StatusAwake, ""); err != nil {
		logger.Log.WithError(err).Warnf("failed to dequeue unit %s", unitID)
	}
}
