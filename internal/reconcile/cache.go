package reconcile

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/domain"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/api"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/logger"
)

// SubmitFunc отправляет боевое действие от имени подконтрольного юнита
// (замыкается на транспорт клиента)
type SubmitFunc func(battleID, action string, version int64)

// Cache - локальная картина мира одного наблюдателя. Она ИМЕЕТ ПРАВО
// устаревать: пуши доходят не-более-одного-раза и без бэклога, поэтому
// после реконнекта клиент перечитывает полный снапшот, а не дельты.
//
// Частичные патчи сливаются по полям: отсутствующее в патче поле
// сохраняется из кэша. Полный снапшот боя заменяет копию целиком.
type Cache struct {
	mu sync.Mutex

	// ControlledID - юнит, которым управляет этот клиент
	ControlledID string

	units  map[string]*domain.Unit
	battle *domain.BattleState

	// waitSubmitted гарантирует, что добивающий WAIT уйдет РОВНО один раз
	waitSubmitted bool

	submit SubmitFunc
}

func New(controlledID string, submit SubmitFunc) *Cache {
	return &Cache{
		ControlledID: controlledID,
		units:        make(map[string]*domain.Unit),
		submit:       submit,
	}
}

// HandlePush разбирает входящее push-сообщение и обновляет кэш
func (c *Cache) HandlePush(raw []byte) {
	var msg api.ServerResponse
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Log.WithError(err).Debug("reconcile: bad push payload")
		return
	}

	switch msg.Type {
	case api.TypeSectorUpdate:
		if msg.Patch != nil {
			c.ApplyPatch(msg.Patch)
		}
	case api.TypeBattleUpdate:
		if msg.Battle != nil {
			c.ApplyBattleSnapshot(msg.Battle)
		}
	}
}

// ApplyPatch сливает частичную дельту юнита в кэш.
// Переданные поля перезаписывают, отсутствующие - сохраняются:
// частичный пуш не должен стирать то, что издатель не трогал.
func (c *Cache) ApplyPatch(p *api.UnitPatch) {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.units[p.ID]
	if !ok {
		u = &domain.Unit{ID: p.ID}
		c.units[p.ID] = u
	}

	if p.Pos != nil {
		u.Pos = *p.Pos
	}
	if p.Status != nil {
		u.Status = domain.UnitStatus(*p.Status)
	}
	if p.HP != nil {
		u.HP = *p.HP
	}
	if p.SectorID != nil {
		u.SectorID = *p.SectorID
	}
	if p.FinishAt != nil {
		u.FinishAt = *p.FinishAt
	}
	u.UpdatedAt = time.Now()
}

// ApplyBattleSnapshot заменяет локальную копию боя целиком:
// снапшоты авторитетны и полны.
func (c *Cache) ApplyBattleSnapshot(b *domain.BattleState) {
	c.mu.Lock()

	// Версия защищает от перепутанной доставки: снапшот старее
	// уже примененного не имеет права откатить картину боя
	if c.battle != nil && c.battle.ID == b.ID && b.Version < c.battle.Version {
		c.mu.Unlock()
		return
	}

	if c.battle == nil || c.battle.ID != b.ID {
		// Новый бой - взводим одноразовый механизм живости заново
		c.waitSubmitted = false
	}
	c.battle = b

	shouldSubmitWait := false
	if !b.IsTerminal() && !c.waitSubmitted {
		if me := b.Participant(c.ControlledID); me != nil && me.IsDead() {
			// Наш юнит пал, а бой не завершен: подаем WAIT, чтобы сервер
			// пересчитал итог. Ровно один раз - дальше дело сервера.
			c.waitSubmitted = true
			shouldSubmitWait = true
		}
	}
	version := b.Version
	battleID := b.ID

	c.mu.Unlock()

	if shouldSubmitWait && c.submit != nil {
		logger.Log.WithField("battle_id", battleID).Info("Controlled unit is down, submitting WAIT")
		c.submit(battleID, "WAIT", version)
	}
}

// Unit возвращает копию кэшированного юнита (nil, если не видели)
func (c *Cache) Unit(id string) *domain.Unit {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.units[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

// Battle возвращает копию локальной картины боя (nil, если боя нет)
func (c *Cache) Battle() *domain.BattleState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.battle == nil {
		return nil
	}
	cp := *c.battle
	return &cp
}
