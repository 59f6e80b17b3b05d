package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/clock"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/domain"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/world"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/hexmap"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/logger"
)

// MoveOutcome - результат принятого локального шага
type MoveOutcome struct {
	Unit *domain.Unit
	// Village - производная метка "внутри поселения". Пересчитывается
	// из новой координаты, клиентский ввод на нее не влияет.
	Village string
}

// SaveUnit вставляет или перезаписывает юнита (логин, спавн, дебаг)
func (s *Store) SaveUnit(u *domain.Unit) error {
	now := s.Now()
	_, err := s.db.Exec(`
		INSERT INTO units (id, name, sector_id, battle_id, dest_sector,
			pos_col, pos_row, status, hp, max_hp, strength,
			finish_at, last_action_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, sector_id=excluded.sector_id,
			battle_id=excluded.battle_id,
			pos_col=excluded.pos_col, pos_row=excluded.pos_row,
			status=excluded.status, hp=excluded.hp, max_hp=excluded.max_hp,
			strength=excluded.strength, updated_at=excluded.updated_at`,
		u.ID, u.Name, u.SectorID, u.BattleID, u.DestSector,
		u.Pos.Col, u.Pos.Row, string(u.Status), u.HP, u.MaxHP, u.Strength,
		u.FinishAt, u.LastActionAt.Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("store: save unit %s: %w", u.ID, err)
	}
	return nil
}

// GetUnit читает юнита. (nil, nil) если такого нет.
func (s *Store) GetUnit(id string) (*domain.Unit, error) {
	row := s.db.QueryRow(`
		SELECT id, name, sector_id, battle_id, dest_sector,
			pos_col, pos_row, status, hp, max_hp, strength,
			finish_at, last_action_at, updated_at
		FROM units WHERE id = ?`, id)

	var u domain.Unit
	var status string
	var lastAction, updated int64
	err := row.Scan(&u.ID, &u.Name, &u.SectorID, &u.BattleID, &u.DestSector,
		&u.Pos.Col, &u.Pos.Row, &status, &u.HP, &u.MaxHP, &u.Strength,
		&u.FinishAt, &lastAction, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get unit %s: %w", id, err)
	}

	u.Status = domain.UnitStatus(status)
	u.LastActionAt = time.Unix(lastAction, 0)
	u.UpdatedAt = time.Unix(updated, 0)
	return &u, nil
}

// MoveLocal - одношаговое перемещение внутри сектора.
// Сравнение и запись - ОДИН атомарный условный апдейт против
// сохраненной позиции: две конкурирующие команды на один юнит не могут
// пройти проверку обе, значит телепорт на два шага невозможен.
func (s *Store) MoveLocal(unitID string, dest hexmap.Coord, sector *world.Sector) (*MoveOutcome, *domain.Rejection, error) {
	now := s.Now()

	u, err := s.GetUnit(unitID)
	if err != nil {
		return nil, nil, err
	}
	if u == nil {
		return nil, domain.NewRejection(domain.RejectUnknownUnit, "unit not found"), nil
	}

	// Предварительные проверки дают понятные отказы, но НЕ являются
	// защитой от гонок - защита ниже, в WHERE
	if u.Status != domain.StatusAwake {
		return nil, domain.NewRejection(domain.RejectNotAwake,
			fmt.Sprintf("unit is %s", u.Status)), nil
	}
	if _, err := sector.Grid.Tile(dest); err != nil {
		return nil, domain.NewRejection(domain.RejectIllegalMove, "destination outside sector"), nil
	}
	if hexmap.Distance(u.Pos, dest) > 1 {
		return nil, domain.NewRejection(domain.RejectTooFar, "destination is not adjacent"), nil
	}
	if r := clock.Readiness(u.LastActionAt, domain.SectorCadence, now); r < domain.BandMove {
		return nil, domain.NewRejection(domain.RejectNotReady,
			fmt.Sprintf("readiness %d%% below %d%%", r, domain.BandMove)), nil
	}

	res, err := s.db.Exec(`
		UPDATE units
		SET pos_col = ?, pos_row = ?, last_action_at = ?, updated_at = ?
		WHERE id = ? AND status = ? AND pos_col = ? AND pos_row = ?`,
		dest.Col, dest.Row, now.Unix(), now.Unix(),
		unitID, string(domain.StatusAwake), u.Pos.Col, u.Pos.Row)
	if err != nil {
		return nil, nil, fmt.Errorf("store: move %s: %w", unitID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, nil, fmt.Errorf("store: move %s: %w", unitID, err)
	}
	if affected == 0 {
		// Гонку проиграли. Перечитываем, чтобы дать точную причину.
		return nil, s.explainMoveRejection(unitID, dest), nil
	}

	u.Pos = dest
	u.LastActionAt = now
	u.UpdatedAt = now

	logger.Log.WithField("unit_id", unitID).Debugf("moved to (%d,%d)", dest.Col, dest.Row)
	return &MoveOutcome{Unit: u, Village: sector.VillageAt(dest)}, nil, nil
}

// explainMoveRejection перечитывает текущее состояние после проигранного
// CAS и формулирует причину: не тот статус или уже не соседний тайл
func (s *Store) explainMoveRejection(unitID string, dest hexmap.Coord) *domain.Rejection {
	u, err := s.GetUnit(unitID)
	if err != nil || u == nil {
		return domain.NewRejection(domain.RejectIllegalMove, "state changed, refresh")
	}
	if u.Status != domain.StatusAwake {
		return domain.NewRejection(domain.RejectNotAwake, fmt.Sprintf("unit is %s", u.Status))
	}
	if hexmap.Distance(u.Pos, dest) > 1 {
		return domain.NewRejection(domain.RejectTooFar, "position changed, destination no longer adjacent")
	}
	return domain.NewRejection(domain.RejectIllegalMove, "concurrent update, retry")
}

// TravelStart - фаза 1 глобального путешествия: AWAKE -> TRAVELING.
// Юнит обязан стоять на граничном тайле своего сектора. ETA считается
// по дуге большого круга между макро-клетками.
func (s *Store) TravelStart(unitID, destSector string, registry *world.Registry) (int64, *domain.Rejection, error) {
	now := s.Now()

	u, err := s.GetUnit(unitID)
	if err != nil {
		return 0, nil, err
	}
	if u == nil {
		return 0, domain.NewRejection(domain.RejectUnknownUnit, "unit not found"), nil
	}
	if u.Status != domain.StatusAwake {
		return 0, domain.NewRejection(domain.RejectNotAwake, fmt.Sprintf("unit is %s", u.Status)), nil
	}

	sector, err := registry.Sector(u.SectorID)
	if err != nil {
		return 0, nil, err
	}
	if !sector.Grid.IsBoundary(u.Pos) {
		return 0, domain.NewRejection(domain.RejectNotBoundary, "travel starts at a sector boundary tile"), nil
	}

	eta, err := registry.TravelETA(u.SectorID, destSector)
	if err != nil {
		return 0, domain.NewRejection(domain.RejectIllegalMove, "unknown destination sector"), nil
	}
	finishAt := now.Unix() + eta

	res, err := s.db.Exec(`
		UPDATE units
		SET status = ?, dest_sector = ?, finish_at = ?, last_action_at = ?, updated_at = ?
		WHERE id = ? AND status = ? AND pos_col = ? AND pos_row = ?`,
		string(domain.StatusTraveling), destSector, finishAt, now.Unix(), now.Unix(),
		unitID, string(domain.StatusAwake), u.Pos.Col, u.Pos.Row)
	if err != nil {
		return 0, nil, fmt.Errorf("store: travel start %s: %w", unitID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, domain.NewRejection(domain.RejectIllegalMove, "state changed, refresh"), nil
	}

	return eta, nil, nil
}

// TravelFinish - фаза 2: TRAVELING -> AWAKE. Таймер у клиента, но
// предикат "время вышло" проверяет СЕРВЕР - прямо в WHERE, так что
// досрочный вызов фазы 2 не завершит путешествие раньше срока.
func (s *Store) TravelFinish(unitID string) (*domain.Unit, *domain.Rejection, error) {
	now := s.Now()

	u, err := s.GetUnit(unitID)
	if err != nil {
		return nil, nil, err
	}
	if u == nil {
		return nil, domain.NewRejection(domain.RejectUnknownUnit, "unit not found"), nil
	}
	if u.DestSector == "" {
		return nil, domain.NewRejection(domain.RejectNotAwake, "unit is not traveling"), nil
	}

	// Точка входа в новый сектор - граничный тайл у "ворот"
	entry := hexmap.Coord{Col: domain.SectorWidth / 2, Row: 0}

	res, err := s.db.Exec(`
		UPDATE units
		SET status = ?, sector_id = ?, dest_sector = '', finish_at = 0,
			pos_col = ?, pos_row = ?, updated_at = ?
		WHERE id = ? AND status = ? AND finish_at <= ?`,
		string(domain.StatusAwake), u.DestSector,
		entry.Col, entry.Row, now.Unix(),
		unitID, string(domain.StatusTraveling), now.Unix())
	if err != nil {
		return nil, nil, fmt.Errorf("store: travel finish %s: %w", unitID, err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		fresh, err := s.GetUnit(unitID)
		if err != nil {
			return nil, nil, err
		}
		if fresh == nil || fresh.Status != domain.StatusTraveling {
			return nil, domain.NewRejection(domain.RejectNotAwake, "unit is not traveling"), nil
		}
		remaining := fresh.FinishAt - now.Unix()
		return nil, domain.NewRejection(domain.RejectTravelPending,
			fmt.Sprintf("%d seconds remaining", remaining)), nil
	}

	arrived, err := s.GetUnit(unitID)
	return arrived, nil, err
}

// SetStatusCAS - условный перевод статуса (постановка в очередь боя,
// вход в бой). Возвращает false, если предикат не сошелся.
func (s *Store) SetStatusCAS(unitID string, from, to domain.UnitStatus, battleID string) (bool, error) {
	now := s.Now()
	res, err := s.db.Exec(`
		UPDATE units SET status = ?, battle_id = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(to), battleID, now.Unix(), unitID, string(from))
	if err != nil {
		return false, fmt.Errorf("store: status cas %s: %w", unitID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
