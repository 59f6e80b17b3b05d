package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/domain"
)

// CreateBattle сохраняет только что собранный бой (version = 0)
func (s *Store) CreateBattle(b *domain.BattleState) error {
	now := s.Now()
	b.CreatedAt = now
	b.UpdatedAt = now

	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("store: marshal battle %s: %w", b.ID, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO battles (id, arena_seed, state, version, result, created_at, updated_at)
		VALUES (?, ?, ?, ?, '', ?, ?)`,
		b.ID, b.ArenaSeed, string(raw), b.Version, now.Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("store: create battle %s: %w", b.ID, err)
	}
	return nil
}

// GetBattle читает полное состояние боя. (nil, nil) если боя нет.
func (s *Store) GetBattle(id string) (*domain.BattleState, error) {
	var raw string
	err := s.db.QueryRow(`SELECT state FROM battles WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get battle %s: %w", id, err)
	}

	var b domain.BattleState
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return nil, fmt.Errorf("store: unmarshal battle %s: %w", id, err)
	}
	return &b, nil
}

// SwapBattle записывает мутированное состояние боя условным апдейтом:
// предикат - ожидаемая версия И отсутствие терминального результата.
// Инкремент версии уже сидит в b.Version (expected + 1); если предикат
// не сошелся, в базе не меняется НИЧЕГО - частичное применение
// исключено конструкцией, а не дисциплиной вызывающего.
func (s *Store) SwapBattle(b *domain.BattleState, expectedVersion int64) (*domain.Rejection, error) {
	now := s.Now()
	b.UpdatedAt = now

	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("store: marshal battle %s: %w", b.ID, err)
	}

	outcome := ""
	if b.Result != nil {
		outcome = b.Result.Outcome
	}

	res, err := s.db.Exec(`
		UPDATE battles
		SET state = ?, version = ?, result = ?, updated_at = ?
		WHERE id = ? AND version = ? AND result = ''`,
		string(raw), b.Version, outcome, now.Unix(),
		b.ID, expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("store: swap battle %s: %w", b.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("store: swap battle %s: %w", b.ID, err)
	}
	if affected == 1 {
		return nil, nil
	}

	// Предикат не сошелся: выясняем почему
	var version int64
	var result string
	err = s.db.QueryRow(`SELECT version, result FROM battles WHERE id = ?`, b.ID).
		Scan(&version, &result)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewRejection(domain.RejectUnknownBattle, "battle not found"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: swap battle %s: %w", b.ID, err)
	}
	if result != "" {
		return domain.NewRejection(domain.RejectTerminalBattle, "battle already resolved: "+result), nil
	}
	return domain.NewRejection(domain.RejectStaleVersion,
		fmt.Sprintf("expected version %d, current %d", expectedVersion, version)), nil
}

// ListOverdueBattles возвращает ID незавершенных боев без принятых
// мутаций с момента cutoff (Unix-секунды). Питает серверную уборку.
func (s *Store) ListOverdueBattles(cutoff int64) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT id FROM battles WHERE result = '' AND updated_at <= ?`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("store: list overdue: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
