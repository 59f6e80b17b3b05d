package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/logger"
)

// Store - авторитетное хранилище позиций юнитов и состояния боев.
// Вся дисциплина конкуренции построена на условных UPDATE: предикат
// сравнения живет в WHERE, успех определяется числом затронутых строк.
// Никакого read-modify-write в коде приложения и никаких глобальных локов:
// запросы к разным сущностям идут параллельно, запросы к одной
// линеаризуются самим условным апдейтом.
type Store struct {
	db *sql.DB

	// Now подменяется в тестах для детерминированных таймстампов
	Now func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS units (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL DEFAULT '',
	sector_id      TEXT NOT NULL,
	battle_id      TEXT NOT NULL DEFAULT '',
	dest_sector    TEXT NOT NULL DEFAULT '',
	pos_col        INTEGER NOT NULL,
	pos_row        INTEGER NOT NULL,
	status         TEXT NOT NULL,
	hp             INTEGER NOT NULL,
	max_hp         INTEGER NOT NULL,
	strength       INTEGER NOT NULL DEFAULT 10,
	finish_at      INTEGER NOT NULL DEFAULT 0,
	last_action_at INTEGER NOT NULL,
	updated_at     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS battles (
	id         TEXT PRIMARY KEY,
	arena_seed INTEGER NOT NULL,
	state      TEXT NOT NULL,
	version    INTEGER NOT NULL,
	result     TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_units_sector ON units(sector_id);
CREATE INDEX IF NOT EXISTS idx_battles_open ON battles(result, updated_at);
`

// Open открывает (или создает) базу и поднимает схему
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store: empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	// Один коннект: sqlite сам сериализует писателей, а нам важно,
	// чтобы условные апдейты не ловили SQLITE_BUSY
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			logger.Log.WithError(cerr).Warn("failed to close db after schema error")
		}
		return nil, fmt.Errorf("store: schema: %w", err)
	}

	return &Store{db: db, Now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
