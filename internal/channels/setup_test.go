package channels

import (
	"os"
	"testing"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/logger"
)

func TestMain(m *testing.M) {
	// Глобальный логгер нужен до первого теста
	logger.Init()

	os.Exit(m.Run())
}
