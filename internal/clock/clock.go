package clock

import (
	"time"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/domain"
)

// Readiness переводит время, прошедшее с последнего действия юнита,
// в проценты 0-100. Чистая функция от таймстампов: значение монотонно
// растет до 100 и сбрасывается в ноль ТОЛЬКО в момент, когда хранилище
// принимает новое действие. Клиент может считать её локально для
// отзывчивости интерфейса, но авторитетен только пересчет сервера
// в момент приема действия.
func Readiness(lastActionAt time.Time, cadence time.Duration, now time.Time) int {
	if cadence <= 0 {
		return domain.BandFull
	}

	elapsed := now.Sub(lastActionAt)
	if elapsed <= 0 {
		return 0
	}

	percent := int(100 * elapsed / cadence)
	if percent > domain.BandFull {
		return domain.BandFull
	}
	return percent
}

// AllowsAction проверяет, открыто ли боевое действие при данной готовности
func AllowsAction(readiness int, action domain.ActionType) bool {
	return readiness >= RequiredBand(action)
}

// RequiredBand возвращает минимальный порог готовности для действия
func RequiredBand(action domain.ActionType) int {
	switch action {
	case domain.ActionWait:
		return 0 // Пропуск хода разрешен всегда (механизм живости клиента)
	case domain.ActionMove:
		return domain.BandMove
	case domain.ActionCast:
		return domain.BandPreAction
	case domain.ActionAttack:
		return domain.BandFull
	default:
		return domain.BandFull
	}
}
