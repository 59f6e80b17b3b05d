package domain

// RejectionCode - машинный код отказа. Отказ - это ОЖИДАЕМЫЙ ответ
// мультиплеерного сервера, а не исключение: он возвращается значением
// и переводится клиентом в неблокирующее сообщение.
type RejectionCode string

const (
	RejectIllegalMove    RejectionCode = "ILLEGAL_MOVE"    // Не соседний тайл или юнит не AWAKE
	RejectNotAwake       RejectionCode = "NOT_AWAKE"       // Статус не позволяет действие
	RejectTooFar         RejectionCode = "TOO_FAR"         // Цель дальше, чем разрешают правила
	RejectNotBoundary    RejectionCode = "NOT_BOUNDARY"    // Путешествие начинается только с края сектора
	RejectTravelPending  RejectionCode = "TRAVEL_PENDING"  // finishAt еще не наступил
	RejectStaleVersion   RejectionCode = "STALE_VERSION"   // Версия клиента отстала: перечитай и повтори
	RejectTerminalBattle RejectionCode = "TERMINAL_BATTLE" // Бой уже завершен
	RejectNotReady       RejectionCode = "NOT_READY"       // Готовность ниже порога для этого действия
	RejectUnknownUnit    RejectionCode = "UNKNOWN_UNIT"
	RejectUnknownBattle  RejectionCode = "UNKNOWN_BATTLE"
	RejectUnknownAction  RejectionCode = "UNKNOWN_ACTION"
)

// Rejection - типизированный отказ с человекочитаемой причиной
type Rejection struct {
	Code   RejectionCode `json:"code"`
	Reason string        `json:"reason"`
}

func NewRejection(code RejectionCode, reason string) *Rejection {
	return &Rejection{Code: code, Reason: reason}
}
