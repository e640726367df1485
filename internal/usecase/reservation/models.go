package reservation

import (
	"time"

	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// Config параметры резервирования
type Config struct {
	TTL             time.Duration // время жизни резерва
	Secret          []byte        // ключ HMAC для токенов
	LockTimeout     time.Duration // ожидание блокировки ресурса
	MaintenanceMode bool
}

// Request запрос на резерв или его освобождение
type Request struct {
	EmployeeID string
	BusID      string
	Date       types.Date
}

// ConfirmRequest запрос на подтверждение резерва
type ConfirmRequest struct {
	EmployeeID string
	BusID      string
	Date       types.Date
	Token      string
}

// ReserveResponse выданный резерв
type ReserveResponse struct {
	ResourceKey string
	Token       string
	ExpiresAt   time.Time
	SecondsLeft int
}
