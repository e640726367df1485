package bus

import "errors"

var (
	// ErrBusNotFound возвращается, когда автобус не найден в каталоге
	ErrBusNotFound = errors.New("bus.repository: bus not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("bus.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("bus.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("bus.repository: failed to scan row")
)
