package psqlbuilder

import (
	"fmt"

	"github.com/Masterminds/squirrel"
)

// Dialect SQL-диалект хранилища
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Validate проверяет, что диалект поддерживается
func (d Dialect) Validate() error {
	switch d {
	case Postgres, SQLite:
		return nil
	default:
		return fmt.Errorf("psqlbuilder: unsupported dialect %q", string(d))
	}
}

// New возвращает squirrel builder с плейсхолдерами нужного диалекта
// postgres: $1, $2 ... ; sqlite: ?
func New(d Dialect) squirrel.StatementBuilderType {
	if d == SQLite {
		return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
	}
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}
