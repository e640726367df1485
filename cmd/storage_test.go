package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ShuttleService/internal/config"
)

func TestOpenLockDB_DedicatedPool(t *testing.T) {
	dbCfg := config.DatabaseConfig{
		Driver:       config.DriverPostgres,
		Host:         "db",
		Port:         5432,
		User:         "shuttle",
		DBName:       "shuttle",
		SSLMode:      "disable",
		MaxOpenConns: 25,
	}

	// sql.Open ленивый: сервер для проверки настроек пула не нужен
	first, err := openLockDB(dbCfg, config.LockConfig{Backend: config.BackendPostgres, MaxConns: 4})
	require.NoError(t, err)
	defer first.Close()

	second, err := openLockDB(dbCfg, config.LockConfig{Backend: config.BackendPostgres, MaxConns: 4})
	require.NoError(t, err)
	defer second.Close()

	assert.NotSame(t, first, second)
	assert.Equal(t, 4, first.Stats().MaxOpenConnections)
	assert.Equal(t, 0, first.Stats().OpenConnections)
}
