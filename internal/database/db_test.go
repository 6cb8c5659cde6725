package database

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	p := Params{User: "app", Pass: "p@ss:word", Host: "db", Port: "3306", Name: "reservations"}

	cfg, err := mysql.ParseDSN(p.DSN())
	require.NoError(t, err)
	assert.Equal(t, "app", cfg.User)
	assert.Equal(t, "p@ss:word", cfg.Passwd)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "reservations", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, "UTC", cfg.Loc.String())
}

func TestSchemaCoversEveryTable(t *testing.T) {
	joined := ""
	for _, s := range schema {
		joined += s
	}
	for _, table := range []string{"sections", "section_combine_limits", "dining_tables", "reservations", "reservation_tables", "menu_items", "reservation_items", "staff", "refresh_tokens"} {
		assert.Contains(t, joined, "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
}
