package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_b.sql":   {Data: []byte("CREATE TABLE b();")},
		"001_a.sql":   {Data: []byte("CREATE TABLE a();")},
		"010_c.sql":   {Data: []byte("CREATE TABLE c();")},
		"README.md":   {Data: []byte("ignored")},
		"notes.sql":   {Data: []byte("no prefix")},
		"x_wrong.sql": {Data: []byte("non numeric")},
	}

	got, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{got[0].Version, got[1].Version, got[2].Version})
	assert.Equal(t, "CREATE TABLE a();", got[0].SQL)
}

func TestLoadMigrationsDuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"001_a.sql":     {Data: []byte("a")},
		"001_again.sql": {Data: []byte("b")},
	}
	_, err := LoadMigrations(fsys)
	assert.Error(t, err)
}

func TestConfigStrings(t *testing.T) {
	c := Config{Host: "db", Port: 5432, User: "app", Password: "p@ss", DBName: "healthmarket"}
	assert.Equal(t, "host=db port=5432 user=app password=p@ss dbname=healthmarket sslmode=disable", c.DSN())
	assert.Equal(t, "postgres://app:p%40ss@db:5432/healthmarket?sslmode=disable", c.URL())
}
