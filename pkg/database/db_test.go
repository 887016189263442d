package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type likeRow struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%senior%", ContainsPattern("Senior"))
	assert.Equal(t, `%100\%\_off\\%`, ContainsPattern(`100%_off\`))
}

func TestILikeMatchesLiterally(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&likeRow{}))
	require.NoError(t, db.Create(&[]likeRow{{Name: "Senior Engineer"}, {Name: "100% Remote"}, {Name: "1000 Remote"}}).Error)

	var rows []likeRow
	require.NoError(t, db.Where(ILike("name"), ContainsPattern("SENIOR")).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "Senior Engineer", rows[0].Name)

	rows = nil
	require.NoError(t, db.Where(ILike("name"), ContainsPattern("100%")).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "100% Remote", rows[0].Name)
}
