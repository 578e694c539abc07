package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"farmavida-master/pkg/db/option"
	"farmavida-master/pkg/db/pagination"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type widget struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	repo := ProvideStore[widget](newDB(t))

	require.NoError(t, repo.BatchCreate(ctx, []*widget{
		{ID: "1", Name: "Alpha", Status: "active"},
		{ID: "2", Name: "Beta", Status: "blocked"},
		{ID: "3", Name: "Gamma", Status: "active"},
	}))

	missing, err := repo.FindOne(ctx, &widget{ID: "404"})
	require.NoError(t, err)
	require.Nil(t, missing)

	active, err := repo.Find(ctx, &widget{Status: "active"}, option.WithSortBy(option.QuerySortBy{SortBy: "name", OrderBy: "desc", Allow: map[string]bool{"name": true}}))
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.Equal(t, "Gamma", active[0].Name)

	page, err := repo.Find(ctx, &widget{}, option.ApplyPagination(pagination.Pagination{Page: 2, Limit: 2}))
	require.NoError(t, err)
	require.Len(t, page, 1)

	found, err := repo.Find(ctx, &widget{}, option.WithSearch("ALP", "name"))
	require.NoError(t, err)
	require.Len(t, found, 1)

	require.NoError(t, repo.Update(ctx, "2", map[string]any{"status": "active"}))
	count, err := repo.Count(ctx, &widget{Status: "active"})
	require.NoError(t, err)
	require.EqualValues(t, 3, count)

	require.NoError(t, repo.Delete(ctx, "1"))
	require.ErrorIs(t, repo.Delete(ctx, "1"), gorm.ErrRecordNotFound)
	require.ErrorIs(t, repo.Update(ctx, "404", map[string]any{"status": "x"}), gorm.ErrRecordNotFound)
}
