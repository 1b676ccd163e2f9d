package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/services"
)

func TestDeleteUserCascades(t *testing.T) {
	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: "file:cmd_users?mode=memory&cache=shared",
		LogLevel:    "silent",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	leo := &models.User{Username: "leo"}
	kim := &models.User{Username: "kim"}
	require.NoError(t, db.Create(leo).Error)
	require.NoError(t, db.Create(kim).Error)
	post := &models.Post{Text: "bye", AuthorID: leo.ID}
	require.NoError(t, db.Omit(clause.Associations).Create(post).Error)
	require.NoError(t, db.Omit(clause.Associations).Create(&models.Comment{PostID: post.ID, AuthorID: kim.ID, Text: "ok"}).Error)
	require.NoError(t, db.Omit(clause.Associations).Create(&models.Follow{UserID: kim.ID, AuthorID: leo.ID}).Error)

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	users := services.NewUsers(db)

	require.NoError(t, deleteUser(cmd, users, "leo"))
	assert.Contains(t, out.String(), `deleted user "leo"`)

	for _, model := range []interface{}{&models.Post{}, &models.Comment{}, &models.Follow{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}
	_, err = users.ByUsername(context.Background(), "kim")
	assert.NoError(t, err)

	err = deleteUser(cmd, users, "leo")
	assert.ErrorIs(t, err, services.ErrNotFound)
}
