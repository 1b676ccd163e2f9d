package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cppla/yatube/models"
)

func TestCanMutate(t *testing.T) {
	author := &models.User{ID: 3}
	other := &models.User{ID: 4}

	assert.True(t, CanMutate(author, 3))
	assert.False(t, CanMutate(other, 3))
	assert.False(t, CanMutate(nil, 3))
	assert.False(t, CanMutate(&models.User{}, 0))
}
