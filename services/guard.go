package services

import "github.com/cppla/yatube/models"

// CanMutate reports whether identity may edit or delete a record written by authorID.
// A nil identity is anonymous and may never mutate.
func CanMutate(identity *models.User, authorID uint) bool {
	return identity != nil && identity.ID != 0 && identity.ID == authorID
}
