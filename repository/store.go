package repository

import "gorm.io/gorm"

// Store bundles the profile and conversation repositories over one connection
type Store struct {
	*GORMRepository
	*ConversationRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		GORMRepository:         NewGORMRepository(db),
		ConversationRepository: NewConversationRepository(db),
	}
}
