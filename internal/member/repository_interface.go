package member

import "context"

// Repository reads members and writes their profile columns. Balance columns
// belong to the ledger and are never written here.
type Repository interface {
	GetByID(ctx context.Context, gymID, userID string) (*Member, error)
	ListByGym(ctx context.Context, gymID string) ([]*Member, error)
	UpdateProfile(ctx context.Context, gymID, userID string, fields map[string]string) error
}
