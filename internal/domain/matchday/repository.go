package matchday

import "context"

type Repository interface {
	List(ctx context.Context) ([]Matchday, error)
	GetByID(ctx context.Context, id int64) (Matchday, bool, error)
}
