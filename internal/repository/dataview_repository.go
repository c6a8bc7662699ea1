package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DataViewRepository resolves qualifying data-view membership for the
// data-view filter. Only the persisted member-id set is read; evaluation of
// the view itself happens upstream.
type DataViewRepository struct {
	db *sqlx.DB
}

// NewDataViewRepository constructs a DataViewRepository.
func NewDataViewRepository(db *sqlx.DB) *DataViewRepository {
	return &DataViewRepository{db: db}
}

// MemberIDs returns the persisted person-id set of a data view.
func (r *DataViewRepository) MemberIDs(ctx context.Context, dataViewID string) (map[string]struct{}, error) {
	var ids []string
	query := `SELECT person_id FROM data_view_members WHERE data_view_id = $1`
	if err := r.db.SelectContext(ctx, &ids, query, dataViewID); err != nil {
		return nil, fmt.Errorf("load data view members %s: %w", dataViewID, err)
	}
	members := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		members[id] = struct{}{}
	}
	return members, nil
}
