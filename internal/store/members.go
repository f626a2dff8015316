package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/go-sql-shop/internal/database"
	"github.com/safar/go-sql-shop/internal/models"
)

func CreateMember(ctx context.Context, q database.Querier, member *models.Member) error {
	if member.Name == "" {
		return models.ErrMemberNameRequired
	}

	query := `
		INSERT INTO member (name, city, street, zipcode)
		VALUES ($1, $2, $3, $4)
		RETURNING member_id`

	err := q.QueryRowContext(ctx, query,
		member.Name, member.Address.City, member.Address.Street, member.Address.Zipcode,
	).Scan(&member.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.ErrDuplicateMember
		}
		return fmt.Errorf("create member: %w", err)
	}

	return nil
}

func GetMember(ctx context.Context, q database.Querier, id int64) (*models.Member, error) {
	var row memberRow

	query := `SELECT ` + memberColumns + ` FROM member m WHERE m.member_id = $1`

	if err := q.QueryRowContext(ctx, query, id).Scan(row.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member: %w", err)
	}

	return &row.Member, nil
}

// FindMembersByName returns members whose name equals name exactly.
func FindMembersByName(ctx context.Context, q database.Querier, name string) ([]models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM member m WHERE m.name = $1 ORDER BY m.member_id`

	return queryMembers(ctx, q, query, name)
}

func ListMembers(ctx context.Context, q database.Querier, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM member`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `SELECT ` + memberColumns + ` FROM member m ORDER BY m.member_id LIMIT $1 OFFSET $2`

	members, err := queryMembers(ctx, q, query, pageSize, offset)
	if err != nil {
		return nil, err
	}

	return newOffsetPage(members, total, page, pageSize), nil
}

func queryMembers(ctx context.Context, q database.Querier, query string, args ...any) ([]models.Member, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var row memberRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, row.Member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return members, nil
}
