package service

import (
	"context"
	"database/sql"

	log "github.com/sirupsen/logrus"

	"github.com/safar/go-sql-shop/internal/database"
	"github.com/safar/go-sql-shop/internal/models"
	"github.com/safar/go-sql-shop/internal/store"
)

type MemberService struct {
	db  *sql.DB
	log *log.Entry
}

func NewMemberService(db *sql.DB, logger *log.Entry) *MemberService {
	return &MemberService{db: db, log: logger}
}

// Join registers a member under a name no other member has.
func (s *MemberService) Join(ctx context.Context, name string, address models.Address) (int64, error) {
	member, err := models.NewMember(name, address)
	if err != nil {
		return 0, err
	}

	err = database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		existing, err := store.FindMembersByName(ctx, tx, name)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return models.ErrDuplicateMember
		}
		return store.CreateMember(ctx, tx, member)
	})
	if err != nil {
		s.log.WithError(err).WithField("name", name).Warn("member join rejected")
		return 0, err
	}

	s.log.WithField("member_id", member.ID).Info("member joined")
	return member.ID, nil
}

func (s *MemberService) FindMember(ctx context.Context, id int64) (*models.Member, error) {
	return store.GetMember(ctx, s.db, id)
}

func (s *MemberService) FindMembers(ctx context.Context, page, pageSize int) (*store.OffsetPage, error) {
	return store.ListMembers(ctx, s.db, page, pageSize)
}
