package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/quickcollab/internal/common"
	"github.com/dmitrijs2005/quickcollab/internal/protocol"
	"github.com/dmitrijs2005/quickcollab/internal/server/models"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// BoardService manages boards and their members. Every call is made on
// behalf of userID, who must be a member of the board involved.
type BoardService struct {
	repomanager repomanager.RepositoryManager
}

func NewBoardService(m repomanager.RepositoryManager) *BoardService {
	return &BoardService{repomanager: m}
}

// requireMember returns common.ErrorNotFound for an unknown board and
// common.ErrorForbidden when userID is not one of its members.
func requireMember(ctx context.Context, r repomanager.Repositories, boardID, userID string) (*models.Board, error) {
	b, err := r.Boards().Get(ctx, boardID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: board %s", common.ErrorNotFound, boardID)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if _, err := r.Boards().Role(ctx, boardID, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: not a member of this board", common.ErrorForbidden)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return b, nil
}

func (s *BoardService) List(ctx context.Context, userID string) ([]models.BoardView, error) {
	list, err := s.repomanager.Boards().ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return list, nil
}

// Create makes userID the owner of a new board.
func (s *BoardService) Create(ctx context.Context, userID, title string) (*models.BoardView, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrorValidation)
	}

	b := &models.Board{ID: uuid.NewString(), Title: title, OwnerID: userID}
	var view *models.BoardView
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if err := r.Boards().Create(ctx, b); err != nil {
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		if err := r.Boards().AddMember(ctx, b.ID, userID, models.RoleOwner); err != nil {
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		var err error
		view, err = s.view(ctx, r, b)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *BoardService) Get(ctx context.Context, userID, boardID string) (*models.BoardView, error) {
	b, err := requireMember(ctx, s.repomanager, boardID, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, s.repomanager, b)
}

func (s *BoardService) Collaborators(ctx context.Context, userID, boardID string) ([]models.Collaborator, error) {
	if _, err := requireMember(ctx, s.repomanager, boardID, userID); err != nil {
		return nil, err
	}
	members, err := s.repomanager.Boards().Members(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return members, nil
}

// Invite adds the registered user with the given email as a collaborator.
// Any member may invite.
func (s *BoardService) Invite(ctx context.Context, userID, boardID, email string) (*models.Collaborator, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", common.ErrorValidation)
	}

	var collab *models.Collaborator
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if _, err := requireMember(ctx, r, boardID, userID); err != nil {
			return err
		}
		invitee, err := r.Users().GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%w: no user with email %s", common.ErrorNotFound, email)
			}
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		if err := r.Boards().AddMember(ctx, boardID, invitee.ID, models.RoleCollaborator); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return fmt.Errorf("%w: %s is already a member", common.ErrorAlreadyExists, invitee.Email)
			}
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		collab = &models.Collaborator{UserID: invitee.ID, Email: invitee.Email, Name: invitee.Name, Role: models.RoleCollaborator}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return collab, nil
}

// AuthorizeRoom decides whether userID may join a realtime room: board
// rooms need board membership, task rooms membership of the task's board.
func (s *BoardService) AuthorizeRoom(ctx context.Context, userID, room string) error {
	kind, id, err := protocol.ParseRoom(room)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	boardID := id
	if kind == protocol.KindTask {
		t, err := s.repomanager.Tasks().Get(ctx, id)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%w: task %s", common.ErrorNotFound, id)
			}
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		boardID = t.BoardID
	}
	_, err = requireMember(ctx, s.repomanager, boardID, userID)
	return err
}

func (s *BoardService) view(ctx context.Context, r repomanager.Repositories, b *models.Board) (*models.BoardView, error) {
	members, err := r.Boards().Members(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	owner, err := r.Users().GetByID(ctx, b.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return &models.BoardView{ID: b.ID, Title: b.Title, Owner: owner.View(), Collaborators: members}, nil
}
