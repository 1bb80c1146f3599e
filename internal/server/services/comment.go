package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/quickcollab/internal/common"
	"github.com/dmitrijs2005/quickcollab/internal/server/models"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// CommentService reads and appends task comments.
type CommentService struct {
	repomanager repomanager.RepositoryManager
}

func NewCommentService(m repomanager.RepositoryManager) *CommentService {
	return &CommentService{repomanager: m}
}

func (s *CommentService) List(ctx context.Context, userID, taskID string) ([]models.CommentView, error) {
	if taskID == "" {
		return nil, fmt.Errorf("%w: taskId is required", common.ErrorValidation)
	}
	if _, err := loadTask(ctx, s.repomanager, userID, taskID); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Comments().ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return list, nil
}

func (s *CommentService) Add(ctx context.Context, userID, taskID, content string) (*models.CommentView, error) {
	content = strings.TrimSpace(content)
	switch {
	case taskID == "":
		return nil, fmt.Errorf("%w: taskId is required", common.ErrorValidation)
	case content == "":
		return nil, fmt.Errorf("%w: content is required", common.ErrorValidation)
	}

	c := &models.Comment{ID: uuid.NewString(), TaskID: taskID, UserID: userID, Content: content}
	var view *models.CommentView
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if _, err := loadTask(ctx, r, userID, taskID); err != nil {
			return err
		}
		author, err := r.Users().GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		if err := r.Comments().Create(ctx, c); err != nil {
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		view = &models.CommentView{ID: c.ID, Content: c.Content, User: author.View(), CreatedAt: c.CreatedAt, TaskID: c.TaskID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}
