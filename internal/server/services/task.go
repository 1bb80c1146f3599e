package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/quickcollab/internal/common"
	"github.com/dmitrijs2005/quickcollab/internal/server/models"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// TaskService manages tasks. Each successful mutation leaves the task with
// a version one higher than before; creation starts at 1.
type TaskService struct {
	repomanager repomanager.RepositoryManager
}

func NewTaskService(m repomanager.RepositoryManager) *TaskService {
	return &TaskService{repomanager: m}
}

func validateTask(t *models.Task) error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return fmt.Errorf("%w: title is required", common.ErrorValidation)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", common.ErrorValidation, t.Status)
	}
	return nil
}

// checkAssignee lets an empty assignee through; anyone else must be a
// member of the board.
func checkAssignee(ctx context.Context, r repomanager.Repositories, boardID, assignee string) error {
	if assignee == "" {
		return nil
	}
	if _, err := r.Boards().Role(ctx, boardID, assignee); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: assignee is not a member of this board", common.ErrorValidation)
		}
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return nil
}

// loadTask fetches the task and checks that userID belongs to its board.
func loadTask(ctx context.Context, r repomanager.Repositories, userID, taskID string) (*models.Task, error) {
	t, err := r.Tasks().Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: task %s", common.ErrorNotFound, taskID)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if _, err := requireMember(ctx, r, t.BoardID, userID); err != nil {
		return nil, err
	}
	return t, nil
}

// TaskVersion returns the stored version of a task without a membership
// check.
func (s *TaskService) TaskVersion(ctx context.Context, taskID string) (int64, error) {
	t, err := s.repomanager.Tasks().Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, fmt.Errorf("%w: task %s", common.ErrorNotFound, taskID)
		}
		return 0, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return t.Version, nil
}

func (s *TaskService) List(ctx context.Context, userID, boardID string) ([]models.Task, error) {
	if boardID == "" {
		return nil, fmt.Errorf("%w: boardId is required", common.ErrorValidation)
	}
	if _, err := requireMember(ctx, s.repomanager, boardID, userID); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Tasks().ListByBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return list, nil
}

// Create adds a task to in.BoardID. An empty status means "To Do".
func (s *TaskService) Create(ctx context.Context, userID string, in models.NewTask) (*models.Task, error) {
	t := &models.Task{
		ID:          uuid.NewString(),
		BoardID:     in.BoardID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		DueDate:     in.DueDate,
		AssignedTo:  in.AssignedTo,
		Tags:        in.Tags,
	}
	if t.Status == "" {
		t.Status = models.StatusTodo
	}
	if t.BoardID == "" {
		return nil, fmt.Errorf("%w: boardId is required", common.ErrorValidation)
	}
	if err := validateTask(t); err != nil {
		return nil, err
	}

	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if _, err := requireMember(ctx, r, t.BoardID, userID); err != nil {
			return err
		}
		if err := checkAssignee(ctx, r, t.BoardID, t.AssignedTo); err != nil {
			return err
		}
		if err := r.Tasks().Create(ctx, t); err != nil {
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Update applies the fields present in patch.
func (s *TaskService) Update(ctx context.Context, userID, taskID string, patch models.TaskPatch) (*models.Task, error) {
	return s.mutate(ctx, userID, taskID, func(t *models.Task) { t.Apply(patch) }, patch.AssignedTo != nil)
}

// Assign sets the assignee; an empty assignee clears it.
func (s *TaskService) Assign(ctx context.Context, userID, taskID, assignee string) (*models.Task, error) {
	return s.mutate(ctx, userID, taskID, func(t *models.Task) { t.AssignedTo = assignee }, true)
}

func (s *TaskService) mutate(ctx context.Context, userID, taskID string, change func(*models.Task), assigneeChanged bool) (*models.Task, error) {
	var result *models.Task
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		t, err := loadTask(ctx, r, userID, taskID)
		if err != nil {
			return err
		}
		change(t)
		if err := validateTask(t); err != nil {
			return err
		}
		if assigneeChanged {
			if err := checkAssignee(ctx, r, t.BoardID, t.AssignedTo); err != nil {
				return err
			}
		}
		if err := r.Tasks().Update(ctx, t); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%w: task %s", common.ErrorNotFound, taskID)
			}
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the task together with its comments.
func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	return s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if _, err := loadTask(ctx, r, userID, taskID); err != nil {
			return err
		}
		if err := r.Tasks().Delete(ctx, taskID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%w: task %s", common.ErrorNotFound, taskID)
			}
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		return nil
	})
}
