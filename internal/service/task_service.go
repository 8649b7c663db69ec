package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/Doclaw-Tech-X4/MindEase/internal/domain"
	"github.com/Doclaw-Tech-X4/MindEase/internal/storage"
)

type TaskService struct {
	storage  *storage.Storage
	timezone *time.Location
}

func NewTaskService(s *storage.Storage, tz *time.Location) *TaskService {
	if tz == nil {
		tz = time.Local
	}
	return &TaskService{storage: s, timezone: tz}
}

func (s *TaskService) Create(title, description string, priority domain.Priority, category domain.Category, due *time.Time) (*domain.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("task title cannot be empty")
	}

	if priority == "" {
		priority = domain.PrioritySomeday
	}

	task := &domain.Task{
		Title:       title,
		Description: strings.TrimSpace(description),
		Priority:    priority,
		Category:    domain.ParseCategory(string(category)),
		DueDate:     due,
	}

	if err := s.storage.CreateTask(task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	return task, nil
}

func (s *TaskService) List(includeDone bool) ([]*domain.Task, error) {
	return s.storage.ListTasks(includeDone)
}

func (s *TaskService) ListForToday() ([]*domain.Task, error) {
	dayStart := domain.StartOfDay(time.Now().In(s.timezone))
	return s.storage.ListTasksForToday(dayStart)
}

func (s *TaskService) MarkDone(taskID int64) error {
	task, err := s.storage.GetTask(taskID)
	if err != nil {
		return fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return fmt.Errorf("task not found")
	}

	return s.storage.MarkTaskDone(taskID)
}

func (s *TaskService) Reschedule(taskID int64, due *time.Time) error {
	task, err := s.storage.GetTask(taskID)
	if err != nil {
		return fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return fmt.Errorf("task not found")
	}

	return s.storage.UpdateTaskDueDate(taskID, due)
}

func (s *TaskService) Delete(taskID int64) error {
	task, err := s.storage.GetTask(taskID)
	if err != nil {
		return fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return fmt.Errorf("task not found")
	}

	return s.storage.DeleteTask(taskID)
}

// FormatTaskList renders tasks for terminal output.
func (s *TaskService) FormatTaskList(tasks []*domain.Task) string {
	if len(tasks) == 0 {
		return "No tasks"
	}

	var sb strings.Builder
	for _, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = " (due " + t.DueDate.In(s.timezone).Format("Jan 02") + ")"
		}
		done := " "
		if t.IsDone() {
			done = "x"
		}
		sb.WriteString(fmt.Sprintf("[%s]%s #%d %s%s\n", done, t.PriorityMarker(), t.ID, t.Title, due))
	}
	return sb.String()
}
