package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Doclaw-Tech-X4/MindEase/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

type Storage struct {
	db *sql.DB
}

func New(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT DEFAULT '',
			priority TEXT DEFAULT 'someday',
			category TEXT DEFAULT 'other',
			due_date DATETIME,
			done_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS reminders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			kind TEXT NOT NULL,
			schedule TEXT NOT NULL,
			is_active INTEGER DEFAULT 1,
			last_fired DATETIME,
			next_run DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_done_at ON tasks(done_at)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks(due_date)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_next_run ON reminders(next_run)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// === Tasks ===

func (s *Storage) CreateTask(t *domain.Task) error {
	res, err := s.db.Exec(
		`INSERT INTO tasks (title, description, priority, category, due_date)
		 VALUES (?, ?, ?, ?, ?)`,
		t.Title, t.Description, t.Priority, t.Category, t.DueDate,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	t.ID = id
	t.CreatedAt = time.Now()
	return nil
}

func (s *Storage) GetTask(id int64) (*domain.Task, error) {
	t := &domain.Task{}
	err := s.db.QueryRow(
		`SELECT id, title, description, priority, category, due_date, done_at, created_at
		 FROM tasks WHERE id = ?`,
		id,
	).Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Category, &t.DueDate, &t.DoneAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (s *Storage) ListTasks(includeDone bool) ([]*domain.Task, error) {
	query := `SELECT id, title, description, priority, category, due_date, done_at, created_at
		FROM tasks`
	if !includeDone {
		query += ` WHERE done_at IS NULL`
	}
	query += ` ORDER BY
		CASE priority WHEN 'urgent' THEN 1 WHEN 'week' THEN 2 ELSE 3 END,
		created_at DESC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

// ListTasksForToday returns open tasks due today plus overdue or undated
// urgent tasks, soonest first.
func (s *Storage) ListTasksForToday(dayStart time.Time) ([]*domain.Task, error) {
	dayEnd := dayStart.Add(24 * time.Hour)

	rows, err := s.db.Query(
		`SELECT id, title, description, priority, category, due_date, done_at, created_at
		 FROM tasks
		 WHERE done_at IS NULL
		   AND (
		     (due_date >= ? AND due_date < ?)
		     OR (priority = 'urgent' AND (due_date IS NULL OR due_date < ?))
		   )
		 ORDER BY
		   CASE priority WHEN 'urgent' THEN 1 WHEN 'week' THEN 2 ELSE 3 END,
		   due_date ASC`,
		dayStart, dayEnd, dayEnd,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

func (s *Storage) MarkTaskDone(id int64) error {
	_, err := s.db.Exec(`UPDATE tasks SET done_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

func (s *Storage) UpdateTaskDueDate(id int64, dueDate *time.Time) error {
	_, err := s.db.Exec(`UPDATE tasks SET due_date = ? WHERE id = ?`, dueDate, id)
	return err
}

func (s *Storage) DeleteTask(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	return err
}

func scanTasks(rows *sql.Rows) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		t := &domain.Task{}
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Category, &t.DueDate, &t.DoneAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// === Reminders ===

func (s *Storage) CreateReminder(r *domain.Reminder) error {
	res, err := s.db.Exec(
		`INSERT INTO reminders (title, kind, schedule, is_active, next_run)
		 VALUES (?, ?, ?, ?, ?)`,
		r.Title, r.Kind, r.Schedule, r.IsActive, r.NextRun,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	r.ID = id
	r.CreatedAt = time.Now()
	return nil
}

func (s *Storage) GetReminder(id int64) (*domain.Reminder, error) {
	r := &domain.Reminder{}
	err := s.db.QueryRow(
		`SELECT id, title, kind, schedule, is_active, last_fired, next_run, created_at
		 FROM reminders WHERE id = ?`,
		id,
	).Scan(&r.ID, &r.Title, &r.Kind, &r.Schedule, &r.IsActive, &r.LastFired, &r.NextRun, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

func (s *Storage) ListReminders() ([]*domain.Reminder, error) {
	rows, err := s.db.Query(
		`SELECT id, title, kind, schedule, is_active, last_fired, next_run, created_at
		 FROM reminders ORDER BY next_run ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReminders(rows)
}

func (s *Storage) ListDueReminders(now time.Time) ([]*domain.Reminder, error) {
	rows, err := s.db.Query(
		`SELECT id, title, kind, schedule, is_active, last_fired, next_run, created_at
		 FROM reminders WHERE is_active = 1 AND next_run <= ?`,
		now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReminders(rows)
}

func (s *Storage) UpdateReminderNextRun(id int64, lastFired, nextRun time.Time) error {
	_, err := s.db.Exec(`UPDATE reminders SET last_fired = ?, next_run = ? WHERE id = ?`, lastFired, nextRun, id)
	return err
}

func (s *Storage) SetReminderActive(id int64, active bool) error {
	_, err := s.db.Exec(`UPDATE reminders SET is_active = ? WHERE id = ?`, active, id)
	return err
}

func (s *Storage) DeleteReminder(id int64) error {
	_, err := s.db.Exec(`DELETE FROM reminders WHERE id = ?`, id)
	return err
}

func scanReminders(rows *sql.Rows) ([]*domain.Reminder, error) {
	var reminders []*domain.Reminder
	for rows.Next() {
		r := &domain.Reminder{}
		if err := rows.Scan(&r.ID, &r.Title, &r.Kind, &r.Schedule, &r.IsActive, &r.LastFired, &r.NextRun, &r.CreatedAt); err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}
