// Package store persists submitted tickets and their routing decisions in
// SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/supportstack/triage"
)

// Ticket statuses.
const (
	StatusNew        = "new"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

// ErrNotFound is returned when a ticket ID does not exist.
var ErrNotFound = errors.New("ticket not found")

// Ticket is a submitted support ticket together with its classification and
// routing outcome.
type Ticket struct {
	ID                string          `json:"ticket_id"`
	CustomerName      string          `json:"customer_name"`
	CustomerEmail     string          `json:"customer_email"`
	Subject           string          `json:"subject"`
	Description       string          `json:"description"`
	PredictedCategory string          `json:"predicted_category"`
	Confidence        float64         `json:"confidence_score"`
	Department        string          `json:"department"`
	Priority          triage.Priority `json:"priority"`
	SLAHours          int             `json:"sla_hours"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
}

// TicketStore persists tickets in a SQLite database.
type TicketStore struct {
	db *sql.DB
}

// NewTicketStore opens (or creates) the SQLite database at dbPath and runs
// migrations. The parent directory is created if it doesn't exist.
func NewTicketStore(dbPath string) (*TicketStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &TicketStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return store, nil
}

// migrate creates the tickets table if it doesn't exist.
func (s *TicketStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tickets (
		id TEXT PRIMARY KEY,
		customer_name TEXT NOT NULL,
		customer_email TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL,
		description TEXT NOT NULL,
		predicted_category TEXT NOT NULL,
		confidence_score REAL NOT NULL DEFAULT 0,
		department TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT 'medium',
		sla_hours INTEGER NOT NULL DEFAULT 24,
		status TEXT NOT NULL DEFAULT 'new',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tickets_created_at ON tickets(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_tickets_category ON tickets(predicted_category);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Create inserts a new ticket. A missing ID or CreatedAt is filled in.
func (s *TicketStore) Create(ctx context.Context, ticket *Ticket) error {
	if ticket == nil {
		return errors.New("ticket cannot be nil")
	}
	if ticket.ID == "" {
		ticket.ID = uuid.New().String()
	}
	if ticket.Status == "" {
		ticket.Status = StatusNew
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO tickets (
		id, customer_name, customer_email, subject, description,
		predicted_category, confidence_score, department, priority,
		sla_hours, status, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		ticket.ID,
		ticket.CustomerName,
		ticket.CustomerEmail,
		ticket.Subject,
		ticket.Description,
		ticket.PredictedCategory,
		ticket.Confidence,
		ticket.Department,
		string(ticket.Priority),
		ticket.SLAHours,
		ticket.Status,
		ticket.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

// Get returns the ticket with the given ID.
func (s *TicketStore) Get(ctx context.Context, id string) (*Ticket, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT id, customer_name, customer_email, subject, description,
		predicted_category, confidence_score, department, priority,
		sla_hours, status, created_at
	FROM tickets WHERE id = ?`, id)

	ticket, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return ticket, nil
}

// Recent returns the most recently created tickets, newest first.
func (s *TicketStore) Recent(ctx context.Context, limit int) ([]*Ticket, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT id, customer_name, customer_email, subject, description,
		predicted_category, confidence_score, department, priority,
		sla_hours, status, created_at
	FROM tickets ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

// Count returns the total number of stored tickets.
func (s *TicketStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	return count, nil
}

// Close closes the underlying database.
func (s *TicketStore) Close() error {
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTicket(row scanner) (*Ticket, error) {
	var t Ticket
	var priority, createdAt string

	err := row.Scan(
		&t.ID, &t.CustomerName, &t.CustomerEmail, &t.Subject, &t.Description,
		&t.PredictedCategory, &t.Confidence, &t.Department, &priority,
		&t.SLAHours, &t.Status, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	t.Priority = triage.Priority(priority)
	t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &t, nil
}
