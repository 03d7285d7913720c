package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	ActionPayrollPosted       = "payroll.posted"
	ActionPayrollRunSubmitted = "payroll.run_submitted"

	EntityPayPeriod  = "pay_period"
	EntityPayrollRun = "payroll_run"
)

type Event struct {
	ID         string          `json:"id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Details    json.RawMessage `json:"details,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
}

func (f Filter) matches(evt Event) bool {
	if f.Action != "" && evt.Action != f.Action {
		return false
	}
	if f.EntityType != "" && evt.EntityType != f.EntityType {
		return false
	}
	return true
}

// Service records payroll mutations. Events go to audit_events when DB is
// set and to memory otherwise.
type Service struct {
	DB *pgxpool.Pool

	mu     sync.Mutex
	events []Event
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

func (s *Service) Record(ctx context.Context, action, entityType, entityID, requestID, ip string, details any) error {
	var detailsJSON []byte
	if details != nil {
		payload, err := json.Marshal(details)
		if err != nil {
			return err
		}
		detailsJSON = payload
	}

	if s.DB == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.events = append(s.events, Event{
			ID:         uuid.NewString(),
			Action:     action,
			EntityType: entityType,
			EntityID:   entityID,
			RequestID:  requestID,
			IP:         ip,
			CreatedAt:  time.Now().UTC(),
			Details:    detailsJSON,
		})
		return nil
	}

	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_events (id, action, entity_type, entity_id, details_json, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, uuid.New(), action, entityType, entityID, detailsJSON, requestID, ip)
	return err
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	if s.DB == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		total := 0
		for _, evt := range s.events {
			if filter.matches(evt) {
				total++
			}
		}
		return total, nil
	}

	query, args := buildBaseQuery("SELECT COUNT(1)", filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// List returns events newest first. Details are omitted unless
// includeDetails is set.
func (s *Service) List(ctx context.Context, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	if s.DB == nil {
		return s.listMemory(filter, includeDetails, limit, offset), nil
	}

	selectCols := "id::text, action, entity_type, entity_id, request_id, ip, created_at"
	if includeDetails {
		selectCols += ", details_json"
	}
	query, args := buildBaseQuery("SELECT "+selectCols, filter)
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		dest := []any{&evt.ID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt}
		if includeDetails {
			dest = append(dest, &evt.Details)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func (s *Service) ListExport(ctx context.Context) ([]Event, error) {
	return s.List(ctx, Filter{}, false, 0, 0)
}

func (s *Service) listMemory(filter Filter, includeDetails bool, limit, offset int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for i := len(s.events) - 1; i >= 0; i-- {
		evt := s.events[i]
		if !filter.matches(evt) {
			continue
		}
		if !includeDetails {
			evt.Details = nil
		}
		out = append(out, evt)
	}
	if offset >= len(out) {
		return nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

func buildBaseQuery(prefix string, filter Filter) (string, []any) {
	query := prefix + " FROM audit_events WHERE 1=1"
	var args []any
	if filter.Action != "" {
		args = append(args, filter.Action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		query += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}
	return query, args
}
