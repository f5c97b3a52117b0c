package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/begari-sampath/crm-backend/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

const leadColumns = `
	id, name, phone, email, industry, service, source, type,
	status, assigned_agent_id, assigned_agent_name, follow_up_date,
	temperature, interests, remarks,
	whatsapp_sent, email_sent, quotation_sent, sample_work_sent,
	created_at, updated_at`

func (r *LeadRepository) Select(ctx context.Context, filter entity.LeadFilter) ([]*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads`
	var args []interface{}
	var where []string

	if filter.AssignedAgentID != nil {
		args = append(args, *filter.AssignedAgentID)
		where = append(where, fmt.Sprintf("assigned_agent_id = $%d", len(args)))
	}
	if filter.Unassigned {
		where = append(where, "assigned_agent_id IS NULL")
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY updated_at DESC, id"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*entity.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)

	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func (r *LeadRepository) Upsert(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			industry = EXCLUDED.industry,
			service = EXCLUDED.service,
			source = EXCLUDED.source,
			type = EXCLUDED.type,
			status = EXCLUDED.status,
			assigned_agent_id = EXCLUDED.assigned_agent_id,
			assigned_agent_name = EXCLUDED.assigned_agent_name,
			follow_up_date = EXCLUDED.follow_up_date,
			temperature = EXCLUDED.temperature,
			interests = EXCLUDED.interests,
			remarks = EXCLUDED.remarks,
			whatsapp_sent = EXCLUDED.whatsapp_sent,
			email_sent = EXCLUDED.email_sent,
			quotation_sent = EXCLUDED.quotation_sent,
			sample_work_sent = EXCLUDED.sample_work_sent,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.DB.ExecContext(ctx, query, leadArgs(lead)...)
	return err
}

// Assign points the selected leads at an agent and refreshes updated_at in
// the same statement. Returns how many rows actually changed.
func (r *LeadRepository) Assign(ctx context.Context, leadIDs []string, agentID, agentName string, now time.Time) (int, error) {
	query := `
		UPDATE leads
		SET assigned_agent_id = $1,
			assigned_agent_name = $2,
			updated_at = $3
		WHERE id = ANY($4)
	`

	result, err := r.DB.ExecContext(ctx, query, agentID, agentName, now, pq.Array(leadIDs))
	if err != nil {
		return 0, err
	}

	affected, err := result.RowsAffected()
	return int(affected), err
}

// ReplaceAll swaps the entire collection for the given one in a single
// transaction: the CSV import is a deliberate replace, not a merge, and a
// failed import must leave the previous collection intact.
func (r *LeadRepository) ReplaceAll(ctx context.Context, leads []*entity.Lead) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM leads`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, lead := range leads {
		if _, err := stmt.ExecContext(ctx, leadArgs(lead)...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

func leadArgs(lead *entity.Lead) []interface{} {
	interests := make([]string, 0, len(lead.Interests))
	for _, i := range lead.Interests {
		interests = append(interests, string(i))
	}

	return []interface{}{
		lead.ID,
		lead.Name,
		lead.Phone,
		lead.Email,
		lead.Industry,
		lead.Service,
		lead.Source,
		lead.Type,
		string(lead.Status),
		lead.AssignedAgentID,
		lead.AssignedAgentName,
		lead.FollowUpDate,
		string(lead.Temperature),
		pq.Array(interests),
		lead.Remarks,
		lead.WhatsappSent,
		lead.EmailSent,
		lead.QuotationSent,
		lead.SampleWorkSent,
		lead.CreatedAt,
		lead.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var lead entity.Lead
	var status, temperature string
	var interests pq.StringArray

	err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Phone,
		&lead.Email,
		&lead.Industry,
		&lead.Service,
		&lead.Source,
		&lead.Type,
		&status,
		&lead.AssignedAgentID,
		&lead.AssignedAgentName,
		&lead.FollowUpDate,
		&temperature,
		&interests,
		&lead.Remarks,
		&lead.WhatsappSent,
		&lead.EmailSent,
		&lead.QuotationSent,
		&lead.SampleWorkSent,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	lead.Status = entity.LeadStatus(status)
	lead.Temperature = entity.Temperature(temperature)
	for _, i := range interests {
		lead.Interests = append(lead.Interests, entity.Interest(i))
	}
	return &lead, nil
}
