package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sahaya-donation-api/models"
)

// SaveDonation grava o registro da doação após o envio do formulário de
// pagamento. O insert é síncrono: a transição para a etapa final do fluxo
// só acontece se a gravação for bem-sucedida.
func (c *Connection) SaveDonation(ctx context.Context, record *models.DonationRecord) error {
	query := `
        INSERT INTO donations
            (id, phone_number, full_name, email, billing_address, street, city,
             state, zip, country, pan, amount, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	_, err := c.db.ExecContext(ctx, query,
		record.ID, record.PhoneNumber, record.FullName, record.Email,
		record.BillingAddress, record.Street, record.City, record.State,
		record.Zip, record.Country, record.Pan, record.Amount, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting donation: %v", err)
	}

	return nil
}

// GetDonations lista os registros de doação para o painel admin,
// mais recentes primeiro
func (c *Connection) GetDonations(ctx context.Context, limit, offset int) ([]models.DonationRecord, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var total int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM donations").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting donations: %v", err)
	}

	query := `
        SELECT id, phone_number, full_name, email, billing_address, street,
               city, state, zip, country, pan, amount, created_at
        FROM donations
        ORDER BY created_at DESC
        LIMIT ? OFFSET ?
    `

	rows, err := c.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying donations: %v", err)
	}
	defer rows.Close()

	donations := make([]models.DonationRecord, 0, limit)
	for rows.Next() {
		var d models.DonationRecord
		var createdAt time.Time
		if err := rows.Scan(&d.ID, &d.PhoneNumber, &d.FullName, &d.Email,
			&d.BillingAddress, &d.Street, &d.City, &d.State, &d.Zip,
			&d.Country, &d.Pan, &d.Amount, &createdAt); err != nil {
			return nil, 0, fmt.Errorf("error scanning donation: %v", err)
		}
		d.CreatedAt = createdAt
		donations = append(donations, d)
	}

	return donations, total, rows.Err()
}

// GetDonationByID busca um registro de doação específico
func (c *Connection) GetDonationByID(ctx context.Context, id string) (*models.DonationRecord, error) {
	query := `
        SELECT id, phone_number, full_name, email, billing_address, street,
               city, state, zip, country, pan, amount, created_at
        FROM donations
        WHERE id = ?
    `

	var d models.DonationRecord
	err := c.db.QueryRowContext(ctx, query, id).Scan(&d.ID, &d.PhoneNumber,
		&d.FullName, &d.Email, &d.BillingAddress, &d.Street, &d.City,
		&d.State, &d.Zip, &d.Country, &d.Pan, &d.Amount, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching donation %s: %v", id, err)
	}

	return &d, nil
}
