package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"guardian-service/internal/models"
)

// CreateContact inserts a new emergency contact, generating its UUID when
// not provided.
func (d *DB) CreateContact(ctx context.Context, c models.Contact) (models.Contact, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Category == "" {
		c.Category = models.CategoryFamily
	}

	err := d.Pool.QueryRow(ctx, `
	INSERT INTO contacts (id, user_id, name, phone, email, category, enabled, priority, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	RETURNING created_at, updated_at`,
		c.ID, c.UserID, c.Name, c.Phone, c.Email, c.Category, c.Enabled, c.Priority,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return models.Contact{}, fmt.Errorf("failed to create contact: %w", err)
	}
	return c, nil
}

// GetContact retrieves a contact by id, scoped to its owner.
func (d *DB) GetContact(ctx context.Context, userID int64, id string) (models.Contact, error) {
	var c models.Contact
	err := d.Pool.QueryRow(ctx, `
	SELECT id, user_id, name, phone, email, category, enabled, priority, created_at, updated_at
	FROM contacts
	WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.Email, &c.Category, &c.Enabled, &c.Priority, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Contact{}, ErrNotFound
		}
		return models.Contact{}, fmt.Errorf("failed to get contact %s: %w", id, err)
	}
	return c, nil
}

// GetContactsByUserID returns all contacts for a user ordered by priority.
func (d *DB) GetContactsByUserID(ctx context.Context, userID int64) ([]models.Contact, error) {
	rows, err := d.Pool.Query(ctx, `
	SELECT id, user_id, name, phone, email, category, enabled, priority, created_at, updated_at
	FROM contacts
	WHERE user_id = $1
	ORDER BY priority ASC, created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get contacts for user %d: %w", userID, err)
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.Email, &c.Category, &c.Enabled, &c.Priority, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}


// UpdateContact updates fields of an existing contact.
func (d *DB) UpdateContact(ctx context.Context, c models.Contact) error {
	tag, err := d.Pool.Exec(ctx, `
	UPDATE contacts
	SET name = $1, phone = $2, email = $3, category = $4, enabled = $5, priority = $6, updated_at = NOW()
	WHERE id = $7 AND user_id = $8`,
		c.Name, c.Phone, c.Email, c.Category, c.Enabled, c.Priority, c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("failed to update contact %s: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteContact removes a contact.
func (d *DB) DeleteContact(ctx context.Context, userID int64, id string) error {
	tag, err := d.Pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete contact %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
