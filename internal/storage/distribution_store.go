package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/esgsuite/reportflow/internal/model"
)

// CreateDistributionList implements DistributionStore.CreateDistributionList.
// Recipient collections are stored as JSON arrays.
func (s *SQLiteStore) CreateDistributionList(ctx context.Context, list *model.DistributionList) error {
	if list.ID == "" {
		list.ID = uuid.New().String()
	}
	if list.CreatedAt.IsZero() {
		list.CreatedAt = time.Now().UTC()
	}

	to, err := json.Marshal(list.To)
	if err != nil {
		return storageErr("marshal recipients", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO distribution_lists
		(id, tenant_id, name, description, recipients, cc_recipients, bcc_recipients, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		list.ID,
		list.TenantID,
		list.Name,
		sql.NullString{String: list.Description, Valid: list.Description != ""},
		string(to),
		marshalRecipients(list.CC),
		marshalRecipients(list.BCC),
		list.CreatedAt.UTC(),
	)
	if err != nil {
		return storageErr("create distribution list", err)
	}

	s.logger.Info("Created distribution list",
		zap.String("id", list.ID),
		zap.String("name", list.Name),
		zap.Int("recipients", len(list.To)))
	return nil
}

// GetDistributionList implements DistributionStore.GetDistributionList
func (s *SQLiteStore) GetDistributionList(ctx context.Context, id string) (*model.DistributionList, error) {
	var list model.DistributionList
	var description, cc, bcc sql.NullString
	var to string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, description, recipients, cc_recipients, bcc_recipients, created_at
		FROM distribution_lists WHERE id = ?`, id).Scan(
		&list.ID,
		&list.TenantID,
		&list.Name,
		&description,
		&to,
		&cc,
		&bcc,
		&list.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "distribution list", ID: id}
	}
	if err != nil {
		return nil, storageErr("get distribution list", err)
	}

	list.Description = description.String
	if err := json.Unmarshal([]byte(to), &list.To); err != nil {
		return nil, storageErr("unmarshal recipients", err)
	}
	if list.CC, err = unmarshalRecipients(cc); err != nil {
		return nil, storageErr("unmarshal cc recipients", err)
	}
	if list.BCC, err = unmarshalRecipients(bcc); err != nil {
		return nil, storageErr("unmarshal bcc recipients", err)
	}
	return &list, nil
}

func marshalRecipients(recipients []string) sql.NullString {
	if len(recipients) == 0 {
		return sql.NullString{}
	}
	data, _ := json.Marshal(recipients)
	return sql.NullString{String: string(data), Valid: true}
}

func unmarshalRecipients(col sql.NullString) ([]string, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var recipients []string
	if err := json.Unmarshal([]byte(col.String), &recipients); err != nil {
		return nil, err
	}
	return recipients, nil
}
