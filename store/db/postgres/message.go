package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/chatrelay/store"
)

// CreateMessage appends one message to the history log.
func (d *DB) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	stmt := `
		INSERT INTO message (uid, content, sender, recipient, mode_hint, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	message := *create
	err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.Content,
		create.Sender,
		create.Recipient,
		create.ModeHint,
		create.CreatedTs,
	).Scan(&message.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create message")
	}
	return &message, nil
}

// ListMessages lists history rows matching the filter.
func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.UID != nil {
		where, args = append(where, fmt.Sprintf("uid = $%d", len(args)+1)), append(args, *find.UID)
	}
	if find.Sender != nil {
		where, args = append(where, fmt.Sprintf("sender = $%d", len(args)+1)), append(args, *find.Sender)
	}
	if find.Recipient != nil {
		where, args = append(where, fmt.Sprintf("recipient = $%d", len(args)+1)), append(args, *find.Recipient)
	}

	order := "DESC"
	if find.Ascending {
		order = "ASC"
	}
	query := fmt.Sprintf(`
		SELECT id, uid, content, sender, recipient, mode_hint, created_ts
		FROM message
		WHERE %s
		ORDER BY id %s
	`, strings.Join(where, " AND "), order)
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
		if find.Offset != nil {
			query += fmt.Sprintf(" OFFSET %d", *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list messages")
	}
	defer rows.Close()

	list := []*store.Message{}
	for rows.Next() {
		var message store.Message
		if err := rows.Scan(
			&message.ID,
			&message.UID,
			&message.Content,
			&message.Sender,
			&message.Recipient,
			&message.ModeHint,
			&message.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan message")
		}
		list = append(list, &message)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return list, nil
}
