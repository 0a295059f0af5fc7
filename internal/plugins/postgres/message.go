package postgres

import (
	"context"
	"database/sql"

	"github.com/swagculi/chatapp/internal/core/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) Save(ctx context.Context, msg *domain.Message) error {
	if msg.SenderID == "" || msg.ReceiverID == "" {
		return domain.ErrInvalidUserID
	}
	exec := executor(ctx, r.db)
	_, err := exec.ExecContext(ctx, `
        INSERT INTO messages (
            id, sender_id, receiver_id, text, image, seen, created_at
        ) VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7)
    `,
		msg.ID,
		msg.SenderID,
		msg.ReceiverID,
		msg.Text,
		msg.Image,
		msg.Seen,
		msg.CreatedAt,
	)
	return err
}

func (r *MessageRepo) Conversation(ctx context.Context, viewerID, peerID string) ([]domain.Message, error) {
	if viewerID == "" || peerID == "" {
		return nil, domain.ErrInvalidUserID
	}
	exec := executor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id,
		       COALESCE(text, ''), COALESCE(image, ''), seen, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC
	`, viewerID, peerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(
			&m.ID,
			&m.SenderID,
			&m.ReceiverID,
			&m.Text,
			&m.Image,
			&m.Seen,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MarkSeen is monotonic: it only ever moves seen from false to true, so
// repeating it changes nothing.
func (r *MessageRepo) MarkSeen(ctx context.Context, viewerID, peerID string) (int64, error) {
	if viewerID == "" || peerID == "" {
		return 0, domain.ErrInvalidUserID
	}
	exec := executor(ctx, r.db)
	res, err := exec.ExecContext(ctx, `
        UPDATE messages
        SET seen = TRUE
        WHERE receiver_id = $1 AND sender_id = $2 AND seen = FALSE
    `, viewerID, peerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *MessageRepo) UnreadCounts(ctx context.Context, viewerID string) (map[string]int, error) {
	if viewerID == "" {
		return nil, domain.ErrInvalidUserID
	}
	exec := executor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT sender_id, COUNT(*)
		FROM messages
		WHERE receiver_id = $1 AND seen = FALSE
		GROUP BY sender_id
	`, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var senderID string
		var n int
		if err := rows.Scan(&senderID, &n); err != nil {
			return nil, err
		}
		counts[senderID] = n
	}
	return counts, rows.Err()
}
