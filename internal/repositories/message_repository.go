package repositories

import (
	"context"
	"errors"
	"time"

	"medivault-server/internal/models"

	"gorm.io/gorm"
)

const conversationClause = "(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)"

// GormMessageRepository implements MessageRepository on gorm.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GormMessageRepository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *GormMessageRepository) ListConversation(ctx context.Context, userA, userB string, limit int) ([]models.Message, error) {
	query := r.db.WithContext(ctx).
		Where(conversationClause, userA, userB, userB, userA).
		Order("sent_at desc, id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var messages []models.Message
	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}
	models.SortConversation(messages)
	return messages, nil
}

func (r *GormMessageRepository) LastMessage(ctx context.Context, userA, userB string) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).
		Where(conversationClause, userA, userB, userB, userA).
		Order("sent_at desc, id desc").
		First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &message, nil
}

func (r *GormMessageRepository) MarkRead(ctx context.Context, senderID, receiverID string, readAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND read_at IS NULL AND sent_at <= ?", senderID, receiverID, readAt).
		Update("read_at", readAt)
	return res.RowsAffected, res.Error
}

func (r *GormMessageRepository) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND read_at IS NULL", receiverID).
		Count(&count).Error
	return count, err
}

func (r *GormMessageRepository) CountUnreadFrom(ctx context.Context, senderID, receiverID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND read_at IS NULL", senderID, receiverID).
		Count(&count).Error
	return count, err
}

func (r *GormMessageRepository) ListPartnerIDs(ctx context.Context, userID string) ([]string, error) {
	var partnerIDs []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT partner_id FROM (
			SELECT receiver_id AS partner_id FROM messages WHERE sender_id = ?
			UNION
			SELECT sender_id AS partner_id FROM messages WHERE receiver_id = ?
		) AS partners
	`, userID, userID).Scan(&partnerIDs).Error
	if err != nil {
		return nil, err
	}
	return partnerIDs, nil
}
