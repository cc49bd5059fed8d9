package conversations

import (
	"context"
	"time"

	"github.com/angelmondragon/taxchat-backend/pkg/db"
	"github.com/angelmondragon/taxchat-backend/pkg/db/models"
	"github.com/angelmondragon/taxchat-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists users, sessions and QA pairs for the chat flow.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a conversations repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repo bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ResolveUser returns the user with email, creating it from profile when
// absent. Existing profile fields are never overwritten.
func (r *Repository) ResolveUser(ctx context.Context, email string, profile Profile, now time.Time) (*models.User, error) {
	user, err := r.findUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !db.IsNotFound(err) {
		return nil, err
	}

	user = &models.User{
		Email:      email,
		Name:       profile.Name,
		Phone:      profile.Phone,
		Country:    profile.Country,
		State:      profile.State,
		CreatedAt:  now,
		LastActive: now,
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(user)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// lost a race with a concurrent insert of the same email
		return r.findUserByEmail(ctx, email)
	}
	return user, nil
}

func (r *Repository) findUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ResolveOpenSession returns the user's most recent open session or opens a
// new one with topic. The partial unique index on open sessions turns a
// concurrent insert into a no-op followed by a re-read.
func (r *Repository) ResolveOpenSession(ctx context.Context, userID int64, topic string, now time.Time) (*models.ChatSession, error) {
	session, err := r.findOpenSession(ctx, userID)
	if err == nil {
		return session, nil
	}
	if !db.IsNotFound(err) {
		return nil, err
	}

	session = &models.ChatSession{UserID: userID, StartTime: now, Topic: topic}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(session)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return r.findOpenSession(ctx, userID)
	}
	return session, nil
}

func (r *Repository) findOpenSession(ctx context.Context, userID int64) (*models.ChatSession, error) {
	var session models.ChatSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND end_time IS NULL", userID).
		Order("start_time DESC").
		Order("id DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// RecordExchange inserts one QA pair and returns it with its generated id.
func (r *Repository) RecordExchange(ctx context.Context, userID, sessionID int64, question, answer string, category enums.TaxCategory, now time.Time) (*models.QAPair, error) {
	qa := &models.QAPair{
		UserID:    userID,
		SessionID: sessionID,
		Question:  question,
		Answer:    answer,
		Category:  category,
		CreatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(qa).Error; err != nil {
		return nil, err
	}
	return qa, nil
}

// FindSession loads a session by id.
func (r *Repository) FindSession(ctx context.Context, sessionID int64) (*models.ChatSession, error) {
	var session models.ChatSession
	if err := r.db.WithContext(ctx).First(&session, "id = ?", sessionID).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// CloseSession sets end_time when the session is still open. It reports
// whether a row changed.
func (r *Repository) CloseSession(ctx context.Context, sessionID int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("id = ? AND end_time IS NULL", sessionID).
		UpdateColumn("end_time", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CloseOpenSessions closes every open session of the user.
func (r *Repository) CloseOpenSessions(ctx context.Context, userID int64, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("user_id = ? AND end_time IS NULL", userID).
		UpdateColumn("end_time", at)
	return res.RowsAffected, res.Error
}

// CreateSession inserts a new open session.
func (r *Repository) CreateSession(ctx context.Context, userID int64, topic string, at time.Time) (*models.ChatSession, error) {
	session := &models.ChatSession{UserID: userID, StartTime: at, Topic: topic}
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// DeleteSession removes a session with its QA pairs and their feedback.
func (r *Repository) DeleteSession(ctx context.Context, sessionID int64) (int64, error) {
	conn := r.db.WithContext(ctx)
	qaIDs := conn.Model(&models.QAPair{}).Select("id").Where("session_id = ?", sessionID)
	if err := conn.Where("chat_id IN (?)", qaIDs).Delete(&models.Feedback{}).Error; err != nil {
		return 0, err
	}
	if err := conn.Where("session_id = ?", sessionID).Delete(&models.QAPair{}).Error; err != nil {
		return 0, err
	}
	res := conn.Where("id = ?", sessionID).Delete(&models.ChatSession{})
	return res.RowsAffected, res.Error
}

// ListSessions returns the user's sessions newest first with message counts.
// limit <= 0 returns every session.
func (r *Repository) ListSessions(ctx context.Context, userID int64, limit int) ([]SessionSummary, error) {
	var rows []SessionSummary
	q := r.db.WithContext(ctx).
		Table("chat_sessions AS s").
		Select("s.id, s.user_id, s.start_time, s.end_time, s.topic, COUNT(q.id) AS message_count").
		Joins("LEFT JOIN qa_pairs AS q ON q.session_id = s.id").
		Where("s.user_id = ?", userID).
		Group("s.id, s.user_id, s.start_time, s.end_time, s.topic").
		Order("s.start_time DESC").
		Order("s.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListQAPairs returns the QA pairs of the given sessions oldest first.
func (r *Repository) ListQAPairs(ctx context.Context, sessionIDs []int64) ([]models.QAPair, error) {
	if len(sessionIDs) == 0 {
		return []models.QAPair{}, nil
	}
	var rows []models.QAPair
	err := r.db.WithContext(ctx).
		Where("session_id IN ?", sessionIDs).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindUserByEmail loads a user by email.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findUserByEmail(ctx, email)
}
