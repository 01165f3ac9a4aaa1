package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"savdesk/apperr"
	"savdesk/database"
)

type PieceRechangeRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewPieceRechangeRepository(db *gorm.DB, log *zap.Logger) *PieceRechangeRepository {
	return &PieceRechangeRepository{db: db, log: log}
}

func (r *PieceRechangeRepository) WithTx(tx *gorm.DB) *PieceRechangeRepository {
	return &PieceRechangeRepository{db: tx, log: r.log}
}

func (r *PieceRechangeRepository) GetAll(ctx context.Context) ([]database.PieceRechange, error) {
	var pieces []database.PieceRechange
	if err := r.db.WithContext(ctx).Order("id").Find(&pieces).Error; err != nil {
		r.log.Error("Error getting pieces", zap.Error(err))
		return nil, translate("list pieces", err)
	}
	return pieces, nil
}

func (r *PieceRechangeRepository) GetByArticle(ctx context.Context, articleID uint) ([]database.PieceRechange, error) {
	if err := r.articleExists(ctx, articleID); err != nil {
		return nil, err
	}
	var pieces []database.PieceRechange
	if err := r.db.WithContext(ctx).Where("article_id = ?", articleID).Order("id").Find(&pieces).Error; err != nil {
		return nil, translate("list article pieces", err)
	}
	return pieces, nil
}

func (r *PieceRechangeRepository) GetByID(ctx context.Context, id uint) (*database.PieceRechange, error) {
	if id == 0 {
		return nil, apperr.Validation("Invalid piece ID")
	}
	var piece database.PieceRechange
	err := r.db.WithContext(ctx).First(&piece, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		r.log.Warn("Piece not found", zap.Uint("id", id))
		return nil, apperr.NotFound("Piece with ID %d not found", id)
	}
	if err != nil {
		return nil, translate("get piece", err)
	}
	return &piece, nil
}

// FindByIDs loads the parts for the distinct ids given. Unknown ids are
// skipped.
func (r *PieceRechangeRepository) FindByIDs(ctx context.Context, ids []uint) ([]database.PieceRechange, error) {
	distinct := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}
	if len(distinct) == 0 {
		return nil, nil
	}

	var pieces []database.PieceRechange
	if err := r.db.WithContext(ctx).Where("id IN ?", distinct).Find(&pieces).Error; err != nil {
		return nil, translate("find pieces", err)
	}
	return pieces, nil
}

func (r *PieceRechangeRepository) Create(ctx context.Context, piece *database.PieceRechange) (*database.PieceRechange, error) {
	if err := r.validate(ctx, piece); err != nil {
		return nil, err
	}
	r.log.Info("Adding new piece", zap.String("name", piece.Name), zap.Uint("article_id", piece.ArticleID))

	record := *piece
	record.ID = 0
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		r.log.Error("Error adding piece", zap.Error(err))
		return nil, translate("create piece", err)
	}
	return &record, nil
}

func (r *PieceRechangeRepository) Update(ctx context.Context, piece *database.PieceRechange) (*database.PieceRechange, error) {
	if _, err := r.GetByID(ctx, piece.ID); err != nil {
		return nil, err
	}
	if err := r.validate(ctx, piece); err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).Model(&database.PieceRechange{ID: piece.ID}).Updates(map[string]interface{}{
		"name":       piece.Name,
		"price":      piece.Price,
		"article_id": piece.ArticleID,
		"image_url":  piece.ImageURL,
	}).Error
	if err != nil {
		r.log.Error("Error updating piece", zap.Uint("id", piece.ID), zap.Error(err))
		return nil, translate("update piece", err)
	}
	return r.GetByID(ctx, piece.ID)
}

func (r *PieceRechangeRepository) Delete(ctx context.Context, id uint) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(&database.PieceRechange{}, id).Error; err != nil {
		r.log.Error("Error deleting piece", zap.Uint("id", id), zap.Error(err))
		return translate("delete piece", err)
	}
	return nil
}

func (r *PieceRechangeRepository) validate(ctx context.Context, piece *database.PieceRechange) error {
	if piece == nil {
		return apperr.Validation("Piece data is required")
	}
	if blank(piece.Name) {
		return apperr.Validation("Name is required")
	}
	if piece.Price.IsNegative() {
		return apperr.Validation("Price must not be negative")
	}
	if piece.ArticleID == 0 {
		return apperr.Validation("Article ID is required")
	}
	return r.articleExists(ctx, piece.ArticleID)
}

func (r *PieceRechangeRepository) articleExists(ctx context.Context, articleID uint) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&database.Article{}).Where("id = ?", articleID).Count(&count).Error; err != nil {
		return translate("check article", err)
	}
	if count == 0 {
		return apperr.NotFound("Article with ID %d not found", articleID)
	}
	return nil
}
