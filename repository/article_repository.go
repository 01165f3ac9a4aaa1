package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"savdesk/apperr"
	"savdesk/database"
)

type ArticleRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewArticleRepository(db *gorm.DB, log *zap.Logger) *ArticleRepository {
	return &ArticleRepository{db: db, log: log}
}

func (r *ArticleRepository) WithTx(tx *gorm.DB) *ArticleRepository {
	return &ArticleRepository{db: tx, log: r.log}
}

func (r *ArticleRepository) GetAll(ctx context.Context) ([]database.Article, error) {
	var articles []database.Article
	if err := r.db.WithContext(ctx).Preload("Pieces").Order("id").Find(&articles).Error; err != nil {
		r.log.Error("Error getting articles", zap.Error(err))
		return nil, translate("list articles", err)
	}
	return articles, nil
}

// GetByOwner lists the articles bought by one client.
func (r *ArticleRepository) GetByOwner(ctx context.Context, clientID uint) ([]database.Article, error) {
	var articles []database.Article
	if err := r.db.WithContext(ctx).Preload("Pieces").
		Where("owner_client_id = ?", clientID).
		Order("id").
		Find(&articles).Error; err != nil {
		return nil, translate("list client articles", err)
	}
	return articles, nil
}

func (r *ArticleRepository) GetByID(ctx context.Context, id uint) (*database.Article, error) {
	if id == 0 {
		return nil, apperr.Validation("Invalid article ID")
	}
	var article database.Article
	err := r.db.WithContext(ctx).Preload("Pieces").First(&article, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		r.log.Warn("Article not found", zap.Uint("id", id))
		return nil, apperr.NotFound("Article with ID %d not found", id)
	}
	if err != nil {
		return nil, translate("get article", err)
	}
	return &article, nil
}

func (r *ArticleRepository) Create(ctx context.Context, article *database.Article) (*database.Article, error) {
	if err := r.validate(ctx, article); err != nil {
		return nil, err
	}
	r.log.Info("Adding new article", zap.String("label", article.Label))

	record := *article
	record.ID = 0
	record.Pieces = nil
	record.Owner = nil
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		r.log.Error("Error adding article", zap.Error(err))
		return nil, translate("create article", err)
	}
	return r.GetByID(ctx, record.ID)
}

func (r *ArticleRepository) Update(ctx context.Context, article *database.Article) (*database.Article, error) {
	if _, err := r.GetByID(ctx, article.ID); err != nil {
		return nil, err
	}
	if err := r.validate(ctx, article); err != nil {
		return nil, err
	}

	err := r.db.WithContext(ctx).Model(&database.Article{ID: article.ID}).Updates(map[string]interface{}{
		"label":           article.Label,
		"under_warranty":  article.UnderWarranty,
		"price":           article.Price,
		"image_url":       article.ImageURL,
		"purchase_date":   article.PurchaseDate,
		"owner_client_id": article.OwnerClientID,
	}).Error
	if err != nil {
		r.log.Error("Error updating article", zap.Uint("id", article.ID), zap.Error(err))
		return nil, translate("update article", err)
	}
	return r.GetByID(ctx, article.ID)
}

// Delete removes an article and its spare parts. Articles still referenced
// by a claim are refused.
func (r *ArticleRepository) Delete(ctx context.Context, id uint) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}

	var claims int64
	if err := r.db.WithContext(ctx).Model(&database.Reclamation{}).Where("article_id = ?", id).Count(&claims).Error; err != nil {
		return translate("count article reclamations", err)
	}
	if claims > 0 {
		return apperr.Conflict("Article %d is referenced by %d reclamation(s)", id, claims)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", id).Delete(&database.PieceRechange{}).Error; err != nil {
			return translate("delete article pieces", err)
		}
		if err := tx.Delete(&database.Article{}, id).Error; err != nil {
			r.log.Error("Error deleting article", zap.Uint("id", id), zap.Error(err))
			return translate("delete article", err)
		}
		return nil
	})
}

func (r *ArticleRepository) validate(ctx context.Context, article *database.Article) error {
	if article == nil {
		return apperr.Validation("Article data is required")
	}
	if blank(article.Label) {
		return apperr.Validation("Label is required")
	}
	if article.Price.IsNegative() {
		return apperr.Validation("Price must not be negative")
	}
	if article.OwnerClientID != nil {
		var count int64
		if err := r.db.WithContext(ctx).Model(&database.User{}).
			Where("id = ? AND role = ?", *article.OwnerClientID, database.RoleClient).
			Count(&count).Error; err != nil {
			return translate("check owner", err)
		}
		if count == 0 {
			return apperr.NotFound("Client with ID %d not found", *article.OwnerClientID)
		}
	}
	return nil
}
