package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"savdesk/database"
	"savdesk/repository"
)

// EtatRequest is the body of etat create/update
type EtatRequest struct {
	Label string `json:"label" binding:"required"`
}

// ArticleRequest is the body of article create/update
type ArticleRequest struct {
	Label         string          `json:"label" binding:"required"`
	UnderWarranty bool            `json:"under_warranty"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      *string         `json:"image_url"`
	PurchaseDate  *time.Time      `json:"purchase_date"`
	OwnerClientID *uint           `json:"owner_client_id"`
}

// PieceRequest is the body of spare part create/update
type PieceRequest struct {
	Name      string          `json:"name" binding:"required"`
	Price     decimal.Decimal `json:"price"`
	ArticleID uint            `json:"article_id" binding:"required"`
	ImageURL  *string         `json:"image_url"`
}

// TechnicienRequest is the body of technician create/update
type TechnicienRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone"`
	Specialty string `json:"specialty"`
}

// CatalogController serves the reference data maintained by the back
// office: statuses, articles, spare parts and technicians.
type CatalogController struct {
	repos *repository.Repositories
	log   *zap.Logger
}

func NewCatalogController(repos *repository.Repositories, log *zap.Logger) *CatalogController {
	return &CatalogController{repos: repos, log: log}
}

// Etats

func (ctl *CatalogController) GetEtats(c *gin.Context) {
	etats, err := ctl.repos.Etat.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, etats)
}

func (ctl *CatalogController) GetEtatByID(c *gin.Context) {
	id, ok := parseID(c, "id", "etat")
	if !ok {
		return
	}
	etat, err := ctl.repos.Etat.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, etat)
}

func (ctl *CatalogController) CreateEtat(c *gin.Context) {
	var req EtatRequest
	if !bindJSON(c, &req) {
		return
	}
	etat, err := ctl.repos.Etat.Create(c.Request.Context(), req.Label)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusCreated, etat)
}

func (ctl *CatalogController) UpdateEtat(c *gin.Context) {
	id, ok := parseID(c, "id", "etat")
	if !ok {
		return
	}
	var req EtatRequest
	if !bindJSON(c, &req) {
		return
	}
	etat, err := ctl.repos.Etat.Update(c.Request.Context(), id, req.Label)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, etat)
}

func (ctl *CatalogController) DeleteEtat(c *gin.Context) {
	id, ok := parseID(c, "id", "etat")
	if !ok {
		return
	}
	if err := ctl.repos.Etat.Delete(c.Request.Context(), id); err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Articles

func (ctl *CatalogController) GetArticles(c *gin.Context) {
	articles, err := ctl.repos.Article.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, articles)
}

// GetMyArticles lists the articles owned by the calling client
func (ctl *CatalogController) GetMyArticles(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	articles, err := ctl.repos.Article.GetByOwner(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, articles)
}

func (ctl *CatalogController) GetArticleByID(c *gin.Context) {
	id, ok := parseID(c, "id", "article")
	if !ok {
		return
	}
	article, err := ctl.repos.Article.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (ctl *CatalogController) CreateArticle(c *gin.Context) {
	var req ArticleRequest
	if !bindJSON(c, &req) {
		return
	}
	article, err := ctl.repos.Article.Create(c.Request.Context(), req.toArticle(0))
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

func (ctl *CatalogController) UpdateArticle(c *gin.Context) {
	id, ok := parseID(c, "id", "article")
	if !ok {
		return
	}
	var req ArticleRequest
	if !bindJSON(c, &req) {
		return
	}
	article, err := ctl.repos.Article.Update(c.Request.Context(), req.toArticle(id))
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (ctl *CatalogController) DeleteArticle(c *gin.Context) {
	id, ok := parseID(c, "id", "article")
	if !ok {
		return
	}
	if err := ctl.repos.Article.Delete(c.Request.Context(), id); err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (req ArticleRequest) toArticle(id uint) *database.Article {
	return &database.Article{
		ID:            id,
		Label:         req.Label,
		UnderWarranty: req.UnderWarranty,
		Price:         req.Price,
		ImageURL:      req.ImageURL,
		PurchaseDate:  req.PurchaseDate,
		OwnerClientID: req.OwnerClientID,
	}
}

// Spare parts

func (ctl *CatalogController) GetPieces(c *gin.Context) {
	pieces, err := ctl.repos.Piece.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, pieces)
}

func (ctl *CatalogController) GetPiecesByArticle(c *gin.Context) {
	articleID, ok := parseID(c, "articleId", "article")
	if !ok {
		return
	}
	pieces, err := ctl.repos.Piece.GetByArticle(c.Request.Context(), articleID)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, pieces)
}

func (ctl *CatalogController) GetPieceByID(c *gin.Context) {
	id, ok := parseID(c, "id", "piece")
	if !ok {
		return
	}
	piece, err := ctl.repos.Piece.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, piece)
}

func (ctl *CatalogController) CreatePiece(c *gin.Context) {
	var req PieceRequest
	if !bindJSON(c, &req) {
		return
	}
	piece, err := ctl.repos.Piece.Create(c.Request.Context(), req.toPiece(0))
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusCreated, piece)
}

func (ctl *CatalogController) UpdatePiece(c *gin.Context) {
	id, ok := parseID(c, "id", "piece")
	if !ok {
		return
	}
	var req PieceRequest
	if !bindJSON(c, &req) {
		return
	}
	piece, err := ctl.repos.Piece.Update(c.Request.Context(), req.toPiece(id))
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, piece)
}

func (ctl *CatalogController) DeletePiece(c *gin.Context) {
	id, ok := parseID(c, "id", "piece")
	if !ok {
		return
	}
	if err := ctl.repos.Piece.Delete(c.Request.Context(), id); err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (req PieceRequest) toPiece(id uint) *database.PieceRechange {
	return &database.PieceRechange{
		ID:        id,
		Name:      req.Name,
		Price:     req.Price,
		ArticleID: req.ArticleID,
		ImageURL:  req.ImageURL,
	}
}

// Technicians

func (ctl *CatalogController) GetTechniciens(c *gin.Context) {
	techniciens, err := ctl.repos.Technicien.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, techniciens)
}

func (ctl *CatalogController) GetTechnicienByID(c *gin.Context) {
	id, ok := parseID(c, "id", "technicien")
	if !ok {
		return
	}
	technicien, err := ctl.repos.Technicien.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, technicien)
}

func (ctl *CatalogController) CreateTechnicien(c *gin.Context) {
	var req TechnicienRequest
	if !bindJSON(c, &req) {
		return
	}
	technicien, err := ctl.repos.Technicien.Create(c.Request.Context(), req.toTechnicien(0))
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusCreated, technicien)
}

func (ctl *CatalogController) UpdateTechnicien(c *gin.Context) {
	id, ok := parseID(c, "id", "technicien")
	if !ok {
		return
	}
	var req TechnicienRequest
	if !bindJSON(c, &req) {
		return
	}
	technicien, err := ctl.repos.Technicien.Update(c.Request.Context(), req.toTechnicien(id))
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, technicien)
}

func (ctl *CatalogController) DeleteTechnicien(c *gin.Context) {
	id, ok := parseID(c, "id", "technicien")
	if !ok {
		return
	}
	if err := ctl.repos.Technicien.Delete(c.Request.Context(), id); err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (req TechnicienRequest) toTechnicien(id uint) *database.Technicien {
	return &database.Technicien{
		ID:        id,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Specialty: req.Specialty,
	}
}
