package service

import (
	"context"
	"encoding/json"
	"html"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"knightgaming.gg/backend/internal/entity"
)

const (
	gamesIndex = "games"
	newsIndex  = "news"
)

type SearchHit struct {
	ID    string  `json:"id"`
	Type  string  `json:"type"`
	Title string  `json:"title"`
	Slug  string  `json:"slug"`
	Image string  `json:"image,omitempty"`
	Score float64 `json:"score,omitempty"`
}

type SearchService interface {
	IndexGame(ctx context.Context, game *entity.Game) error
	DeleteGame(ctx context.Context, id uuid.UUID) error
	IndexArticle(ctx context.Context, article *entity.NewsArticle) error
	DeleteArticle(ctx context.Context, id uuid.UUID) error
	SearchGames(ctx context.Context, query string, limit int64) ([]SearchHit, error)
	SearchNews(ctx context.Context, query string, limit int64, includePremium bool) ([]SearchHit, error)
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	gameFilterable := []any{"genres", "platforms", "is_active"}
	if _, err := s.client.Index(gamesIndex).UpdateFilterableAttributes(&gameFilterable); err != nil {
		log.Printf("Failed to update games filterable attributes: %v", err)
	}

	gameSortable := []string{"current_players", "rating", "release_date"}
	if _, err := s.client.Index(gamesIndex).UpdateSortableAttributes(&gameSortable); err != nil {
		log.Printf("Failed to update games sortable attributes: %v", err)
	}

	newsFilterable := []any{"category", "is_premium", "tags"}
	if _, err := s.client.Index(newsIndex).UpdateFilterableAttributes(&newsFilterable); err != nil {
		log.Printf("Failed to update news filterable attributes: %v", err)
	}

	newsSortable := []string{"published_at", "views"}
	if _, err := s.client.Index(newsIndex).UpdateSortableAttributes(&newsSortable); err != nil {
		log.Printf("Failed to update news sortable attributes: %v", err)
	}

	log.Println("Meilisearch indexes initialized")
}

type meiliGameDoc struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Slug           string   `json:"slug"`
	Description    string   `json:"description"`
	HeaderImage    string   `json:"header_image"`
	Genres         []string `json:"genres"`
	Tags           []string `json:"tags"`
	Platforms      []string `json:"platforms"`
	Developers     []string `json:"developers"`
	Rating         float64  `json:"rating"`
	CurrentPlayers int      `json:"current_players"`
	ReleaseDate    int64    `json:"release_date"`
	IsActive       bool     `json:"is_active"`
}

type meiliNewsDoc struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Summary       string   `json:"summary"`
	Content       string   `json:"content"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	FeaturedImage string   `json:"featured_image"`
	IsPremium     bool     `json:"is_premium"`
	Views         int      `json:"views"`
	PublishedAt   int64    `json:"published_at"`
}

func (s *meiliSearchService) cleanContentForIndex(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	sanitized := s.sanitizer.Sanitize(content)
	cleanText := html.UnescapeString(sanitized)
	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *meiliSearchService) IndexGame(ctx context.Context, game *entity.Game) error {
	doc := meiliGameDoc{
		ID:             game.ID.String(),
		Name:           game.Name,
		Slug:           game.Slug,
		Description:    s.cleanContentForIndex(game.ShortDescription),
		HeaderImage:    game.HeaderImage,
		Genres:         game.Genres,
		Tags:           game.Tags,
		Platforms:      game.Platforms,
		Developers:     game.Developers,
		Rating:         game.Rating,
		CurrentPlayers: game.CurrentPlayers,
		IsActive:       game.IsActive,
	}
	if game.ReleaseDate != nil {
		doc.ReleaseDate = game.ReleaseDate.Unix()
	}

	_, err := s.client.Index(gamesIndex).AddDocuments([]meiliGameDoc{doc}, strPtr("id"))
	return err
}

func (s *meiliSearchService) DeleteGame(ctx context.Context, id uuid.UUID) error {
	_, err := s.client.Index(gamesIndex).DeleteDocument(id.String())
	return err
}

func (s *meiliSearchService) IndexArticle(ctx context.Context, article *entity.NewsArticle) error {
	doc := meiliNewsDoc{
		ID:            article.ID.String(),
		Title:         article.Title,
		Slug:          article.Slug,
		Summary:       article.Summary,
		Content:       s.cleanContentForIndex(article.Content),
		Category:      article.Category,
		Tags:          article.Tags,
		FeaturedImage: article.FeaturedImage,
		IsPremium:     article.IsPremium,
		Views:         article.Views,
		PublishedAt:   article.PublishedAt.Unix(),
	}

	_, err := s.client.Index(newsIndex).AddDocuments([]meiliNewsDoc{doc}, strPtr("id"))
	return err
}

func (s *meiliSearchService) DeleteArticle(ctx context.Context, id uuid.UUID) error {
	_, err := s.client.Index(newsIndex).DeleteDocument(id.String())
	return err
}

func (s *meiliSearchService) SearchGames(ctx context.Context, query string, limit int64) ([]SearchHit, error) {
	resp, err := s.client.Index(gamesIndex).Search(query, &meilisearch.SearchRequest{
		Limit:  limit,
		Filter: "is_active = true",
	})
	if err != nil {
		return nil, err
	}

	var docs []meiliGameDoc
	if err := decodeHits(resp.Hits, &docs); err != nil {
		return nil, err
	}

	hits := make([]SearchHit, 0, len(docs))
	for _, doc := range docs {
		hits = append(hits, SearchHit{
			ID:    doc.ID,
			Type:  "game",
			Title: doc.Name,
			Slug:  doc.Slug,
			Image: doc.HeaderImage,
			Score: doc.Rating,
		})
	}
	return hits, nil
}

func (s *meiliSearchService) SearchNews(ctx context.Context, query string, limit int64, includePremium bool) ([]SearchHit, error) {
	req := &meilisearch.SearchRequest{Limit: limit}
	if !includePremium {
		req.Filter = "is_premium = false"
	}

	resp, err := s.client.Index(newsIndex).Search(query, req)
	if err != nil {
		return nil, err
	}

	var docs []meiliNewsDoc
	if err := decodeHits(resp.Hits, &docs); err != nil {
		return nil, err
	}

	hits := make([]SearchHit, 0, len(docs))
	for _, doc := range docs {
		hits = append(hits, SearchHit{
			ID:    doc.ID,
			Type:  "article",
			Title: doc.Title,
			Slug:  doc.Slug,
			Image: doc.FeaturedImage,
		})
	}
	return hits, nil
}

// decodeHits round-trips search hits through JSON into a typed slice.
func decodeHits(hits any, out any) error {
	raw, err := json.Marshal(hits)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func strPtr(s string) *string {
	return &s
}
