package dto

type SummarizeRequest struct {
	Text     string `json:"text" binding:"required,min=100,max=20000"`
	MaxWords int    `json:"max_words" binding:"omitempty,min=20,max=300"`
}

type SummaryResponse struct {
	Summary string `json:"summary"`
	Cached  bool   `json:"cached"`
	Model   string `json:"model"`
}

type TrendHighlightResponse struct {
	GameID    string `json:"game_id"`
	Highlight string `json:"highlight"`
	Cached    bool   `json:"cached"`
}

type SocialPostsResponse struct {
	ArticleID string   `json:"article_id"`
	Posts     []string `json:"posts"`
	Cached    bool     `json:"cached"`
}
