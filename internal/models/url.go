package models

// URLMapping is the persisted link between a full URL and its short code.
type URLMapping struct {
	ID       int64  `json:"id" db:"id"`
	FullURL  string `json:"fullUrl" db:"full_url"`
	ShortURL string `json:"shortUrl" db:"short_url"`
}

type ShortenRequest struct {
	FullURL string `json:"fullUrl"`
}

// URLResponse is the body of every /api/url response. Error is set only on
// failures.
type URLResponse struct {
	FullURL  string `json:"fullUrl,omitempty"`
	ShortURL string `json:"shortUrl,omitempty"`
	// Link is the absolute short link, present when a base URL is configured.
	Link  string `json:"link,omitempty"`
	Error string `json:"error,omitempty"`
}
