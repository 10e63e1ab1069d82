package hooks

// ContentStats summarises the content collection.
type ContentStats struct {
	Total      int            `json:"total"`
	Published  int            `json:"published"`
	Drafts     int            `json:"drafts"`
	Views      int            `json:"views"`
	ByCategory map[string]int `json:"byCategory,omitempty"`
}

// DisplayCard is a card that can be placed on the public display.
type DisplayCard struct {
	ID       int    `json:"id"`
	Title    string `json:"title,omitempty"`
	Type     string `json:"type,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Position int    `json:"position,omitempty"`
}

// DisplayCards splits cards into those not yet on the display and those
// already linked to it. Both slices are never nil.
type DisplayCards struct {
	Available []DisplayCard `json:"available"`
	Linked    []DisplayCard `json:"linked"`
}

// PWAStats describes progressive-web-app installs and push subscriptions.
type PWAStats struct {
	Subscribers     int    `json:"subscribers"`
	Installs        int    `json:"installs"`
	Broadcasts      int    `json:"broadcasts"`
	LastBroadcastAt string `json:"lastBroadcastAt,omitempty"`
}

// PushMessage is the usual payload for a push broadcast. BroadcastPush
// accepts any JSON-encodable value.
type PushMessage struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// BroadcastResult is the server's answer to a push broadcast.
type BroadcastResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// MediaItem is an uploaded file in the media library.
type MediaItem struct {
	ID        int    `json:"id"`
	URL       string `json:"url"`
	Type      string `json:"type"`
	Filename  string `json:"filename,omitempty"`
	Size      int64  `json:"size,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}
