package docai

// Entity is a typed span of text recognized on the nameplate. NormalizedText
// carries the collaborator's cleaned value when one is available; MentionText
// is the literal OCR read.
type Entity struct {
	Type           string
	MentionText    string
	NormalizedText string
}

// Document is the collaborator's view of one processed image.
type Document struct {
	Text     string
	Entities []Entity
}

type processRequest struct {
	RawDocument rawDocument `json:"rawDocument"`
}

type rawDocument struct {
	Content  string `json:"content"`
	MimeType string `json:"mimeType"`
}

type processResponse struct {
	Document wireDocument `json:"document"`
}

type wireDocument struct {
	Text     string       `json:"text"`
	Entities []wireEntity `json:"entities"`
}

type wireEntity struct {
	Type            string         `json:"type"`
	MentionText     string         `json:"mentionText"`
	NormalizedValue wireNormalized `json:"normalizedValue"`
}

type wireNormalized struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
