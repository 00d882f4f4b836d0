package domain

// Metadata is the finalized description of one image.
type Metadata struct {
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	Keywords             []string `json:"keywords"`
	AdobeCategory        string   `json:"adobe_category"`
	ShutterstockMain     string   `json:"shutterstock_main"`
	ShutterstockOptional string   `json:"shutterstock_optional"`
	VectorstockPrimary   string   `json:"vectorstock_primary"`
	VectorstockSecondary string   `json:"vectorstock_secondary"`
}

// Status is the lifecycle state of a WorkItem.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// Runnable reports whether an item in this state may be queued for a run.
func (s Status) Runnable() bool {
	return s == StatusPending || s == StatusError
}

// WorkItem is one uploaded image and its generation state.
type WorkItem struct {
	ID       string    `json:"id"`
	Filename string    `json:"filename"`
	Image    []byte    `json:"-"`
	MimeType string    `json:"mime_type"`
	Status   Status    `json:"status"`
	Metadata *Metadata `json:"metadata,omitempty"`
	Err      string    `json:"error,omitempty"`
}
