package domain

import (
	"time"

	"github.com/google/uuid"
)

// View identifies one reference photograph angle of the product.
type View string

// Reference views accepted by the service. Frontside is mandatory; the rest
// are optional. Detailview is never rendered on its own, it only supplements
// the other views as a close-up reference.
const (
	ViewFrontside  View = "frontside"
	ViewBackside   View = "backside"
	ViewSideview   View = "sideview"
	ViewDetailview View = "detailview"
)

// PrimaryViews are the views rendered as standalone outputs, in the order
// they appear in results.
var PrimaryViews = []View{ViewFrontside, ViewBackside, ViewSideview}

// BackgroundCounts configures how many variations of each background class to
// render for a view: plain white studio, plain colored, and random lifestyle
// scenes, in that order.
type BackgroundCounts [3]int

// Request is one accepted content-generation request. It is created by the
// API layer and owned by the workflow worker executing it.
type Request struct {
	ID       uuid.UUID
	Text     string
	Username string
	Product  string

	// ReferenceImages holds the uploaded reference photos keyed by view.
	ReferenceImages map[View][]byte

	NumberOfOutputs int
	AspectRatio     string
	Gender          string
	WantVideo       bool
	Upscale         bool

	// BackgroundConfig optionally overrides the default background plan with
	// explicit per-view counts.
	BackgroundConfig map[View]BackgroundCounts

	CreatedAt time.Time
}

// NewRequest constructs a Request with a fresh ID and creation timestamp.
func NewRequest() *Request {
	return &Request{
		ID:              uuid.New(),
		ReferenceImages: make(map[View][]byte),
		NumberOfOutputs: 1,
		AspectRatio:     "9:16",
		Upscale:         true,
		CreatedAt:       time.Now().UTC(),
	}
}
