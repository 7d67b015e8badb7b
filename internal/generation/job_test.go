package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oselle/lookbook-api/internal/domain"
)

func testRequest() *domain.Request {
	req := domain.NewRequest()
	req.Username = "acme"
	req.Product = "silk saree"
	req.ReferenceImages[domain.ViewFrontside] = []byte("front")
	req.ReferenceImages[domain.ViewBackside] = []byte("back")
	req.ReferenceImages[domain.ViewDetailview] = []byte("detail")
	req.NumberOfOutputs = 2
	return req
}

func TestBuildJobDefaultPlan(t *testing.T) {
	req := testRequest()
	analysis := &domain.Analysis{
		Product: domain.ProductData{Description: "red silk saree", IdealFor: "women"},
	}

	job, err := BuildJob(req, analysis, nil)
	require.NoError(t, err)

	// Two studio views (frontside, backside) plus two lifestyle frontside
	// variations. Sideview has no reference image and is skipped.
	require.Len(t, job.Slots, 4)
	assert.Equal(t, "frontside_studio", job.Slots[0].Name)
	assert.Equal(t, "backside_studio", job.Slots[1].Name)
	assert.Equal(t, "frontside_lifestyle_1", job.Slots[2].Name)
	assert.Equal(t, "frontside_lifestyle_2", job.Slots[3].Name)

	for i, slot := range job.Slots {
		assert.Equal(t, i, slot.Index)
		assert.NotEmpty(t, slot.Input.Prompt)
		// Every slot carries its view reference plus the detail close-up.
		assert.Len(t, slot.Input.ReferenceImages, 2)
	}
}

func TestBuildJobAnalysisPlanWins(t *testing.T) {
	req := testRequest()
	analysis := &domain.Analysis{
		Product: domain.ProductData{Description: "saree"},
		Backgrounds: []domain.BackgroundSpec{
			{View: domain.ViewFrontside, Name: "garden", Scene: "garden at dusk"},
		},
	}

	job, err := BuildJob(req, analysis, nil)
	require.NoError(t, err)
	require.Len(t, job.Slots, 1)
	assert.Equal(t, "frontside_garden", job.Slots[0].Name)
	assert.Contains(t, job.Slots[0].Input.Prompt, "garden at dusk")
}

func TestBuildJobBackgroundConfig(t *testing.T) {
	req := testRequest()
	req.BackgroundConfig = map[domain.View]domain.BackgroundCounts{
		domain.ViewFrontside: {1, 1, 2},
		domain.ViewBackside:  {1, 0, 0},
	}
	analysis := &domain.Analysis{Product: domain.ProductData{}}

	job, err := BuildJob(req, analysis, nil)
	require.NoError(t, err)

	names := make([]string, 0, len(job.Slots))
	for _, s := range job.Slots {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"frontside_white_1",
		"frontside_plain_1",
		"frontside_random_1",
		"frontside_random_2",
		"backside_white_1",
	}, names)
}

func TestBuildJobNoReferences(t *testing.T) {
	req := domain.NewRequest()
	_, err := BuildJob(req, &domain.Analysis{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBuildPromptGenderOverride(t *testing.T) {
	product := domain.ProductData{Description: "kurta", IdealFor: "women"}

	p := BuildPrompt(product, "frontside view in a studio", "9:16", "male")
	assert.Contains(t, p, "Indian man")

	p = BuildPrompt(product, "frontside view in a studio", "9:16", "")
	assert.Contains(t, p, "Indian woman")
	assert.Contains(t, p, "9:16")
}
