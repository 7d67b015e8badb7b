package generation

import (
	"fmt"

	"github.com/oselle/lookbook-api/internal/domain"
)

// lifestyleScenes are the rotating background scenes used for lifestyle
// variations when the analysis does not plan its own.
var lifestyleScenes = []string{
	"modern urban cafe with natural lighting",
	"peaceful garden setting with soft sunlight",
	"contemporary living room with large windows",
	"elegant evening party venue with warm lighting",
	"upscale rooftop lounge at sunset",
	"luxurious indoor party setting with ambient lighting",
	"grand wedding venue with decorative elements",
	"outdoor garden wedding setup",
	"elegant ballroom with chandeliers",
	"scenic beach during golden hour",
	"tropical resort poolside",
	"beachfront terrace with ocean view",
	"sophisticated hotel lobby",
	"upscale restaurant interior",
	"classic architectural backdrop",
}

const studioScene = "clean studio with plain white background"

// BuildJob decomposes an analyzed request into a generation job. Each
// reference view with a studio or lifestyle background becomes one slot;
// slot indices fix the output order. Providers is the default fallback chain
// shared by all slots.
func BuildJob(
	req *domain.Request,
	analysis *domain.Analysis,
	providers []Provider,
) (*Job, error) {
	if len(req.ReferenceImages) == 0 {
		return nil, fmt.Errorf("%w: at least one reference image is required", ErrInvalidInput)
	}

	backgrounds := analysis.Backgrounds
	if len(backgrounds) == 0 {
		backgrounds = defaultBackgrounds(req)
	}

	detail := req.ReferenceImages[domain.ViewDetailview]

	job := &Job{RequestID: req.ID, Providers: providers}
	for _, bg := range backgrounds {
		ref, ok := req.ReferenceImages[bg.View]
		if !ok {
			continue
		}

		refs := [][]byte{ref}
		if len(detail) > 0 && bg.View != domain.ViewDetailview {
			refs = append(refs, detail)
		}

		prompt := BuildPrompt(analysis.Product,
			fmt.Sprintf("%s view in a %s", bg.View, bg.Scene),
			req.AspectRatio, req.Gender)

		job.Slots = append(job.Slots, Slot{
			Index: len(job.Slots),
			Name:  fmt.Sprintf("%s_%s", bg.View, bg.Name),
			Input: Input{
				Prompt:          prompt,
				ReferenceImages: refs,
				AspectRatio:     req.AspectRatio,
			},
		})
	}

	if len(job.Slots) == 0 {
		return nil, fmt.Errorf("%w: no slots could be built from the background plan", ErrInvalidInput)
	}
	return job, nil
}

// defaultBackgrounds produces the background plan used when analysis supplies
// none: a studio shot per primary view, then lifestyle variations of the
// frontside, honoring an explicit background-array config when present.
func defaultBackgrounds(req *domain.Request) []domain.BackgroundSpec {
	if len(req.BackgroundConfig) > 0 {
		return backgroundsFromConfig(req)
	}

	var specs []domain.BackgroundSpec
	for _, view := range domain.PrimaryViews {
		if _, ok := req.ReferenceImages[view]; !ok {
			continue
		}
		specs = append(specs, domain.BackgroundSpec{
			View:  view,
			Name:  "studio",
			Scene: studioScene,
		})
	}

	if _, ok := req.ReferenceImages[domain.ViewFrontside]; ok {
		n := req.NumberOfOutputs
		if n > len(lifestyleScenes) {
			n = len(lifestyleScenes)
		}
		for i := 0; i < n; i++ {
			specs = append(specs, domain.BackgroundSpec{
				View:  domain.ViewFrontside,
				Name:  fmt.Sprintf("lifestyle_%d", i+1),
				Scene: lifestyleScenes[i],
			})
		}
	}
	return specs
}

func backgroundsFromConfig(req *domain.Request) []domain.BackgroundSpec {
	var specs []domain.BackgroundSpec
	for _, view := range domain.PrimaryViews {
		counts, ok := req.BackgroundConfig[view]
		if !ok {
			continue
		}
		if _, ok := req.ReferenceImages[view]; !ok {
			continue
		}

		white, plain, random := counts[0], counts[1], counts[2]
		for i := 0; i < white; i++ {
			specs = append(specs, domain.BackgroundSpec{
				View:  view,
				Name:  fmt.Sprintf("white_%d", i+1),
				Scene: "clean white studio background",
			})
		}
		for i := 0; i < plain; i++ {
			specs = append(specs, domain.BackgroundSpec{
				View:  view,
				Name:  fmt.Sprintf("plain_%d", i+1),
				Scene: "plain colored background",
			})
		}
		if random > len(lifestyleScenes) {
			random = len(lifestyleScenes)
		}
		for i := 0; i < random; i++ {
			specs = append(specs, domain.BackgroundSpec{
				View:  view,
				Name:  fmt.Sprintf("random_%d", i+1),
				Scene: lifestyleScenes[i],
			})
		}
	}
	return specs
}
