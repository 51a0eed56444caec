package classify

import "github.com/sells-group/preview-pipeline/internal/model"

// strategyTable maps each category to its composition strategy: template
// id plus prioritized element ordering and layout hints.
var strategyTable = map[model.PageCategory]model.PreviewStrategy{
	model.CategoryProduct: {
		TemplateID: "product-card",
		Elements:   []string{"image", "title", "price", "description", "tags"},
		LayoutHints: map[string]string{
			"image_position": "left",
			"emphasis":       "image",
		},
	},
	model.CategoryProfile: {
		TemplateID: "profile-card",
		Elements:   []string{"avatar", "title", "description", "tags"},
		LayoutHints: map[string]string{
			"image_position": "top",
			"image_shape":    "circle",
		},
	},
	model.CategoryArticle: {
		TemplateID: "article-card",
		Elements:   []string{"title", "description", "image", "tags"},
		LayoutHints: map[string]string{
			"emphasis": "title",
		},
	},
	model.CategoryService: {
		TemplateID: "service-card",
		Elements:   []string{"title", "description", "trust", "image"},
		LayoutHints: map[string]string{
			"emphasis": "description",
		},
	},
	model.CategoryLanding: {
		TemplateID: "hero-card",
		Elements:   []string{"title", "description", "image"},
		LayoutHints: map[string]string{
			"image_position": "background",
			"emphasis":       "title",
		},
	},
	model.CategoryPortfolio: {
		TemplateID: "gallery-card",
		Elements:   []string{"image", "title", "tags"},
		LayoutHints: map[string]string{
			"emphasis": "image",
		},
	},
	model.CategoryEvent: {
		TemplateID: "event-card",
		Elements:   []string{"title", "date", "description", "image"},
		LayoutHints: map[string]string{
			"emphasis": "title",
		},
	},
	model.CategoryCourse: {
		TemplateID: "course-card",
		Elements:   []string{"title", "description", "image", "tags"},
		LayoutHints: map[string]string{
			"emphasis": "title",
		},
	},
	model.CategoryUnknown: {
		TemplateID: "generic-card",
		Elements:   []string{"title", "description", "image"},
	},
}

// StrategyFor returns the composition strategy for a category. Unlisted
// categories fall back to the generic strategy.
func StrategyFor(cat model.PageCategory) model.PreviewStrategy {
	if s, ok := strategyTable[cat]; ok {
		return s
	}
	return strategyTable[model.CategoryUnknown]
}
