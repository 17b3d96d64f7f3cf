package extract

import (
	"strings"

	"github.com/ppiankov/physioform/internal/model"
)

// Category is one activity type and the phrases that identify it
type Category struct {
	Activity model.ActivityType
	Keywords []string
}

// Classifier assigns a text to the first category whose keyword it contains.
// Categories are checked in order, so the more specific post-birth phrases
// win over the generic pregnancy ones.
type Classifier struct {
	categories []Category
}

// NewClassifier returns a classifier with the default keyword table
func NewClassifier() *Classifier {
	return &Classifier{
		categories: []Category{
			{
				Activity: model.ActivityPostBirth,
				Keywords: []string{
					"התעמלות לאחר לידה", "לאחר לידה", "לאחר הלידה", "אחרי לידה", "אחרי הלידה",
					"postnatal", "post-natal", "postpartum", "post birth", "post-birth",
				},
			},
			{
				Activity: model.ActivityPregnancy,
				Keywords: []string{
					"התעמלות הריון", "התעמלות בהריון", "הריון", "היריון",
					"prenatal", "pregnancy",
				},
			},
		},
	}
}

// Categories returns the ordered category table
func (c *Classifier) Categories() []Category {
	return append([]Category(nil), c.categories...)
}

// Classify returns the activity type of text, if any keyword is present
func (c *Classifier) Classify(text string) (model.ActivityType, bool) {
	return c.classify(NormalizeText(text))
}

func (c *Classifier) classify(normalized string) (model.ActivityType, bool) {
	lower := strings.ToLower(normalized)
	for _, cat := range c.categories {
		for _, kw := range cat.Keywords {
			if strings.Contains(lower, kw) {
				return cat.Activity, true
			}
		}
	}
	return "", false
}
