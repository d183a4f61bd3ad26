package catalog

import (
	"strings"

	"nadin-revendedoras/models"

	"github.com/gosimple/unidecode"
)

// SexRule maps keyword fragments to an audience. Rules are evaluated in order.
type SexRule struct {
	Sex      models.Sex
	Keywords []string
}

// DefaultSexRules is the keyword table used by the catalog sync.
var DefaultSexRules = []SexRule{
	{Sex: models.SexMujer, Keywords: []string{"mujer", "dama", "femenin"}},
	{Sex: models.SexHombre, Keywords: []string{"hombre", "masculin", "caballero"}},
	{Sex: models.SexNinos, Keywords: []string{"niñ", "kid", "infant", "bebe"}},
}

type SexClassifier struct {
	rules []SexRule
}

func NewSexClassifier(rules []SexRule) *SexClassifier {
	return &SexClassifier{rules: rules}
}

var defaultClassifier = NewSexClassifier(DefaultSexRules)

// InferSex classifies a product from its category path and name with DefaultSexRules.
func InferSex(category, name string) models.Sex {
	return defaultClassifier.Infer(category, name)
}

// Infer returns the audience of the first rule whose keyword appears in texts, or Unisex.
// Keywords are matched against the lower-cased text and its ASCII-folded form,
// so "bebé" matches "bebe" while "niñ" still needs the ñ.
func (c *SexClassifier) Infer(texts ...string) models.Sex {
	raw := strings.ToLower(strings.Join(texts, " "))
	folded := strings.ToLower(unidecode.Unidecode(raw))

	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(raw, kw) || strings.Contains(folded, kw) {
				return rule.Sex
			}
		}
	}
	return models.SexUnisex
}
