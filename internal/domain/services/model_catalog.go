package services

import (
	"fmt"
	"strings"

	"github.com/oculusai/console/internal/domain/entities"
)

// DefaultModelID is the model new sessions start with
const DefaultModelID = "oculus-1.5-0503"

// ModelOption is one entry of the model dropdown
type ModelOption struct {
	Value       string          `json:"value"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
	Series      entities.Series `json:"series"`
}

// ModelGroup groups dropdown options under a series label
type ModelGroup struct {
	DisplaySeries string        `json:"display_series"`
	Options       []ModelOption `json:"options"`
}

// ModelCatalog serves the static model reference data.
// Catalog entries are never mutated after construction.
type ModelCatalog struct {
	public []entities.Model
	secret entities.Model
	byID   map[string]entities.Model
}

// NewModelCatalog creates the catalog of the public models plus the secret model
func NewModelCatalog() *ModelCatalog {
	return newModelCatalog(publicModels, secretModel)
}

func newModelCatalog(public []entities.Model, secret entities.Model) *ModelCatalog {
	ordered := make([]entities.Model, 0, len(public))
	for _, series := range seriesOrder {
		for _, m := range public {
			if m.Series == series {
				ordered = append(ordered, m)
			}
		}
	}

	byID := make(map[string]entities.Model, len(ordered)+1)
	for _, m := range ordered {
		byID[m.ID] = m
	}
	byID[secret.ID] = secret

	return &ModelCatalog{
		public: ordered,
		secret: secret,
		byID:   byID,
	}
}

// Public returns the public models in dropdown order
func (mc *ModelCatalog) Public() []entities.Model {
	models := make([]entities.Model, len(mc.public))
	copy(models, mc.public)
	return models
}

// Secret returns the hidden model
func (mc *ModelCatalog) Secret() entities.Model {
	return mc.secret
}

// Get looks a model up by id, including the secret model
func (mc *ModelCatalog) Get(id string) (entities.Model, bool) {
	m, ok := mc.byID[id]
	return m, ok
}

// GetPublic looks a model up among the public models only
func (mc *ModelCatalog) GetPublic(id string) (entities.Model, bool) {
	m, ok := mc.byID[id]
	if !ok || m.Secret {
		return entities.Model{}, false
	}
	return m, true
}

// IsSecretAlias reports whether id names the secret model or its fixed alias
func (mc *ModelCatalog) IsSecretAlias(id string) bool {
	id = strings.TrimSpace(id)
	return id == mc.secret.ID || id == SecretModelAlias
}

// Visible returns the selectable models; the secret model only once unlocked
func (mc *ModelCatalog) Visible(unlocked bool) []entities.Model {
	models := mc.Public()
	if unlocked {
		models = append(models, mc.secret)
	}
	return models
}

// IsVisible reports whether id is selectable under the given unlock state
func (mc *ModelCatalog) IsVisible(id string, unlocked bool) bool {
	m, ok := mc.byID[id]
	if !ok {
		return false
	}
	return !m.Secret || unlocked
}

// Resolve returns the model named by id when it is visible, otherwise the first visible model
func (mc *ModelCatalog) Resolve(id string, unlocked bool) entities.Model {
	if mc.IsVisible(id, unlocked) {
		return mc.byID[id]
	}
	return mc.Visible(unlocked)[0]
}

// Default returns the configured default model, falling back to the first public model
func (mc *ModelCatalog) Default(id string) entities.Model {
	if m, ok := mc.GetPublic(id); ok {
		return m
	}
	return mc.public[0]
}

// Options returns the dropdown groups in series order
func (mc *ModelCatalog) Options(unlocked bool) []ModelGroup {
	groups := make([]ModelGroup, 0, len(seriesOrder)+1)
	index := make(map[string]int)

	for _, m := range mc.Visible(unlocked) {
		label := seriesLabels[m.Series]
		option := ModelOption{
			Value:       m.ID,
			Label:       m.Name,
			Description: m.Badge,
			Series:      m.Series,
		}
		if m.Secret {
			option.Label = fmt.Sprintf("%s • Secret Model", m.Name)
		}

		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, ModelGroup{DisplaySeries: label})
		}
		groups[i].Options = append(groups[i].Options, option)
	}

	return groups
}

// Hints returns the context hints shown next to the chat for a model and mode
func (mc *ModelCatalog) Hints(model entities.Model, mode entities.Mode) []string {
	switch mode {
	case entities.ModeSearch:
		return append([]string{}, searchModeHints...)
	case entities.ModeDeepThink:
		return append([]string{}, deepThinkModeHints...)
	}

	hints, ok := seriesHints[model.Series]
	if !ok {
		hints = seriesHints[entities.SeriesFoundation]
	}
	return append([]string{fmt.Sprintf("Target context budget: %s", model.ContextWindowLabel)}, hints...)
}

// SeriesLabel returns the display label of a series
func SeriesLabel(series entities.Series) string {
	if label, ok := seriesLabels[series]; ok {
		return label
	}
	return seriesLabels[entities.SeriesFoundation]
}
