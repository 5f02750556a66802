package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/raushankrgupta/shopbot/logger"
	"github.com/raushankrgupta/shopbot/models"
	apperrors "github.com/raushankrgupta/shopbot/pkg/errors"
)

// Classifier turns chat text into an Intent
type Classifier struct {
	model       Model
	sites       []string
	defaultSite string
	log         *logger.Logger
}

// NewClassifier creates a Classifier. A nil model means every message goes
// through the keyword heuristic.
func NewClassifier(model Model, sites []string, defaultSite string, log *logger.Logger) *Classifier {
	if log == nil {
		log = logger.Default
	}
	return &Classifier{
		model:       model,
		sites:       sites,
		defaultSite: defaultSite,
		log:         log.WithField("component", "intent"),
	}
}

// Classify sends text to the model and decodes its answer. If the model is
// missing or the call fails, the keyword heuristic answers instead. Output
// the model did return but that is not a valid intent yields ErrInvalidIntent.
func (c *Classifier) Classify(ctx context.Context, text string) (models.Intent, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Intent{}, fmt.Errorf("%w: empty message", apperrors.ErrInvalidIntent)
	}

	if c.model == nil {
		return c.fill(Heuristic(text, c.sites, c.defaultSite)), nil
	}

	raw, err := c.model.Generate(ctx, buildPrompt(text, c.sites, c.defaultSite))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return models.Intent{}, err
		}
		c.log.Warn().Err(err).Msg("Model call failed, falling back to keyword rules")
		return c.fill(Heuristic(text, c.sites, c.defaultSite)), nil
	}

	in, err := ParseIntent(raw)
	if err != nil {
		c.log.Debug().Str("raw", raw).Msg("Unparseable model output")
		return models.Intent{}, err
	}
	return c.fill(in), nil
}

// fill applies the default site to tasks that act on one site
func (c *Classifier) fill(in models.Intent) models.Intent {
	switch in.Task {
	case models.TaskSearchProduct, models.TaskLogin, models.TaskViewCart:
		if in.Site == "" {
			in.Site = c.defaultSite
		}
	}
	return in
}
