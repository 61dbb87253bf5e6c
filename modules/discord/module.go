// Package discord validates `discordNotifier` features, which post build
// results to a Discord channel through a webhook.
package discord

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/specialistvlad/pipedef/internal/featurekind"
	"github.com/specialistvlad/pipedef/internal/templates"
)

// KindName is the feature kind tag handled by this module.
const KindName = "discordNotifier"

// Events a notifier can subscribe to.
var Events = []string{"buildStarted", "buildSucceeded", "buildFailed", "buildInterrupted"}

// Module implements the featurekind.Module interface for this package.
type Module struct{}

// Register registers the kind with the feature kind registry.
func (m *Module) Register(r *featurekind.Registry) {
	r.Register(featurekind.Kind{
		Name:        KindName,
		Description: "Posts build results to a Discord webhook.",
		Validate:    Validate,
		Normalize:   Normalize,
	})
}

// Validate checks the webhook credentials and the subscribed events.
func Validate(f templates.Feature) []error {
	errs := featurekind.Require(f, "webhookId", "webhookToken")

	if id := strings.TrimSpace(f.Params["webhookId"]); id != "" && !featurekind.HasReference(id) {
		if _, err := strconv.ParseUint(id, 10, 64); err != nil {
			errs = append(errs, fmt.Errorf("webhookId %q is not a Discord snowflake", id))
		}
	}
	for _, ev := range featurekind.Lines(strings.ReplaceAll(f.Params["events"], ",", "\n")) {
		if !slices.Contains(Events, ev) {
			errs = append(errs, fmt.Errorf("unknown event %q: expected one of %s", ev, strings.Join(Events, ", ")))
		}
	}
	return errs
}

// Normalize adds the `endpoint` param: the webhook execution URL.
func Normalize(f templates.Feature) templates.Feature {
	id := strings.TrimSpace(f.Params["webhookId"])
	token := strings.TrimSpace(f.Params["webhookToken"])
	if id == "" || token == "" {
		return f
	}
	if f.Params == nil {
		f.Params = make(map[string]string)
	}
	f.Params["endpoint"] = discordgo.EndpointWebhookToken(id, token)
	return f
}
