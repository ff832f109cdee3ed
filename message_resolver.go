package markupmsg

import (
	"strconv"
	"strings"
)

const messageIDPrefix = "_message_"

// MessageResolver handles <ns:message key="..."> tags. With a translation
// for key the tag becomes a MessageComponent; without one it becomes a
// MarkupContainer and renders as written.
type MessageResolver struct {
	enabled bool
}

// NewMessageResolver returns a resolver that declines every tag when
// enabled is false.
func NewMessageResolver(enabled bool) *MessageResolver {
	return &MessageResolver{enabled: enabled}
}

// Enabled reports whether the resolver handles message tags.
func (r *MessageResolver) Enabled() bool { return r.enabled }

// Resolve implements Resolver.
func (r *MessageResolver) Resolve(container *MarkupContainer, stream *MarkupStream, tag *Tag) (bool, error) {
	if !tag.IsMessageTag() || tag.Namespace == "" || tag.Type == TagClose {
		return false, nil
	}
	// The switch is checked after the shape so only real message tags
	// count as declined.
	metrics := container.Engine().metrics
	if !r.enabled {
		metrics.resolved(OutcomeDeclined)
		return false, nil
	}

	key, _ := tag.Attrs.Get("key")
	key = strings.TrimSpace(key)
	if key == "" {
		metrics.resolved(OutcomeMalformed)
		return false, NewMalformedTagError(tag.Pos, tag.QualifiedName(),
			"wrong format of <"+tag.QualifiedName()+" key='xxx'>: attribute 'key' is missing",
			stream.Markup().Source())
	}

	value := container.Localizer().GetString(key, container, "")
	id := messageIDPrefix + strconv.Itoa(container.Page().AutoIndex())
	bodyOnly := container.Settings().StripTags

	var component Component
	outcome := OutcomeTranslated
	if strings.TrimSpace(value) != "" {
		component = NewMessageComponent(id, value, bodyOnly)
	} else {
		component = NewMarkupContainer(id, bodyOnly)
		outcome = OutcomeFallback
	}

	if err := container.AutoAdd(component); err != nil {
		return false, err
	}
	metrics.resolved(outcome)

	log := container.Page().Logger()
	if outcome == OutcomeFallback {
		log.Warn().Str("key", key).Str("id", id).Stringer("locale", container.Locale()).Msg("no message for key, keeping default body")
	} else {
		log.Debug().Str("key", key).Str("id", id).Msg("message resolved")
	}
	return true, nil
}
