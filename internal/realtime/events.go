package realtime

// Change-feed event names, published by handlers after each mutation and
// relayed over the per-webinar Redis channel.
const (
	EventInteractionChanged = "interaction_changed"
	EventResponseAdded      = "response_added"
	EventQuestionChanged    = "question_changed"
	EventReactionAdded      = "reaction_added"
	EventParticipantChanged = "participant_changed"
)
