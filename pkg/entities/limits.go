package entities

// Platform and product limits.
const (
	MaxQuestions    = 5
	MaxOutcomeRoles = 2

	MaxPanelTicketTypes   = 25
	MaxPanelButtonsPerRow = 5
	MaxPanelSelectOptions = 25
	MaxPanelLabelLength   = 80

	ShortAnswerMaxLength     = 100
	ParagraphAnswerMaxLength = 1000
	ModalTextMaxLength       = 45

	MaxChannelNameLength     = 90
	MaxApplicationNameLength = 100

	DefaultTicketLimit = 3
	MinTicketLimit     = 1
	MaxTicketLimit     = 10

	MaxAutoCloseHours = 720

	DefaultCooldownHours = 24
	MaxCooldownHours     = 720

	MinRating = 1
	MaxRating = 5
)
