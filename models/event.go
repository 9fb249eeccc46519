package models

const (
	EventFormCreated = "form_created"
	EventFormUpdated = "form_updated"
)

// FormEvent описывает сообщение в топике событий анкет.
type FormEvent struct {
	Event string     `json:"event"`
	Data  IntakeForm `json:"data"`
}
