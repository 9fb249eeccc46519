package models

import (
	"time"

	"meela-intake/intake"
)

// IntakeForm хранит анкету клиента. Одна запись на user_id.
type IntakeForm struct {
	UserID          string    `gorm:"primaryKey;size:64" json:"user_id"`
	FormStep        int       `gorm:"not null;default:1" json:"form_step"`
	Email           string    `json:"email"`
	TherapyForWhom  string    `json:"therapy_for_whom"`
	TherapistGender string    `json:"therapist_gender"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (IntakeForm) TableName() string {
	return "form_data"
}

func NewIntakeForm(userID string, req intake.SaveFormRequest) *IntakeForm {
	return &IntakeForm{
		UserID:          userID,
		FormStep:        req.FormStep,
		Email:           req.Email,
		TherapyForWhom:  req.TherapyForWhom,
		TherapistGender: req.TherapistGender,
	}
}

// LoadResponse переводит запись в ответ /api/load-form. Пустые строки отдаются как null.
func (f *IntakeForm) LoadResponse() intake.LoadFormResponse {
	step := f.FormStep
	return intake.LoadFormResponse{
		UserID:          nullable(f.UserID),
		FormStep:        &step,
		Email:           nullable(f.Email),
		TherapyForWhom:  nullable(f.TherapyForWhom),
		TherapistGender: nullable(f.TherapistGender),
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
