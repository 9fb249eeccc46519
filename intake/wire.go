package intake

// Тела запросов и ответов /api/save-form и /api/load-form.
// Теги binding проверяет gin на сервере, теги validate проверяет HTTPBackend на клиенте.

type SaveFormRequest struct {
	UserID          *string `json:"user_id"`
	FormStep        int     `json:"form_step" binding:"min=1,max=3"`
	Email           string  `json:"email" binding:"max=254"`
	TherapyForWhom  string  `json:"therapy_for_whom" binding:"max=64"`
	TherapistGender string  `json:"therapist_gender" binding:"max=64"`
}

type SaveFormResponse struct {
	UserID string `json:"user_id" validate:"required"`
}

type LoadFormRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type LoadFormResponse struct {
	UserID          *string `json:"user_id"`
	FormStep        *int    `json:"form_step" validate:"omitempty,min=0,max=3"`
	Email           *string `json:"email"`
	TherapyForWhom  *string `json:"therapy_for_whom"`
	TherapistGender *string `json:"therapist_gender"`
}

func newSaveFormRequest(sessionID *string, step int, fields FormFields) SaveFormRequest {
	return SaveFormRequest{
		UserID:          sessionID,
		FormStep:        step,
		Email:           fields.Email,
		TherapyForWhom:  fields.TherapyForWhom,
		TherapistGender: fields.TherapistGender,
	}
}

// Fields возвращает значения ответа; отсутствующие поля становятся пустыми строками.
func (r LoadFormResponse) Fields() FormFields {
	return FormFields{
		Email:           deref(r.Email),
		TherapyForWhom:  deref(r.TherapyForWhom),
		TherapistGender: deref(r.TherapistGender),
	}
}

// Step возвращает сохранённый шаг, 1 если шаг не задан или равен нулю.
func (r LoadFormResponse) Step() int {
	if r.FormStep == nil || *r.FormStep == 0 {
		return FirstStep
	}
	return clampStep(*r.FormStep)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
