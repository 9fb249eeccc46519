package intake

import "github.com/samber/lo"

// Field называет одно из трёх полей анкеты.
type Field string

const (
	FieldEmail           Field = "email"
	FieldTherapyForWhom  Field = "therapyForWhom"
	FieldTherapistGender Field = "therapistGender"
)

// Значения выпадающих списков шагов 2 и 3.
const (
	TherapyIndividual = "individual"
	TherapyCouple     = "couple"
	TherapyFamily     = "family"

	GenderMale         = "male"
	GenderFemale       = "female"
	GenderNonBinary    = "non-binary"
	GenderNoPreference = "no-preference"
)

type Option struct {
	Value string
	Label string
}

var TherapyForWhomOptions = []Option{
	{Value: TherapyIndividual, Label: "Just me"},
	{Value: TherapyCouple, Label: "Me and my partner"},
	{Value: TherapyFamily, Label: "My family"},
}

var TherapistGenderOptions = []Option{
	{Value: GenderMale, Label: "Man"},
	{Value: GenderFemale, Label: "Woman"},
	{Value: GenderNonBinary, Label: "Non-binary"},
	{Value: GenderNoPreference, Label: "No Preference"},
}

// FormFields хранит значения анкеты. Незаполненное поле равно пустой строке.
type FormFields struct {
	Email           string
	TherapyForWhom  string
	TherapistGender string
}

func (f FormFields) Get(field Field) string {
	switch field {
	case FieldEmail:
		return f.Email
	case FieldTherapyForWhom:
		return f.TherapyForWhom
	case FieldTherapistGender:
		return f.TherapistGender
	}
	return ""
}

// With возвращает копию с заменённым полем. Второе значение false, если имя поля неизвестно.
func (f FormFields) With(field Field, value string) (FormFields, bool) {
	switch field {
	case FieldEmail:
		f.Email = value
	case FieldTherapyForWhom:
		f.TherapyForWhom = value
	case FieldTherapistGender:
		f.TherapistGender = value
	default:
		return f, false
	}
	return f, true
}

func (f FormFields) IsEmpty() bool {
	return !lo.ContainsBy([]string{f.Email, f.TherapyForWhom, f.TherapistGender}, func(v string) bool {
		return v != ""
	})
}

// StepField возвращает поле, которое заполняется на данном шаге.
func StepField(step int) Field {
	switch step {
	case 2:
		return FieldTherapyForWhom
	case 3:
		return FieldTherapistGender
	default:
		return FieldEmail
	}
}

// StepOptions возвращает список вариантов для шага. Для шага 1 (email) возвращает nil.
func StepOptions(step int) []Option {
	switch step {
	case 2:
		return TherapyForWhomOptions
	case 3:
		return TherapistGenderOptions
	}
	return nil
}
