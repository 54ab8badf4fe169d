package core

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "only alphanumeric characters and underscores are allowed"
	alphaNumUnderRegex = regexp.MustCompile(`^[\w\s]+$`)

	timeRangeTag   = "timerange"
	timeRangeText  = "must be a time range in the form \"HH:MM - HH:MM\""
	timeRangeRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d\s*-\s*([01]\d|2[0-3]):[0-5]\d$`)

	dayNameTag  = "dayname"
	dayNameText = "must be a valid day name"

	latitudeTag   = "lat"
	latitudeText  = "must be a valid latitude"
	longitudeTag  = "lon"
	longitudeText = "must be a valid longitude"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"

	// DayNames are the school week day names, Monday first.
	DayNames = []string{"Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu", "Minggu"}
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	RegisterCustomTranslation(validate, translator, alphaNumUnderTag, alphaNumUnderText)

	_ = validate.RegisterValidation(timeRangeTag, timeRangeValidation)
	RegisterCustomTranslation(validate, translator, timeRangeTag, timeRangeText)

	_ = validate.RegisterValidation(dayNameTag, dayNameValidation)
	RegisterCustomTranslation(validate, translator, dayNameTag, dayNameText)

	_ = validate.RegisterValidation(latitudeTag, latitudeValidation)
	RegisterCustomTranslation(validate, translator, latitudeTag, latitudeText)
	_ = validate.RegisterValidation(longitudeTag, longitudeValidation)
	RegisterCustomTranslation(validate, translator, longitudeTag, longitudeText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// alphaNumUnderValidation only allows alphanumeric characters and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

// timeRangeValidation allows "HH:MM - HH:MM" teaching slot ranges.
func timeRangeValidation(fl validator.FieldLevel) bool {
	return timeRangeRegex.MatchString(fl.Field().String())
}

// dayNameValidation allows school week day names only.
func dayNameValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, day := range DayNames {
		if val == day {
			return true
		}
	}
	return false
}

func latitudeValidation(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90 && lat <= 90
}

func longitudeValidation(fl validator.FieldLevel) bool {
	lon := fl.Field().Float()
	return lon >= -180 && lon <= 180
}
