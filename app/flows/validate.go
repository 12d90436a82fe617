package flows

import (
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/ridebot/app/domain"
)

const isoDateLayout = "2006-01-02"

// commentSkipSentinel maps to an absent comment/description.
const commentSkipSentinel = "-"

// isoDate accepts only strict ISO calendar dates.
func isoDate(input string) (interface{}, error) {
	t, err := time.Parse(isoDateLayout, strings.TrimSpace(input))
	if err != nil {
		return nil, domain.Validationf("Wrong date format. Use YYYY-MM-DD or send /cancel.")
	}
	return t, nil
}

// nonNegativeInt accepts whole numbers including zero.
func nonNegativeInt(msg string) Validator {
	return func(input string) (interface{}, error) {
		n, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil || n < 0 {
			return nil, &domain.ValidationError{Msg: msg}
		}
		return n, nil
	}
}

// positiveInt accepts whole numbers greater than zero.
func positiveInt(msg string) Validator {
	return func(input string) (interface{}, error) {
		n, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil || n <= 0 {
			return nil, &domain.ValidationError{Msg: msg}
		}
		return n, nil
	}
}

// optionalText maps the skip sentinel to an empty value.
func optionalText(input string) (interface{}, error) {
	text := strings.TrimSpace(input)
	if text == commentSkipSentinel {
		text = ""
	}
	return text, nil
}
