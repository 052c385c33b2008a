package service

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

const csrfTTL = 12 * time.Hour

// movieForm is the search form posted to /add
type movieForm struct {
	Movie     string `json:"movie" validate:"required,max=250"`
	CSRFToken string `json:"csrf_token"`
}

// ratingForm is the review form posted to /edit
type ratingForm struct {
	Rating    string `json:"rating" validate:"required,numeric"`
	Review    string `json:"review" validate:"required,max=1000"`
	CSRFToken string `json:"csrf_token"`
}

var fieldLabels = map[string]string{
	"Movie":  "Movie Title",
	"Rating": "Your Rating",
	"Review": "Your Review",
}

// formValidator checks submitted forms, including their CSRF token.
type formValidator struct {
	validate *validator.Validate
	key      []byte
	now      func() time.Time
}

func newFormValidator(secret string) (*formValidator, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate form key: %w", err)
		}
	}
	return &formValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		key:      key,
		now:      time.Now,
	}, nil
}

// Token issues a CSRF token: base64(nonce | issued-at | hmac).
func (f *formValidator) Token() string {
	payload := make([]byte, 16+8)
	if _, err := rand.Read(payload[:16]); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	binary.BigEndian.PutUint64(payload[16:], uint64(f.now().Unix()))
	return base64.RawURLEncoding.EncodeToString(append(payload, f.sign(payload)...))
}

func (f *formValidator) checkToken(token string) error {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) != 16+8+sha256.Size {
		return errors.New("malformed token")
	}
	payload, mac := raw[:24], raw[24:]
	if !hmac.Equal(mac, f.sign(payload)) {
		return errors.New("bad signature")
	}
	issued := time.Unix(int64(binary.BigEndian.Uint64(payload[16:])), 0)
	if f.now().Sub(issued) > csrfTTL {
		return errors.New("expired token")
	}
	return nil
}

func (f *formValidator) sign(payload []byte) []byte {
	h := hmac.New(sha256.New, f.key)
	h.Write(payload)
	return h.Sum(nil)
}

// Check returns user-facing messages; an empty slice means the form is valid.
func (f *formValidator) Check(form interface{}, token string) []string {
	var messages []string
	if err := f.checkToken(token); err != nil {
		messages = append(messages, "The form has expired, please submit it again.")
	}

	err := f.validate.Struct(form)
	if err == nil {
		return messages
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return append(messages, err.Error())
	}
	for _, fe := range fieldErrs {
		messages = append(messages, translate(fe))
	}
	return messages
}

func translate(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "numeric":
		return label + " must be a number, e.g. 7.5."
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid.", label)
	}
}
