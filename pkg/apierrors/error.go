package apierrors

import (
	"fmt"

	"tasksmith/pkg/translator"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
)

// JsonErr represents the JSON structure for apierrors.
type JsonErr struct {
	ErrDetails Err `json:"error"`
}

// Err represents the error with a code and message. Kind names the failure
// class when the error came from the domain.
type Err struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// Error implements the error interface for JsonErr.
func (e JsonErr) Error() string {
	if e.ErrDetails.Kind != "" {
		return fmt.Sprintf("Code: %d, Kind: %s, Message: %s", e.ErrDetails.Code, e.ErrDetails.Kind, e.ErrDetails.Message)
	}
	return fmt.Sprintf("Code: %d, Message: %s", e.ErrDetails.Code, e.ErrDetails.Message)
}

// CreateError generates a JsonErr with a translated message.
func CreateError(code int, msgKey string, lang string) JsonErr {
	message := GetTransErrorMsg(msgKey, lang)
	return JsonErr{ErrDetails: Err{Code: code, Message: message}}
}

// CreateKindError is CreateError with the failure kind attached.
func CreateKindError(code int, msgKey string, lang string, kind string) JsonErr {
	err := CreateError(code, msgKey, lang)
	err.ErrDetails.Kind = kind
	return err
}

// GetTransErrorMsg retrieves the translated error message.
func GetTransErrorMsg(msgKey string, lang string) string {
	l := i18n.NewLocalizer(translator.Translator, lang, "en")
	m := i18n.LocalizeConfig{}
	m.MessageID = msgKey
	msg, err := l.Localize(&m)
	if err != nil {
		zap.L().Warn("translation not found", zap.String("lang", lang), zap.String("message_id", msgKey), zap.Error(err))
		return msgKey
	}
	return msg
}
