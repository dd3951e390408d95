package translator

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

var Translator *i18n.Bundle

type Config struct {
	TranslationFolder  string
	SupportedLanguages []string // files for other languages are skipped; empty loads everything
}

const (
	LanguageFr = "fr"
	LanguageEn = "en"
)

func InitTranslator(cfg Config) {
	Translator = i18n.NewBundle(language.English)
	Translator.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	lstFiles, err := os.ReadDir(cfg.TranslationFolder)
	if err != nil {
		zap.L().Error("failed to list translation folder", zap.String("folder", cfg.TranslationFolder), zap.Error(err))
		return
	}

	for _, f := range lstFiles {
		if f.IsDir() || !isSupported(f.Name(), cfg.SupportedLanguages) {
			continue
		}

		if _, err := Translator.LoadMessageFile(filepath.Join(cfg.TranslationFolder, f.Name())); err != nil {
			zap.L().Warn("failed to load translation file", zap.String("file", f.Name()), zap.Error(err))
		}
	}
}

var matcher = language.NewMatcher([]language.Tag{language.English, language.French})

// ResolveLanguage maps an Accept-Language header onto a supported language,
// falling back to English.
func ResolveLanguage(header string) string {
	if strings.TrimSpace(header) == "" {
		return LanguageEn
	}
	tag, _ := language.MatchStrings(matcher, header)
	base, _ := tag.Base()
	return base.String()
}

func isSupported(fileName string, supported []string) bool {
	if len(supported) == 0 {
		return true
	}
	lang := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	for _, s := range supported {
		if strings.EqualFold(lang, s) {
			return true
		}
	}
	return false
}
