package i18n_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-contacts/internal/auth"
	"github.com/tartampluch/go-contacts/internal/config"
	"github.com/tartampluch/go-contacts/internal/engine"
	"github.com/tartampluch/go-contacts/internal/i18n"
)

// translationKeys lists every TKey constant of the config package.
var translationKeys = []string{
	config.TKeyWinPicker,
	config.TKeyWinSettings,
	config.TKeySearchPrompt,
	config.TKeyBtnCancel,
	config.TKeyBtnRetry,
	config.TKeyBtnSave,
	config.TKeyBtnSettings,
	config.TKeyBtnBrowse,
	config.TKeyLoading,
	config.TKeyEmptyAll,
	config.TKeyEmptyMatch,
	config.TKeyResultCount,
	config.TKeyPromptTitle,
	config.TKeyPromptBody,
	config.TKeyErrAccessDenied,
	config.TKeyErrLoadFailed,
	config.TKeyStatusNotDet,
	config.TKeyStatusAuth,
	config.TKeyStatusDenied,
	config.TKeyLblSource,
	config.TKeyLblPath,
	config.TKeyLblURL,
	config.TKeyLblUser,
	config.TKeyLblPass,
	config.TKeyLblLocale,
	config.TKeyLblDebounce,
	config.TKeyModeLocal,
	config.TKeyModeWeb,
	config.TKeyModeAddressBook,
	config.TKeyPhoneUnlabeled,
	config.TKeyColName,
	config.TKeyColPhone,
	config.TKeyColLabel,
	config.TKeyLblAccess,
}

// TestI18nIntegrity ensures every locale file defines every translation key.
func TestI18nIntegrity(t *testing.T) {
	for _, lang := range config.SupportedLanguages {
		t.Run(lang, func(t *testing.T) {
			content, err := os.ReadFile(filepath.Join("locales", "active."+lang+".json"))
			require.NoError(t, err, "locale file must exist")

			var messages map[string]any
			require.NoError(t, json.Unmarshal(content, &messages), "JSON must be valid")

			for _, key := range translationKeys {
				assert.Containsf(t, messages, key, "key %q missing in %s", key, lang)
			}
			for key := range messages {
				if !strings.HasPrefix(key, "_") {
					assert.Containsf(t, translationKeys, key, "orphan key %q in %s", key, lang)
				}
			}
		})
	}
}

func TestNew_LoadsEmbeddedLocales(t *testing.T) {
	tr := i18n.New("en")
	assert.ElementsMatch(t, config.SupportedLanguages, tr.Languages())
}

func TestMsg(t *testing.T) {
	tests := []struct {
		lang string
		want string
	}{
		{"en", "No matching contacts"},
		{"fr", "Aucun contact correspondant"},
		{"fr_FR.UTF-8", "Aucun contact correspondant"},
		{"zh-Hans-CN", "没有匹配的联系人"},
		{"de", "No matching contacts"},
		{"", "No matching contacts"},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			assert.Equal(t, tt.want, i18n.New(tt.lang).Msg(config.TKeyEmptyMatch))
		})
	}
}

func TestMsg_MissingKeyFallsBackToKey(t *testing.T) {
	assert.Equal(t, "no_such_key", i18n.New("en").Msg("no_such_key"))
}

func TestPlural(t *testing.T) {
	tr := i18n.New("en")
	assert.Equal(t, "1 contact", tr.Plural(config.TKeyResultCount, 1))
	assert.Equal(t, "3 contacts", tr.Plural(config.TKeyResultCount, 3))

	tr.SetLanguage("zh")
	assert.Equal(t, "3 位联系人", tr.Plural(config.TKeyResultCount, 3))
}

func TestErrorMessage(t *testing.T) {
	tr := i18n.New("en")

	assert.Equal(t, config.FallbackAccessDenied, tr.ErrorMessage(engine.ErrAccessDenied))

	err := fmt.Errorf("%w: %w", engine.ErrSourceUnavailable, errors.New("disk gone"))
	assert.Equal(t, "Failed to load contacts: contact source unavailable: disk gone", tr.ErrorMessage(err))

	tr.SetLanguage("fr")
	assert.Equal(t, "fr", tr.Lang())
	assert.Contains(t, tr.ErrorMessage(engine.ErrAccessDenied), "refusé")
}

func TestStatusLabel(t *testing.T) {
	tr := i18n.New("en")
	assert.Equal(t, "Authorized", tr.StatusLabel(auth.StatusAuthorized))
	assert.Equal(t, "Denied", tr.StatusLabel(auth.StatusRestricted))
	assert.Equal(t, "Not determined", tr.StatusLabel(auth.StatusNotDetermined))
}

func TestTranslator_ConcurrentLanguageSwitch(t *testing.T) {
	tr := i18n.New("en")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tr.SetLanguage(config.SupportedLanguages[i%len(config.SupportedLanguages)])
		}()
		go func() {
			defer wg.Done()
			assert.NotEmpty(t, tr.Msg(config.TKeyBtnRetry))
		}()
	}
	wg.Wait()
}
