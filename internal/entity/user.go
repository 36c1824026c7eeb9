package entity

import "time"

type User struct {
	ID                string    `db:"id"`
	Email             string    `db:"email"`
	Password          string    `db:"password"`
	HomeLocation      string    `db:"home_location"`
	WorkLocation      string    `db:"work_location"`
	PreferredLanguage string    `db:"preferred_language"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

type UserLoginData struct {
	ID    string
	Email string
}

const DefaultLanguage = "en"

// SupportedLanguages maps the stored language code to the BCP-47 tag used for
// speech recognition and synthesis on the client.
var SupportedLanguages = map[string]string{
	"en": "en-US",
	"es": "es-ES",
	"fr": "fr-FR",
	"de": "de-DE",
	"it": "it-IT",
	"pt": "pt-PT",
	"zh": "zh-CN",
	"ja": "ja-JP",
	"ko": "ko-KR",
	"ar": "ar-SA",
	"hi": "hi-IN",
	"ru": "ru-RU",
}

func IsSupportedLanguage(code string) bool {
	_, ok := SupportedLanguages[code]
	return ok
}
