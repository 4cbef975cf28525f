package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// DefaultLocale is the fallback locale for localized fields.
const DefaultLocale = "no"

// Locales lists the locales the site serves content in.
var Locales = []string{"no", "en"}

// LocalizedText holds per-locale values for a single text field. It is
// persisted as a JSON object column, e.g. {"no":"Gudstjeneste","en":"Service"}.
type LocalizedText map[string]string

// NewLocalizedText fills every given locale slot with the same value.
func NewLocalizedText(value string, locales []string) LocalizedText {
	lt := make(LocalizedText, len(locales))
	for _, loc := range locales {
		lt[loc] = value
	}
	return lt
}

// Resolve returns the value for the requested locale, falling back to the
// default locale, then to any non-empty value.
func (lt LocalizedText) Resolve(locale string) string {
	if lt == nil {
		return ""
	}
	if v, ok := lt[locale]; ok && v != "" {
		return v
	}
	if v, ok := lt[DefaultLocale]; ok && v != "" {
		return v
	}
	for _, v := range lt {
		if v != "" {
			return v
		}
	}
	return ""
}

// Value implements driver.Valuer, marshalling to a JSON object.
func (lt LocalizedText) Value() (driver.Value, error) {
	if lt == nil {
		return "{}", nil
	}
	data, err := json.Marshal(lt)
	if err != nil {
		return nil, fmt.Errorf("marshal localized text: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner, accepting JSON text or bytes.
func (lt *LocalizedText) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*lt = LocalizedText{}
		return nil
	case string:
		return lt.unmarshal([]byte(v))
	case []byte:
		return lt.unmarshal(v)
	default:
		return fmt.Errorf("scan localized text: unsupported type %T", src)
	}
}

func (lt *LocalizedText) unmarshal(data []byte) error {
	if len(data) == 0 {
		*lt = LocalizedText{}
		return nil
	}
	if err := json.Unmarshal(data, lt); err != nil {
		return fmt.Errorf("unmarshal localized text: %w", err)
	}
	return nil
}
