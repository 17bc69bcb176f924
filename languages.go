package lexicache

import (
	"fmt"
	"strings"
)

// Direction is a supported translation direction.
type Direction int

const (
	// EnToZh translates English to Simplified Chinese.
	EnToZh Direction = iota
	// ZhToEn translates Simplified Chinese to English.
	ZhToEn
)

// Language tags as sent to the provider and stored with each record.
const (
	LangEnglish = "en"
	LangChinese = "zh-CN"
)

// Langs returns the (fromLang, toLang) pair for the direction.
func (d Direction) Langs() (string, string) {
	if d == ZhToEn {
		return LangChinese, LangEnglish
	}
	return LangEnglish, LangChinese
}

// String returns the canonical name of the direction ("en-zh" or "zh-en").
func (d Direction) String() string {
	if d == ZhToEn {
		return "zh-en"
	}
	return "en-zh"
}

// ParseDirection parses a direction name.
// Accepted forms: "en-zh", "zh-en", "EN_TO_ZH", "ZH_TO_EN" and langpairs such
// as "en|zh-CN" (case-insensitive).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "en-zh", "en_to_zh", "en|zh-cn", "en|zh":
		return EnToZh, nil
	case "zh-en", "zh_to_en", "zh-cn|en", "zh|en":
		return ZhToEn, nil
	default:
		return EnToZh, fmt.Errorf("unknown direction %q (want en-zh or zh-en)", s)
	}
}

// LanguageNames maps language tags to human-readable names.
var LanguageNames = map[string]string{
	"en":    "English",
	"en-US": "English (United States)",
	"en-GB": "English (United Kingdom)",
	"zh-CN": "Chinese (Simplified)",
	"zh-TW": "Chinese (Traditional)",
}

// GetLanguageName returns the human-readable name for a language tag.
// Falls back to the tag itself if not found.
func GetLanguageName(tag string) string {
	if name, ok := LanguageNames[NormalizeTag(tag)]; ok {
		return name
	}
	return tag
}

// NormalizeTag converts a locale code to the provider's tag format
// (e.g., "zh_cn" → "zh-CN").
func NormalizeTag(tag string) string {
	parts := strings.SplitN(strings.ReplaceAll(tag, "_", "-"), "-", 2)
	base := strings.ToLower(parts[0])
	if len(parts) == 1 {
		return base
	}
	return base + "-" + strings.ToUpper(parts[1])
}
