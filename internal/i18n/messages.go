// Package i18n holds the user-facing message catalog.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

var (
	Vietnamese = language.Vietnamese
	English    = language.English

	// Supported lists catalog languages; the first entry is the default.
	Supported = []language.Tag{Vietnamese, English}

	matcher = language.NewMatcher(Supported)
)

// Message codes shared with the workflow failure codes and API errors.
const (
	ScriptFailed     = "script_failed"
	ImageFailed      = "image_failed"
	ImageNotFound    = "image_not_found"
	ProviderTimeout  = "provider_timeout"
	ValidationFailed = "validation_failed"
	WorkflowBusy     = "workflow_busy"
	SessionNotFound  = "session_not_found"
	ImageMissing     = "image_missing"
	PayloadTooLarge  = "payload_too_large"
	RateLimited      = "rate_limited"
	InternalError    = "internal_error"
)

var catalog = map[string]map[language.Tag]string{
	ScriptFailed: {
		Vietnamese: "Đã có lỗi xảy ra khi tạo kịch bản. Hãy thử lại sau!",
		English:    "Something went wrong while writing the script. Please try again later!",
	},
	ImageFailed: {
		Vietnamese: "Lỗi khi tạo hình ảnh. Vui lòng kiểm tra API Key hoặc thử lại.",
		English:    "Image generation failed. Please check the API key or try again.",
	},
	ImageNotFound: {
		Vietnamese: "Không tìm thấy dữ liệu ảnh trong phản hồi. Vui lòng kiểm tra API Key hoặc trạng thái dịch vụ AI.",
		English:    "The response contained no image data. Please check the API key or the AI provider status.",
	},
	ProviderTimeout: {
		Vietnamese: "Dịch vụ AI phản hồi quá lâu. Hãy thử lại sau!",
		English:    "The AI provider took too long to respond. Please try again later!",
	},
	ValidationFailed: {
		Vietnamese: "Dữ liệu không hợp lệ.",
		English:    "The request is invalid.",
	},
	WorkflowBusy: {
		Vietnamese: "Đang xử lý yêu cầu trước đó. Vui lòng đợi.",
		English:    "A previous request is still running. Please wait.",
	},
	SessionNotFound: {
		Vietnamese: "Không tìm thấy phiên làm việc.",
		English:    "Session not found.",
	},
	ImageMissing: {
		Vietnamese: "Không tìm thấy hình ảnh.",
		English:    "Image not found.",
	},
	PayloadTooLarge: {
		Vietnamese: "Ảnh tham chiếu quá lớn.",
		English:    "The reference image is too large.",
	},
	RateLimited: {
		Vietnamese: "Quá nhiều yêu cầu. Vui lòng thử lại sau.",
		English:    "Too many requests. Please try again later.",
	},
	InternalError: {
		Vietnamese: "Lỗi hệ thống.",
		English:    "Internal error.",
	},
}

// Match picks the best supported language for the given preferences, which
// may be tags ("vi", "en-US") or raw Accept-Language headers.
func Match(preferences ...string) language.Tag {
	tag, _ := Resolve(preferences...)
	return tag
}

// Resolve is Match that also reports whether any preference matched. When
// none did the default language is returned with false.
func Resolve(preferences ...string) (language.Tag, bool) {
	var tags []language.Tag
	for _, pref := range preferences {
		pref = strings.TrimSpace(pref)
		if pref == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(pref)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return Supported[0], false
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Supported[0], false
	}
	return Supported[idx], true
}

// Message returns the text for code in lang, falling back to the default
// language and finally to the code itself.
func Message(code string, lang language.Tag) string {
	entries, ok := catalog[code]
	if !ok {
		return code
	}
	base, _ := lang.Base()
	for tag, msg := range entries {
		if b, _ := tag.Base(); b == base {
			return msg
		}
	}
	return entries[Supported[0]]
}
