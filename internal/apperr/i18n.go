package apperr

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// LangParam is the query parameter used to select a language.
const LangParam = "lang"

var supportedTags = []language.Tag{
	language.English,
	language.Korean,
}

var tagMatcher = language.NewMatcher(supportedTags)

func init() {
	en := language.English
	message.SetString(en, "error.AUTH_REQUIRED", "You need to sign in first")
	message.SetString(en, "error.NOT_FOUND", "The requested item could not be found")
	message.SetString(en, "error.NOT_FOUND.user", "User not found")
	message.SetString(en, "error.NOT_FOUND.post", "Post not found")
	message.SetString(en, "error.SELF_REFERENCE_REJECTED", "You cannot follow yourself")
	message.SetString(en, "error.VALIDATION_ERROR", "The request is invalid")
	message.SetString(en, "error.VALIDATION_ERROR.query", "Please enter a search term")
	message.SetString(en, "error.VALIDATION_ERROR.query.max", "The search term is too long")
	message.SetString(en, "error.VALIDATION_ERROR.limit", "The limit is out of range")
	message.SetString(en, "error.VALIDATION_ERROR.type", "Unknown feed type")
	message.SetString(en, "error.VALIDATION_ERROR.id", "Invalid identifier")
	message.SetString(en, "error.UNKNOWN_STORE_ERROR", "Something went wrong, please try again")

	ko := language.Korean
	message.SetString(ko, "error.AUTH_REQUIRED", "로그인이 필요합니다")
	message.SetString(ko, "error.NOT_FOUND", "요청한 항목을 찾을 수 없습니다")
	message.SetString(ko, "error.NOT_FOUND.user", "사용자를 찾을 수 없습니다")
	message.SetString(ko, "error.NOT_FOUND.post", "게시글을 찾을 수 없습니다")
	message.SetString(ko, "error.SELF_REFERENCE_REJECTED", "자기 자신은 팔로우할 수 없습니다")
	message.SetString(ko, "error.VALIDATION_ERROR", "잘못된 요청입니다")
	message.SetString(ko, "error.VALIDATION_ERROR.query", "검색어를 입력해주세요")
	message.SetString(ko, "error.VALIDATION_ERROR.query.max", "검색어가 너무 깁니다")
	message.SetString(ko, "error.VALIDATION_ERROR.limit", "조회 개수가 범위를 벗어났습니다")
	message.SetString(ko, "error.VALIDATION_ERROR.type", "알 수 없는 피드 유형입니다")
	message.SetString(ko, "error.VALIDATION_ERROR.id", "잘못된 식별자입니다")
	message.SetString(ko, "error.UNKNOWN_STORE_ERROR", "처리 중 오류가 발생했습니다")
}

// DefaultTag is used when the request expresses no supported preference.
func DefaultTag() language.Tag {
	return language.English
}

// ResolveTag picks the best supported language for the request.
func ResolveTag(r *http.Request) language.Tag {
	if r == nil {
		return DefaultTag()
	}
	if v := strings.TrimSpace(r.URL.Query().Get(LangParam)); v != "" {
		if tag, err := language.Parse(v); err == nil {
			return match(tag)
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			return match(tags...)
		}
	}
	return DefaultTag()
}

func match(tags ...language.Tag) language.Tag {
	_, idx, conf := tagMatcher.Match(tags...)
	if conf == language.No {
		return DefaultTag()
	}
	return supportedTags[idx]
}

// Localize renders the user-facing message for err in the given language.
// The most specific catalog entry wins: code + kind/field (+ rule), then code.
func Localize(tag language.Tag, err error) string {
	p := message.NewPrinter(tag)
	code := CodeOf(err)
	generic := p.Sprintf(message.Key("error."+string(code), string(code)))

	var e *Error
	if !errors.As(err, &e) {
		return generic
	}
	for _, k := range []string{"Kind", "Field"} {
		v := e.Metadata[k]
		if v == "" {
			continue
		}
		// "query.max" falls back to "query", then to the code.
		msg := generic
		parts := strings.Split(v, ".")
		for i := 1; i <= len(parts); i++ {
			msg = p.Sprintf(message.Key("error."+string(code)+"."+strings.Join(parts[:i], "."), msg))
		}
		return msg
	}
	return generic
}
