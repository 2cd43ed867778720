package handler

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/sakif/aurabetz/internal/flow"
)

// noticeCookie carries a notice across a redirect. It is read once by the
// next page render and cleared.
const noticeCookie = "notice"

func setNotice(w http.ResponseWriter, n flow.Notice) {
	if n.Empty() {
		return
	}
	raw, err := json.Marshal(n)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     noticeCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popNotice returns the pending notice, if any, and clears the cookie.
// A cookie that does not decode is dropped silently.
func popNotice(w http.ResponseWriter, r *http.Request) flow.Notice {
	c, err := r.Cookie(noticeCookie)
	if err != nil {
		return flow.Notice{}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     noticeCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return flow.Notice{}
	}
	var n flow.Notice
	if err := json.Unmarshal(raw, &n); err != nil {
		return flow.Notice{}
	}
	switch n.Kind {
	case flow.NoticeInfo, flow.NoticeSuccess, flow.NoticeError:
		return n
	}
	return flow.Notice{}
}
