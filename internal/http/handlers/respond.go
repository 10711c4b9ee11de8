package handlers

import (
	"encoding/json"
	"net/http"

	"brandmind/internal/middleware"
)

// messages is the bilingual catalog for the common error codes. Unlisted
// codes fall back to the code itself.
var messages = map[string]map[string]string{
	"bad_request": {
		"en": "invalid request payload",
		"ar": "طلب غير صالح",
	},
	"invalid_credentials": {
		"en": "invalid email or password",
		"ar": "البريد الإلكتروني أو كلمة المرور غير صحيحة",
	},
	"account_inactive": {
		"en": "account is pending activation",
		"ar": "الحساب بانتظار التفعيل",
	},
	"email_exists": {
		"en": "email is already registered",
		"ar": "البريد الإلكتروني مسجل مسبقا",
	},
	"weak_password": {
		"en": "password must be at least 8 characters with upper, lower and digit",
		"ar": "كلمة المرور يجب أن تكون 8 أحرف على الأقل وتحتوي حرفا كبيرا وصغيرا ورقما",
	},
	"invalid_email": {
		"en": "invalid email address",
		"ar": "بريد إلكتروني غير صالح",
	},
	"invalid_refresh_token": {
		"en": "refresh token is invalid or revoked",
		"ar": "رمز التحديث غير صالح أو ملغى",
	},
	"not_found": {
		"en": "resource not found",
		"ar": "المورد غير موجود",
	},
	"forbidden": {
		"en": "insufficient permissions",
		"ar": "صلاحيات غير كافية",
	},
	"invalid_plan": {
		"en": "unknown plan",
		"ar": "خطة غير معروفة",
	},
	"no_api_key": {
		"en": "no AI credential configured for this account",
		"ar": "لا يوجد مفتاح ذكاء اصطناعي مهيأ لهذا الحساب",
	},
	"upstream_error": {
		"en": "AI service request failed",
		"ar": "فشل طلب خدمة الذكاء الاصطناعي",
	},
	"internal": {
		"en": "internal server error",
		"ar": "خطأ داخلي في الخادم",
	},
}

func localized(code, locale string) string {
	byLocale, ok := messages[code]
	if !ok {
		return code
	}
	if msg, ok := byLocale[locale]; ok {
		return msg
	}
	return byLocale["en"]
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// success writes the standard envelope around data.
func (a *App) success(w http.ResponseWriter, code int, data any) {
	a.json(w, code, map[string]any{"success": true, "data": data})
}

// successMsg is success with a human-readable message alongside the data.
func (a *App) successMsg(w http.ResponseWriter, code int, message string, data any) {
	body := map[string]any{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	a.json(w, code, body)
}

// error writes the failure envelope with the message localized per the
// request's negotiated locale.
func (a *App) error(w http.ResponseWriter, r *http.Request, status int, code string) {
	locale := middleware.LocaleFromContext(r.Context())
	a.json(w, status, map[string]any{
		"success": false,
		"error":   code,
		"message": localized(code, locale),
	})
}

// errorMsg writes the failure envelope with an explicit message.
func (a *App) errorMsg(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	})
}
